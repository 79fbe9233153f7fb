package main

// retryBudget is the number of attempts retryInterrupted makes per call.
const retryBudget = 8

// retryInterrupted invokes f until it completes without being interrupted,
// making at most budget attempts. Any other failure is returned at once.
// When the budget runs out the last interruption error is returned as is.
func retryInterrupted[T any](logger Logger, op string, budget int, f func() (T, error)) (T, error) {
	logf(logger, LevelDebug, "%s: calling", op)
	var (
		v   T
		err error
	)
	for attempt := 1; ; attempt++ {
		v, err = f()
		if err == nil || !isInterrupted(err) {
			break
		}
		logf(logger, LevelDebug, "%s: interrupted (attempt %d/%d)", op, attempt, budget)
		if attempt >= budget {
			break
		}
	}
	logf(logger, LevelDebug, "%s: done, err=%v", op, err)
	return v, err
}
