package usecase

// workerLimit bounds a fan-out proportionally to its item count, capped
// at 4 concurrent workers.
func workerLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > 4 {
		return 4
	}
	return n
}
