package alert

// Repository retains the most recent alerts, newest first.
type Repository interface {
	Add(a Alert)
	Recent(limit int) []Alert
	Len() int
	Capacity() int
}
