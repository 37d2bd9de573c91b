package core

// Logger is any leveled logger that can report to an error tracker.
// Extra args may carry an error, a user.User (reported as the acting person)
// or arbitrary context maps.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
