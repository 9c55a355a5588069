package core

// Logger logs messages and errors.
// args may hold errors, extra data maps, or the user.User the event relates to.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Critical(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
