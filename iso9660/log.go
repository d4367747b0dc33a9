package iso9660

import "github.com/sirupsen/logrus"

// Logger is the collaborator interface the core logs non-fatal deviations through. It
// is satisfied by *logrus.Logger and *logrus.Entry. Building takes it from the explicit
// FormatOptions.Logger field; a Reader holds its own unexported logger, set to the
// logrus standard logger.
type Logger interface {
	Warnf(format string, args ...interface{})
	Tracef(format string, args ...interface{})
}

// defaultLogger returns the package-level logrus logger, used when FormatOptions.Logger
// is nil and by every Reader.
func defaultLogger() Logger {
	return logrus.StandardLogger()
}
