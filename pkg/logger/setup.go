package logger

import "strings"

// LevelFromName maps the configured log level name to a LogLevel. The service
// accepts Python-style names (DEBUG, INFO, WARNING, ERROR, CRITICAL) for
// compatibility with existing deployments; CRITICAL has no charm equivalent
// and maps to error.
func LevelFromName(name string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARNING", "WARN":
		return WarnLevel
	case "ERROR", "CRITICAL":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// SetupLogger initializes the process-wide logger from the configured level
// name.
func SetupLogger(levelName string, logJSON bool) {
	Init(&Config{
		Level:      LevelFromName(levelName),
		JSON:       logJSON,
		TimeFormat: "15:04:05",
	})
}
