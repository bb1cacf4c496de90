package distmr

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging sets the global logrus level from a level name (one of
// logrus's parseable strings: "debug", "info", "warn", "error", "fatal").
// An empty or unrecognized level falls back to Info.
func ConfigureLogging(level string) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
