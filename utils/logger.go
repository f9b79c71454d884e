package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = newLogger(os.Stdout, logrus.InfoLevel)
	ErrorLogger = newLogger(os.Stderr, logrus.WarnLevel)
)

func newLogger(out *os.File, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(level)
	return l
}

// InitLogger menyiapkan logger info (stdout) dan error (stderr).
// Level yang tidak dikenal jatuh ke info.
func InitLogger(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	InfoLogger = newLogger(os.Stdout, lvl)

	// ErrorLogger tetap menampilkan warning (event keamanan) walau level info dinaikkan
	errLvl := logrus.WarnLevel
	if lvl > errLvl {
		errLvl = lvl
	}
	ErrorLogger = newLogger(os.Stderr, errLvl)
}
