package config

import (
    "os"

    "github.com/sirupsen/logrus"
)

// ConfigureLogging sets up the process-wide logrus logger: JSON lines in
// production, coloured text elsewhere.  An unknown LOG_LEVEL falls back to
// info.
func ConfigureLogging(cfg Config) {
    if cfg.IsProduction() {
        logrus.SetFormatter(&logrus.JSONFormatter{})
    } else {
        logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
    }
    logrus.SetOutput(os.Stdout)

    lvl, err := logrus.ParseLevel(cfg.LogLevel)
    if err != nil {
        logrus.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
        lvl = logrus.InfoLevel
    }
    logrus.SetLevel(lvl)
}
