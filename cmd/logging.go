package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logLevel  string
	logFormat string
	logFile   string
)

func addLogFlags(c *cobra.Command) {
	c.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	c.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	c.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr; the file is rotated by size")
}

func setupLogging() error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	switch logFormat {
	case "text":
		formatter := new(log.TextFormatter)
		formatter.TimestampFormat = "02-01-2006 15:04:05"
		formatter.FullTimestamp = true
		log.SetFormatter(formatter)
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", logFormat)
	}

	if logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}
	return nil
}
