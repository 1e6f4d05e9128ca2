package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultLogDir = "logs"

type Options struct {
	// ServerType selects the log file name: admin.log or proxy.log.
	ServerType string
	Dir        string
	Level      string
	Console    bool
}

func OptionsFromEnv(serverType string) Options {
	return Options{
		ServerType: serverType,
		Dir:        os.Getenv("LOG_DIR"),
		Level:      os.Getenv("LOG_LEVEL"),
		Console:    os.Getenv("LOG_CONSOLE") != "false",
	}
}

// NewLogger builds the JSON logger used by every component. The returned
// close function flushes buffered file output.
func NewLogger(opts Options) (*logrus.Logger, func(), error) {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(parseLevel(opts.Level))

	dir := opts.Dir
	if dir == "" {
		dir = defaultLogDir
	}
	name := "proxy.log"
	if opts.ServerType == "admin" {
		name = "admin.log"
	}
	logFile := filepath.Join(filepath.Clean(dir), name)
	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	asyncWriter, err := NewAsyncFileWriter(logFile, 32*1024)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}
	logger.SetOutput(asyncWriter)

	if opts.Console {
		logger.AddHook(NewConsoleHook(os.Stdout))
	}

	return logger, asyncWriter.Close, nil
}

func parseLevel(level string) logrus.Level {
	if level == "" {
		return logrus.InfoLevel
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
