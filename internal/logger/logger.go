package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"objectsrecognition/internal/config"
)

// Level file names, also accepted by CleanLogs.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to rotated files and stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	logDir     string
	files      map[string]*lumberjack.Logger
	mu         sync.Mutex
}

// NewLogger creates a Logger writing one rotated file per level under the
// configured log directory.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}

	logger.setupLoggers()
	return logger
}

// New returns a Logger that writes every level to w. Used by tests and CLIs.
func New(w io.Writer) *Logger {
	return &Logger{
		infoLog:    log.New(w, "INFO    ", log.Ldate|log.Ltime),
		warningLog: log.New(w, "WARNING ", log.Ldate|log.Ltime),
		errorLog:   log.New(w, "ERROR   ", log.Ldate|log.Ltime),
		files:      make(map[string]*lumberjack.Logger),
	}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return New(io.Discard)
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers() {
	infoWriter := io.MultiWriter(os.Stdout, l.openLogFile(InfoFile))
	warningWriter := io.MultiWriter(os.Stdout, l.openLogFile(WarningFile))
	errorWriter := io.MultiWriter(os.Stderr, l.openLogFile(ErrorFile))

	l.infoLog = log.New(infoWriter, "INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warningWriter, "WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorWriter, "ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
}

// openLogFile returns a size-rotated writer for one level file.
func (l *Logger) openLogFile(name string) io.Writer {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, name),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	l.files[name] = file
	return file
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Output(2, fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// Dir returns the directory holding the level files, empty for writer-backed loggers.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	file, ok := l.files[fileName]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown log file: %s", fileName)
	}

	// Rotate moves the current content into a backup and reopens an empty file.
	if err := file.Rotate(); err != nil {
		l.Error("Error rotating log file %s: %v", fileName, err)
		return err
	}

	l.Info("Log file %s has been cleared.", fileName)
	return nil
}

// Close flushes and closes every level file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, file := range l.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
