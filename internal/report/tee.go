package report

import (
	"fmt"
	"io"
	"os"
)

// Tee opens the log file and returns a writer that duplicates
// everything to stdout and the file, plus a close func for shutdown.
func Tee(logPath string) (io.Writer, func() error, error) {
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("report: open log %s: %w", logPath, err)
	}
	return io.MultiWriter(os.Stdout, f), f.Close, nil
}
