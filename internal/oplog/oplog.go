// Package oplog records an audit trail of watermark operations as daily CSV
// files.
//
// One row per operation: timestamp, operation, description, status, error,
// processing time and an extra-info JSON blob. Recording failures are
// logged and swallowed; the audit trail must never fail the operation it
// describes.
package oplog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var header = []string{
	"timestamp", "operation", "description", "status", "error", "processing_ms", "extra_info",
}

// Logger appends operation rows to a daily CSV file.
type Logger struct {
	mu  sync.Mutex
	dir string
}

// New creates the log directory if needed and returns a Logger.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &Logger{dir: dir}, nil
}

// Record appends one operation row. A nil opErr records status ok.
func (l *Logger) Record(operation, description string, opErr error, elapsed time.Duration, extra map[string]interface{}) {
	status := "ok"
	errText := ""
	if opErr != nil {
		status = "error"
		errText = opErr.Error()
	}
	extraJSON := ""
	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			extraJSON = string(b)
		}
	}
	row := []string{
		time.Now().Format("2006-01-02 15:04:05.000"),
		operation,
		description,
		status,
		errText,
		fmt.Sprintf("%.2f", float64(elapsed.Microseconds())/1000),
		extraJSON,
	}
	if err := l.append(row); err != nil {
		log.Printf("oplog: failed to record %s: %v", operation, err)
	}
}

func (l *Logger) append(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.dir, "watermark_system_"+time.Now().Format("2006-01-02")+".csv")
	writeHeader := false
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
