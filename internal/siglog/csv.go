package siglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"scalperbot/models"
)

// CSVAppender appends signal rows to a CSV file, writing the header
// only when it creates the file.
type CSVAppender struct {
	mu   sync.Mutex
	path string
}

// NewCSVAppender prepares the log directory for the given file path.
func NewCSVAppender(path string) (*CSVAppender, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &CSVAppender{path: path}, nil
}

// Append writes one whole row, creating the file with a header first if
// it does not exist yet.
func (a *CSVAppender) Append(event *models.SignalEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, statErr := os.Stat(a.path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening signal log: %w", err)
	}
	defer f.Close()

	rows := []Record{recordFromEvent(event)}
	if writeHeader {
		if err := gocsv.Marshal(&rows, f); err != nil {
			return fmt.Errorf("writing signal log: %w", err)
		}
		return nil
	}

	if err := gocsv.MarshalWithoutHeaders(&rows, f); err != nil {
		return fmt.Errorf("writing signal log: %w", err)
	}
	return nil
}

// Close implements Appender; the file is opened per append.
func (a *CSVAppender) Close() error {
	return nil
}
