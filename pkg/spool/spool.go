// Package spool keeps raw telemetry frames in an append-only NDJSON file
// until they are imported into the database.
package spool

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sirupsen/logrus"
)

// DefaultPath is used when no spool path is configured
const DefaultPath = "telemetry_spool.ndjson"

// Spool is an append-only record log shared by writers in one process
type Spool struct {
	path   string
	mu     sync.Mutex
	logger logrus.FieldLogger
}

// New creates a spool backed by the file at path. The file is created on the
// first append.
func New(path string, logger logrus.FieldLogger) *Spool {
	if path == "" {
		path = DefaultPath
	}
	return &Spool{
		path:   path,
		logger: logger.WithField("spool", path),
	}
}

// Path returns the backing file
func (s *Spool) Path() string {
	return s.path
}

// Append writes one record as a JSON line
func (s *Spool) Append(record models.ImportedRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode spool record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create spool directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open spool: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to write spool: %w", err)
	}

	return nil
}

// AppendFrame spools a raw frame received on topic
func (s *Spool) AppendFrame(topic, frame string) error {
	return s.Append(models.ImportedRecord{
		SourceKey: topic,
		DataType:  "frame",
		ValueStr:  &frame,
		Category:  "telemetry",
		Timestamp: time.Now().UTC(),
	})
}

// ClaimSuffix marks a spool file whose records are being imported
const ClaimSuffix = ".importing"

// Batch is a claimed set of spooled records. The records stay on disk until
// Commit is called.
type Batch struct {
	Records []models.ImportedRecord
	path    string
}

// Commit removes the claimed file once its records are stored
func (b *Batch) Commit() error {
	if b == nil || b.path == "" {
		return nil
	}
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove claimed spool: %w", err)
	}
	return nil
}

// Claim moves the live spool aside and returns its records. Appends made
// after the claim start a fresh file. A claim left over from a failed import
// is returned again before the live file is touched. Lines that do not decode
// are logged and dropped.
func (s *Spool) Claim() (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimed := s.path + ClaimSuffix
	if _, err := os.Stat(claimed); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat claimed spool: %w", err)
		}
		if err := os.Rename(s.path, claimed); err != nil {
			if os.IsNotExist(err) {
				return &Batch{Records: []models.ImportedRecord{}}, nil
			}
			return nil, fmt.Errorf("failed to claim spool: %w", err)
		}
	} else {
		s.logger.WithField("file", claimed).Warn("Retrying spool left by a failed import")
	}

	records, err := s.read(claimed)
	if err != nil {
		return nil, err
	}

	return &Batch{Records: records, path: claimed}, nil
}

func (s *Spool) read(path string) ([]models.ImportedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spool: %w", err)
	}
	defer f.Close()

	records := make([]models.ImportedRecord, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record models.ImportedRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			s.logger.WithFields(logrus.Fields{
				"line":  lineNo,
				"error": err,
			}).Warn("Skipping malformed spool line")
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read spool: %w", err)
	}

	return records, nil
}
