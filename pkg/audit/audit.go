// Package audit provides append-only operation logging with an HMAC chain
// for tamper detection. The HMAC key is derived from the vault session key
// via HKDF, so audit records can only be written or verified while the
// vault is unlocked. Records are JSON lines appended to a single file.
package audit

import (
	"bufio"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Operation types for audit logging.
const (
	OpInit         = "vault.init"
	OpUnlock       = "vault.unlock"
	OpUnlockFailed = "vault.unlock_failed"
	OpLock         = "vault.lock"

	OpEntryAdd    = "entry.add"
	OpEntryGet    = "entry.get"
	OpEntryList   = "entry.list"
	OpEntryUpdate = "entry.update"
	OpEntryDelete = "entry.delete"

	OpExport = "backup.export"
	OpImport = "backup.import"
)

// Result values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// ErrKeyNotSet indicates the logger has no HMAC key; the vault is locked.
var ErrKeyNotSet = errors.New("audit: HMAC key not set")

// hkdfInfo separates the audit HMAC key from other uses of the session key.
const hkdfInfo = "passvault-audit-v1"

// Event is a single audit record.
type Event struct {
	Version   int    `json:"v"`
	Timestamp string `json:"ts"` // RFC 3339 nanosecond precision
	Operation string `json:"op"`
	EntryID   int64  `json:"entry_id,omitempty"`
	Result    string `json:"result"`
	Error     string `json:"error,omitempty"`
	Chain     Chain  `json:"chain"`
}

// Chain links each record to its predecessor for tamper detection.
type Chain struct {
	Sequence int64  `json:"seq"`
	PrevHMAC string `json:"prev"`
	HMAC     string `json:"hmac"`
}

// Logger appends HMAC-chained events to a JSONL file.
type Logger struct {
	path     string // audit log file path
	mu       sync.Mutex
	hmacKey  []byte
	sequence int64
	prevHMAC string
}

// NewLogger creates a logger writing to the given file path. The logger is
// inert until SetKey is called with the session key.
func NewLogger(path string) *Logger {
	return &Logger{
		path:     path,
		prevHMAC: "genesis",
	}
}

// SetKey derives the HMAC key from the vault session key using HKDF-SHA256
// and resumes the chain from the last record in the log file.
func (l *Logger) SetKey(sessionKey []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := hkdf.New(sha256.New, sessionKey, nil, []byte(hkdfInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return fmt.Errorf("audit: failed to derive HMAC key: %w", err)
	}
	l.hmacKey = key

	if err := l.loadChainState(); err != nil {
		l.sequence = 0
		l.prevHMAC = "genesis"
	}
	return nil
}

// ClearKey forgets the HMAC key, returning the logger to its inert state.
func (l *Logger) ClearKey() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.hmacKey {
		l.hmacKey[i] = 0
	}
	l.hmacKey = nil
}

// Log appends one record. opErr, when non-nil, marks the record as an error
// outcome.
func (l *Logger) Log(op string, entryID int64, opErr error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hmacKey == nil {
		return ErrKeyNotSet
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("audit: failed to create directory: %w", err)
	}

	event := Event{
		Version:   1,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Operation: op,
		EntryID:   entryID,
		Result:    ResultSuccess,
	}
	if opErr != nil {
		event.Result = ResultError
		event.Error = opErr.Error()
	}

	l.sequence++
	event.Chain.Sequence = l.sequence
	event.Chain.PrevHMAC = l.prevHMAC
	event.Chain.HMAC = l.recordHMAC(&event)
	l.prevHMAC = event.Chain.HMAC

	return l.writeEvent(&event)
}

// recordHMAC computes the chained HMAC over all significant fields.
func (l *Logger) recordHMAC(event *Event) string {
	data := fmt.Sprintf("%d|%s|%s|%d|%s|%s|%d|%s",
		event.Version,
		event.Timestamp,
		event.Operation,
		event.EntryID,
		event.Result,
		event.Error,
		event.Chain.Sequence,
		event.Chain.PrevHMAC,
	)
	mac := hmac.New(sha256.New, l.hmacKey)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// writeEvent appends one JSON line to the log file.
func (l *Logger) writeEvent(event *Event) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("audit: failed to open log file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: failed to marshal event: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("audit: failed to write event: %w", err)
	}
	return nil
}

// loadChainState resumes sequence and prev-HMAC from the last line of the
// log file. Called with l.mu held.
func (l *Logger) loadChainState() error {
	f, err := os.Open(l.path)
	if err != nil {
		return err
	}
	defer f.Close()

	l.sequence = 0
	l.prevHMAC = "genesis"

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		l.sequence = event.Chain.Sequence
		l.prevHMAC = event.Chain.HMAC
	}
	return scanner.Err()
}

// VerifyResult contains the outcome of a chain verification pass.
type VerifyResult struct {
	Valid           bool     `json:"valid"`
	RecordsTotal    int      `json:"records_total"`
	RecordsVerified int      `json:"records_verified"`
	Errors          []string `json:"errors,omitempty"`
}

// Verify walks the log file and recomputes every record's HMAC against the
// chain. Requires the key to be set.
func (l *Logger) Verify() (*VerifyResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hmacKey == nil {
		return nil, ErrKeyNotSet
	}

	result := &VerifyResult{Valid: true}

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil // empty log is valid
		}
		return nil, fmt.Errorf("audit: failed to open log file: %w", err)
	}
	defer f.Close()

	prev := "genesis"
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		result.RecordsTotal++

		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("record %d: invalid JSON", result.RecordsTotal))
			continue
		}

		if event.Chain.PrevHMAC != prev {
			result.Valid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("record %d: chain break", result.RecordsTotal))
		}

		expected := l.recordHMAC(&event)
		if !hmac.Equal([]byte(expected), []byte(event.Chain.HMAC)) {
			result.Valid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("record %d: HMAC mismatch", result.RecordsTotal))
		} else {
			result.RecordsVerified++
		}

		prev = event.Chain.HMAC
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: failed to read log file: %w", err)
	}

	return result, nil
}
