// Package audit records every admission verdict in an append-only
// trail so the UI collaborator can show, after the fact, why a file
// was imported or skipped. Records are CBOR-encoded and framed with a
// 4-byte big-endian length prefix.
package audit

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/varlog/logsift/internal/errx"
	"github.com/varlog/logsift/pkg/api"
)

// maxRecordSize bounds a single frame; anything larger is corruption.
const maxRecordSize = 1 << 20

// Record is one admission decision.
type Record struct {
	ID       string       `cbor:"id"`
	ScanID   string       `cbor:"scan_id,omitempty"`
	Path     string       `cbor:"path"`
	Decision api.Decision `cbor:"decision"`
	Layer    api.Layer    `cbor:"layer"`
	Reason   string       `cbor:"reason"`
	At       time.Time    `cbor:"at"`
}

// Writer appends records to a trail file. Safe for concurrent use by
// scan workers.
type Writer struct {
	mu sync.Mutex
	f  *os.File
}

// OpenWriter opens (or creates) the trail at path for appending.
func OpenWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, errx.Wrap(ErrOpenTrail, err)
	}
	return &Writer{f: f}, nil
}

// Append writes one verdict. The record id and timestamp are assigned
// here if the caller left them empty.
func (w *Writer) Append(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	payload, err := cbor.Marshal(rec)
	if err != nil {
		return errx.Wrap(ErrEncodeRecord, err)
	}

	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(frame); err != nil {
		return errx.Wrap(ErrWriteRecord, err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// ReadAll replays every record in the trail at path.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errx.Wrap(ErrOpenTrail, err)
	}
	defer f.Close()
	return readFrames(f)
}

func readFrames(r io.Reader) ([]Record, error) {
	var records []Record
	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, errx.Wrap(ErrReadRecord, err)
		}
		size := binary.BigEndian.Uint32(header)
		if size == 0 || size > maxRecordSize {
			return nil, errx.With(ErrCorruptTrail, ": frame size %d", size)
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, errx.Wrap(ErrReadRecord, err)
		}

		var rec Record
		if err := cbor.Unmarshal(payload, &rec); err != nil {
			return nil, errx.Wrap(ErrDecodeRecord, err)
		}
		records = append(records, rec)
	}
}
