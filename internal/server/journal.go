package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/zstd"
)

// JournalEntry is one line of the action journal.
type JournalEntry struct {
	Time      time.Time `json:"ts"`
	RequestID string    `json:"request_id,omitempty"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	OK        bool      `json:"ok"`
	Code      string    `json:"code,omitempty"`
	Money     int       `json:"money"`
	Energy    int       `json:"energy"`
	Level     int       `json:"level"`
}

// Journal records every mutating request as a JSON line in a zstd file
// per UTC hour: <dir>/<prefix>-YYYY-MM-DD-HH.jsonl.zst. Reopening an
// hour appends a new zstd frame, which readers decode as one stream.
type Journal struct {
	dir    string
	prefix string
	now    func() time.Time

	mu  sync.Mutex
	seg *journalSegment
}

type journalSegment struct {
	hour string
	f    *os.File
	zw   *zstd.Encoder
	enc  *json.Encoder
}

func NewJournal(dir, prefix string) *Journal {
	return &Journal{dir: dir, prefix: prefix, now: time.Now}
}

// Record journals the outcome of an action on the player as saved.
// outcome is the rule error that refused the action, or nil. The request
// id comes from the request context.
func (j *Journal) Record(ctx context.Context, action, target string, p Player, outcome error) error {
	e := JournalEntry{
		Action: action,
		Target: target,
		OK:     outcome == nil,
		Money:  p.Money,
		Energy: p.Energy,
		Level:  p.Level,
	}
	var re *RuleError
	if errors.As(outcome, &re) {
		e.Code = re.Code
	}
	return j.Write(ctx, e)
}

// Write appends e, filling in the time and request id when unset. The
// entry is flushed to disk before Write returns.
func (j *Journal) Write(ctx context.Context, e JournalEntry) error {
	if e.Time.IsZero() {
		e.Time = j.now()
	}
	e.Time = e.Time.UTC()
	if e.RequestID == "" {
		e.RequestID = middleware.GetReqID(ctx)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	seg, err := j.segmentFor(e.Time.Format("2006-01-02-15"))
	if err != nil {
		return err
	}
	if err := seg.enc.Encode(e); err != nil {
		return fmt.Errorf("journal: encode: %w", err)
	}
	return seg.zw.Flush()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeSegment()
}

func (j *Journal) segmentFor(hour string) (*journalSegment, error) {
	if j.seg != nil && j.seg.hour == hour {
		return j.seg, nil
	}
	if err := j.closeSegment(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	path := filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("journal: %w", err)
	}
	j.seg = &journalSegment{hour: hour, f: f, zw: zw, enc: json.NewEncoder(zw)}
	return j.seg, nil
}

func (j *Journal) closeSegment() error {
	if j.seg == nil {
		return nil
	}
	err := j.seg.zw.Close()
	if cerr := j.seg.f.Close(); err == nil {
		err = cerr
	}
	j.seg = nil
	return err
}
