// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/encoding/json"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// RunLog appends one JSON line per processed cell.
type RunLog struct {
	mu  sync.Mutex
	enc *json.Encoder
	c   io.Closer
}

// NewRunLog returns a RunLog writing to w.
func NewRunLog(w io.Writer) *RunLog {
	l := &RunLog{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		l.c = c
	}
	return l
}

// CreateRunLog creates dir/<runID>.jsonl and returns a RunLog writing to it
// with the file path.
func CreateRunLog(dir, runID string) (*RunLog, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating run directory: %w", err)
	}
	path := filepath.Join(dir, runID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("creating run log: %w", err)
	}
	return NewRunLog(f), path, nil
}

// Write appends res.
func (l *RunLog) Write(res types.CellResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(res)
}

// Close closes the underlying writer when it is closable.
func (l *RunLog) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}
