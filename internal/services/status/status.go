package status

import (
	"context"
	"sync"
	"time"

	"taf-timeline/internal/models"
	"taf-timeline/pkg/logger"
)

const defaultHistory = 50

// Sender delivers a keyed status message to the watch.
type Sender interface {
	Send(ctx context.Context, runID string, message map[string]string) error
}

// Report sends a single STATUS message.
func Report(ctx context.Context, s Sender, runID, status string) error {
	return s.Send(ctx, runID, map[string]string{models.StatusKey: status})
}

// Board keeps the most recent statuses in memory for the HTTP surface.
type Board struct {
	mu      sync.RWMutex
	entries []models.StatusEntry
	max     int
	now     func() time.Time
	l       *logger.Logger
}

func NewBoard(max int, l *logger.Logger) *Board {
	if max <= 0 {
		max = defaultHistory
	}
	return &Board{
		max: max,
		now: time.Now,
		l:   l,
	}
}

func (b *Board) Send(_ context.Context, runID string, message map[string]string) error {
	st, ok := message[models.StatusKey]
	if !ok {
		b.l.Warning("status message without STATUS key", map[string]any{"run_id": runID, "message": message})
		return nil
	}

	entry := models.StatusEntry{Status: st, At: b.now().UTC(), RunID: runID}

	b.mu.Lock()
	b.entries = append(b.entries, entry)
	if over := len(b.entries) - b.max; over > 0 {
		b.entries = b.entries[over:]
	}
	b.mu.Unlock()

	b.l.Info("status sent", map[string]any{"run_id": runID, "status": st})
	return nil
}

// Latest returns the newest status, if any.
func (b *Board) Latest() (models.StatusEntry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.entries) == 0 {
		return models.StatusEntry{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// History returns statuses oldest first.
func (b *Board) History() []models.StatusEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.StatusEntry, len(b.entries))
	copy(out, b.entries)
	return out
}
