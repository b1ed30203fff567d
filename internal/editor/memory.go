package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	sessions sync.Map
	idleTTL  time.Duration
	now      func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository keeps sessions in process memory. Sessions untouched
// for idleTTL are removed by Sweep; zero disables expiry.
func NewMemoryRepository(idleTTL time.Duration) *MemoryRepository {
	return &MemoryRepository{idleTTL: idleTTL, now: time.Now}
}

func (m *MemoryRepository) Create(owner model.UserID, newWorkflow func(DraftID) *Workflow) (*Session, error) {
	id := DraftID(uuid.New().String())
	s := &Session{
		ID:       id,
		Owner:    owner,
		Workflow: newWorkflow(id),
	}
	s.lastSeen.Store(m.now().UnixNano())
	m.sessions.Store(id, s)
	return s, nil
}

func (m *MemoryRepository) Get(id DraftID) (*Session, error) {
	if v, ok := m.sessions.Load(id); ok {
		s := v.(*Session)
		s.lastSeen.Store(m.now().UnixNano())
		return s, nil
	}
	return nil, fmt.Errorf("draft %s: %w", id, apperror.ErrNotFound)
}

func (m *MemoryRepository) Delete(id DraftID) error {
	if v, ok := m.sessions.LoadAndDelete(id); ok {
		v.(*Session).Workflow.Close()
	}
	return nil
}

// Sweep removes idle sessions and returns how many were dropped.
func (m *MemoryRepository) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}

	cutoff := m.now().Add(-m.idleTTL).UnixNano()
	removed := 0
	m.sessions.Range(func(key, value any) bool {
		s := value.(*Session)
		if s.lastSeen.Load() < cutoff {
			if _, ok := m.sessions.LoadAndDelete(key); ok {
				s.Workflow.Close()
				removed++
			}
		}
		return true
	})
	return removed
}

// StartJanitor sweeps every interval until ctx is done.
func (m *MemoryRepository) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					editorLogger.Info().Int("count", n).Msg("Dropped idle editing sessions")
				}
			}
		}
	}()
}
