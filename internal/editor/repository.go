package editor

import (
	"sync/atomic"

	"github.com/amercogo/MojKutakAdmin/internal/model"
)

type DraftID string

// Session binds a workflow to the user that opened it.
type Session struct {
	ID       DraftID
	Owner    model.UserID
	Workflow *Workflow

	lastSeen atomic.Int64
}

type Repository interface {
	Create(owner model.UserID, newWorkflow func(DraftID) *Workflow) (*Session, error)
	Get(id DraftID) (*Session, error)
	Delete(id DraftID) error
}
