// Package ledger implements the state transitions of the bookkeeping model.
//
// Every command is a pure function of the current snapshot and its input. A
// command either returns a new snapshot or an error, in which case the input
// snapshot is returned untouched. Snapshots are never mutated in place: slices
// along the modified path are copied before being written.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"cashflow/internal/core"
)

// Env carries the ambient inputs a command may read: who is acting, the
// wall clock and the identifier source.
type Env struct {
	User  *core.User
	Now   func() time.Time
	NewID func(prefix string) string
}

// NewEnv returns an Env backed by the system clock and random identifiers.
func NewEnv(user *core.User) Env {
	return Env{User: user, Now: time.Now, NewID: NewID}
}

// NewID returns a prefixed random identifier such as "biz_3f2c...".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e Env) id(prefix string) string {
	if e.NewID == nil {
		return NewID(prefix)
	}
	return e.NewID(prefix)
}

// Result reports what a command produced besides the new snapshot.
type Result struct {
	// ID of the entity created by the command, if any.
	ID string
	// Invite outcome counts.
	Invited       int
	AlreadyMember int
}
