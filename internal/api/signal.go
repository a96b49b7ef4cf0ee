package api

import (
	"time"

	"github.com/google/uuid"
)

// Signal is a generic struct used to trace actions across processes.
type Signal struct {
	Name string
	ID   string
	Time time.Time
}

// NewSignal creates a new action with the given name.
func NewSignal(name string) *Signal {
	return &Signal{
		Name: name,
		Time: time.Now(),
		ID:   uuid.New().String(),
	}
}

// Create returns an immutable instance of the action
func (a *Signal) Create() Signal {
	return *a
}

// Since returns the time elapsed since the signal was created.
func (a Signal) Since() time.Duration {
	return time.Since(a.Time)
}
