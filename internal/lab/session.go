package lab

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/drakos74/cv-scratch/internal/config"
	"github.com/drakos74/cv-scratch/internal/guide"
	"github.com/drakos74/cv-scratch/internal/pixel"
	"github.com/drakos74/cv-scratch/internal/quiz"
	"github.com/drakos74/cv-scratch/internal/sandbox"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// ErrUnknownSession signals a request for a session that does not exist.
var ErrUnknownSession = errors.New("unknown session")

// Session is the state of one user of the guide.
type Session struct {
	ID       string
	Sandbox  *sandbox.Sandbox
	Grid     *pixel.Grid
	Pipeline *guide.Pipeline
	Quiz     *quiz.Session
}

// Source creates the random source of a new session.
type Source func() rand.Source

// Registry holds the open sessions.
// Sessions idle for longer than the configured duration expire,
// and opening beyond the configured capacity evicts the least recently used one.
type Registry struct {
	cfg      config.Config
	source   Source
	now      func() time.Time
	lock     *sync.RWMutex
	sessions map[string]*Session
	seen     map[string]time.Time
}

// NewRegistry creates an empty registry, a nil source seeds every session from the clock.
func NewRegistry(cfg config.Config, source Source) *Registry {
	if source == nil {
		source = func() rand.Source {
			return nil
		}
	}
	return &Registry{
		cfg:      cfg,
		source:   source,
		now:      time.Now,
		lock:     new(sync.RWMutex),
		sessions: make(map[string]*Session),
		seen:     make(map[string]time.Time),
	}
}

// Open creates a new session.
func (r *Registry) Open() (*Session, error) {
	sb, err := sandbox.New(r.cfg.Sandbox, r.source())
	if err != nil {
		return nil, fmt.Errorf("could not create sandbox: %w", err)
	}
	grid, err := pixel.New(r.cfg.Grid.Width, r.cfg.Grid.Height)
	if err != nil {
		return nil, fmt.Errorf("could not create grid: %w", err)
	}
	session := &Session{
		ID:       uuid.New().String(),
		Sandbox:  sb,
		Grid:     grid,
		Pipeline: guide.NewPipeline(),
		Quiz:     quiz.NewSession(quiz.Bank()),
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	now := r.now()
	r.expire(now)
	r.evict(r.cfg.Server.Sessions - 1)
	r.sessions[session.ID] = session
	r.seen[session.ID] = now
	log.Info().Str("session", session.ID).Int("open", len(r.sessions)).Msg("opened session")
	return session, nil
}

// Get returns the session with the given id and marks it as active.
func (r *Registry) Get(id string) (*Session, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	now := r.now()
	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session '%s': %w", id, ErrUnknownSession)
	}
	if r.idle(id, now) {
		r.remove(id, "expired")
		return nil, fmt.Errorf("session '%s' expired: %w", id, ErrUnknownSession)
	}
	r.seen[id] = now
	return session, nil
}

// Close removes the session.
func (r *Registry) Close(id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("session '%s': %w", id, ErrUnknownSession)
	}
	r.remove(id, "closed")
	return nil
}

func (r *Registry) idle(id string, now time.Time) bool {
	ttl := r.cfg.Server.Idle
	return ttl > 0 && now.Sub(r.seen[id]) > ttl
}

// expire removes all sessions idle for longer than the configured duration.
func (r *Registry) expire(now time.Time) {
	for id := range r.sessions {
		if r.idle(id, now) {
			r.remove(id, "expired")
		}
	}
}

// evict removes the least recently used sessions until at most max remain.
// A negative max leaves the registry unbounded.
func (r *Registry) evict(max int) {
	if max < 0 || len(r.sessions) <= max {
		return
	}
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.seen[ids[i]].Before(r.seen[ids[j]])
	})
	for _, id := range ids[:len(ids)-max] {
		r.remove(id, "evicted")
	}
}

func (r *Registry) remove(id, reason string) {
	delete(r.sessions, id)
	delete(r.seen, id)
	log.Info().Str("session", id).Int("open", len(r.sessions)).Msg(reason + " session")
}

// Size returns the number of open sessions.
func (r *Registry) Size() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.sessions)
}
