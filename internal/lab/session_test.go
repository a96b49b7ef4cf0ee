package lab

import (
	"sync"
	"testing"
	"time"

	"github.com/drakos74/cv-scratch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func seeded() Source {
	return func() rand.Source {
		return rand.NewSource(42)
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	registry := NewRegistry(config.Default(), seeded())

	session, err := registry.Open()
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, 30, len(session.Sandbox.Points()))
	assert.Equal(t, 1, registry.Size())

	found, err := registry.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, found)

	require.NoError(t, registry.Close(session.ID))
	assert.Equal(t, 0, registry.Size())

	_, err = registry.Get(session.ID)
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.ErrorIs(t, registry.Close(session.ID), ErrUnknownSession)
}

func TestRegistry_Isolation(t *testing.T) {
	registry := NewRegistry(config.Default(), seeded())

	s1, err := registry.Open()
	require.NoError(t, err)
	s2, err := registry.Open()
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, s2.ID)

	// same seed, same dataset
	assert.Equal(t, s1.Sandbox.Points(), s2.Sandbox.Points())

	require.NoError(t, s1.Sandbox.SetK(7))
	_, err = s1.Sandbox.Step()
	require.NoError(t, err)
	require.NoError(t, s1.Grid.Toggle(0))

	assert.Equal(t, 3, s2.Sandbox.K())
	assert.Equal(t, 0, len(s2.Sandbox.KMeans().Centroids))
	assert.Equal(t, 0, s2.Grid.Snapshot().Binary[0])
}

func TestRegistry_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Width = 0
	registry := NewRegistry(cfg, nil)

	_, err := registry.Open()
	assert.Error(t, err)
	assert.Equal(t, 0, registry.Size())
}

// clock advances by a second on every read.
func clock(r *Registry) *time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return &now
}

func TestRegistry_Capacity(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Sessions = 3
	cfg.Server.Idle = 0
	registry := NewRegistry(cfg, seeded())
	clock(registry)

	ids := make([]string, 0)
	for i := 0; i < 3; i++ {
		session, err := registry.Open()
		require.NoError(t, err)
		ids = append(ids, session.ID)
	}
	// touching the oldest makes the second one the least recently used
	_, err := registry.Get(ids[0])
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		session, err := registry.Open()
		require.NoError(t, err)
		assert.Equal(t, 3, registry.Size())
		_, err = registry.Get(session.ID)
		require.NoError(t, err)
		if i == 0 {
			_, err = registry.Get(ids[1])
			assert.ErrorIs(t, err, ErrUnknownSession)
			_, err = registry.Get(ids[0])
			assert.NoError(t, err)
		}
	}
}

func TestRegistry_Idle(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Idle = time.Minute
	registry := NewRegistry(cfg, seeded())
	now := clock(registry)

	active, err := registry.Open()
	require.NoError(t, err)
	idle, err := registry.Open()
	require.NoError(t, err)

	*now = now.Add(50 * time.Second)
	_, err = registry.Get(active.ID)
	require.NoError(t, err)

	*now = now.Add(30 * time.Second)
	_, err = registry.Get(active.ID)
	require.NoError(t, err)
	_, err = registry.Get(idle.ID)
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.Equal(t, 1, registry.Size())

	// opening sweeps the rest
	*now = now.Add(2 * time.Minute)
	fresh, err := registry.Open()
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Size())
	_, err = registry.Get(fresh.ID)
	assert.NoError(t, err)
	_, err = registry.Get(active.ID)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestRegistry_Unbounded(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Sessions = 0
	cfg.Server.Idle = 0
	registry := NewRegistry(cfg, seeded())
	now := clock(registry)

	first, err := registry.Open()
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		_, err := registry.Open()
		require.NoError(t, err)
	}
	*now = now.Add(24 * time.Hour)
	_, err = registry.Get(first.ID)
	assert.NoError(t, err)
	assert.Equal(t, 21, registry.Size())
}

func TestRegistry_Concurrent(t *testing.T) {
	registry := NewRegistry(config.Default(), nil)

	wg := new(sync.WaitGroup)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := registry.Open()
			if assert.NoError(t, err) {
				_, err = registry.Get(session.ID)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, registry.Size())
}
