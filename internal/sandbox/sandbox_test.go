package sandbox

import (
	"math"
	"testing"

	"github.com/drakos74/cv-scratch/internal/math/ml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newSandbox(t *testing.T) *Sandbox {
	s, err := New(DefaultConfig(), rand.NewSource(42))
	require.NoError(t, err)
	return s
}

func TestSandbox_New(t *testing.T) {
	s := newSandbox(t)
	assert.Equal(t, 30, len(s.Points()))
	assert.Equal(t, 3, s.K())
	_, ok := s.Last()
	assert.False(t, ok)
	assert.Equal(t, ml.Uninitialized, s.KMeans().Phase)

	summary := s.Summary()
	assert.Equal(t, 15, summary[ml.A].Size)
	assert.Equal(t, 15, summary[ml.B].Size)
}

func TestSandbox_NewInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 2
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, ml.ErrInvalidArgument)

	cfg = DefaultConfig()
	cfg.Dataset.Jitter = -1
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, ml.ErrInvalidArgument)
}

func TestSandbox_SetK(t *testing.T) {
	s := newSandbox(t)

	for _, k := range []int{1, 3, 5, 7, 9} {
		assert.NoError(t, s.SetK(k))
		assert.Equal(t, k, s.K())
	}
	for _, k := range []int{-1, 0, 2, 4, 11} {
		assert.ErrorIs(t, s.SetK(k), ml.ErrInvalidArgument)
	}
	assert.Equal(t, 9, s.K())
}

func TestSandbox_Click(t *testing.T) {
	s := newSandbox(t)

	prediction, err := s.Click(70, 210)
	require.NoError(t, err)
	assert.Equal(t, ml.A, prediction.Label)
	assert.Equal(t, 3, len(prediction.Neighbors))

	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, prediction, last)

	prediction, err = s.Click(210, 90)
	require.NoError(t, err)
	assert.Equal(t, ml.B, prediction.Label)

	last, _ = s.Last()
	assert.Equal(t, ml.B, last.Label)
}

func TestSandbox_StepAndRegenerate(t *testing.T) {
	s := newSandbox(t)

	state, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, ml.Assigning, state.Phase)
	assert.Equal(t, ml.DefaultSeeds[0], state.Centroids[0].Coordinate)

	state, err = s.Step()
	require.NoError(t, err)
	assert.Equal(t, ml.Updating, state.Phase)

	before := s.Points()
	_, err = s.Click(70, 210)
	require.NoError(t, err)
	require.NoError(t, s.Regenerate())

	assert.NotEqual(t, before, s.Points())
	assert.Equal(t, ml.Uninitialized, s.KMeans().Phase)
	_, ok := s.Last()
	assert.False(t, ok)

	_, err = s.Step()
	require.NoError(t, err)
	s.Reset()
	assert.Equal(t, ml.Uninitialized, s.KMeans().Phase)
}

func TestSandbox_Compare(t *testing.T) {
	s := newSandbox(t)

	comparison, err := s.Compare(70, 210)
	require.NoError(t, err)
	assert.Equal(t, ml.A, comparison.KNN)
	assert.True(t, comparison.Agree())

	_, err = s.Compare(70, math.Inf(1))
	assert.ErrorIs(t, err, ml.ErrInvalidArgument)
}

func TestSandbox_Converge(t *testing.T) {
	s := newSandbox(t)
	clustering, err := s.Converge()
	require.NoError(t, err)
	assert.Equal(t, 30, len(clustering.Assignments))
}

func TestSandbox_History(t *testing.T) {
	cfg := DefaultConfig()
	cfg.History = 2
	s, err := New(cfg, rand.NewSource(42))
	require.NoError(t, err)
	assert.Empty(t, s.History())

	queries := []ml.Coordinate{{X: 70, Y: 210}, {X: 210, Y: 90}, {X: 75, Y: 200}}
	for _, q := range queries {
		_, err := s.Click(q.X, q.Y)
		require.NoError(t, err)
	}
	_, err = s.Click(math.NaN(), 0)
	require.Error(t, err)

	history := s.History()
	require.Equal(t, 2, len(history))
	assert.Equal(t, queries[1], history[0].Query)
	assert.Equal(t, queries[2], history[1].Query)

	require.NoError(t, s.Regenerate())
	assert.Empty(t, s.History())
}

func TestSandbox_Replace(t *testing.T) {
	s := newSandbox(t)
	_, err := s.Click(70, 210)
	require.NoError(t, err)
	_, err = s.Step()
	require.NoError(t, err)

	points := []ml.Point{
		ml.NewPoint(0, 0, ml.A),
		ml.NewPoint(10, 10, ml.B),
	}
	require.NoError(t, s.Replace(points))
	assert.Equal(t, points, s.Points())
	assert.Equal(t, ml.Uninitialized, s.KMeans().Phase)
	assert.Empty(t, s.History())
	_, ok := s.Last()
	assert.False(t, ok)

	// the sandbox keeps its own copy
	points[0].X = 100
	assert.Equal(t, 0.0, s.Points()[0].X)

	assert.ErrorIs(t, s.Replace(nil), ml.ErrInvalidState)
	assert.ErrorIs(t, s.Replace([]ml.Point{ml.NewPoint(0, 0, "C")}), ml.ErrInvalidArgument)
	assert.Equal(t, 2, len(s.Points()))
}
