package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForest(t *testing.T) {
	dataset, err := DefaultDataset().Generate(rand42())
	require.NoError(t, err)

	forest := NewForest(50)
	_, err = forest.Predict(Coordinate{})
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, forest.Train(dataset))

	label, err := forest.Predict(Coordinate{X: 70, Y: 210})
	require.NoError(t, err)
	assert.Equal(t, A, label)

	label, err = forest.Predict(Coordinate{X: 210, Y: 90})
	require.NoError(t, err)
	assert.Equal(t, B, label)
}

func TestForest_Errors(t *testing.T) {
	assert.ErrorIs(t, NewForest(10).Train(nil), ErrInvalidState)
	assert.ErrorIs(t, NewForest(0).Train(fixture()), ErrInvalidArgument)
}
