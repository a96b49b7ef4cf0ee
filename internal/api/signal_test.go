package api

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSignal(t *testing.T) {
	s1 := NewSignal("classify").Create()
	s2 := NewSignal("classify").Create()

	assert.Equal(t, "classify", s1.Name)
	assert.NotEqual(t, s1.ID, s2.ID)
	_, err := uuid.Parse(s1.ID)
	assert.NoError(t, err)
	assert.False(t, s1.Time.IsZero())
	assert.GreaterOrEqual(t, int64(s1.Since()), int64(0))
}
