package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Stages(t *testing.T) {
	p := NewPipeline()
	assert.Equal(t, View{Stage: Acquisition}, p.View())

	expected := []Stage{Preprocessing, Features, Detection, HighLevel, HighLevel}
	for _, stage := range expected {
		assert.Equal(t, stage, p.Next())
	}

	require.NoError(t, p.Select(Features))
	assert.Equal(t, "grayscale(100%) contrast(500%) invert(1)", p.View().Filter)

	require.NoError(t, p.Select(Detection))
	box := p.View().Box
	require.NotNil(t, box)
	assert.Equal(t, [4]int{10, 20, 20, 10}, [4]int{box.Top, box.Left, box.Right, box.Bottom})
	assert.Equal(t, "Cat", box.Label)
	assert.Equal(t, "Cat (Ragdoll)", box.Class)
	assert.Equal(t, 98.5, box.Confidence)
	assert.Equal(t, "Cat 98%", box.Tag())
	// views are copies
	box.Confidence = 10
	assert.Equal(t, 98.5, p.View().Box.Confidence)

	require.NoError(t, p.Select(HighLevel))
	assert.Equal(t, "Cat", p.View().Decision.Object)
	assert.Equal(t, "DISPENSE_TREAT()", p.View().Decision.Action)

	assert.ErrorIs(t, p.Select("segmentation"), ErrInvalidArgument)
	assert.Equal(t, HighLevel, p.View().Stage)
}

func TestPipeline_Configure(t *testing.T) {
	p := NewPipeline()
	require.NoError(t, p.Select(Preprocessing))
	assert.Equal(t, "brightness(100%) contrast(100%) grayscale(0%) blur(0px)", p.View().Filter)

	require.NoError(t, p.Configure(Settings{Brightness: 150, Contrast: 200, Grayscale: 40, Noise: true}))
	assert.Equal(t, "brightness(150%) contrast(200%) grayscale(40%) blur(3px)", p.View().Filter)

	type test struct {
		settings Settings
	}
	tests := map[string]test{
		"brightness": {settings: Settings{Brightness: 201, Contrast: 100}},
		"contrast":   {settings: Settings{Brightness: 100, Contrast: -1}},
		"grayscale":  {settings: Settings{Brightness: 100, Contrast: 100, Grayscale: 101}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, p.Configure(tt.settings), ErrInvalidArgument)
		})
	}
	assert.Equal(t, 150, p.Settings().Brightness)
}

func TestIndex(t *testing.T) {
	index := NewIndex()
	assert.Equal(t, 6, len(index.Sections))
	assert.Equal(t, 4, len(index.Applications))
	assert.Equal(t, 5, len(index.Stages))
}
