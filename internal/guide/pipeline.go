package guide

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument signals an unknown stage or a setting outside of its range.
var ErrInvalidArgument = errors.New("invalid argument")

// Stage is a step of the vision pipeline.
type Stage string

const (
	Acquisition   Stage = "acquisition"
	Preprocessing Stage = "preprocessing"
	Features      Stage = "features"
	Detection     Stage = "detection"
	HighLevel     Stage = "highlevel"
)

// Stages lists the pipeline in order.
func Stages() []Stage {
	return []Stage{Acquisition, Preprocessing, Features, Detection, HighLevel}
}

func (s Stage) index() int {
	for i, stage := range Stages() {
		if stage == s {
			return i
		}
	}
	return -1
}

// Settings are the preprocessing controls, expressed in percent.
type Settings struct {
	Brightness int  `json:"brightness"`
	Contrast   int  `json:"contrast"`
	Grayscale  int  `json:"grayscale"`
	Noise      bool `json:"noise"`
}

// DefaultSettings leave the image untouched.
func DefaultSettings() Settings {
	return Settings{
		Brightness: 100,
		Contrast:   100,
	}
}

// Validate checks every control against its range.
func (s Settings) Validate() error {
	if s.Brightness < 0 || s.Brightness > 200 {
		return fmt.Errorf("brightness %d outside of [0,200]: %w", s.Brightness, ErrInvalidArgument)
	}
	if s.Contrast < 0 || s.Contrast > 300 {
		return fmt.Errorf("contrast %d outside of [0,300]: %w", s.Contrast, ErrInvalidArgument)
	}
	if s.Grayscale < 0 || s.Grayscale > 100 {
		return fmt.Errorf("grayscale %d outside of [0,100]: %w", s.Grayscale, ErrInvalidArgument)
	}
	return nil
}

// Filter renders the settings as a css filter.
func (s Settings) Filter() string {
	blur := 0
	if s.Noise {
		blur = 3
	}
	return fmt.Sprintf("brightness(%d%%) contrast(%d%%) grayscale(%d%%) blur(%dpx)",
		s.Brightness, s.Contrast, s.Grayscale, blur)
}

// edgeFilter imitates edge detection for display.
const edgeFilter = "grayscale(100%) contrast(500%) invert(1)"

// Box is a bounding box as insets in percent of the image,
// labelled with the detected class and its confidence in percent.
type Box struct {
	Top        int     `json:"top"`
	Left       int     `json:"left"`
	Right      int     `json:"right"`
	Bottom     int     `json:"bottom"`
	Label      string  `json:"label"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Tag is the short caption drawn on the box.
func (b Box) Tag() string {
	return fmt.Sprintf("%s %d%%", b.Label, int(math.Floor(b.Confidence)))
}

// Decision is the outcome of the high level stage.
type Decision struct {
	Object  string `json:"object"`
	Breed   string `json:"breed"`
	Emotion string `json:"emotion"`
	Action  string `json:"action"`
}

var (
	detected = Box{Top: 10, Left: 20, Right: 20, Bottom: 10, Label: "Cat", Class: "Cat (Ragdoll)", Confidence: 98.5}
	decided  = Decision{Object: "Cat", Breed: "Ragdoll", Emotion: "Calm", Action: "DISPENSE_TREAT()"}
)

// View is the display data of a stage, nothing in it is computed from the image.
type View struct {
	Stage    Stage     `json:"stage"`
	Filter   string    `json:"filter,omitempty"`
	Box      *Box      `json:"box,omitempty"`
	Decision *Decision `json:"decision,omitempty"`
}

// Pipeline is the staged demo state of one user.
type Pipeline struct {
	stage    Stage
	settings Settings
}

// NewPipeline starts at the acquisition stage with default settings.
func NewPipeline() *Pipeline {
	return &Pipeline{
		stage:    Acquisition,
		settings: DefaultSettings(),
	}
}

// Select jumps to the given stage.
func (p *Pipeline) Select(stage Stage) error {
	if stage.index() < 0 {
		return fmt.Errorf("unknown stage '%s': %w", stage, ErrInvalidArgument)
	}
	p.stage = stage
	return nil
}

// Next moves to the following stage, staying on the last one.
func (p *Pipeline) Next() Stage {
	stages := Stages()
	if i := p.stage.index(); i < len(stages)-1 {
		p.stage = stages[i+1]
	}
	return p.stage
}

// Configure replaces the preprocessing settings.
func (p *Pipeline) Configure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	p.settings = settings
	return nil
}

// Settings returns the current preprocessing settings.
func (p *Pipeline) Settings() Settings {
	return p.settings
}

// View renders the display data of the current stage.
func (p *Pipeline) View() View {
	v := View{Stage: p.stage}
	switch p.stage {
	case Preprocessing:
		v.Filter = p.settings.Filter()
	case Features:
		v.Filter = edgeFilter
	case Detection:
		box := detected
		v.Box = &box
	case HighLevel:
		decision := decided
		v.Decision = &decision
	}
	return v
}
