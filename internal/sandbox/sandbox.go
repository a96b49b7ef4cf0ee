package sandbox

import (
	"fmt"

	"github.com/drakos74/cv-scratch/internal/buffer"
	"github.com/drakos74/cv-scratch/internal/math/ml"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Config defines the classifier sandbox.
type Config struct {
	Dataset ml.DatasetConfig `yaml:"dataset" json:"dataset"`
	Seeds   [2]ml.Coordinate `yaml:"seeds" json:"seeds"`
	// K is the initial neighbour count.
	K int `yaml:"k" json:"k"`
	// MaxK bounds the neighbour count, only odd values up to it are accepted.
	MaxK int `yaml:"max_k" json:"max_k"`
	// Trees is the size of the random forest used for comparisons.
	Trees int `yaml:"trees" json:"trees"`
	// Iterations bounds the full k-means run.
	Iterations int `yaml:"iterations" json:"iterations"`
	// History is the number of past classifications kept.
	History int `yaml:"history" json:"history"`
}

// DefaultConfig returns the guide defaults.
func DefaultConfig() Config {
	return Config{
		Dataset:    ml.DefaultDataset(),
		Seeds:      ml.DefaultSeeds,
		K:          3,
		MaxK:       9,
		Trees:      25,
		Iterations: 30,
		History:    10,
	}
}

// Sandbox holds the state of one user's classifier playground.
type Sandbox struct {
	cfg     Config
	src     rand.Source
	points  []ml.Point
	k       int
	last    *ml.Prediction
	history *buffer.Ring
	stepper *ml.Stepper
}

// New creates a new sandbox and generates its dataset.
func New(cfg Config, src rand.Source) (*Sandbox, error) {
	if src == nil {
		src = ml.NewSource()
	}
	s := &Sandbox{
		cfg:     cfg,
		src:     src,
		history: buffer.NewRing(cfg.History),
		stepper: ml.NewStepper(cfg.Seeds),
	}
	if err := s.SetK(cfg.K); err != nil {
		return nil, err
	}
	if err := s.Regenerate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Points returns a copy of the current dataset.
func (s *Sandbox) Points() []ml.Point {
	return append(make([]ml.Point, 0, len(s.points)), s.points...)
}

// K returns the current neighbour count.
func (s *Sandbox) K() int {
	return s.k
}

// SetK updates the neighbour count.
func (s *Sandbox) SetK(k int) error {
	if k < 1 || k > s.cfg.MaxK || k%2 == 0 {
		return fmt.Errorf("k=%d must be odd and within [1,%d]: %w", k, s.cfg.MaxK, ml.ErrInvalidArgument)
	}
	s.k = k
	return nil
}

// Last returns the last prediction, if any.
func (s *Sandbox) Last() (ml.Prediction, bool) {
	if s.last == nil {
		return ml.Prediction{}, false
	}
	return *s.last, true
}

// Click classifies the clicked position with the current k.
func (s *Sandbox) Click(x, y float64) (ml.Prediction, error) {
	prediction, err := ml.Classify(s.points, ml.Coordinate{X: x, Y: y}, s.k)
	if err != nil {
		return ml.Prediction{}, err
	}
	s.last = &prediction
	s.history.Push(prediction)
	log.Debug().
		Float64("x", x).
		Float64("y", y).
		Int("k", s.k).
		Str("label", string(prediction.Label)).
		Msg("classified")
	return prediction, nil
}

// Step advances the k-means stepper.
func (s *Sandbox) Step() (ml.State, error) {
	return s.stepper.Advance(s.points)
}

// Reset returns the k-means stepper to its initial phase.
func (s *Sandbox) Reset() {
	s.stepper.Reset()
}

// KMeans returns the current k-means state.
func (s *Sandbox) KMeans() ml.State {
	return s.stepper.State()
}

// Regenerate replaces the dataset, which invalidates the stepper and the last prediction.
func (s *Sandbox) Regenerate() error {
	points, err := s.cfg.Dataset.Generate(s.src)
	if err != nil {
		return fmt.Errorf("could not generate dataset: %w", err)
	}
	s.replace(points)
	log.Debug().Int("points", len(points)).Msg("generated dataset")
	return nil
}

// Replace swaps in a fixed dataset.
func (s *Sandbox) Replace(points []ml.Point) error {
	if err := ml.Validate(points); err != nil {
		return err
	}
	s.replace(append(make([]ml.Point, 0, len(points)), points...))
	log.Debug().Int("points", len(points)).Msg("replaced dataset")
	return nil
}

func (s *Sandbox) replace(points []ml.Point) {
	s.points = points
	s.last = nil
	s.history.Clear()
	s.stepper.Reset()
}

// History returns the past classifications on the current dataset, oldest first.
func (s *Sandbox) History() []ml.Prediction {
	predictions := make([]ml.Prediction, 0, s.history.Size())
	for _, v := range s.history.Get(func(v interface{}) interface{} {
		return v
	}) {
		predictions = append(predictions, v.(ml.Prediction))
	}
	return predictions
}

// Summary returns per label statistics of the dataset.
func (s *Sandbox) Summary() map[ml.Label]ml.Summary {
	return ml.Summarize(s.points)
}

// Comparison holds the labels the different classifiers assign to the same query.
type Comparison struct {
	Query     ml.Coordinate `json:"query"`
	K         int           `json:"k"`
	KNN       ml.Label      `json:"knn"`
	Reference ml.Label      `json:"reference"`
	Forest    ml.Label      `json:"forest"`
}

// Agree reports if all classifiers returned the same label.
func (c Comparison) Agree() bool {
	return c.KNN == c.Reference && c.KNN == c.Forest
}

// Compare classifies the query with the knn, the golearn knn and a random forest.
func (s *Sandbox) Compare(x, y float64) (Comparison, error) {
	query := ml.Coordinate{X: x, Y: y}
	prediction, err := ml.Classify(s.points, query, s.k)
	if err != nil {
		return Comparison{}, err
	}
	reference, err := ml.ReferenceClassify(s.points, query, s.k)
	if err != nil {
		return Comparison{}, fmt.Errorf("reference classifier failed: %w", err)
	}
	forest := ml.NewForest(s.cfg.Trees)
	if err := forest.Train(s.points); err != nil {
		return Comparison{}, fmt.Errorf("could not train forest: %w", err)
	}
	fLabel, err := forest.Predict(query)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		Query:     query,
		K:         s.k,
		KNN:       prediction.Label,
		Reference: reference,
		Forest:    fLabel,
	}, nil
}

// Converge runs a full k-means over the dataset.
func (s *Sandbox) Converge() (ml.Clustering, error) {
	return ml.Converge(s.points, len(s.cfg.Seeds), s.cfg.Iterations)
}
