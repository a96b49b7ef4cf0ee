package ml

import (
	"fmt"
	"io"
	"math"

	"github.com/cdipaolo/goml/cluster"
	"github.com/drakos74/cv-scratch/internal/buffer"
	"github.com/rs/zerolog/log"
)

// Unassigned marks a point that has not been assigned to a centroid yet.
const Unassigned = -1

// Phase is the position of the k-means stepper in its cycle.
type Phase int

const (
	// Uninitialized has no centroids and no assignments.
	Uninitialized Phase = iota
	// Assigning has centroids, the assignments might be stale.
	Assigning
	// Updating has assignments computed against the current centroids.
	Updating
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Assigning:
		return "assigning"
	case Updating:
		return "updating"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes the phase from its name.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, phase := range []Phase{Uninitialized, Assigning, Updating} {
		if phase.String() == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase '%s': %w", string(text), ErrInvalidArgument)
}

// DefaultSeeds are the initial centroid positions used by the sandbox.
var DefaultSeeds = [2]Coordinate{
	{X: 100, Y: 100},
	{X: 200, Y: 200},
}

// State is the externally owned k-means state.
type State struct {
	Phase       Phase      `json:"phase"`
	Centroids   []Centroid `json:"centroids"`
	Assignments []int      `json:"assignments"`
}

// Copy returns a deep copy of the state.
func (s State) Copy() State {
	c := State{Phase: s.Phase}
	if s.Centroids != nil {
		c.Centroids = append(make([]Centroid, 0, len(s.Centroids)), s.Centroids...)
	}
	if s.Assignments != nil {
		c.Assignments = append(make([]int, 0, len(s.Assignments)), s.Assignments...)
	}
	return c
}

// Sizes returns the number of points assigned to each centroid.
func (s State) Sizes() []int {
	sizes := make([]int, len(s.Centroids))
	for _, a := range s.Assignments {
		if a >= 0 && a < len(sizes) {
			sizes[a]++
		}
	}
	return sizes
}

// KMeans is the two-centroid k-means transition function.
// There is no convergence detection, the Assigning and Updating phases alternate until a reset.
type KMeans struct {
	Seeds [2]Coordinate
}

// NewKMeans creates a k-means stepper definition with the given seed positions.
func NewKMeans(seeds [2]Coordinate) KMeans {
	return KMeans{Seeds: seeds}
}

// Step advances the state by one phase and returns the new state.
// The given state is not modified.
func (k KMeans) Step(state State, dataset []Point) (State, error) {
	if err := validateDataset(dataset); err != nil {
		return state, err
	}
	switch state.Phase {
	case Uninitialized:
		return k.init(dataset)
	case Assigning:
		if err := validateCentroids(state.Centroids); err != nil {
			return state, err
		}
		return assign(state, dataset), nil
	case Updating:
		if err := validateCentroids(state.Centroids); err != nil {
			return state, err
		}
		if len(state.Assignments) != len(dataset) {
			return state, fmt.Errorf("assignments for %d points but dataset has %d: %w",
				len(state.Assignments), len(dataset), ErrInvalidState)
		}
		for i, a := range state.Assignments {
			if a < 0 || a >= len(state.Centroids) {
				return state, fmt.Errorf("point %d assigned to unknown centroid %d: %w", i, a, ErrInvalidState)
			}
		}
		return update(state, dataset), nil
	}
	return state, fmt.Errorf("unknown phase %v: %w", state.Phase, ErrInvalidState)
}

func (k KMeans) init(dataset []Point) (State, error) {
	centroids := make([]Centroid, len(k.Seeds))
	for i, seed := range k.Seeds {
		if err := validateCoordinate(fmt.Sprintf("seed %d", i), seed); err != nil {
			return State{}, err
		}
		centroids[i] = Centroid{Coordinate: seed, ID: i}
	}
	assignments := make([]int, len(dataset))
	for i := range assignments {
		assignments[i] = Unassigned
	}
	return State{
		Phase:       Assigning,
		Centroids:   centroids,
		Assignments: assignments,
	}, nil
}

func validateCentroids(centroids []Centroid) error {
	if len(centroids) != 2 {
		return fmt.Errorf("expected 2 centroids but found %d: %w", len(centroids), ErrInvalidState)
	}
	for i, c := range centroids {
		// assignments refer to centroids by id, which must match the position
		if c.ID != i {
			return fmt.Errorf("centroid at %d has id %d: %w", i, c.ID, ErrInvalidState)
		}
		if err := validateCoordinate(fmt.Sprintf("centroid %d", i), c.Coordinate); err != nil {
			return err
		}
	}
	return nil
}

// assign maps every point to its nearest centroid, equal distances go to the lower index.
func assign(state State, dataset []Point) State {
	next := state.Copy()
	next.Assignments = make([]int, len(dataset))
	for i, p := range dataset {
		nearest := 0
		best := math.MaxFloat64
		for _, c := range next.Centroids {
			d := Distance(p.Coordinate, c.Coordinate)
			if d < best {
				best = d
				nearest = c.ID
			}
		}
		next.Assignments[i] = nearest
	}
	next.Phase = Updating
	return next
}

// update moves every centroid to the mean of its points.
// A centroid without points keeps its position.
// Assignments must have been checked against the centroids.
func update(state State, dataset []Point) State {
	next := state.Copy()
	collectors := make([]*buffer.StatsCollector, len(next.Centroids))
	for i := range collectors {
		collectors[i] = buffer.NewStatsCollector(2)
	}
	for i, p := range dataset {
		collectors[next.Assignments[i]].Push(p.X, p.Y)
	}
	for i, collector := range collectors {
		if collector.Size() == 0 {
			log.Debug().Int("centroid", i).Msg("no points assigned, keeping position")
			continue
		}
		avg := collector.Avg()
		next.Centroids[i].X = avg[0]
		next.Centroids[i].Y = avg[1]
	}
	next.Phase = Assigning
	return next
}

// Displacement is the largest distance any centroid moved between the two sets.
// It is meant for display, the stepper itself never stops on it.
func Displacement(before, after []Centroid) float64 {
	var max float64
	for i := 0; i < len(before) && i < len(after); i++ {
		if d := Distance(before[i].Coordinate, after[i].Coordinate); d > max {
			max = d
		}
	}
	return max
}

// Stepper is a stateful wrapper around KMeans for a single user.
type Stepper struct {
	kmeans KMeans
	state  State
}

// NewStepper creates a stepper in the Uninitialized phase.
func NewStepper(seeds [2]Coordinate) *Stepper {
	return &Stepper{
		kmeans: NewKMeans(seeds),
	}
}

// Advance moves the stepper one phase forward over the given dataset.
func (s *Stepper) Advance(dataset []Point) (State, error) {
	next, err := s.kmeans.Step(s.state, dataset)
	if err != nil {
		return s.state.Copy(), err
	}
	s.state = next
	return next.Copy(), nil
}

// Reset clears centroids and assignments.
func (s *Stepper) Reset() {
	s.state = State{}
}

// State returns a copy of the current state.
func (s *Stepper) State() State {
	return s.state.Copy()
}

// Clustering is the outcome of a full k-means run.
type Clustering struct {
	Centroids   []Coordinate `json:"centroids"`
	Assignments []int        `json:"assignments"`
}

// Converge runs goml's k-means on the dataset for the given number of iterations
// and refines the outcome against the dataset.
// Unlike the stepper it picks its own starting centroids.
func Converge(dataset []Point, k, iterations int) (Clustering, error) {
	if err := validateDataset(dataset); err != nil {
		return Clustering{}, err
	}
	if k <= 0 || k > len(dataset) {
		return Clustering{}, fmt.Errorf("k=%d outside of [1,%d]: %w", k, len(dataset), ErrInvalidArgument)
	}
	if iterations <= 0 {
		return Clustering{}, fmt.Errorf("iterations=%d must be positive: %w", iterations, ErrInvalidArgument)
	}

	data := make([][]float64, len(dataset))
	for i, p := range dataset {
		data[i] = p.Vec()
	}

	model := cluster.NewKMeans(k, iterations, data)
	model.Output = io.Discard
	if err := model.Learn(); err != nil {
		log.Error().
			Err(err).
			Int("k", k).
			Int("points", len(dataset)).
			Msg("error during training on k-means")
		return Clustering{}, fmt.Errorf("could not train: %w", err)
	}

	guesses := model.Guesses()
	if len(guesses) != len(dataset) {
		return Clustering{}, fmt.Errorf("could not align results with data [ %d | %d ]", len(guesses), len(dataset))
	}

	centroids := make([]Coordinate, len(model.Centroids))
	for i, c := range model.Centroids {
		if len(c) >= 2 && finite(c[0]) && finite(c[1]) {
			centroids[i] = Coordinate{X: c[0], Y: c[1]}
			continue
		}
		centroids[i] = dataset[i%len(dataset)].Coordinate
	}

	// goml moves empty clusters to random positions around the origin
	// and shares its seed rows with the centroids, so the result is settled again on the data.
	centroids, assignments := refine(dataset, centroids, iterations)

	return Clustering{
		Centroids:   centroids,
		Assignments: assignments,
	}, nil
}

// refine runs Lloyd iterations from the given centroids until the assignments settle.
// A centroid left without points moves onto the point farthest from its own centroid.
func refine(dataset []Point, centroids []Coordinate, iterations int) ([]Coordinate, []int) {
	assignments := make([]int, len(dataset))
	for i := range assignments {
		assignments[i] = Unassigned
	}
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, p := range dataset {
			if n := nearest(p.Coordinate, centroids); n != assignments[i] {
				assignments[i] = n
				changed = true
			}
		}
		collectors := make([]*buffer.StatsCollector, len(centroids))
		for j := range collectors {
			collectors[j] = buffer.NewStatsCollector(2)
		}
		for i, p := range dataset {
			collectors[assignments[i]].Push(p.X, p.Y)
		}
		for j, collector := range collectors {
			var next Coordinate
			if collector.Size() == 0 {
				next = dataset[farthest(dataset, centroids, assignments)].Coordinate
				log.Debug().
					Int("centroid", j).
					Float64("x", next.X).
					Float64("y", next.Y).
					Msg("no points assigned, moving onto the data")
			} else {
				avg := collector.Avg()
				next = Coordinate{X: avg[0], Y: avg[1]}
			}
			if next != centroids[j] {
				centroids[j] = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for i, p := range dataset {
		assignments[i] = nearest(p.Coordinate, centroids)
	}
	return centroids, assignments
}

// nearest returns the index of the closest centroid, equal distances go to the lower index.
func nearest(c Coordinate, centroids []Coordinate) int {
	n := 0
	best := math.MaxFloat64
	for j, centroid := range centroids {
		if d := Distance(c, centroid); d < best {
			best = d
			n = j
		}
	}
	return n
}

// farthest returns the index of the point with the largest distance to its assigned centroid.
func farthest(dataset []Point, centroids []Coordinate, assignments []int) int {
	far := 0
	max := -1.0
	for i, p := range dataset {
		if d := Distance(p.Coordinate, centroids[assignments[i]]); d > max {
			max = d
			far = i
		}
	}
	return far
}
