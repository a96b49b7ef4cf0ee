package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidArgument signals a caller supplied value that the algorithms cannot work with.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState signals an operation on a dataset or stepper that is not ready for it.
	ErrInvalidState = errors.New("invalid state")
)

// Label is the class of a labelled point.
type Label string

const (
	A Label = "A"
	B Label = "B"
)

// Labels lists the known labels in their canonical order.
var Labels = []Label{A, B}

// Valid reports if the label is one of the known classes.
func (l Label) Valid() bool {
	return l == A || l == B
}

// Coordinate is a position in the 2d feature space.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec returns the coordinate as a feature vector.
func (c Coordinate) Vec() []float64 {
	return []float64{c.X, c.Y}
}

// Finite reports if both components are finite numbers.
func (c Coordinate) Finite() bool {
	return finite(c.X) && finite(c.Y)
}

// Point is an immutable labelled sample of the dataset.
type Point struct {
	Coordinate
	Label Label `json:"label"`
}

// NewPoint creates a new labelled point.
func NewPoint(x, y float64, label Label) Point {
	return Point{
		Coordinate: Coordinate{X: x, Y: y},
		Label:      label,
	}
}

// Centroid is the representative position of a k-means cluster.
type Centroid struct {
	Coordinate
	ID int `json:"id"`
}

// Distance is the euclidean distance of the two coordinates.
func Distance(a, b Coordinate) float64 {
	return floats.Distance(a.Vec(), b.Vec(), 2)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validateCoordinate(name string, c Coordinate) error {
	if !c.Finite() {
		return fmt.Errorf("%s (%v,%v) is not finite: %w", name, c.X, c.Y, ErrInvalidArgument)
	}
	return nil
}

// Validate checks that the dataset is non-empty, finite and labelled with known classes.
func Validate(dataset []Point) error {
	if err := validateDataset(dataset); err != nil {
		return err
	}
	return validateLabels(dataset)
}

// validateDataset checks that the dataset can be used for distance calculations.
func validateDataset(dataset []Point) error {
	if len(dataset) == 0 {
		return fmt.Errorf("empty dataset: %w", ErrInvalidState)
	}
	for i, p := range dataset {
		if err := validateCoordinate(fmt.Sprintf("point %d", i), p.Coordinate); err != nil {
			return err
		}
	}
	return nil
}

// validateLabels checks that every point carries a known class.
func validateLabels(dataset []Point) error {
	for i, p := range dataset {
		if !p.Label.Valid() {
			return fmt.Errorf("point %d has unknown label '%s': %w", i, p.Label, ErrInvalidArgument)
		}
	}
	return nil
}
