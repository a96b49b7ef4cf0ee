package ml

import (
	"fmt"

	randomforest "github.com/malaschitz/randomForest"
	"github.com/rs/zerolog/log"
)

// Forest is a random forest classifier over the labelled points.
type Forest struct {
	trees  int
	forest *randomforest.Forest
}

// NewForest creates a forest with n trees.
func NewForest(n int) *Forest {
	return &Forest{
		trees: n,
	}
}

// Train fits the forest on the dataset.
func (rf *Forest) Train(dataset []Point) error {
	if err := validateDataset(dataset); err != nil {
		return err
	}
	if err := validateLabels(dataset); err != nil {
		return err
	}
	if rf.trees <= 0 {
		return fmt.Errorf("forest needs at least one tree, got %d: %w", rf.trees, ErrInvalidArgument)
	}

	xData := make([][]float64, len(dataset))
	yData := make([]int, len(dataset))
	for i, p := range dataset {
		xData[i] = p.Vec()
		yData[i] = classIndex(p.Label)
	}

	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: xData, Class: yData}
	forest.Train(rf.trees)
	rf.forest = forest
	log.Debug().
		Int("trees", rf.trees).
		Int("points", len(dataset)).
		Str("features", fmt.Sprintf("%+v", forest.FeatureImportance)).
		Msg("trained forest")
	return nil
}

// Predict returns the label with the most votes for the query.
func (rf *Forest) Predict(query Coordinate) (Label, error) {
	if rf.forest == nil {
		return "", fmt.Errorf("forest is not trained: %w", ErrInvalidState)
	}
	if err := validateCoordinate("query", query); err != nil {
		return "", err
	}
	votes := rf.forest.Vote(query.Vec())
	best := 0
	for i, v := range votes {
		if v > votes[best] {
			best = i
		}
	}
	if best >= len(Labels) {
		return "", fmt.Errorf("unknown class index %d: %w", best, ErrInvalidState)
	}
	return Labels[best], nil
}

func classIndex(l Label) int {
	for i, label := range Labels {
		if label == l {
			return i
		}
	}
	return -1
}
