package ml

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/knn"
)

// Neighbor is one of the k nearest points to a query.
type Neighbor struct {
	Point
	// Index is the position of the point in the dataset.
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
}

// Prediction is the outcome of a knn classification.
type Prediction struct {
	Query     Coordinate    `json:"query"`
	Label     Label         `json:"label"`
	Votes     map[Label]int `json:"votes"`
	Neighbors []Neighbor    `json:"neighbors"`
}

// Classify labels the query by majority vote among its k nearest points.
// Neighbors are ordered by non-decreasing distance, equal distances keep the dataset order.
// A tied vote goes to the label of the nearest neighbour among the tied labels.
func Classify(dataset []Point, query Coordinate, k int) (Prediction, error) {
	if err := validateDataset(dataset); err != nil {
		return Prediction{}, err
	}
	if err := validateLabels(dataset); err != nil {
		return Prediction{}, err
	}
	if err := validateCoordinate("query", query); err != nil {
		return Prediction{}, err
	}
	if k <= 0 || k > len(dataset) {
		return Prediction{}, fmt.Errorf("k=%d outside of [1,%d]: %w", k, len(dataset), ErrInvalidArgument)
	}

	neighbors := make([]Neighbor, len(dataset))
	for i, p := range dataset {
		neighbors[i] = Neighbor{
			Point:    p,
			Index:    i,
			Distance: Distance(query, p.Coordinate),
		}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	neighbors = neighbors[:k]

	votes := make(map[Label]int, len(Labels))
	for _, l := range Labels {
		votes[l] = 0
	}
	for _, n := range neighbors {
		votes[n.Label]++
	}

	// walking the neighbours in distance order resolves ties towards the nearest one
	label := neighbors[0].Label
	for _, n := range neighbors {
		if votes[n.Label] > votes[label] {
			label = n.Label
		}
	}

	return Prediction{
		Query:     query,
		Label:     label,
		Votes:     votes,
		Neighbors: neighbors,
	}, nil
}

// ReferenceClassify runs the same classification through golearn's knn implementation.
// It is used to cross-check the results of Classify.
func ReferenceClassify(dataset []Point, query Coordinate, k int) (Label, error) {
	if err := validateDataset(dataset); err != nil {
		return "", err
	}
	if err := validateLabels(dataset); err != nil {
		return "", err
	}
	if err := validateCoordinate("query", query); err != nil {
		return "", err
	}
	if k <= 0 || k > len(dataset) {
		return "", fmt.Errorf("k=%d outside of [1,%d]: %w", k, len(dataset), ErrInvalidArgument)
	}

	train, err := newInstances(dataset)
	if err != nil {
		return "", fmt.Errorf("could not create training instances: %w", err)
	}
	test, err := queryInstances(train, query)
	if err != nil {
		return "", fmt.Errorf("could not create query instances: %w", err)
	}

	cls := knn.NewKnnClassifier("euclidean", "linear", k)
	err = cls.Fit(train)
	if err != nil {
		log.Error().Err(err).Msg("could not train knn model")
		return "", err
	}

	predictions, err := cls.Predict(test)
	if err != nil {
		log.Error().Err(err).Msg("could not predict on knn model")
		return "", err
	}

	return Label(base.GetClass(predictions, 0)), nil
}

// newInstances converts the dataset into golearn instances with a categorical class attribute.
func newInstances(dataset []Point) (*base.DenseInstances, error) {
	instances := base.NewDenseInstances()

	xAttr := base.NewFloatAttribute("x")
	yAttr := base.NewFloatAttribute("y")
	classAttr := base.NewCategoricalAttribute()
	classAttr.SetName("label")

	xSpec := instances.AddAttribute(xAttr)
	ySpec := instances.AddAttribute(yAttr)
	classSpec := instances.AddAttribute(classAttr)
	if err := instances.AddClassAttribute(classAttr); err != nil {
		return nil, err
	}

	if err := instances.Extend(len(dataset)); err != nil {
		return nil, err
	}
	for i, p := range dataset {
		instances.Set(xSpec, i, base.PackFloatToBytes(p.X))
		instances.Set(ySpec, i, base.PackFloatToBytes(p.Y))
		instances.Set(classSpec, i, classAttr.GetSysValFromString(string(p.Label)))
	}
	return instances, nil
}

// queryInstances creates a single row grid with the same attributes as the training set.
func queryInstances(train *base.DenseInstances, query Coordinate) (*base.DenseInstances, error) {
	test := base.NewStructuralCopy(train)
	if err := test.Extend(1); err != nil {
		return nil, err
	}
	attrs := test.AllAttributes()
	for _, attr := range attrs {
		spec, err := test.GetAttribute(attr)
		if err != nil {
			return nil, err
		}
		switch attr.GetName() {
		case "x":
			test.Set(spec, 0, base.PackFloatToBytes(query.X))
		case "y":
			test.Set(spec, 0, base.PackFloatToBytes(query.Y))
		default:
			// the class is unknown, any known value keeps the row well formed
			test.Set(spec, 0, attr.GetSysValFromString(string(A)))
		}
	}
	return test, nil
}
