package ml

import (
	"fmt"
	"math"
	"time"

	"github.com/drakos74/cv-scratch/internal/buffer"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DatasetConfig describes the two clusters of the synthetic dataset.
type DatasetConfig struct {
	N1      int        `yaml:"n1" json:"n1"`
	N2      int        `yaml:"n2" json:"n2"`
	Center1 Coordinate `yaml:"center1" json:"center1"`
	Center2 Coordinate `yaml:"center2" json:"center2"`
	Jitter  float64    `yaml:"jitter" json:"jitter"`
}

// DefaultDataset mirrors the guide layout,
// label A sits low on x and high on y, label B the other way round.
func DefaultDataset() DatasetConfig {
	return DatasetConfig{
		N1:      15,
		N2:      15,
		Center1: Coordinate{X: 70, Y: 210},
		Center2: Coordinate{X: 210, Y: 90},
		Jitter:  30,
	}
}

// Generate creates the dataset described by the config.
func (cfg DatasetConfig) Generate(src rand.Source) ([]Point, error) {
	return Generate(src, cfg.N1, cfg.N2, cfg.Center1, cfg.Center2, cfg.Jitter)
}

// NewSource returns a random source seeded from the clock.
func NewSource() rand.Source {
	return rand.NewSource(uint64(time.Now().UnixNano()))
}

// Generate creates n1 points labelled A around c1 and n2 points labelled B around c2.
// Every point lies within jitter (euclidean) of its center, uniformly over the disk.
func Generate(src rand.Source, n1, n2 int, c1, c2 Coordinate, jitter float64) ([]Point, error) {
	if n1 < 0 || n2 < 0 {
		return nil, fmt.Errorf("negative cluster size [%d,%d]: %w", n1, n2, ErrInvalidArgument)
	}
	if !finite(jitter) || jitter < 0 {
		return nil, fmt.Errorf("jitter %v must be finite and non-negative: %w", jitter, ErrInvalidArgument)
	}
	if err := validateCoordinate("center1", c1); err != nil {
		return nil, err
	}
	if err := validateCoordinate("center2", c2); err != nil {
		return nil, err
	}
	if src == nil {
		src = NewSource()
	}

	radius := distuv.Uniform{Min: 0, Max: 1, Src: src}
	angle := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: src}

	points := make([]Point, 0, n1+n2)
	sample := func(n int, center Coordinate, label Label) {
		for i := 0; i < n; i++ {
			// sqrt keeps the density uniform over the disk area
			r := jitter * math.Sqrt(radius.Rand())
			theta := angle.Rand()
			points = append(points, NewPoint(
				center.X+r*math.Cos(theta),
				center.Y+r*math.Sin(theta),
				label,
			))
		}
	}
	sample(n1, c1, A)
	sample(n2, c2, B)

	return points, nil
}

// Summary holds the per-label statistics of a dataset.
type Summary struct {
	Size  int        `json:"size"`
	Mean  Coordinate `json:"mean"`
	StDev Coordinate `json:"stdev"`
}

// Summarize computes the size, mean and standard deviation of each label.
func Summarize(dataset []Point) map[Label]Summary {
	collectors := make(map[Label]*buffer.StatsCollector)
	for _, p := range dataset {
		if _, ok := collectors[p.Label]; !ok {
			collectors[p.Label] = buffer.NewStatsCollector(2)
		}
		collectors[p.Label].Push(p.X, p.Y)
	}
	summary := make(map[Label]Summary, len(collectors))
	for label, collector := range collectors {
		stats := collector.Stats()
		summary[label] = Summary{
			Size:  collector.Size(),
			Mean:  Coordinate{X: stats[0].Avg(), Y: stats[1].Avg()},
			StDev: Coordinate{X: stats[0].StDev(), Y: stats[1].StDev()},
		}
	}
	return summary
}
