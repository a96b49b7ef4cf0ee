package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/drakos74/cv-scratch/internal/config"
	"github.com/drakos74/cv-scratch/internal/math/ml"
	"github.com/drakos74/cv-scratch/internal/sandbox"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
)

func source(seed int64) rand.Source {
	if seed < 0 {
		return nil
	}
	return rand.NewSource(uint64(seed))
}

// newSandbox creates a sandbox, replacing the generated points with the json array in dataset if given.
func newSandbox(cfg config.Config, seed int64, dataset string) (*sandbox.Sandbox, error) {
	sb, err := sandbox.New(cfg.Sandbox, source(seed))
	if err != nil {
		return nil, err
	}
	if dataset == "" {
		return sb, nil
	}
	b, err := ioutil.ReadFile(dataset)
	if err != nil {
		return nil, fmt.Errorf("could not read dataset '%s': %w", dataset, err)
	}
	var points []ml.Point
	if err := json.Unmarshal(b, &points); err != nil {
		return nil, fmt.Errorf("could not parse dataset '%s': %w", dataset, err)
	}
	if err := sb.Replace(points); err != nil {
		return nil, err
	}
	return sb, nil
}

func output(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("could not encode output: %w", err)
	}
	return nil
}

func classifyCmd(load func() (config.Config, error)) *cobra.Command {
	var x, y float64
	var k int
	var seed int64
	var dataset string
	var compare bool
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a point against a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			sb, err := newSandbox(cfg, seed, dataset)
			if err != nil {
				return err
			}
			if k > 0 {
				if err := sb.SetK(k); err != nil {
					return err
				}
			}
			if compare {
				comparison, err := sb.Compare(x, y)
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), comparison)
			}
			prediction, err := sb.Click(x, y)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), prediction)
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "query x")
	cmd.Flags().Float64Var(&y, "y", 0, "query y")
	cmd.Flags().IntVarP(&k, "k", "k", 0, "neighbour count, defaults to the config")
	cmd.Flags().Int64Var(&seed, "seed", -1, "dataset seed, negative seeds from the clock")
	cmd.Flags().StringVar(&dataset, "dataset", "", "json file with the points to use instead of a generated dataset")
	cmd.Flags().BoolVar(&compare, "compare", false, "also classify with the reference knn and the random forest")
	return cmd
}

func kmeansCmd(load func() (config.Config, error)) *cobra.Command {
	var steps int
	var seed int64
	var dataset string
	cmd := &cobra.Command{
		Use:   "kmeans",
		Short: "Step k-means over a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			sb, err := newSandbox(cfg, seed, dataset)
			if err != nil {
				return err
			}
			state := sb.KMeans()
			for i := 0; i < steps; i++ {
				state, err = sb.Step()
				if err != nil {
					return err
				}
			}
			return output(cmd.OutOrStdout(), struct {
				Points []ml.Point `json:"points"`
				State  ml.State   `json:"state"`
				Sizes  []int      `json:"sizes"`
			}{
				Points: sb.Points(),
				State:  state,
				Sizes:  state.Sizes(),
			})
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 3, "number of steps")
	cmd.Flags().Int64Var(&seed, "seed", -1, "dataset seed, negative seeds from the clock")
	cmd.Flags().StringVar(&dataset, "dataset", "", "json file with the points to use instead of a generated dataset")
	return cmd
}
