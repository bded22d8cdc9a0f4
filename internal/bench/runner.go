// Package bench drives adapters through a build-then-sweep benchmark and
// measures build time, throughput, recall and memory.
package bench

import (
	"context"
	"fmt"
	"time"

	"annbench/internal/adapter"
	"annbench/internal/config"
	"annbench/internal/metric"
	"annbench/pkg/logger"
)

// Result is one (adapter, search breadth) measurement.
type Result struct {
	Name        string        `json:"name" yaml:"name"`
	Ef          int           `json:"ef" yaml:"ef"`
	BuildTime   time.Duration `json:"build_time" yaml:"build_time"`
	QueryTime   time.Duration `json:"query_time" yaml:"query_time"`
	BatchTime   time.Duration `json:"batch_time" yaml:"batch_time"`
	QPS         float64       `json:"qps" yaml:"qps"`
	Recall      float64       `json:"recall" yaml:"recall"`
	BatchRecall float64       `json:"batch_recall" yaml:"batch_recall"`
	MemoryKiB   float64       `json:"memory_kib" yaml:"memory_kib"`
}

// Factory constructs the adapter for a run definition.
type Factory func(def adapter.Definition) (adapter.ANN, error)

// Local builds in-process adapters.
func Local(def adapter.Definition) (adapter.ANN, error) {
	a, err := adapter.New(def)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Run fits ann on the train split once, then for each query argument measures
// single-query throughput and recall, and batch recall. ann is freed on return.
// Cancellation is checked between phases; a fit in progress runs to completion.
func Run(ctx context.Context, ann adapter.ANN, ds *Dataset, truth [][]int64, queryArgs []int, k int) ([]Result, error) {
	defer ann.Free()

	start := time.Now()
	if err := ann.Fit(ds.Train); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	buildTime := time.Since(start)
	memory := ann.MemoryUsage()

	results := make([]Result, 0, len(queryArgs))
	for _, ef := range queryArgs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if err := ann.SetQueryArguments(ef); err != nil {
			return results, fmt.Errorf("set query arguments %d: %w", ef, err)
		}

		got := make([][]int64, len(ds.Test))
		start = time.Now()
		for i, q := range ds.Test {
			labels, err := ann.Query(q, k)
			if err != nil {
				return results, fmt.Errorf("query %d: %w", i, err)
			}
			got[i] = labels
		}
		queryTime := time.Since(start)

		start = time.Now()
		if err := ann.BatchQuery(ds.Test, k); err != nil {
			return results, fmt.Errorf("batch query: %w", err)
		}
		batchTime := time.Since(start)
		batch, err := ann.GetBatchResults()
		if err != nil {
			return results, fmt.Errorf("batch results: %w", err)
		}

		r := Result{
			Name:        ann.String(),
			Ef:          ef,
			BuildTime:   buildTime,
			QueryTime:   queryTime,
			BatchTime:   batchTime,
			QPS:         float64(len(ds.Test)) / max(queryTime.Seconds(), 1e-9),
			Recall:      meanRecall(got, truth),
			BatchRecall: meanRecall(batch, truth),
			MemoryKiB:   memory,
		}
		logger.Info("Benchmark result",
			"name", r.Name,
			"ef", r.Ef,
			"recall", r.Recall,
			"qps", r.QPS,
			"memory_kib", r.MemoryKiB)
		results = append(results, r)
	}
	return results, nil
}

// RunAll generates the configured dataset and runs every configured definition.
func RunAll(ctx context.Context, cfg *config.Config, factory Factory) ([]Result, error) {
	ds, err := Generate(cfg.Dataset)
	if err != nil {
		return nil, err
	}
	logger.Info("Generated dataset",
		"name", ds.Name,
		"train", len(ds.Train),
		"test", len(ds.Test),
		"dimension", cfg.Dataset.Dimension)

	var all []Result
	for i, run := range cfg.Runs {
		kind, err := metric.ParseKind(run.Metric)
		if err != nil {
			return all, fmt.Errorf("run %d: %w", i, err)
		}
		truth, err := ds.Neighbors(kind, cfg.Count)
		if err != nil {
			return all, fmt.Errorf("run %d ground truth: %w", i, err)
		}
		ann, err := factory(run.Definition)
		if err != nil {
			return all, fmt.Errorf("run %d: %w", i, err)
		}
		results, err := Run(ctx, ann, ds, truth, run.QueryArgs, cfg.Count)
		all = append(all, results...)
		if err != nil {
			return all, fmt.Errorf("run %d: %w", i, err)
		}
	}
	return all, nil
}
