package skydive

import (
	"github.com/charmbracelet/log"
)

const DEFAULT_WORKERS = 1

// BatchResult is the outcome of one config of a batch
type BatchResult struct {
	Index  int
	Report Report
	Err    error
}

type batchJob struct {
	config Config
	result *BatchResult
}

// RunBatch runs independent jumps in parallel and returns one result per config, in input order.
// Each simulation owns its body and surface, so workers share nothing but the logger.
func RunBatch(configs []Config, workers int, logger *log.Logger) []BatchResult {
	workers = max(DEFAULT_WORKERS, workers)
	results := make([]BatchResult, len(configs))
	jobs := make([]batchJob, len(configs))
	for i := range configs {
		results[i].Index = i
		jobs[i] = batchJob{config: configs[i], result: &results[i]}
	}

	task(workers, jobs, func(job batchJob) {
		sim, err := job.config.NewSimulation()
		if err != nil {
			job.result.Err = err
			return
		}
		if logger != nil {
			sim.Logger = logger.With("run", job.result.Index)
		}
		job.result.Report, job.result.Err = sim.Run(job.config.MaxDuration)
	})

	return results
}
