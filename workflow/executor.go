package workflow

import (
	"context"
	"sync"
)

// TaskFunc executes a single Assignment and returns its TaskResult. The
// supervisor package's runStep, which delegates through
// runtime.AgentRuntime.Delegate, is the usual implementation: this seam
// exists so the executor's coordination strategies can be
// tested without a real agent runtime.
type TaskFunc func(ctx context.Context, assignment Assignment) (TaskResult, error)

// Executor runs a Plan's Assignments under a CoordinationStrategy.
type Executor struct {
	run              TaskFunc
	maxParallelAgents int
}

// NewExecutor builds an Executor that dispatches each assignment through
// run, bounding concurrent executions to maxParallelAgents (0 means
// unbounded).
func NewExecutor(run TaskFunc, maxParallelAgents int) *Executor {
	return &Executor{run: run, maxParallelAgents: maxParallelAgents}
}

// ExecutePlan runs assignments under strategy and returns one TaskResult
// per assignment, in assignment order.
func (e *Executor) ExecutePlan(ctx context.Context, assignments []Assignment, strategy CoordinationStrategy) ([]TaskResult, error) {
	switch strategy {
	case StrategySequential:
		return e.executeSequential(ctx, assignments)
	case StrategyParallel:
		return e.executeParallel(ctx, assignments)
	case StrategyHybrid:
		return e.executeHybrid(ctx, assignments)
	default:
		return e.executeHybrid(ctx, assignments)
	}
}

func (e *Executor) executeSequential(ctx context.Context, assignments []Assignment) ([]TaskResult, error) {
	results := make([]TaskResult, len(assignments))
	for i, a := range assignments {
		result, err := e.run(ctx, a)
		if err != nil {
			return results, err
		}
		results[i] = result
	}
	return results, nil
}

func (e *Executor) executeParallel(ctx context.Context, assignments []Assignment) ([]TaskResult, error) {
	results := make([]TaskResult, len(assignments))
	errs := make([]error, len(assignments))

	var sem chan struct{}
	if e.maxParallelAgents > 0 {
		sem = make(chan struct{}, e.maxParallelAgents)
	}

	var wg sync.WaitGroup
	for i, a := range assignments {
		wg.Add(1)
		go func(i int, a Assignment) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			result, err := e.run(ctx, a)
			results[i] = result
			errs[i] = err
		}(i, a)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// executeHybrid runs the first half of assignments sequentially, then the
// second half in parallel.
func (e *Executor) executeHybrid(ctx context.Context, assignments []Assignment) ([]TaskResult, error) {
	mid := len(assignments) / 2

	firstHalf, err := e.executeSequential(ctx, assignments[:mid])
	if err != nil {
		return append(firstHalf, make([]TaskResult, len(assignments)-mid)...), err
	}
	secondHalf, err := e.executeParallel(ctx, assignments[mid:])
	if err != nil {
		return append(firstHalf, secondHalf...), err
	}
	return append(firstHalf, secondHalf...), nil
}
