package workflow

import (
	"fmt"
	"strings"
)

// AggregateResults combines results into a single AggregatedResult under
// the given strategy.
func AggregateResults(results []TaskResult, strategy MergeStrategy) AggregatedResult {
	var summary string
	switch strategy {
	case MergeVoting:
		summary = votingSummary(results)
	case MergeFirstSuccess:
		summary = firstSuccessSummary(results)
	case MergeHighestScore:
		summary = highestScoreSummary(results)
	default:
		summary = concatenateSummary(results)
	}
	return AggregatedResult{Summary: summary, IndividualResults: results}
}

func concatenateSummary(results []TaskResult) string {
	outputs := make([]string, len(results))
	for i, r := range results {
		outputs[i] = r.Output
	}
	return strings.Join(outputs, "\n\n")
}

func votingSummary(results []TaskResult) string {
	succeeded := 0
	outputs := make([]string, 0, len(results))
	for _, r := range results {
		if r.Success {
			succeeded++
		}
		outputs = append(outputs, r.Output)
	}
	return fmt.Sprintf("Voting complete: %d/%d tasks succeeded.\n\n%s", succeeded, len(results), strings.Join(outputs, "\n\n"))
}

func firstSuccessSummary(results []TaskResult) string {
	for _, r := range results {
		if r.Success {
			return r.Output
		}
	}
	return "No successful results found."
}

func highestScoreSummary(results []TaskResult) string {
	if len(results) == 0 {
		return "No results to aggregate."
	}
	best := results[0]
	bestScore := scoreOf(best)
	for _, r := range results[1:] {
		if s := scoreOf(r); s > bestScore {
			best = r
			bestScore = s
		}
	}
	return fmt.Sprintf("Best result (score: %.2f):\n%s", bestScore, best.Output)
}

func scoreOf(r TaskResult) float64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}
