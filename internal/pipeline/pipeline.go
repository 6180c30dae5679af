package pipeline

import (
	"context"
	"time"

	"github.com/harvestiq/harvestiq/internal/config"
	"github.com/harvestiq/harvestiq/internal/llm"
	"github.com/harvestiq/harvestiq/internal/metadata"
	"github.com/harvestiq/harvestiq/internal/security"
)

// User-facing fallback answers for the two no-data branches. "No plan" and
// "plan ran but found nothing" are deliberately distinct messages.
const (
	PlanFailureAnswer = "I was unable to create a data retrieval plan for that question."
	NoDataAnswer      = "I found no data matching your query."
)

// Pipeline wires the four stages together. Stateless across requests; the
// only shared state is the read-only metadata cache.
type Pipeline struct {
	understanding *Understanding
	planner       *Planner
	executor      *Executor
	synthesizer   *Synthesizer
	audit         *security.AuditLogger
}

func New(client llm.Client, meta *metadata.Store, dbPath string, sources map[string]config.Source, audit *security.AuditLogger) *Pipeline {
	sqlVal := security.NewSQLValidator()
	return &Pipeline{
		understanding: NewUnderstanding(client, meta),
		planner:       NewPlanner(client, meta),
		executor:      NewExecutor(dbPath, sources, sqlVal, audit),
		synthesizer:   NewSynthesizer(client),
		audit:         audit,
	}
}

// Outcome is the full result of one request through the pipeline.
type Outcome struct {
	Synthesis Synthesis
	Citations Citations
	Results   []ExecutionResult
	Logs      []string
}

// Answer runs the strictly sequential pipeline for one question. Stage
// failures degrade within their stage; Answer itself never returns an error.
func (p *Pipeline) Answer(ctx context.Context, question string) *Outcome {
	start := time.Now()
	trace := NewTrace()

	intent := p.understanding.Parse(ctx, question, trace)
	plans := p.planner.GeneratePlans(ctx, intent, question, trace)

	var results []ExecutionResult
	if len(plans) > 0 {
		results = p.executor.ExecutePlans(ctx, plans, trace)
	}

	var synthesis Synthesis
	var citations Citations

	switch {
	case len(plans) == 0:
		synthesis = Synthesis{Answer: PlanFailureAnswer, KeyFindings: []string{}}
		citations = EmptyCitations()
	case allEmpty(results):
		synthesis = Synthesis{Answer: NoDataAnswer, KeyFindings: []string{}}
		citations = EmptyCitations()
	default:
		synthesis = p.synthesizer.Synthesize(ctx, question, intent, results, trace)
		citations = GenerateCitations(results)
	}

	totalRows := 0
	for _, r := range results {
		totalRows += r.RowCount
	}
	p.audit.LogPipelineRequest(question, "", len(plans), totalRows, time.Since(start).Milliseconds(), true)

	return &Outcome{
		Synthesis: synthesis,
		Citations: citations,
		Results:   results,
		Logs:      trace.Lines(),
	}
}

func allEmpty(results []ExecutionResult) bool {
	for _, r := range results {
		if r.RowCount > 0 {
			return false
		}
	}
	return true
}
