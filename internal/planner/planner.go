// Package planner runs the generate-evaluate prioritization loop.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"focal/internal/llm"
	"focal/internal/logging"
	"focal/internal/model"
)

// Defaults for the convergence protocol.
const (
	DefaultConfidenceThreshold = 0.8
	DefaultMaxIterations       = 3

	generateAttempts = 2
)

// Config tunes the loop.
type Config struct {
	ConfidenceThreshold float64
	MaxIterations       int
}

// Request carries everything a prioritization run needs.
type Request struct {
	Outcome      string
	Tasks        []model.Task
	Reflections  []model.Reflection
	PreviousPlan *model.PrioritizationResult
	Constraints  []string
}

// Metadata describes how a run ended.
type Metadata struct {
	PlanID              string        `json:"plan_id"`
	Iterations          int           `json:"iterations"`
	Converged           bool          `json:"converged"`
	EvaluationTriggered bool          `json:"evaluation_triggered"`
	Duration            time.Duration `json:"duration"`
}

// Outcome is the loop result. Converged=false with a nil error means
// the iteration budget ran out; the last plan is still usable.
type Outcome struct {
	Plan       model.PrioritizationResult
	Evaluation *model.EvaluationResult
	Chain      []model.ChainOfThoughtEntry
	Metadata   Metadata
}

// Planner drives a generator agent and an evaluator agent until the
// plan converges or the iteration budget runs out.
type Planner struct {
	generator llm.Agent
	evaluator llm.Agent
	cfg       Config
	now       func() time.Time
	log       zerolog.Logger
}

// New builds a planner. Zero config fields fall back to defaults.
func New(generator, evaluator llm.Agent, cfg Config) *Planner {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Planner{
		generator: generator,
		evaluator: evaluator,
		cfg:       cfg,
		now:       time.Now,
		log:       logging.With("planner"),
	}
}

// Run executes the loop:
//
//	generate -> (confidence gate, first plan only) -> evaluate -> refine
//
// A first plan at or above the confidence threshold skips evaluation
// entirely. Every refined plan is evaluated. The loop stops on PASS or
// after MaxIterations generator calls.
func (p *Planner) Run(ctx context.Context, req Request) (Outcome, error) {
	start := p.now()
	out := Outcome{
		Metadata: Metadata{PlanID: uuid.NewString()},
	}

	if len(req.Tasks) == 0 {
		return out, fmt.Errorf("no tasks to prioritize")
	}

	feedback := ""
	for iter := 1; iter <= p.cfg.MaxIterations; iter++ {
		plan, err := p.generate(ctx, req, feedback)
		if err != nil {
			return out, err
		}

		out.Plan = plan
		out.Metadata.Iterations = iter
		entry := model.ChainOfThoughtEntry{Iteration: iter, Plan: plan}

		if iter == 1 && plan.Confidence >= p.cfg.ConfidenceThreshold {
			out.Chain = append(out.Chain, entry)
			out.Metadata.Converged = true
			out.Metadata.Duration = p.now().Sub(start)
			p.log.Debug().
				Str("plan_id", out.Metadata.PlanID).
				Float64("confidence", plan.Confidence).
				Msg("plan accepted on confidence gate")
			return out, nil
		}

		eval, err := p.evaluate(ctx, req, plan)
		if err != nil {
			return out, err
		}
		out.Metadata.EvaluationTriggered = true
		out.Evaluation = &eval
		entry.Evaluation = &eval
		out.Chain = append(out.Chain, entry)

		if eval.Status == model.VerdictPass {
			out.Metadata.Converged = true
			out.Metadata.Duration = p.now().Sub(start)
			p.log.Debug().
				Str("plan_id", out.Metadata.PlanID).
				Int("iterations", iter).
				Msg("plan converged")
			return out, nil
		}
		feedback = eval.Feedback
	}

	// Budget exhausted. Not an error: the caller gets the last plan
	// with Converged=false and its evaluator feedback attached.
	out.Metadata.Duration = p.now().Sub(start)
	p.log.Warn().
		Str("plan_id", out.Metadata.PlanID).
		Int("iterations", out.Metadata.Iterations).
		Msg("plan did not converge within iteration budget")
	return out, nil
}

func (p *Planner) generate(ctx context.Context, req Request, feedback string) (model.PrioritizationResult, error) {
	input := buildGeneratorInput(req, feedback, p.now())

	var plan model.PrioritizationResult
	attempts := 0
	err := retry.Do(ctx, retry.WithMaxRetries(generateAttempts-1, retry.NewConstant(time.Second)), func(ctx context.Context) error {
		attempts++
		raw, err := p.generator.Generate(ctx, llm.Request{
			Instructions: generatorInstructions,
			Input:        input,
		})
		if err != nil {
			return retry.RetryableError(fmt.Errorf("generator call: %w", err))
		}
		plan, err = llm.ParsePlan(raw)
		if err != nil {
			p.log.Debug().Err(err).Int("attempt", attempts).Msg("generator output rejected")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return plan, fmt.Errorf("generator output invalid after %d attempts: %w", attempts, err)
	}
	return plan, nil
}

func (p *Planner) evaluate(ctx context.Context, req Request, plan model.PrioritizationResult) (model.EvaluationResult, error) {
	input := buildEvaluatorInput(req, plan, p.now())

	var eval model.EvaluationResult
	attempts := 0
	callStart := p.now()
	err := retry.Do(ctx, retry.WithMaxRetries(generateAttempts-1, retry.NewConstant(time.Second)), func(ctx context.Context) error {
		attempts++
		raw, err := p.evaluator.Generate(ctx, llm.Request{
			Instructions: evaluatorInstructions,
			Input:        input,
		})
		if err != nil {
			return retry.RetryableError(fmt.Errorf("evaluator call: %w", err))
		}
		eval, err = llm.ParseEvaluation(raw)
		if err != nil {
			p.log.Debug().Err(err).Int("attempt", attempts).Msg("evaluator output rejected")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return eval, fmt.Errorf("evaluator output invalid after %d attempts: %w", attempts, err)
	}
	eval.LatencyMS = p.now().Sub(callStart).Milliseconds()
	return eval, nil
}
