package planner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focal/internal/llm"
	"focal/internal/model"
)

type scriptedAgent struct {
	responses []string
	calls     int
	inputs    []string
}

func (a *scriptedAgent) Generate(_ context.Context, req llm.Request) (string, error) {
	a.inputs = append(a.inputs, req.Input)
	if a.calls >= len(a.responses) {
		return "", fmt.Errorf("unexpected call %d", a.calls+1)
	}
	resp := a.responses[a.calls]
	a.calls++
	return resp, nil
}

func planJSON(confidence float64) string {
	return fmt.Sprintf(`{
	  "included_tasks": [
	    {"task_id": "t1", "reason": "unblocks the release"},
	    {"task_id": "t2", "reason": "directly serves the outcome"}
	  ],
	  "excluded_tasks": [],
	  "ordered_task_ids": ["t1", "t2"],
	  "task_scores": [
	    {"task_id": "t1", "impact": 9, "effort": 3, "confidence": 0.9, "reasoning": "prerequisite for everything else"},
	    {"task_id": "t2", "impact": 7, "effort": 5, "confidence": 0.8, "reasoning": "high impact once t1 lands"}
	  ],
	  "confidence": %v,
	  "critical_path_reasoning": "t1 blocks t2, so t1 must come first in the sequence."
	}`, confidence)
}

func evalJSON(status, feedback string) string {
	return fmt.Sprintf(`{
	  "status": %q,
	  "feedback": %q,
	  "outcome_alignment": {"score": 0.8},
	  "strategic_coherence": {"score": 0.8},
	  "reflection_integration": {"score": 0.8},
	  "continuity": {"score": 0.8}
	}`, status, feedback)
}

func testRequest() Request {
	return Request{
		Outcome: "ship the v2 release",
		Tasks: []model.Task{
			{ID: "t1", Description: "fix the build pipeline"},
			{ID: "t2", Description: "write release notes", Manual: true},
		},
	}
}

func TestRunFastPath(t *testing.T) {
	gen := &scriptedAgent{responses: []string{planJSON(0.9)}}
	eval := &scriptedAgent{}
	p := New(gen, eval, Config{})

	out, err := p.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.True(t, out.Metadata.Converged)
	assert.False(t, out.Metadata.EvaluationTriggered, "high-confidence first plan skips evaluation")
	assert.Equal(t, 1, out.Metadata.Iterations)
	assert.Equal(t, 0, eval.calls)
	assert.Nil(t, out.Evaluation)
	assert.Len(t, out.Chain, 1)
	assert.NotEmpty(t, out.Metadata.PlanID)
}

func TestRunEvaluateRefineConverges(t *testing.T) {
	gen := &scriptedAgent{responses: []string{planJSON(0.65), planJSON(0.82)}}
	eval := &scriptedAgent{responses: []string{
		evalJSON(model.VerdictNeedsImprovement, "t2 should address the reflection about deployment"),
		evalJSON(model.VerdictPass, ""),
	}}
	p := New(gen, eval, Config{})

	out, err := p.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.True(t, out.Metadata.Converged)
	assert.True(t, out.Metadata.EvaluationTriggered)
	assert.Equal(t, 2, out.Metadata.Iterations)
	assert.Equal(t, 2, eval.calls, "the confidence gate applies to the first plan only")
	require.NotNil(t, out.Evaluation)
	assert.Equal(t, model.VerdictPass, out.Evaluation.Status)
	assert.Len(t, out.Chain, 2)

	require.Len(t, gen.inputs, 2)
	assert.NotContains(t, gen.inputs[0], "Evaluator feedback")
	assert.Contains(t, gen.inputs[1], "t2 should address the reflection about deployment",
		"evaluator feedback feeds the next generation")
}

func TestRunBudgetExhaustedIsSoftFailure(t *testing.T) {
	gen := &scriptedAgent{responses: []string{planJSON(0.5), planJSON(0.55), planJSON(0.6)}}
	eval := &scriptedAgent{responses: []string{
		evalJSON(model.VerdictNeedsImprovement, "ordering ignores the stated outcome"),
		evalJSON(model.VerdictNeedsImprovement, "still ignores the stated outcome"),
		evalJSON(model.VerdictNeedsImprovement, "no improvement"),
	}}
	p := New(gen, eval, Config{MaxIterations: 3})

	out, err := p.Run(context.Background(), testRequest())
	require.NoError(t, err, "running out of iterations is not an error")

	assert.False(t, out.Metadata.Converged)
	assert.Equal(t, 3, out.Metadata.Iterations)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, 3, eval.calls)
	require.NotNil(t, out.Evaluation)
	assert.Equal(t, model.VerdictNeedsImprovement, out.Evaluation.Status)
	assert.NotEmpty(t, out.Plan.OrderedTaskIDs, "last plan is still returned")
}

func TestRunGeneratorRetriesOnceThenSucceeds(t *testing.T) {
	gen := &scriptedAgent{responses: []string{"sorry, no JSON today", planJSON(0.9)}}
	p := New(gen, &scriptedAgent{}, Config{})

	out, err := p.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)
	assert.True(t, out.Metadata.Converged)
}

func TestRunGeneratorInvalidTwiceIsHardFailure(t *testing.T) {
	gen := &scriptedAgent{responses: []string{"garbage", "more garbage"}}
	p := New(gen, &scriptedAgent{}, Config{})

	_, err := p.Run(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, gen.calls)
}

func TestRunNoTasks(t *testing.T) {
	p := New(&scriptedAgent{}, &scriptedAgent{}, Config{})
	_, err := p.Run(context.Background(), Request{Outcome: "anything"})
	require.Error(t, err)
}

func TestGeneratorInputMentionsManualAndReflections(t *testing.T) {
	req := testRequest()
	req.Reflections = []model.Reflection{
		{ID: "r1", Text: "focus on deployment reliability", Active: true, CreatedAt: time.Now().Add(-10 * 24 * time.Hour)},
	}
	prev := model.PrioritizationResult{OrderedTaskIDs: []string{"t2", "t1"}}
	req.PreviousPlan = &prev

	input := buildGeneratorInput(req, "", time.Now())
	assert.Contains(t, input, "[manual]")
	assert.Contains(t, input, "[weight 0.50] focus on deployment reliability")
	assert.Contains(t, input, "t2 -> t1")
}
