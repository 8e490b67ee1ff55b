package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focal/internal/model"
)

const validPlanJSON = `{
  "thoughts": ["two tasks, one dependency"],
  "included_tasks": [
    {"task_id": "t1", "reason": "unblocks the release", "alignment_score": 0.9},
    {"task_id": "t2", "reason": "directly serves the outcome", "alignment_score": 0.8}
  ],
  "excluded_tasks": [
    {"task_id": "t3", "reason": "not related to the stated outcome"}
  ],
  "ordered_task_ids": ["t1", "t2"],
  "task_scores": [
    {"task_id": "t1", "impact": 9, "effort": 3, "confidence": 0.9, "reasoning": "prerequisite for everything else in the plan"},
    {"task_id": "t2", "impact": 7, "effort": 5, "confidence": 0.8, "reasoning": "high impact once t1 lands"}
  ],
  "confidence": 0.85,
  "critical_path_reasoning": "t1 blocks t2, so t1 must come first in the sequence."
}`

const validEvaluationJSON = `{
  "status": "PASS",
  "feedback": "",
  "outcome_alignment": {"score": 0.9, "notes": "ordering serves the outcome"},
  "strategic_coherence": {"score": 0.85},
  "reflection_integration": {"score": 0.8},
  "continuity": {"score": 0.9}
}`

func TestParsePlanValid(t *testing.T) {
	plan, err := ParsePlan(validPlanJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, plan.OrderedTaskIDs)
	assert.Equal(t, 0.85, plan.Confidence)
	assert.Len(t, plan.TaskScores, 2)
	assert.Equal(t, "t3", plan.ExcludedTasks[0].TaskID)
}

func TestParsePlanCarriesCorrections(t *testing.T) {
	raw := strings.TrimSuffix(validPlanJSON, "\n}") +
		",\n  \"corrections_made\": \"moved t1 ahead of t2 per evaluator feedback\"\n}"
	plan, err := ParsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, "moved t1 ahead of t2 per evaluator feedback", plan.CorrectionsMade)
}

func TestParsePlanFenced(t *testing.T) {
	plan, err := ParsePlan("Here is the prioritization:\n```json\n" + validPlanJSON + "\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, plan.OrderedTaskIDs)
}

func TestParsePlanNoJSON(t *testing.T) {
	_, err := ParsePlan("I could not produce a plan.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object")
}

func TestParsePlanSchemaViolation(t *testing.T) {
	_, err := ParsePlan(`{"ordered_task_ids": ["t1"], "confidence": 0.5}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan schema validation failed")
}

func TestParsePlanSemanticViolation(t *testing.T) {
	// Schema-valid but ordered ids do not match the included set.
	raw := `{
	  "included_tasks": [{"task_id": "t1", "reason": "unblocks the release"}],
	  "excluded_tasks": [],
	  "ordered_task_ids": ["t1", "t2"],
	  "task_scores": [{"task_id": "t1", "impact": 9, "effort": 3, "confidence": 0.9, "reasoning": "prerequisite for the rest"}],
	  "confidence": 0.7,
	  "critical_path_reasoning": "t1 is the only real task in this plan."
	}`
	_, err := ParsePlan(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in included_tasks")
}

func TestParseEvaluationValid(t *testing.T) {
	eval, err := ParseEvaluation(validEvaluationJSON)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictPass, eval.Status)
	assert.Equal(t, 0.9, eval.OutcomeAlignment.Score)
}

func TestParseEvaluationUnknownStatus(t *testing.T) {
	raw := `{
	  "status": "MAYBE",
	  "feedback": "unsure",
	  "outcome_alignment": {"score": 0.5},
	  "strategic_coherence": {"score": 0.5},
	  "reflection_integration": {"score": 0.5},
	  "continuity": {"score": 0.5}
	}`
	_, err := ParseEvaluation(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluation schema validation failed")
}

func TestParseEvaluationNeedsImprovementRequiresFeedback(t *testing.T) {
	raw := `{
	  "status": "NEEDS_IMPROVEMENT",
	  "feedback": "  ",
	  "outcome_alignment": {"score": 0.4},
	  "strategic_coherence": {"score": 0.4},
	  "reflection_integration": {"score": 0.4},
	  "continuity": {"score": 0.4}
	}`
	_, err := ParseEvaluation(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-empty feedback")
}
