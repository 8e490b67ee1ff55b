package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"focal/internal/model"
	"focal/internal/reflection"
)

const generatorInstructions = `You are a task prioritization engine.
Given an outcome statement, a task list, and user reflections, produce a prioritized plan.

Rules:
- Decide for every task whether it serves the outcome; include or exclude each one with a reason.
- ordered_task_ids must contain exactly the included task ids, best first, no duplicates.
- Score every included task: impact and effort on a 1-10 scale, confidence in [0,1].
- reasoning per task must be substantive, never placeholder text.
- Tasks marked [manual] get the same scrutiny as extracted tasks; manual entry is not a priority signal.
- Weigh reflections by their stated weight; a reflection at weight 0.25 is a whisper, not an order.
- critical_path_reasoning must explain the ordering of the top of the plan.
- confidence is your overall confidence in the plan, in [0,1].
- Respond with a single JSON object and nothing else. No markdown fences, no prose.`

const evaluatorInstructions = `You are a plan evaluator.
Judge the proposed prioritization against the outcome, the task list, and the reflections.

Score four criteria in [0,1]:
- outcome_alignment: does the ordering serve the stated outcome?
- strategic_coherence: is the sequence internally consistent, dependencies respected?
- reflection_integration: are the user's reflections reflected in the ordering?
- continuity: are moves relative to the previous plan justified?

Verdict:
- status PASS when the plan is good enough to act on.
- status NEEDS_IMPROVEMENT otherwise, with concrete, actionable feedback.
- Respond with a single JSON object and nothing else.`

func buildGeneratorInput(req Request, feedback string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("Outcome:\n")
	sb.WriteString(strings.TrimSpace(req.Outcome))
	sb.WriteString("\n\nTasks:\n")
	for _, t := range req.Tasks {
		sb.WriteString(fmt.Sprintf("- id=%s %s", t.ID, strings.TrimSpace(t.Description)))
		if t.Manual {
			sb.WriteString(" [manual]")
		}
		if t.PreviousRank != nil {
			sb.WriteString(fmt.Sprintf(" [previous rank %d]", *t.PreviousRank))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nReflections:\n")
	if len(req.Reflections) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, r := range req.Reflections {
		w := reflection.Weight(r.CreatedAt, now)
		sb.WriteString(fmt.Sprintf("- [weight %.2f] %s\n", w, strings.TrimSpace(r.Text)))
	}

	sb.WriteString("\nPrevious plan:\n")
	if req.PreviousPlan != nil {
		sb.WriteString(strings.Join(req.PreviousPlan.OrderedTaskIDs, " -> "))
		sb.WriteString("\n")
	} else {
		sb.WriteString("No previous plan available.\n")
	}

	if len(req.Constraints) > 0 {
		sb.WriteString("\nConstraints:\n")
		for _, c := range req.Constraints {
			sb.WriteString("- ")
			sb.WriteString(strings.TrimSpace(c))
			sb.WriteString("\n")
		}
	}

	if strings.TrimSpace(feedback) != "" {
		sb.WriteString("\nEvaluator feedback on your previous attempt; address it:\n")
		sb.WriteString(strings.TrimSpace(feedback))
		sb.WriteString("\n")
	}

	return sb.String()
}

func buildEvaluatorInput(req Request, plan model.PrioritizationResult, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("Outcome:\n")
	sb.WriteString(strings.TrimSpace(req.Outcome))
	sb.WriteString("\n\nTasks:\n")
	for _, t := range req.Tasks {
		sb.WriteString(fmt.Sprintf("- id=%s %s\n", t.ID, strings.TrimSpace(t.Description)))
	}

	sb.WriteString("\nReflections:\n")
	if len(req.Reflections) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, r := range req.Reflections {
		w := reflection.Weight(r.CreatedAt, now)
		sb.WriteString(fmt.Sprintf("- [weight %.2f] %s\n", w, strings.TrimSpace(r.Text)))
	}

	sb.WriteString("\nPrevious plan:\n")
	if req.PreviousPlan != nil {
		sb.WriteString(strings.Join(req.PreviousPlan.OrderedTaskIDs, " -> "))
		sb.WriteString("\n")
	} else {
		sb.WriteString("No previous plan available.\n")
	}

	sb.WriteString("\nProposed plan:\n")
	planJSON, err := json.Marshal(plan)
	if err != nil {
		planJSON = []byte(strings.Join(plan.OrderedTaskIDs, " -> "))
	}
	sb.Write(planJSON)
	sb.WriteString("\n")

	return sb.String()
}
