// Package model defines the exchange shapes for focal's prioritization core.
package model

import (
	"time"
)

// Task statuses. Tasks are never hard-deleted; status transitions only.
const (
	StatusPending   = "pending"
	StatusDone      = "done"
	StatusDismissed = "dismissed"
)

// Edge detection methods.
const (
	DetectionManual             = "manual"
	DetectionAIInference        = "ai_inference"
	DetectionStoredRelationship = "stored_relationship"
)

// RelPrerequisite is the only dependency relationship currently supported.
const RelPrerequisite = "prerequisite"

// Draft source tags.
const (
	DraftSourceSemantic   = "phase10_semantic"
	DraftSourceDependency = "phase5_dependency"
)

// Task is a unit of work, created by document extraction or manual entry.
type Task struct {
	ID             string    `json:"id"`
	Description    string    `json:"description"`
	SourceDocument string    `json:"source_document,omitempty"`
	Manual         bool      `json:"manual,omitempty"`
	PreviousRank   *int      `json:"previous_rank,omitempty"`
	Status         string    `json:"status"`
	Embedding      []float32 `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Reflection is user-supplied free text that biases ranking. Its recency
// weight is derived from CreatedAt at read time, never stored.
type Reflection struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// DependencyEdge is a directed source->target prerequisite edge.
type DependencyEdge struct {
	SourceID        string  `json:"source_id"`
	TargetID        string  `json:"target_id"`
	Relationship    string  `json:"relationship"`
	Confidence      float64 `json:"confidence"`
	DetectionMethod string  `json:"detection_method"`
}

// DraftTask is a transient candidate task generated to fill a plan gap.
// It is either promoted to a real Task plus edges, or dismissed.
type DraftTask struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	EstimatedHours float64   `json:"estimated_hours"`
	CognitionLevel string    `json:"cognition_level"`
	Reasoning      string    `json:"reasoning"`
	Confidence     float64   `json:"confidence"`
	Source         string    `json:"source"`
	Embedding      []float32 `json:"-"`
	DedupeHash     string    `json:"dedupe_hash,omitempty"`
}

// IncludedTask records why a task made the plan.
type IncludedTask struct {
	TaskID         string  `json:"task_id"`
	Reason         string  `json:"reason"`
	AlignmentScore float64 `json:"alignment_score"`
}

// ExcludedTask records why a task was left out.
type ExcludedTask struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
}

// TaskScore is the generator's per-task scoring.
type TaskScore struct {
	TaskID          string  `json:"task_id"`
	Impact          float64 `json:"impact"`
	Effort          float64 `json:"effort"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	BriefReasoning  string  `json:"brief_reasoning,omitempty"`
	DependencyNotes string  `json:"dependency_notes,omitempty"`
}

// PrioritizationResult is the validated generator output.
type PrioritizationResult struct {
	Thoughts        []string       `json:"thoughts"`
	IncludedTasks   []IncludedTask `json:"included_tasks"`
	ExcludedTasks   []ExcludedTask `json:"excluded_tasks"`
	OrderedTaskIDs  []string       `json:"ordered_task_ids"`
	TaskScores      []TaskScore    `json:"task_scores"`
	Confidence      float64        `json:"confidence"`
	CriticalPath    string         `json:"critical_path_reasoning"`
	CorrectionsMade string         `json:"corrections_made,omitempty"`
}

// Evaluation verdicts.
const (
	VerdictPass             = "PASS"
	VerdictNeedsImprovement = "NEEDS_IMPROVEMENT"
)

// CriterionScore is one evaluator criterion.
type CriterionScore struct {
	Score float64 `json:"score"`
	Notes string  `json:"notes,omitempty"`
}

// EvaluationResult is the validated evaluator output.
type EvaluationResult struct {
	Status                string         `json:"status"`
	Feedback              string         `json:"feedback"`
	OutcomeAlignment      CriterionScore `json:"outcome_alignment"`
	StrategicCoherence    CriterionScore `json:"strategic_coherence"`
	ReflectionIntegration CriterionScore `json:"reflection_integration"`
	Continuity            CriterionScore `json:"continuity"`
	LatencyMS             int64          `json:"latency_ms,omitempty"`
}

// ChainOfThoughtEntry is one loop iteration's generator output plus
// optional evaluator feedback. The ordered sequence is the audit trail
// of the loop's convergence.
type ChainOfThoughtEntry struct {
	Iteration  int                  `json:"iteration"`
	Plan       PrioritizationResult `json:"plan"`
	Evaluation *EvaluationResult    `json:"evaluation,omitempty"`
}

// MovedTask records one position change in an adjusted plan.
type MovedTask struct {
	TaskID string `json:"task_id"`
	From   int    `json:"from"`
	To     int    `json:"to"`
	Reason string `json:"reason"`
}

// FilteredTask records a task suppressed by a reflection exclusion.
type FilteredTask struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
}

// ReflectionInfluence names a reflection that contributed to an
// adjustment, with its recency weight at the time.
type ReflectionInfluence struct {
	ReflectionID string  `json:"reflection_id"`
	Weight       float64 `json:"weight"`
}

// AdjustmentMetadata summarizes one reflection adjustment.
type AdjustmentMetadata struct {
	Reflections   []ReflectionInfluence `json:"reflections"`
	MovedCount    int                   `json:"moved_count"`
	FilteredCount int                   `json:"filtered_count"`
	Duration      time.Duration         `json:"duration"`
}

// AdjustedPlan is a re-ranked plan produced without an LLM call.
type AdjustedPlan struct {
	OrderedTaskIDs   []string           `json:"ordered_task_ids"`
	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty"`
	Moved            []MovedTask        `json:"moved"`
	Filtered         []FilteredTask     `json:"filtered"`
	Metadata         AdjustmentMetadata `json:"metadata"`
}
