package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focal/internal/db"
	"focal/internal/dedupe"
	"focal/internal/graph"
	"focal/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	handle, err := db.Open(filepath.Join(t.TempDir(), "focal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })
	return New(handle)
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task, err := s.AddTask(ctx, "fix the build pipeline", "notes.md", false)
	require.NoError(t, err)
	require.NotEmpty(t, task.ID)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "fix the build pipeline", got.Description)
	assert.Equal(t, "notes.md", got.SourceDocument)
	assert.Equal(t, model.StatusPending, got.Status)

	require.NoError(t, s.MarkStatus(ctx, task.ID, model.StatusDone))
	got, err = s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)

	err = s.MarkStatus(ctx, task.ID, "deleted")
	require.Error(t, err, "tasks are never deleted, only transitioned")

	_, err = s.GetTask(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTasksStatusFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.AddTask(ctx, "task a", "", false)
	require.NoError(t, err)
	_, err = s.AddTask(ctx, "task b", "", true)
	require.NoError(t, err)
	require.NoError(t, s.MarkStatus(ctx, a.ID, model.StatusDismissed))

	all, err := s.ListTasks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := s.ListTasks(ctx, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "task b", pending[0].Description)
	assert.True(t, pending[0].Manual)
}

func TestUpdateDescriptionClearsEmbedding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task, err := s.AddTask(ctx, "original text", "", false)
	require.NoError(t, err)
	require.NoError(t, s.StoreEmbedding(ctx, task.ID, []float32{0.1, 0.2}))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotEmpty(t, got.Embedding)

	require.NoError(t, s.UpdateDescription(ctx, task.ID, "rewritten text"))
	got, err = s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "rewritten text", got.Description)
	assert.Empty(t, got.Embedding, "edited text invalidates the stored vector")

	missing, err := s.TasksWithoutEmbedding(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, task.ID, missing[0].ID)
}

func TestReflections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ref, err := s.AddReflection(ctx, "focus on deployment reliability")
	require.NoError(t, err)
	assert.True(t, ref.Active)

	active, err := s.ListReflections(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)

	nowActive, err := s.ToggleReflection(ctx, ref.ID)
	require.NoError(t, err)
	assert.False(t, nowActive)

	active, err = s.ListReflections(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := s.ListReflections(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func seedTasks(t *testing.T, s *Store, descriptions ...string) []model.Task {
	t.Helper()
	out := make([]model.Task, 0, len(descriptions))
	for _, d := range descriptions {
		task, err := s.AddTask(context.Background(), d, "", false)
		require.NoError(t, err)
		out = append(out, task)
	}
	return out
}

func TestAddEdgesRejectsCycleAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tasks := seedTasks(t, s, "a", "b", "c")

	require.NoError(t, s.AddEdges(ctx, []model.DependencyEdge{
		{SourceID: tasks[0].ID, TargetID: tasks[1].ID, DetectionMethod: model.DetectionManual},
		{SourceID: tasks[1].ID, TargetID: tasks[2].ID, DetectionMethod: model.DetectionManual},
	}))

	err := s.AddEdges(ctx, []model.DependencyEdge{
		{SourceID: tasks[2].ID, TargetID: tasks[0].ID, DetectionMethod: model.DetectionManual},
	})
	var cycleErr *graph.CycleError
	require.ErrorAs(t, err, &cycleErr)

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 2, "rejected batch leaves the edge set untouched")
}

func TestSavePlanAndRanks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tasks := seedTasks(t, s, "first", "second")

	plan := model.PrioritizationResult{
		IncludedTasks: []model.IncludedTask{
			{TaskID: tasks[1].ID, Reason: "serves the outcome"},
			{TaskID: tasks[0].ID, Reason: "prerequisite work"},
		},
		OrderedTaskIDs: []string{tasks[1].ID, tasks[0].ID},
		Confidence:     0.9,
		CriticalPath:   "second unblocks first in this ordering",
	}
	rec := PlanRecord{
		ID:         "plan-1",
		Outcome:    "ship v2",
		Converged:  true,
		Iterations: 1,
		Confidence: plan.Confidence,
		Plan:       plan,
		Chain:      []model.ChainOfThoughtEntry{{Iteration: 1, Plan: plan}},
	}
	require.NoError(t, s.SavePlan(ctx, rec))

	latest, err := s.LatestPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "plan-1", latest.ID)
	assert.Equal(t, plan.OrderedTaskIDs, latest.Plan.OrderedTaskIDs)
	require.Len(t, latest.Chain, 1)

	got, err := s.GetTask(ctx, tasks[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got.PreviousRank)
	assert.Equal(t, 1, *got.PreviousRank)

	got, err = s.GetTask(ctx, tasks[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.PreviousRank)
	assert.Equal(t, 2, *got.PreviousRank)

	list, err := s.ListPlans(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLatestPlanEmpty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LatestPlan(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPromoteDraft(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing, err := s.AddTask(ctx, "deploy staging environment", "", false)
	require.NoError(t, err)
	require.NoError(t, s.StoreEmbedding(ctx, existing.ID, []float32{1, 0}))

	dup := model.DraftTask{ID: "draft-1", Text: "deploy the staging env", Embedding: []float32{0.99, 0.01}, Source: model.DraftSourceSemantic}
	_, err = s.PromoteDraft(ctx, dup, nil, dedupe.DefaultThreshold)
	var dupErr *dedupe.DuplicateError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, existing.ID, dupErr.ExistingID)

	fresh := model.DraftTask{ID: "draft-2", Text: "write rollback runbook", Embedding: []float32{0, 1}, Source: model.DraftSourceDependency}
	edges := []model.DependencyEdge{
		{SourceID: existing.ID, TargetID: "draft-2", Confidence: 0.7, DetectionMethod: model.DetectionAIInference},
	}
	task, err := s.PromoteDraft(ctx, fresh, edges, dedupe.DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, "write rollback runbook", task.Description)

	stored, err := s.ListEdges(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, existing.ID, stored[0].SourceID)
	assert.Equal(t, task.ID, stored[0].TargetID, "draft id in edges is remapped to the new task id")

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Embedding, "promoted draft keeps its vector")
}

func TestPromoteDraftCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tasks := seedTasks(t, s, "a", "b")
	require.NoError(t, s.AddEdges(ctx, []model.DependencyEdge{
		{SourceID: tasks[0].ID, TargetID: tasks[1].ID, DetectionMethod: model.DetectionManual},
	}))

	draft := model.DraftTask{ID: "draft-3", Text: "bridge task"}
	edges := []model.DependencyEdge{
		{SourceID: tasks[1].ID, TargetID: "draft-3", DetectionMethod: model.DetectionAIInference},
		{SourceID: "draft-3", TargetID: tasks[0].ID, DetectionMethod: model.DetectionAIInference},
	}
	_, err := s.PromoteDraft(ctx, draft, edges, dedupe.DefaultThreshold)
	var cycleErr *graph.CycleError
	require.True(t, errors.As(err, &cycleErr), "bridging edges that close a loop reject the promotion")

	all, err := s.ListTasks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2, "no task row is created on rejection")
}
