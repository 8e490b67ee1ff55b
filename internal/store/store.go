// Package store persists tasks, edges, reflections and plans in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"focal/internal/dedupe"
	"focal/internal/graph"
	"focal/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = fmt.Errorf("not found")

// Store provides persistence for the prioritization domain.
type Store struct {
	db *sql.DB
}

// New creates a store on an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// AddTask inserts a new pending task.
func (s *Store) AddTask(ctx context.Context, description, sourceDocument string, manual bool) (model.Task, error) {
	task := model.Task{
		ID:             uuid.NewString(),
		Description:    description,
		SourceDocument: sourceDocument,
		Manual:         manual,
		Status:         model.StatusPending,
	}
	ts := nowUTC()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO tasks(id, description, source_document, manual, status, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Description, nullableString(task.SourceDocument), task.Manual, task.Status, ts, ts); err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	task.CreatedAt, _ = time.Parse(time.RFC3339, ts)
	task.UpdatedAt = task.CreatedAt
	return task, nil
}

// GetTask loads one task by id.
func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, description, source_document, manual, previous_rank, status, embedding, created_at, updated_at
		FROM tasks WHERE id=?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("read task: %w", err)
	}
	return task, nil
}

// ListTasks returns tasks, optionally filtered by status.
func (s *Store) ListTasks(ctx context.Context, status string) ([]model.Task, error) {
	query := `SELECT id, description, source_document, manual, previous_rank, status, embedding, created_at, updated_at
		FROM tasks ORDER BY created_at, id`
	args := []any{}
	if status != "" {
		query = `SELECT id, description, source_document, manual, previous_rank, status, embedding, created_at, updated_at
		FROM tasks WHERE status=? ORDER BY created_at, id`
		args = append(args, status)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// UpdateDescription rewrites a task's text. The stored embedding is
// cleared since it no longer matches the description.
func (s *Store) UpdateDescription(ctx context.Context, id, description string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET description=?, embedding=NULL, updated_at=? WHERE id=?`,
		description, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("update task description: %w", err)
	}
	return requireRow(res, id)
}

// MarkStatus transitions a task's status. Tasks are never deleted.
func (s *Store) MarkStatus(ctx context.Context, id, status string) error {
	switch status {
	case model.StatusPending, model.StatusDone, model.StatusDismissed:
	default:
		return fmt.Errorf("unknown task status %q", status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status=?, updated_at=? WHERE id=?`, status, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return requireRow(res, id)
}

// SetPreviousRanks records the 1-based rank of each task in the latest
// plan, clearing ranks for tasks that fell out of it.
func (s *Store) SetPreviousRanks(ctx context.Context, orderedIDs []string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin set ranks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET previous_rank=NULL`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear ranks: %w", err)
	}
	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET previous_rank=? WHERE id=?`, i+1, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("set rank for %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set ranks: %w", err)
	}
	return nil
}

// StoreEmbedding persists a task's vector. Satisfies the embedding
// queue's sink interface.
func (s *Store) StoreEmbedding(ctx context.Context, taskID string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET embedding=?, updated_at=? WHERE id=?`, string(data), nowUTC(), taskID)
	if err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return requireRow(res, taskID)
}

// TasksWithoutEmbedding returns pending tasks that still need a vector.
func (s *Store) TasksWithoutEmbedding(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, description, source_document, manual, previous_rank, status, embedding, created_at, updated_at
		FROM tasks WHERE embedding IS NULL AND status=? ORDER BY created_at, id`, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list unembedded tasks: %w", err)
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// AddReflection inserts an active reflection.
func (s *Store) AddReflection(ctx context.Context, text string) (model.Reflection, error) {
	ref := model.Reflection{
		ID:     uuid.NewString(),
		Text:   text,
		Active: true,
	}
	ts := nowUTC()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO reflections(id, text, active, created_at) VALUES(?, ?, 1, ?)`,
		ref.ID, ref.Text, ts); err != nil {
		return model.Reflection{}, fmt.Errorf("insert reflection: %w", err)
	}
	ref.CreatedAt, _ = time.Parse(time.RFC3339, ts)
	return ref, nil
}

// ListReflections returns reflections, newest first.
func (s *Store) ListReflections(ctx context.Context, activeOnly bool) ([]model.Reflection, error) {
	query := `SELECT id, text, active, created_at FROM reflections ORDER BY created_at DESC, id`
	if activeOnly {
		query = `SELECT id, text, active, created_at FROM reflections WHERE active=1 ORDER BY created_at DESC, id`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	defer rows.Close()

	var out []model.Reflection
	for rows.Next() {
		var ref model.Reflection
		var createdAt string
		if err := rows.Scan(&ref.ID, &ref.Text, &ref.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reflection: %w", err)
		}
		ref.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, ref)
	}
	return out, rows.Err()
}

// ToggleReflection flips a reflection's active flag and returns the new state.
func (s *Store) ToggleReflection(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE reflections SET active = 1 - active WHERE id=?`, id)
	if err != nil {
		return false, fmt.Errorf("toggle reflection: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return false, err
	}
	var active bool
	if err := s.db.QueryRowContext(ctx, `SELECT active FROM reflections WHERE id=?`, id).Scan(&active); err != nil {
		return false, fmt.Errorf("read reflection state: %w", err)
	}
	return active, nil
}

// AddEdges inserts dependency edges after verifying that none of them
// would close a cycle. All edges land or none do.
func (s *Store) AddEdges(ctx context.Context, edges []model.DependencyEdge) error {
	existing, err := s.ListEdges(ctx)
	if err != nil {
		return err
	}
	if err := graph.CheckEdges(existing, edges); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin add edges: %w", err)
	}
	ts := nowUTC()
	for _, e := range edges {
		rel := e.Relationship
		if rel == "" {
			rel = model.RelPrerequisite
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO task_edges(source_id, target_id, relationship, confidence, detection_method, created_at)
			VALUES(?, ?, ?, ?, ?, ?)`,
			e.SourceID, e.TargetID, rel, e.Confidence, e.DetectionMethod, ts); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert edge %s->%s: %w", e.SourceID, e.TargetID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add edges: %w", err)
	}
	return nil
}

// ListEdges returns all dependency edges.
func (s *Store) ListEdges(ctx context.Context) ([]model.DependencyEdge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_id, target_id, relationship, confidence, detection_method
		FROM task_edges ORDER BY created_at, source_id, target_id`)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var out []model.DependencyEdge
	for rows.Next() {
		var e model.DependencyEdge
		if err := rows.Scan(&e.SourceID, &e.TargetID, &e.Relationship, &e.Confidence, &e.DetectionMethod); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PlanRecord is a persisted prioritization run.
type PlanRecord struct {
	ID         string
	Outcome    string
	Converged  bool
	Iterations int
	Confidence float64
	Plan       model.PrioritizationResult
	Chain      []model.ChainOfThoughtEntry
	CreatedAt  time.Time
}

// SavePlan persists a plan with its chain of thought and records the
// resulting ranks on the tasks.
func (s *Store) SavePlan(ctx context.Context, rec PlanRecord) error {
	planJSON, err := json.Marshal(rec.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	chainJSON, err := json.Marshal(rec.Chain)
	if err != nil {
		return fmt.Errorf("marshal chain: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO plans(id, created_at, outcome, converged, iterations, confidence, plan_json, chain_json)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, nowUTC(), rec.Outcome, rec.Converged, rec.Iterations, rec.Confidence, string(planJSON), string(chainJSON)); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return s.SetPreviousRanks(ctx, rec.Plan.OrderedTaskIDs)
}

// LatestPlan returns the most recent plan, or ErrNotFound.
func (s *Store) LatestPlan(ctx context.Context) (PlanRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, created_at, outcome, converged, iterations, confidence, plan_json, chain_json
		FROM plans ORDER BY created_at DESC, id DESC LIMIT 1`)
	rec, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return PlanRecord{}, fmt.Errorf("latest plan: %w", ErrNotFound)
	}
	return rec, err
}

// GetPlan loads one plan by id.
func (s *Store) GetPlan(ctx context.Context, id string) (PlanRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, created_at, outcome, converged, iterations, confidence, plan_json, chain_json
		FROM plans WHERE id=?`, id)
	rec, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return PlanRecord{}, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	return rec, err
}

// ListPlans returns plan records newest first, without chains.
func (s *Store) ListPlans(ctx context.Context, limit int) ([]PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, outcome, converged, iterations, confidence, plan_json, chain_json
		FROM plans ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []PlanRecord
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PromoteDraft turns a draft task into a real task plus its edges, in
// one transaction. The draft is rejected when its vector duplicates an
// existing task or when any edge would close a cycle.
func (s *Store) PromoteDraft(ctx context.Context, draft model.DraftTask, edges []model.DependencyEdge, threshold float32) (model.Task, error) {
	if len(draft.Embedding) > 0 {
		existing, err := s.ListTasks(ctx, model.StatusPending)
		if err != nil {
			return model.Task{}, err
		}
		if err := dedupe.CheckAgainstExisting(draft, existing, threshold); err != nil {
			return model.Task{}, err
		}
	}
	existingEdges, err := s.ListEdges(ctx)
	if err != nil {
		return model.Task{}, err
	}
	if err := graph.CheckEdges(existingEdges, edges); err != nil {
		return model.Task{}, err
	}

	task := model.Task{
		ID:          uuid.NewString(),
		Description: draft.Text,
		Status:      model.StatusPending,
		Embedding:   draft.Embedding,
	}
	for i := range edges {
		if edges[i].SourceID == draft.ID {
			edges[i].SourceID = task.ID
		}
		if edges[i].TargetID == draft.ID {
			edges[i].TargetID = task.ID
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Task{}, fmt.Errorf("begin promote draft: %w", err)
	}
	ts := nowUTC()
	var embJSON any
	if len(task.Embedding) > 0 {
		data, err := json.Marshal(task.Embedding)
		if err != nil {
			_ = tx.Rollback()
			return model.Task{}, fmt.Errorf("marshal embedding: %w", err)
		}
		embJSON = string(data)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO tasks(id, description, manual, status, embedding, created_at, updated_at)
		VALUES(?, ?, 0, ?, ?, ?, ?)`,
		task.ID, task.Description, task.Status, embJSON, ts, ts); err != nil {
		_ = tx.Rollback()
		return model.Task{}, fmt.Errorf("insert promoted task: %w", err)
	}
	for _, e := range edges {
		rel := e.Relationship
		if rel == "" {
			rel = model.RelPrerequisite
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO task_edges(source_id, target_id, relationship, confidence, detection_method, created_at)
			VALUES(?, ?, ?, ?, ?, ?)`,
			e.SourceID, e.TargetID, rel, e.Confidence, e.DetectionMethod, ts); err != nil {
			_ = tx.Rollback()
			return model.Task{}, fmt.Errorf("insert edge %s->%s: %w", e.SourceID, e.TargetID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Task{}, fmt.Errorf("commit promote draft: %w", err)
	}
	task.CreatedAt, _ = time.Parse(time.RFC3339, ts)
	task.UpdatedAt = task.CreatedAt
	return task, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var task model.Task
	var sourceDoc, embedding sql.NullString
	var previousRank sql.NullInt64
	var createdAt, updatedAt string
	if err := row.Scan(&task.ID, &task.Description, &sourceDoc, &task.Manual, &previousRank,
		&task.Status, &embedding, &createdAt, &updatedAt); err != nil {
		return model.Task{}, err
	}
	task.SourceDocument = sourceDoc.String
	if previousRank.Valid {
		rank := int(previousRank.Int64)
		task.PreviousRank = &rank
	}
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &task.Embedding); err != nil {
			return model.Task{}, fmt.Errorf("unmarshal embedding for %s: %w", task.ID, err)
		}
	}
	task.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	task.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return task, nil
}

func scanPlan(row rowScanner) (PlanRecord, error) {
	var rec PlanRecord
	var createdAt string
	var planJSON string
	var chainJSON sql.NullString
	if err := row.Scan(&rec.ID, &createdAt, &rec.Outcome, &rec.Converged, &rec.Iterations,
		&rec.Confidence, &planJSON, &chainJSON); err != nil {
		return PlanRecord{}, err
	}
	if err := json.Unmarshal([]byte(planJSON), &rec.Plan); err != nil {
		return PlanRecord{}, fmt.Errorf("unmarshal plan %s: %w", rec.ID, err)
	}
	if chainJSON.Valid && chainJSON.String != "" {
		if err := json.Unmarshal([]byte(chainJSON.String), &rec.Chain); err != nil {
			return PlanRecord{}, fmt.Errorf("unmarshal chain %s: %w", rec.ID, err)
		}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return rec, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
