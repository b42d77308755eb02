package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/orders-tracker/constants"
	"github.com/joseph-ayodele/orders-tracker/internal/common"
	"github.com/joseph-ayodele/orders-tracker/internal/entity"
)

type AnalysisRunRepository interface {
	Start(ctx context.Context, source, format, input string) (*entity.AnalysisRun, error)
	FinishOK(ctx context.Context, runID uuid.UUID, result any, orderID *uuid.UUID) error
	FinishEmpty(ctx context.Context, runID uuid.UUID) error
	FinishFailure(ctx context.Context, runID uuid.UUID, message string) error
	Get(ctx context.Context, runID uuid.UUID) (*entity.AnalysisRun, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

var analysisRunColumns = []string{
	"id", "order_id", "source", "format", "input_text", "started_at",
	"finished_at", "status", "error_message", "result_json",
}

type analysisRunRepo struct {
	db  *DB
	log *slog.Logger
}

func NewAnalysisRunRepository(db *DB, log *slog.Logger) AnalysisRunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &analysisRunRepo{db: db, log: log}
}

func (r *analysisRunRepo) Start(ctx context.Context, source, format, input string) (*entity.AnalysisRun, error) {
	run := &entity.AnalysisRun{
		ID:        uuid.New(),
		Source:    source,
		Format:    format,
		InputText: input,
		StartedAt: time.Now().UTC(),
		Status:    string(constants.RunStatusRunning),
	}
	q, args := r.db.builder().Insert(analysisRunsTable).
		Columns("id", "source", "format", "input_text", "started_at", "status").
		Values(run.ID.String(), source, format, input, formatTime(run.StartedAt), run.Status).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.log.Error("analysis_run start failed", "source", source, "err", err)
		return nil, fmt.Errorf("start analysis run: %w", err)
	}
	r.log.Debug("analysis_run started", "run_id", run.ID, "source", source, "format", format)
	return run, nil
}

func (r *analysisRunRepo) FinishOK(ctx context.Context, runID uuid.UUID, result any, orderID *uuid.UUID) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	upd := r.db.builder().Update(analysisRunsTable).
		Set("finished_at", formatTime(time.Now())).
		Set("status", string(constants.RunStatusAnalyzed)).
		Set("result_json", string(b))
	if orderID != nil {
		upd.Set("order_id", orderID.String())
	}
	if err := r.finish(ctx, runID, upd); err != nil {
		r.log.Error("analysis_run finish(OK) failed", "run_id", runID, "err", err)
		return err
	}
	r.log.Debug("analysis_run finished (ANALYZED)", "run_id", runID)
	return nil
}

func (r *analysisRunRepo) FinishEmpty(ctx context.Context, runID uuid.UUID) error {
	upd := r.db.builder().Update(analysisRunsTable).
		Set("finished_at", formatTime(time.Now())).
		Set("status", string(constants.RunStatusEmpty))
	if err := r.finish(ctx, runID, upd); err != nil {
		r.log.Error("analysis_run finish(EMPTY) failed", "run_id", runID, "err", err)
		return err
	}
	return nil
}

func (r *analysisRunRepo) FinishFailure(ctx context.Context, runID uuid.UUID, message string) error {
	upd := r.db.builder().Update(analysisRunsTable).
		Set("finished_at", formatTime(time.Now())).
		Set("status", string(constants.RunStatusFailed)).
		Set("error_message", message)
	if err := r.finish(ctx, runID, upd); err != nil {
		r.log.Error("analysis_run finish(FAILED) failed", "run_id", runID, "err", err)
		return err
	}
	r.log.Warn("analysis_run finished (FAILED)", "run_id", runID, "error", message)
	return nil
}

func (r *analysisRunRepo) finish(ctx context.Context, runID uuid.UUID, upd *entsql.UpdateBuilder) error {
	q, args := upd.Where(entsql.EQ("id", runID.String())).Query()
	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("finish analysis run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("analysis run %s: %w", runID, common.ErrNotFound)
	}
	return nil
}

func (r *analysisRunRepo) Get(ctx context.Context, runID uuid.UUID) (*entity.AnalysisRun, error) {
	q, args := r.db.builder().Select(analysisRunColumns...).
		From(entsql.Table(analysisRunsTable)).
		Where(entsql.EQ("id", runID.String())).
		Query()
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get analysis run: %w", err)
		}
		return nil, fmt.Errorf("analysis run %s: %w", runID, common.ErrNotFound)
	}
	var (
		run                 entity.AnalysisRun
		id, startedAt       string
		orderID, finishedAt sql.NullString
		errMsg, resultJSON  sql.NullString
	)
	if err := rows.Scan(&id, &orderID, &run.Source, &run.Format, &run.InputText, &startedAt,
		&finishedAt, &run.Status, &errMsg, &resultJSON); err != nil {
		return nil, fmt.Errorf("scan analysis run: %w", err)
	}
	run.ID = runID
	if orderID.Valid {
		if oid, err := uuid.Parse(orderID.String); err == nil {
			run.OrderID = &oid
		}
	}
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		run.FinishedAt = &t
	}
	run.ErrorMessage = stringPtr(errMsg)
	if resultJSON.Valid {
		run.ResultJSON = json.RawMessage(resultJSON.String)
	}
	return &run, nil
}

// CountByStatus counts runs per status. RUNNING rows are runs that never finished.
func (r *analysisRunRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	q, args := r.db.builder().Select("status", entsql.Count("*")).
		From(entsql.Table(analysisRunsTable)).
		GroupBy("status").
		Query()
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		r.log.Error("failed to count analysis runs", "err", err)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
