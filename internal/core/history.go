package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Run statuses.
const (
	RunCleaned = "cleaned"
	RunFailed  = "failed"
)

// DefaultHistoryLimit is used when a caller asks for a non-positive limit.
const DefaultHistoryLimit = 50

// RunRecord is the metadata kept for one cleaned file or sheet. Cell data is
// never recorded.
type RunRecord struct {
	ID         uuid.UUID `json:"id"`
	BatchID    uuid.UUID `json:"batch_id"`
	FileName   string    `json:"file_name"`
	Sheet      string    `json:"sheet,omitempty"`
	Status     string    `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	RowsIn     int       `json:"rows_in"`
	RowsOut    int       `json:"rows_out"`
	ColumnsIn  int       `json:"columns_in"`
	ColumnsOut int       `json:"columns_out"`
	DurationMS int64     `json:"duration_ms"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunRecorder stores run metadata.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// NopRecorder is used when no history database is configured.
type NopRecorder struct{}

func (NopRecorder) RecordRun(context.Context, RunRecord) error { return nil }

func (NopRecorder) RecentRuns(context.Context, int) ([]RunRecord, error) {
	return []RunRecord{}, nil
}

// PgRecorder keeps run history in the clean_runs table.
type PgRecorder struct {
	db DBTX
}

// NewPgRecorder returns a recorder backed by db.
func NewPgRecorder(db DBTX) *PgRecorder {
	return &PgRecorder{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS clean_runs (
		id          uuid PRIMARY KEY,
		batch_id    uuid NOT NULL,
		file_name   text NOT NULL,
		sheet       text NOT NULL DEFAULT '',
		status      text NOT NULL,
		error_code  text NOT NULL DEFAULT '',
		rows_in     integer NOT NULL DEFAULT 0,
		rows_out    integer NOT NULL DEFAULT 0,
		columns_in  integer NOT NULL DEFAULT 0,
		columns_out integer NOT NULL DEFAULT 0,
		duration_ms bigint NOT NULL DEFAULT 0,
		ip_address  text NOT NULL DEFAULT '',
		user_agent  text NOT NULL DEFAULT '',
		created_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS clean_runs_created_at_idx ON clean_runs (created_at DESC)`,
}

// EnsureSchema creates the history table if it does not exist.
func (r *PgRecorder) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure clean_runs schema: %w", err)
		}
	}
	return nil
}

const insertRunSQL = `INSERT INTO clean_runs (
	id, batch_id, file_name, sheet, status, error_code,
	rows_in, rows_out, columns_in, columns_out, duration_ms,
	ip_address, user_agent, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// RecordRun inserts rec, filling in ID and CreatedAt when unset.
func (r *PgRecorder) RecordRun(ctx context.Context, rec RunRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(ctx, insertRunSQL,
		pgtype.UUID{Bytes: rec.ID, Valid: true},
		pgtype.UUID{Bytes: rec.BatchID, Valid: true},
		rec.FileName, rec.Sheet, rec.Status, rec.ErrorCode,
		int32(rec.RowsIn), int32(rec.RowsOut), int32(rec.ColumnsIn), int32(rec.ColumnsOut),
		rec.DurationMS,
		rec.IPAddress, rec.UserAgent,
		pgtype.Timestamptz{Time: rec.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.FileName, err)
	}
	return nil
}

const recentRunsSQL = `SELECT
	id, batch_id, file_name, sheet, status, error_code,
	rows_in, rows_out, columns_in, columns_out, duration_ms,
	ip_address, user_agent, created_at
FROM clean_runs
ORDER BY created_at DESC
LIMIT $1`

// RecentRuns returns up to limit records, newest first.
func (r *PgRecorder) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := r.db.Query(ctx, recentRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRunRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

func scanRunRow(rows pgx.Rows) (RunRecord, error) {
	var (
		id, batchID                            pgtype.UUID
		rec                                    RunRecord
		rowsIn, rowsOut, columnsIn, columnsOut int32
		createdAt                              pgtype.Timestamptz
	)

	err := rows.Scan(
		&id, &batchID, &rec.FileName, &rec.Sheet, &rec.Status, &rec.ErrorCode,
		&rowsIn, &rowsOut, &columnsIn, &columnsOut, &rec.DurationMS,
		&rec.IPAddress, &rec.UserAgent, &createdAt,
	)
	if err != nil {
		return RunRecord{}, err
	}

	rec.ID = uuid.UUID(id.Bytes)
	rec.BatchID = uuid.UUID(batchID.Bytes)
	rec.RowsIn = int(rowsIn)
	rec.RowsOut = int(rowsOut)
	rec.ColumnsIn = int(columnsIn)
	rec.ColumnsOut = int(columnsOut)
	rec.CreatedAt = createdAt.Time
	return rec, nil
}
