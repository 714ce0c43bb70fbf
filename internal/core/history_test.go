package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type execCall struct {
	sql  string
	args []interface{}
}

type fakeDB struct {
	execs   []execCall
	execErr error
	rows    *fakeRows
	query   execCall
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.query = execCall{sql: sql, args: args}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

// fakeRows serves fixed rows to scanRunRow.
type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos-1], nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *pgtype.UUID:
			*p = row[i].(pgtype.UUID)
		case *pgtype.Timestamptz:
			*p = row[i].(pgtype.Timestamptz)
		case *string:
			*p = row[i].(string)
		case *int32:
			*p = row[i].(int32)
		case *int64:
			*p = row[i].(int64)
		default:
			return errors.New("unexpected scan target")
		}
	}
	return nil
}

func TestPgRecorder_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	if err := NewPgRecorder(db).EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(db.execs) != 2 || !strings.Contains(db.execs[0].sql, "CREATE TABLE IF NOT EXISTS clean_runs") {
		t.Errorf("unexpected schema statements: %+v", db.execs)
	}

	db = &fakeDB{execErr: errors.New("permission denied")}
	if err := NewPgRecorder(db).EnsureSchema(context.Background()); err == nil {
		t.Error("expected schema error")
	}
}

func TestPgRecorder_RecordRun(t *testing.T) {
	db := &fakeDB{}
	batchID := uuid.New()
	err := NewPgRecorder(db).RecordRun(context.Background(), RunRecord{
		BatchID:    batchID,
		FileName:   "people.csv",
		Status:     RunCleaned,
		RowsIn:     3,
		RowsOut:    1,
		DurationMS: 12,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(db.execs) != 1 {
		t.Fatalf("got %d execs, want 1", len(db.execs))
	}
	args := db.execs[0].args
	if len(args) != 14 {
		t.Fatalf("got %d args, want 14", len(args))
	}
	if id := args[0].(pgtype.UUID); !id.Valid || uuid.UUID(id.Bytes) == uuid.Nil {
		t.Error("RecordRun should assign an ID")
	}
	if b := args[1].(pgtype.UUID); uuid.UUID(b.Bytes) != batchID {
		t.Error("batch id not passed through")
	}
	if args[2] != "people.csv" || args[4] != RunCleaned || args[6] != int32(3) || args[10] != int64(12) {
		t.Errorf("unexpected args %v", args)
	}
	if ts := args[13].(pgtype.Timestamptz); !ts.Valid || ts.Time.IsZero() {
		t.Error("RecordRun should stamp created_at")
	}

	db.execErr = errors.New("connection reset")
	if err := NewPgRecorder(db).RecordRun(context.Background(), RunRecord{FileName: "x.csv"}); err == nil {
		t.Error("expected insert error")
	}
}

func TestPgRecorder_RecentRuns(t *testing.T) {
	id, batchID := uuid.New(), uuid.New()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{rows: &fakeRows{data: [][]any{{
		pgtype.UUID{Bytes: id, Valid: true},
		pgtype.UUID{Bytes: batchID, Valid: true},
		"book.xlsx", "Q1", RunCleaned, "",
		int32(10), int32(8), int32(4), int32(3), int64(40),
		"10.0.0.1", "curl/8", pgtype.Timestamptz{Time: created, Valid: true},
	}}}}

	runs, err := NewPgRecorder(db).RecentRuns(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if db.query.args[0] != DefaultHistoryLimit {
		t.Errorf("limit = %v, want default", db.query.args[0])
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	r := runs[0]
	if r.ID != id || r.BatchID != batchID || r.Sheet != "Q1" || r.RowsIn != 10 || r.ColumnsOut != 3 || r.DurationMS != 40 || !r.CreatedAt.Equal(created) {
		t.Errorf("run = %+v", r)
	}
}

func TestNopRecorder(t *testing.T) {
	var rec RunRecorder = NopRecorder{}
	if err := rec.RecordRun(context.Background(), RunRecord{}); err != nil {
		t.Error(err)
	}
	runs, err := rec.RecentRuns(context.Background(), 5)
	if err != nil || runs == nil || len(runs) != 0 {
		t.Errorf("RecentRuns() = %v, %v", runs, err)
	}
}
