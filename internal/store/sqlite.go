package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pump-selector/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS dataset_files (
	id            TEXT PRIMARY KEY,
	file_name     TEXT NOT NULL,
	file_type     TEXT NOT NULL DEFAULT '',
	data          TEXT,
	kind          TEXT NOT NULL DEFAULT 'empty',
	row_count     INTEGER NOT NULL DEFAULT 0,
	for_selection INTEGER NOT NULL DEFAULT 0,
	for_spares    INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS selections (
	id          TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	answers     TEXT NOT NULL,
	head        INTEGER NOT NULL,
	flow_lpm    INTEGER NOT NULL,
	hp          REAL NOT NULL,
	voltage     INTEGER NOT NULL,
	result_type TEXT NOT NULL,
	recommended TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS orders (
	id             TEXT PRIMARY KEY,
	selection_id   TEXT,
	pump_type      TEXT NOT NULL,
	category       TEXT NOT NULL,
	customer_name  TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	lines          TEXT NOT NULL,
	total          TEXT NOT NULL,
	currency       TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS problems (
	id             TEXT PRIMARY KEY,
	pump_type      TEXT NOT NULL,
	problem        TEXT NOT NULL,
	model          TEXT NOT NULL DEFAULT '',
	customer_name  TEXT NOT NULL DEFAULT '',
	customer_phone TEXT NOT NULL DEFAULT '',
	selection_id   TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_dataset_files_selection ON dataset_files(for_selection);
CREATE INDEX IF NOT EXISTS idx_dataset_files_spares ON dataset_files(for_spares);
CREATE INDEX IF NOT EXISTS idx_selections_created_at ON selections(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_selection_id ON orders(selection_id);
CREATE INDEX IF NOT EXISTS idx_problems_created_at ON problems(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Dataset files ---

func (s *SQLiteStore) SaveFile(ctx context.Context, f *model.DatasetFile) error {
	prepareFile(f)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dataset_files (id, file_name, file_type, data, kind, row_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   file_name = excluded.file_name,
		   file_type = excluded.file_type,
		   data = excluded.data,
		   kind = excluded.kind,
		   row_count = excluded.row_count,
		   updated_at = excluded.updated_at`,
		f.ID, f.FileName, f.FileType, nullableData(f.Data), string(f.Kind), f.RowCount, f.CreatedAt, f.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save file %s", f.ID)
}

func (s *SQLiteStore) GetFile(ctx context.Context, id string) (*model.DatasetFile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_type, data, kind, row_count, for_selection, for_spares, created_at, updated_at
		 FROM dataset_files WHERE id = ?`,
		id,
	)
	f, err := scanFile(row, true)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "file %s", id)
	}
	return f, eris.Wrapf(err, "sqlite: get file %s", id)
}

func (s *SQLiteStore) ListFiles(ctx context.Context) ([]model.DatasetFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_name, file_type, kind, row_count, for_selection, for_spares, created_at, updated_at
		 FROM dataset_files ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list files")
	}
	defer rows.Close() //nolint:errcheck

	var files []model.DatasetFile
	for rows.Next() {
		f, err := scanFile(rows, false)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan file")
		}
		files = append(files, *f)
	}
	return files, eris.Wrap(rows.Err(), "sqlite: list files iterate")
}

func (s *SQLiteStore) DeleteFile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dataset_files WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete file %s", id)
	}
	return checkRowsAffected(res, "file", id)
}

// AssignFile makes id the only file active for role.
func (s *SQLiteStore) AssignFile(ctx context.Context, id string, role model.DatasetRole) error {
	col, err := roleColumn(role)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin assign")
	}
	defer tx.Rollback() //nolint:errcheck

	var size sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT length(data) FROM dataset_files WHERE id = ?`, id).Scan(&size)
	if err == sql.ErrNoRows {
		return eris.Wrapf(ErrNotFound, "file %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: check file %s", id)
	}
	if !size.Valid || size.Int64 == 0 {
		return eris.Wrapf(ErrNoData, "file %s", id)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE dataset_files SET `+col+` = 0 WHERE id <> ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: clear %s", col)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE dataset_files SET `+col+` = 1 WHERE id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: set %s", col)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit assign")
}

func (s *SQLiteStore) UnassignFile(ctx context.Context, id string, role model.DatasetRole) error {
	col, err := roleColumn(role)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE dataset_files SET `+col+` = 0 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: unassign file %s", id)
	}
	return checkRowsAffected(res, "file", id)
}

// ActiveFile returns the file assigned for role, or nil when none is.
func (s *SQLiteStore) ActiveFile(ctx context.Context, role model.DatasetRole) (*model.DatasetFile, error) {
	col, err := roleColumn(role)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_type, data, kind, row_count, for_selection, for_spares, created_at, updated_at
		 FROM dataset_files WHERE `+col+` = 1 ORDER BY updated_at DESC LIMIT 1`,
	)
	f, err := scanFile(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, eris.Wrapf(err, "sqlite: active %s file", role)
}

// --- Selections ---

func (s *SQLiteStore) SaveSelection(ctx context.Context, r *model.SelectionRecord) error {
	prepareSelection(r)
	answers, recommended, err := marshalSelection(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO selections (id, mode, answers, head, flow_lpm, hp, voltage, result_type, recommended, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Mode, string(answers), r.Head, r.FlowLPM, r.HP, r.Voltage, string(r.ResultType), string(recommended), r.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert selection")
}

func (s *SQLiteStore) ListSelections(ctx context.Context, limit int) ([]model.SelectionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, answers, head, flow_lpm, hp, voltage, result_type, recommended, created_at
		 FROM selections ORDER BY created_at DESC, id LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list selections")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.SelectionRecord
	for rows.Next() {
		var r model.SelectionRecord
		var answers, recommended string
		if err := rows.Scan(&r.ID, &r.Mode, &answers, &r.Head, &r.FlowLPM, &r.HP, &r.Voltage, &r.ResultType, &recommended, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan selection")
		}
		if err := unmarshalSelection(&r, []byte(answers), []byte(recommended)); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list selections iterate")
}

// --- Orders ---

func (s *SQLiteStore) CreateOrder(ctx context.Context, o *model.Order) error {
	prepareOrder(o)
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal order lines")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (id, selection_id, pump_type, category, customer_name, customer_phone, lines, total, currency, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, nullableString(o.SelectionID), o.PumpType, o.Category, o.CustomerName, o.CustomerPhone,
		string(lines), o.Total.String(), o.Currency, string(o.Status), o.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert order")
}

func (s *SQLiteStore) ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	query := `SELECT id, selection_id, pump_type, category, customer_name, customer_phone, lines, total, currency, status, created_at
		FROM orders WHERE 1=1`
	var args []any
	if filter.SelectionID != "" {
		query += ` AND selection_id = ?`
		args = append(args, filter.SelectionID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list orders")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Order
	for rows.Next() {
		var o model.Order
		var selectionID sql.NullString
		var lines, total string
		if err := rows.Scan(&o.ID, &selectionID, &o.PumpType, &o.Category, &o.CustomerName, &o.CustomerPhone,
			&lines, &total, &o.Currency, &o.Status, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan order")
		}
		o.SelectionID = selectionID.String
		if err := json.Unmarshal([]byte(lines), &o.Lines); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal order lines")
		}
		if o.Total, err = decimal.NewFromString(total); err != nil {
			return nil, eris.Wrap(err, "sqlite: parse order total")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list orders iterate")
}

// --- Problems ---

func (s *SQLiteStore) SaveProblem(ctx context.Context, p *model.ProblemReport) error {
	prepareProblem(p)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO problems (id, pump_type, problem, model, customer_name, customer_phone, selection_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PumpType, p.Problem, p.Model, p.CustomerName, p.CustomerPhone, nullableString(p.SelectionID), p.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert problem")
}

func (s *SQLiteStore) ListProblems(ctx context.Context, limit int) ([]model.ProblemReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pump_type, problem, model, customer_name, customer_phone, selection_id, created_at
		 FROM problems ORDER BY created_at DESC, id LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list problems")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ProblemReport
	for rows.Next() {
		var p model.ProblemReport
		var selectionID sql.NullString
		if err := rows.Scan(&p.ID, &p.PumpType, &p.Problem, &p.Model, &p.CustomerName, &p.CustomerPhone, &selectionID, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan problem")
		}
		p.SelectionID = selectionID.String
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list problems iterate")
}

// --- Statistics ---

func (s *SQLiteStore) Statistics(ctx context.Context, since time.Time) (*model.Statistics, error) {
	st := model.NewStatistics(since)

	var selections, problems, orders int
	if err := s.db.QueryRowContext(ctx, statsTotalsQuery).Scan(&selections, &problems, &orders); err != nil {
		return nil, eris.Wrap(err, "sqlite: count totals")
	}
	st.SetTotals(selections, problems, orders)

	for _, g := range statsGroups(`json_extract(answers, '$.purpose')`) {
		if err := s.countInto(ctx, g.query, g.into(st)); err != nil {
			return nil, eris.Wrapf(err, "sqlite: %s distribution", g.name)
		}
	}

	for _, table := range activityTables {
		if err := s.activityInto(ctx, table, since, st); err != nil {
			return nil, eris.Wrapf(err, "sqlite: %s activity", table)
		}
	}
	return st, nil
}

func (s *SQLiteStore) countInto(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var key sql.NullString
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key.String] += n
	}
	return rows.Err()
}

func (s *SQLiteStore) activityInto(ctx context.Context, table string, since time.Time, st *model.Statistics) error {
	rows, err := s.db.QueryContext(ctx, `SELECT created_at FROM `+table+` WHERE created_at >= ?`, since.UTC())
	if err != nil {
		return err
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return err
		}
		st.AddActivity(at)
	}
	return rows.Err()
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanFile reads a dataset_files row. withData selects the column layout
// that includes the data payload.
func scanFile(row scannable, withData bool) (*model.DatasetFile, error) {
	var f model.DatasetFile
	var data []byte
	dest := []any{&f.ID, &f.FileName, &f.FileType}
	if withData {
		dest = append(dest, &data)
	}
	dest = append(dest, &f.Kind, &f.RowCount, &f.ForSelection, &f.ForSpares, &f.CreatedAt, &f.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		f.Data = json.RawMessage(data)
	}
	return &f, nil
}

func prepareFile(f *model.DatasetFile) {
	now := time.Now().UTC()
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = now
	}
	if f.Kind == "" {
		f.Kind = model.DatasetEmpty
	}
}

func prepareSelection(r *model.SelectionRecord) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

func prepareOrder(o *model.Order) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = model.OrderPending
	}
}

func prepareProblem(p *model.ProblemReport) {
	p.Sanitize()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}

func marshalSelection(r *model.SelectionRecord) ([]byte, []byte, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal answers")
	}
	recommended, err := json.Marshal(r.Recommended)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal recommended")
	}
	return answers, recommended, nil
}

func unmarshalSelection(r *model.SelectionRecord, answers, recommended []byte) error {
	if err := json.Unmarshal(answers, &r.Answers); err != nil {
		return eris.Wrap(err, "store: unmarshal answers")
	}
	if err := json.Unmarshal(recommended, &r.Recommended); err != nil {
		return eris.Wrap(err, "store: unmarshal recommended")
	}
	return nil
}

func nullableData(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
