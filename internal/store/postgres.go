package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/pump-selector/internal/db"
	"github.com/sells-group/pump-selector/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_file":         `SELECT id, file_name, file_type, data, kind, row_count, for_selection, for_spares, created_at, updated_at FROM dataset_files WHERE id = $1`,
	"insert_selection": `INSERT INTO selections (id, mode, answers, head, flow_lpm, hp, voltage, result_type, recommended, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS dataset_files (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	file_name     TEXT NOT NULL,
	file_type     TEXT NOT NULL DEFAULT '',
	data          JSONB,
	kind          TEXT NOT NULL DEFAULT 'empty',
	row_count     INTEGER NOT NULL DEFAULT 0,
	for_selection BOOLEAN NOT NULL DEFAULT false,
	for_spares    BOOLEAN NOT NULL DEFAULT false,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_dataset_files_one_selection ON dataset_files(for_selection) WHERE for_selection;
CREATE UNIQUE INDEX IF NOT EXISTS idx_dataset_files_one_spares ON dataset_files(for_spares) WHERE for_spares;

CREATE TABLE IF NOT EXISTS selections (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	mode        TEXT NOT NULL,
	answers     JSONB NOT NULL,
	head        INTEGER NOT NULL,
	flow_lpm    INTEGER NOT NULL,
	hp          DOUBLE PRECISION NOT NULL,
	voltage     INTEGER NOT NULL,
	result_type TEXT NOT NULL,
	recommended JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_selections_created_at ON selections(created_at DESC);

CREATE TABLE IF NOT EXISTS orders (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	selection_id   TEXT,
	pump_type      TEXT NOT NULL,
	category       TEXT NOT NULL,
	customer_name  TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	lines          JSONB NOT NULL,
	total          NUMERIC(14, 2) NOT NULL,
	currency       TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_selection_id ON orders(selection_id);

CREATE TABLE IF NOT EXISTS problems (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	pump_type      TEXT NOT NULL,
	problem        TEXT NOT NULL,
	model          TEXT NOT NULL DEFAULT '',
	customer_name  TEXT NOT NULL DEFAULT '',
	customer_phone TEXT NOT NULL DEFAULT '',
	selection_id   TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_problems_created_at ON problems(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Dataset files ---

func (s *PostgresStore) SaveFile(ctx context.Context, f *model.DatasetFile) error {
	prepareFile(f)
	var data []byte
	if f.HasData() {
		data = f.Data
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dataset_files (id, file_name, file_type, data, kind, row_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   file_name = EXCLUDED.file_name,
		   file_type = EXCLUDED.file_type,
		   data = EXCLUDED.data,
		   kind = EXCLUDED.kind,
		   row_count = EXCLUDED.row_count,
		   updated_at = EXCLUDED.updated_at`,
		f.ID, f.FileName, f.FileType, data, string(f.Kind), f.RowCount, f.CreatedAt, f.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save file %s", f.ID)
}

func (s *PostgresStore) GetFile(ctx context.Context, id string) (*model.DatasetFile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, file_name, file_type, data, kind, row_count, for_selection, for_spares, created_at, updated_at
		 FROM dataset_files WHERE id = $1`,
		id,
	)
	f, err := scanFile(row, true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "file %s", id)
	}
	return f, eris.Wrapf(err, "postgres: get file %s", id)
}

func (s *PostgresStore) ListFiles(ctx context.Context) ([]model.DatasetFile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, file_name, file_type, kind, row_count, for_selection, for_spares, created_at, updated_at
		 FROM dataset_files ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list files")
	}
	defer rows.Close()

	var files []model.DatasetFile
	for rows.Next() {
		f, err := scanFile(rows, false)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan file")
		}
		files = append(files, *f)
	}
	return files, eris.Wrap(rows.Err(), "postgres: list files iterate")
}

func (s *PostgresStore) DeleteFile(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM dataset_files WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete file %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "file %s", id)
	}
	return nil
}

// AssignFile makes id the only file active for role.
func (s *PostgresStore) AssignFile(ctx context.Context, id string, role model.DatasetRole) error {
	col, err := roleColumn(role)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var hasData bool
		err := tx.QueryRow(ctx,
			`SELECT data IS NOT NULL FROM dataset_files WHERE id = $1 FOR UPDATE`, id,
		).Scan(&hasData)
		if errors.Is(err, pgx.ErrNoRows) {
			return eris.Wrapf(ErrNotFound, "file %s", id)
		}
		if err != nil {
			return eris.Wrapf(err, "postgres: check file %s", id)
		}
		if !hasData {
			return eris.Wrapf(ErrNoData, "file %s", id)
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE dataset_files SET %s = false WHERE id <> $1 AND %s`, col, col), id); err != nil {
			return eris.Wrapf(err, "postgres: clear %s", col)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE dataset_files SET %s = true WHERE id = $1`, col), id); err != nil {
			return eris.Wrapf(err, "postgres: set %s", col)
		}
		return nil
	})
}

func (s *PostgresStore) UnassignFile(ctx context.Context, id string, role model.DatasetRole) error {
	col, err := roleColumn(role)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`UPDATE dataset_files SET %s = false WHERE id = $1`, col), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: unassign file %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "file %s", id)
	}
	return nil
}

// ActiveFile returns the file assigned for role, or nil when none is.
func (s *PostgresStore) ActiveFile(ctx context.Context, role model.DatasetRole) (*model.DatasetFile, error) {
	col, err := roleColumn(role)
	if err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT id, file_name, file_type, data, kind, row_count, for_selection, for_spares, created_at, updated_at
		 FROM dataset_files WHERE %s ORDER BY updated_at DESC LIMIT 1`, col),
	)
	f, err := scanFile(row, true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return f, eris.Wrapf(err, "postgres: active %s file", role)
}

// --- Selections ---

func (s *PostgresStore) SaveSelection(ctx context.Context, r *model.SelectionRecord) error {
	prepareSelection(r)
	answers, recommended, err := marshalSelection(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO selections (id, mode, answers, head, flow_lpm, hp, voltage, result_type, recommended, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Mode, answers, r.Head, r.FlowLPM, r.HP, r.Voltage, string(r.ResultType), recommended, r.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert selection")
}

func (s *PostgresStore) ListSelections(ctx context.Context, limit int) ([]model.SelectionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, mode, answers, head, flow_lpm, hp, voltage, result_type, recommended, created_at
		 FROM selections ORDER BY created_at DESC, id LIMIT $1`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list selections")
	}
	defer rows.Close()

	var out []model.SelectionRecord
	for rows.Next() {
		var r model.SelectionRecord
		var answers, recommended []byte
		if err := rows.Scan(&r.ID, &r.Mode, &answers, &r.Head, &r.FlowLPM, &r.HP, &r.Voltage, &r.ResultType, &recommended, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan selection")
		}
		if err := unmarshalSelection(&r, answers, recommended); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list selections iterate")
}

// --- Orders ---

func (s *PostgresStore) CreateOrder(ctx context.Context, o *model.Order) error {
	prepareOrder(o)
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal order lines")
	}
	var selectionID *string
	if o.SelectionID != "" {
		selectionID = &o.SelectionID
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO orders (id, selection_id, pump_type, category, customer_name, customer_phone, lines, total, currency, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11)`,
		o.ID, selectionID, o.PumpType, o.Category, o.CustomerName, o.CustomerPhone,
		lines, o.Total.String(), o.Currency, string(o.Status), o.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert order")
}

func (s *PostgresStore) ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	query := `SELECT id, selection_id, pump_type, category, customer_name, customer_phone, lines, total::text, currency, status, created_at
		FROM orders WHERE true`
	var args []any
	argIdx := 1
	if filter.SelectionID != "" {
		query += fmt.Sprintf(` AND selection_id = $%d`, argIdx)
		args = append(args, filter.SelectionID)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list orders")
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		var selectionID *string
		var lines []byte
		var total string
		if err := rows.Scan(&o.ID, &selectionID, &o.PumpType, &o.Category, &o.CustomerName, &o.CustomerPhone,
			&lines, &total, &o.Currency, &o.Status, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan order")
		}
		if selectionID != nil {
			o.SelectionID = *selectionID
		}
		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal order lines")
		}
		if o.Total, err = decimal.NewFromString(total); err != nil {
			return nil, eris.Wrap(err, "postgres: parse order total")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list orders iterate")
}

// --- Problems ---

func (s *PostgresStore) SaveProblem(ctx context.Context, p *model.ProblemReport) error {
	prepareProblem(p)
	var selectionID *string
	if p.SelectionID != "" {
		selectionID = &p.SelectionID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO problems (id, pump_type, problem, model, customer_name, customer_phone, selection_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.PumpType, p.Problem, p.Model, p.CustomerName, p.CustomerPhone, selectionID, p.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert problem")
}

func (s *PostgresStore) ListProblems(ctx context.Context, limit int) ([]model.ProblemReport, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, pump_type, problem, model, customer_name, customer_phone, selection_id, created_at
		 FROM problems ORDER BY created_at DESC, id LIMIT $1`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list problems")
	}
	defer rows.Close()

	var out []model.ProblemReport
	for rows.Next() {
		var p model.ProblemReport
		var selectionID *string
		if err := rows.Scan(&p.ID, &p.PumpType, &p.Problem, &p.Model, &p.CustomerName, &p.CustomerPhone, &selectionID, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan problem")
		}
		if selectionID != nil {
			p.SelectionID = *selectionID
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list problems iterate")
}

// --- Statistics ---

func (s *PostgresStore) Statistics(ctx context.Context, since time.Time) (*model.Statistics, error) {
	st := model.NewStatistics(since)

	var selections, problems, orders int
	if err := s.pool.QueryRow(ctx, statsTotalsQuery).Scan(&selections, &problems, &orders); err != nil {
		return nil, eris.Wrap(err, "postgres: count totals")
	}
	st.SetTotals(selections, problems, orders)

	for _, g := range statsGroups(`answers->>'purpose'`) {
		if err := s.countInto(ctx, g.query, g.into(st)); err != nil {
			return nil, eris.Wrapf(err, "postgres: %s distribution", g.name)
		}
	}

	for _, table := range activityTables {
		if err := s.activityInto(ctx, table, since, st); err != nil {
			return nil, eris.Wrapf(err, "postgres: %s activity", table)
		}
	}
	return st, nil
}

func (s *PostgresStore) countInto(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key *string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		k := ""
		if key != nil {
			k = *key
		}
		into[k] += n
	}
	return rows.Err()
}

func (s *PostgresStore) activityInto(ctx context.Context, table string, since time.Time, st *model.Statistics) error {
	rows, err := s.pool.Query(ctx, `SELECT created_at FROM `+table+` WHERE created_at >= $1`, since)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return err
		}
		st.AddActivity(at)
	}
	return rows.Err()
}
