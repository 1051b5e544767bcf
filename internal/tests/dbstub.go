package tests

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
)

// ──────────────────────────────────────────────
// STUB SQL DRIVER
// ──────────────────────────────────────────────

// StubDB is a database/sql driver double. It serves canned result sets
// keyed by query substring and records every statement in order, so the
// transaction-bound services can run their real code path without
// Postgres. Exec statements succeed with one affected row unless an
// error is registered for them.
type StubDB struct {
	mu      sync.Mutex
	rowSets []stubRowSet
	log     []string
	execErr map[string]error
}

type stubRowSet struct {
	substr  string
	columns []string
	rows    [][]driver.Value
}

// NewStubDB creates a new stub database.
func NewStubDB() *StubDB {
	return &StubDB{execErr: make(map[string]error)}
}

// Open returns a *sql.DB backed by the stub.
func (s *StubDB) Open() *sql.DB {
	return sql.OpenDB(&stubConnector{db: s})
}

// AddRowSet registers the rows served to any query containing substr.
// Queries with no matching row set return zero rows.
func (s *StubDB) AddRowSet(substr string, columns []string, rows ...[]driver.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowSets = append(s.rowSets, stubRowSet{substr: substr, columns: columns, rows: rows})
}

// FailExec makes any exec statement containing substr return err.
func (s *StubDB) FailExec(substr string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execErr[substr] = err
}

// Log returns the recorded statements in execution order.
func (s *StubDB) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.log))
	copy(out, s.log)
	return out
}

// LogIndex returns the position of the first recorded statement containing
// substr, or -1.
func (s *StubDB) LogIndex(substr string) int {
	for i, stmt := range s.Log() {
		if strings.Contains(stmt, substr) {
			return i
		}
	}
	return -1
}

// CountLogged returns how many recorded statements contain substr.
func (s *StubDB) CountLogged(substr string) int {
	n := 0
	for _, stmt := range s.Log() {
		if strings.Contains(stmt, substr) {
			n++
		}
	}
	return n
}

func (s *StubDB) record(stmt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, stmt)
}

func (s *StubDB) lookup(query string) *stubRowSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rowSets {
		if strings.Contains(query, s.rowSets[i].substr) {
			return &s.rowSets[i]
		}
	}
	return nil
}

func (s *StubDB) execError(query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for substr, err := range s.execErr {
		if strings.Contains(query, substr) {
			return err
		}
	}
	return nil
}

type stubConnector struct {
	db *StubDB
}

func (c *stubConnector) Connect(ctx context.Context) (driver.Conn, error) {
	return &stubConn{db: c.db}, nil
}

func (c *stubConnector) Driver() driver.Driver {
	return stubDriver{db: c.db}
}

type stubDriver struct {
	db *StubDB
}

func (d stubDriver) Open(name string) (driver.Conn, error) {
	return &stubConn{db: d.db}, nil
}

type stubConn struct {
	db *StubDB
}

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("stub: prepared statements not supported")
}

func (c *stubConn) Close() error {
	return nil
}

func (c *stubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *stubConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	c.db.record("BEGIN")
	return &stubTx{db: c.db}, nil
}

func (c *stubConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.db.record(query)
	rs := c.db.lookup(query)
	if rs == nil {
		return &stubRows{}, nil
	}
	return &stubRows{columns: rs.columns, rows: rs.rows}, nil
}

func (c *stubConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if err := c.db.execError(query); err != nil {
		c.db.record(query)
		return nil, err
	}
	c.db.record(query)
	return driver.RowsAffected(1), nil
}

type stubTx struct {
	db *StubDB
}

func (t *stubTx) Commit() error {
	t.db.record("COMMIT")
	return nil
}

func (t *stubTx) Rollback() error {
	t.db.record("ROLLBACK")
	return nil
}

type stubRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *stubRows) Columns() []string {
	return r.columns
}

func (r *stubRows) Close() error {
	return nil
}

func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}
