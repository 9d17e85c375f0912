/*
Package sqlite provides a SQLite-backed implementation of billing.TxStore.

PURPOSE:
  Production persistence for assignments, payments and reconciliation runs.
  In production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  tenant_assignments:  One row per lease; rent_due is the balance cache
  payments:            Tenant-submitted payments with approval state
  reconciliation_runs: Audit trail of cache-vs-replay sweeps

APPROVAL GUARD:
  MarkDecided uses a conditional UPDATE (WHERE approval_state = 'PENDING').
  Zero rows affected means the payment was already decided - the database,
  not the service, is the arbiter of the one-way transition.

MONEY & TIME ENCODING:
  Monetary columns are TEXT holding exact decimal strings; REAL would
  reintroduce the float drift this system exists to avoid. Timestamps are
  RFC3339 TEXT, months are "YYYY-MM" TEXT.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/rentledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - billing/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/rent-ledger/billing"
	"github.com/warp/rent-ledger/ledger"
)

// Store implements billing.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so every query helper works
// inside and outside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each pooled connection to :memory: would get its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tenant assignments (leases)
	CREATE TABLE IF NOT EXISTS tenant_assignments (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		lease_start TEXT NOT NULL,
		lease_end TEXT,
		monthly_rent TEXT NOT NULL,
		rent_due TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_tenant
		ON tenant_assignments(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_status
		ON tenant_assignments(status);

	-- One ACTIVE lease per tenant+unit at a time
	CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_active_unique
		ON tenant_assignments(tenant_id, unit_id)
		WHERE status = 'ACTIVE';

	-- Payments (immutable once decided)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		assignment_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT,
		reference TEXT,
		approval_state TEXT NOT NULL DEFAULT 'PENDING',
		decided_by TEXT,
		decided_at TEXT,
		denial_reason TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: replay loads approved payments per assignment in ledger order
	CREATE INDEX IF NOT EXISTS idx_payments_assignment_created
		ON payments(assignment_id, created_at ASC);
	CREATE INDEX IF NOT EXISTS idx_payments_state
		ON payments(approval_state);

	-- Reconciliation runs (audit trail)
	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		as_of_month TEXT NOT NULL,
		checked INTEGER NOT NULL DEFAULT 0,
		drifted INTEGER NOT NULL DEFAULT 0,
		repaired INTEGER NOT NULL DEFAULT 0,
		findings_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reconciliation_runs_started
		ON reconciliation_runs(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ASSIGNMENT STORE
// =============================================================================

func (s *Store) SaveAssignment(ctx context.Context, a billing.TenantAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAssignment(ctx, s.db, a)
}

func saveAssignment(ctx context.Context, db dbtx, a billing.TenantAssignment) error {
	query := `
		INSERT INTO tenant_assignments
		(id, tenant_id, unit_id, lease_start, lease_end, monthly_rent, rent_due, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lease_end = excluded.lease_end,
			rent_due = excluded.rent_due,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	var leaseEnd *string
	if a.LeaseEnd != nil {
		t := a.LeaseEnd.UTC().Format(time.RFC3339)
		leaseEnd = &t
	}

	_, err := db.ExecContext(ctx, query,
		a.ID, a.TenantID, a.UnitID,
		a.LeaseStart.UTC().Format(time.RFC3339),
		leaseEnd,
		a.MonthlyRent.String(),
		a.RentDue.String(),
		a.Status,
		a.CreatedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("tenant already holds an active lease on this unit: %w", err)
		}
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, id billing.AssignmentID) (*billing.TenantAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAssignment(ctx, s.db, id)
}

const assignmentColumns = `id, tenant_id, unit_id, lease_start, lease_end, monthly_rent, rent_due, status, created_at, updated_at`

func getAssignment(ctx context.Context, db dbtx, id billing.AssignmentID) (*billing.TenantAssignment, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM tenant_assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) GetActiveAssignment(ctx context.Context, tenantID billing.TenantID, unitID billing.UnitID) (*billing.TenantAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getActiveAssignment(ctx, s.db, tenantID, unitID)
}

func getActiveAssignment(ctx context.Context, db dbtx, tenantID billing.TenantID, unitID billing.UnitID) (*billing.TenantAssignment, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM tenant_assignments
		 WHERE tenant_id = ? AND unit_id = ? AND status = 'ACTIVE'`,
		tenantID, unitID)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) ListAssignments(ctx context.Context, activeOnly bool) ([]billing.TenantAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAssignments(ctx, s.db, activeOnly)
}

func listAssignments(ctx context.Context, db dbtx, activeOnly bool) ([]billing.TenantAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM tenant_assignments`
	if activeOnly {
		query += ` WHERE status = 'ACTIVE'`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []billing.TenantAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *Store) SetRentDue(ctx context.Context, id billing.AssignmentID, rentDue ledger.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setRentDue(ctx, s.db, id, rentDue)
}

func setRentDue(ctx context.Context, db dbtx, id billing.AssignmentID, rentDue ledger.Money) error {
	res, err := db.ExecContext(ctx,
		`UPDATE tenant_assignments SET rent_due = ?, updated_at = ? WHERE id = ?`,
		rentDue.String(), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to set rent due: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAssignmentNotFound
	}
	return nil
}

func (s *Store) EndAssignment(ctx context.Context, id billing.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return endAssignment(ctx, s.db, id)
}

func endAssignment(ctx context.Context, db dbtx, id billing.AssignmentID) error {
	res, err := db.ExecContext(ctx,
		`UPDATE tenant_assignments SET status = 'ENDED', updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to end assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAssignmentNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*billing.TenantAssignment, error) {
	var (
		a          billing.TenantAssignment
		leaseStart string
		leaseEnd   sql.NullString
		rent       string
		rentDue    string
		createdAt  string
		updatedAt  string
	)

	err := row.Scan(&a.ID, &a.TenantID, &a.UnitID, &leaseStart, &leaseEnd,
		&rent, &rentDue, &a.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.LeaseStart, _ = time.Parse(time.RFC3339, leaseStart)
	if leaseEnd.Valid {
		t, _ := time.Parse(time.RFC3339, leaseEnd.String)
		a.LeaseEnd = &t
	}
	a.MonthlyRent, err = ledger.ParseMoney(rent)
	if err != nil {
		return nil, fmt.Errorf("corrupt monthly_rent for assignment %s: %w", a.ID, err)
	}
	a.RentDue, err = ledger.ParseMoney(rentDue)
	if err != nil {
		return nil, fmt.Errorf("corrupt rent_due for assignment %s: %w", a.ID, err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &a, nil
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

func (s *Store) SavePayment(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePayment(ctx, s.db, p)
}

func savePayment(ctx context.Context, db dbtx, p billing.Payment) error {
	query := `
		INSERT INTO payments
		(id, assignment_id, tenant_id, unit_id, amount, method, reference,
		 approval_state, decided_by, decided_at, denial_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var decidedAt *string
	if p.DecidedAt != nil {
		t := p.DecidedAt.UTC().Format(time.RFC3339)
		decidedAt = &t
	}

	_, err := db.ExecContext(ctx, query,
		p.ID, p.AssignmentID, p.TenantID, p.UnitID,
		p.Amount.String(), p.Method, p.Reference,
		p.ApprovalState, nullString(p.DecidedBy), decidedAt, nullString(p.DenialReason),
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id billing.PaymentID) (*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPayment(ctx, s.db, id)
}

const paymentColumns = `id, assignment_id, tenant_id, unit_id, amount, method, reference,
	approval_state, decided_by, decided_at, denial_reason, created_at`

func getPayment(ctx context.Context, db dbtx, id billing.PaymentID) (*billing.Payment, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, id billing.AssignmentID) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPayments(ctx, s.db, id, false)
}

func (s *Store) ListApprovedPayments(ctx context.Context, id billing.AssignmentID) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPayments(ctx, s.db, id, true)
}

func listPayments(ctx context.Context, db dbtx, id billing.AssignmentID, approvedOnly bool) ([]billing.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE assignment_id = ?`
	if approvedOnly {
		query += ` AND approval_state = 'APPROVED'`
	}
	// Ledger order.
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []billing.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (s *Store) MarkDecided(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markDecided(ctx, s.db, p)
}

func markDecided(ctx context.Context, db dbtx, p billing.Payment) error {
	var decidedAt *string
	if p.DecidedAt != nil {
		t := p.DecidedAt.UTC().Format(time.RFC3339)
		decidedAt = &t
	}

	// Conditional UPDATE: the WHERE clause is the one-way-transition guard.
	res, err := db.ExecContext(ctx, `
		UPDATE payments
		SET approval_state = ?, decided_by = ?, decided_at = ?, denial_reason = ?
		WHERE id = ? AND approval_state = 'PENDING'`,
		p.ApprovalState, nullString(p.DecidedBy), decidedAt, nullString(p.DenialReason), p.ID)
	if err != nil {
		return fmt.Errorf("failed to mark payment decided: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	existing, err := getPayment(ctx, db, p.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ledger.ErrPaymentNotFound
	}
	return ledger.ErrAlreadyDecided
}

func scanPayment(row rowScanner) (*billing.Payment, error) {
	var (
		p            billing.Payment
		amount       string
		method       sql.NullString
		reference    sql.NullString
		decidedBy    sql.NullString
		decidedAt    sql.NullString
		denialReason sql.NullString
		createdAt    string
	)

	err := row.Scan(&p.ID, &p.AssignmentID, &p.TenantID, &p.UnitID, &amount,
		&method, &reference, &p.ApprovalState, &decidedBy, &decidedAt, &denialReason, &createdAt)
	if err != nil {
		return nil, err
	}

	p.Amount, err = ledger.ParseMoney(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for payment %s: %w", p.ID, err)
	}
	p.Method = method.String
	p.Reference = reference.String
	p.DecidedBy = decidedBy.String
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		p.DecidedAt = &t
	}
	p.DenialReason = denialReason.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// =============================================================================
// RECONCILIATION RUNS STORE
// =============================================================================

func (s *Store) SaveReconciliationRun(ctx context.Context, run billing.ReconciliationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveReconciliationRun(ctx, s.db, run)
}

type findingJSON struct {
	AssignmentID string `json:"assignment_id"`
	Persisted    string `json:"persisted"`
	Replayed     string `json:"replayed"`
	Drifted      bool   `json:"drifted"`
	Repaired     bool   `json:"repaired"`
}

func saveReconciliationRun(ctx context.Context, db dbtx, run billing.ReconciliationRun) error {
	findings := make([]findingJSON, 0, len(run.Findings))
	for _, f := range run.Findings {
		findings = append(findings, findingJSON{
			AssignmentID: string(f.AssignmentID),
			Persisted:    f.Persisted.String(),
			Replayed:     f.Replayed.String(),
			Drifted:      f.Drifted,
			Repaired:     f.Repaired,
		})
	}
	findingsJSON, _ := json.Marshal(findings)

	_, err := db.ExecContext(ctx, `
		INSERT INTO reconciliation_runs
		(id, started_at, as_of_month, checked, drifted, repaired, findings_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.AsOfMonth.String(),
		run.Checked, run.Drifted, run.Repaired,
		string(findingsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation run: %w", err)
	}
	return nil
}

func (s *Store) ListReconciliationRuns(ctx context.Context, limit int) ([]billing.ReconciliationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listReconciliationRuns(ctx, s.db, limit)
}

func listReconciliationRuns(ctx context.Context, db dbtx, limit int) ([]billing.ReconciliationRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, started_at, as_of_month, checked, drifted, repaired, findings_json
		FROM reconciliation_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliation runs: %w", err)
	}
	defer rows.Close()

	var runs []billing.ReconciliationRun
	for rows.Next() {
		var (
			run          billing.ReconciliationRun
			startedAt    string
			asOfMonth    string
			findingsText sql.NullString
		)
		if err := rows.Scan(&run.ID, &startedAt, &asOfMonth,
			&run.Checked, &run.Drifted, &run.Repaired, &findingsText); err != nil {
			return nil, err
		}

		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		run.AsOfMonth, _ = ledger.ParseMonth(asOfMonth)

		if findingsText.Valid && findingsText.String != "" {
			var findings []findingJSON
			if err := json.Unmarshal([]byte(findingsText.String), &findings); err == nil {
				for _, f := range findings {
					persisted, _ := ledger.ParseMoney(f.Persisted)
					replayed, _ := ledger.ParseMoney(f.Replayed)
					run.Findings = append(run.Findings, billing.Finding{
						AssignmentID: billing.AssignmentID(f.AssignmentID),
						Persisted:    persisted,
						Replayed:     replayed,
						Drifted:      f.Drifted,
						Repaired:     f.Repaired,
					})
				}
			}
		}

		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (billing.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store billing.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveAssignment(ctx context.Context, a billing.TenantAssignment) error {
	return saveAssignment(ctx, ts.tx, a)
}

func (ts *txStore) GetAssignment(ctx context.Context, id billing.AssignmentID) (*billing.TenantAssignment, error) {
	return getAssignment(ctx, ts.tx, id)
}

func (ts *txStore) GetActiveAssignment(ctx context.Context, tenantID billing.TenantID, unitID billing.UnitID) (*billing.TenantAssignment, error) {
	return getActiveAssignment(ctx, ts.tx, tenantID, unitID)
}

func (ts *txStore) ListAssignments(ctx context.Context, activeOnly bool) ([]billing.TenantAssignment, error) {
	return listAssignments(ctx, ts.tx, activeOnly)
}

func (ts *txStore) SetRentDue(ctx context.Context, id billing.AssignmentID, rentDue ledger.Money) error {
	return setRentDue(ctx, ts.tx, id, rentDue)
}

func (ts *txStore) EndAssignment(ctx context.Context, id billing.AssignmentID) error {
	return endAssignment(ctx, ts.tx, id)
}

func (ts *txStore) SavePayment(ctx context.Context, p billing.Payment) error {
	return savePayment(ctx, ts.tx, p)
}

func (ts *txStore) GetPayment(ctx context.Context, id billing.PaymentID) (*billing.Payment, error) {
	return getPayment(ctx, ts.tx, id)
}

func (ts *txStore) ListPayments(ctx context.Context, id billing.AssignmentID) ([]billing.Payment, error) {
	return listPayments(ctx, ts.tx, id, false)
}

func (ts *txStore) ListApprovedPayments(ctx context.Context, id billing.AssignmentID) ([]billing.Payment, error) {
	return listPayments(ctx, ts.tx, id, true)
}

func (ts *txStore) MarkDecided(ctx context.Context, p billing.Payment) error {
	return markDecided(ctx, ts.tx, p)
}

func (ts *txStore) SaveReconciliationRun(ctx context.Context, run billing.ReconciliationRun) error {
	return saveReconciliationRun(ctx, ts.tx, run)
}

func (ts *txStore) ListReconciliationRuns(ctx context.Context, limit int) ([]billing.ReconciliationRun, error) {
	return listReconciliationRuns(ctx, ts.tx, limit)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"payments", "reconciliation_runs", "tenant_assignments"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
