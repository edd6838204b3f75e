/*
Package sqlite provides the SQLite-backed implementation of the leave
storage interfaces.

PURPOSE:
  Implements leave.Store, leave.BidStore, leave.AuditLog, and
  leave.RosterProvider over SQLite. In production the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  pilots:         Roster rows (rank, seniority number, active flag)
  leave_requests: Request lifecycle and review fields
  leave_bids:     Preference artifacts (options stored as JSON)
  audit_log:      Append-only record of engine actions

COMPARE-AND-SET:
  UpdateStatus guards every transition with "WHERE status = ?expected".
  Zero rows affected means the row moved underneath the caller; the store
  reports the status actually found. This backstops the engine's rank lock
  rather than replacing it.

WAL MODE:
  SQLite is opened with WAL so advisory reads never block the approval
  write path. The engine's rank lock is the serialization point; the store
  only needs ordinary consistency.

USAGE:
  store, err := sqlite.New("./data/crew.db")
  if err != nil { ... }
  defer store.Close()
  svc := leave.NewService(store, store, opts)

SEE ALSO:
  - leave/store.go: Interface contracts
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/skycruzer/fleet-management-v2-sub008/leave"
)

// Store implements the leave storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Roster
	CREATE TABLE IF NOT EXISTS pilots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		rank TEXT NOT NULL,
		seniority_number INTEGER NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pilots_rank_active
		ON pilots(rank, active);

	-- Leave requests
	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		pilot_id TEXT NOT NULL,
		rank TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		submitted_at TEXT NOT NULL,
		roster_period TEXT NOT NULL,
		is_late BOOLEAN NOT NULL DEFAULT FALSE,
		reviewed_by TEXT,
		reviewed_at TEXT,
		comment TEXT
	);

	-- Hot path: approved-count per rank/day inside the approval re-check
	CREATE INDEX IF NOT EXISTS idx_requests_rank_status_dates
		ON leave_requests(rank, status, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_requests_pilot
		ON leave_requests(pilot_id);

	-- Leave bids (preference artifacts; options as ordered JSON array)
	CREATE TABLE IF NOT EXISTS leave_bids (
		id TEXT PRIMARY KEY,
		pilot_id TEXT NOT NULL,
		rank TEXT NOT NULL,
		options_json TEXT NOT NULL,
		roster_period TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'OPEN',
		submitted_at TEXT NOT NULL,
		resolved_request_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_bids_rank_status
		ON leave_bids(rank, status);

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		request_id TEXT,
		pilot_id TEXT,
		rank TEXT,
		detail TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_request
		ON audit_log(request_id);
	CREATE INDEX IF NOT EXISTS idx_audit_at
		ON audit_log(at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROSTER PROVIDER (leave.RosterProvider)
// =============================================================================

// Pilot is a roster row.
type Pilot struct {
	ID        leave.PilotID
	Name      string
	Rank      leave.Rank
	Seniority int
	Active    bool
}

// UpsertPilot inserts or replaces a roster row.
func (s *Store) UpsertPilot(ctx context.Context, p Pilot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pilots (id, name, rank, seniority_number, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			rank = excluded.rank,
			seniority_number = excluded.seniority_number,
			active = excluded.active`,
		p.ID, p.Name, p.Rank, p.Seniority, p.Active, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pilot: %w", err)
	}
	return nil
}

// ListPilots returns all roster rows ordered by seniority.
func (s *Store) ListPilots(ctx context.Context) ([]Pilot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, rank, seniority_number, active
		FROM pilots ORDER BY seniority_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pilots: %w", err)
	}
	defer rows.Close()

	var pilots []Pilot
	for rows.Next() {
		var p Pilot
		if err := rows.Scan(&p.ID, &p.Name, &p.Rank, &p.Seniority, &p.Active); err != nil {
			return nil, err
		}
		pilots = append(pilots, p)
	}
	return pilots, rows.Err()
}

func (s *Store) ActiveCrewCount(ctx context.Context, rank leave.Rank) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pilots WHERE rank = ? AND active = TRUE`, rank).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active crew: %w", err)
	}
	return n, nil
}

func (s *Store) SeniorityNumber(ctx context.Context, pilotID leave.PilotID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT seniority_number FROM pilots WHERE id = ?`, pilotID).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, &leave.NotFoundError{Kind: "pilot", ID: string(pilotID)}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load seniority: %w", err)
	}
	return n, nil
}

// =============================================================================
// REQUEST STORE (leave.Store)
// =============================================================================

const requestColumns = `id, pilot_id, rank, start_date, end_date, status,
	submitted_at, roster_period, is_late, reviewed_by, reviewed_at, comment`

func (s *Store) CreateRequest(ctx context.Context, req *leave.LeaveRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests
		(id, pilot_id, rank, start_date, end_date, status, submitted_at,
		 roster_period, is_late, reviewed_by, reviewed_at, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.PilotID,
		req.Rank,
		req.Range.Start.String(),
		req.Range.End.String(),
		req.Status,
		req.SubmittedAt.UTC().Format(time.RFC3339Nano),
		req.RosterPeriod,
		req.IsLateRequest,
		nullString(req.ReviewedBy),
		nullTime(req.ReviewedAt),
		nullString(req.Comment),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return req, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id leave.RequestID, expected, next leave.Status, review leave.Review) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = ?, reviewed_by = ?, reviewed_at = ?,
		    comment = COALESCE(NULLIF(?, ''), comment)
		WHERE id = ? AND status = ?`,
		next,
		review.By,
		review.At.UTC().Format(time.RFC3339Nano),
		review.Comment,
		id,
		expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Nothing updated: either missing or no longer in the expected status.
	current, err := s.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	return &leave.StateTransitionError{RequestID: id, Current: current.Status, Attempted: next}
}

func (s *Store) ListByStatus(ctx context.Context, rank leave.Rank, status leave.Status) ([]*leave.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+` FROM leave_requests
		WHERE rank = ? AND status = ?
		ORDER BY submitted_at ASC, id ASC`, rank, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Store) ListIntersecting(ctx context.Context, rank leave.Rank, rng leave.DateRange, statuses ...leave.Status) ([]*leave.LeaveRequest, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + requestColumns + ` FROM leave_requests
		WHERE rank = ? AND start_date <= ? AND end_date >= ?
		AND status IN (?` + repeatPlaceholder(len(statuses)-1) + `)
		ORDER BY submitted_at ASC, id ASC`
	args := []any{rank, rng.End.String(), rng.Start.String()}
	for _, st := range statuses {
		args = append(args, st)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list intersecting requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Store) ListByPilot(ctx context.Context, pilotID leave.PilotID) ([]*leave.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+` FROM leave_requests
		WHERE pilot_id = ?
		ORDER BY submitted_at ASC, id ASC`, pilotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pilot requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

// =============================================================================
// BID STORE (leave.BidStore)
// =============================================================================

func (s *Store) CreateBid(ctx context.Context, bid *leave.LeaveBid) error {
	options, err := marshalOptions(bid.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leave_bids
		(id, pilot_id, rank, options_json, roster_period, status, submitted_at, resolved_request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bid.ID,
		bid.PilotID,
		bid.Rank,
		options,
		bid.RosterPeriod,
		bid.Status,
		bid.SubmittedAt.UTC().Format(time.RFC3339Nano),
		nullString(string(bid.ResolvedRequestID)),
	)
	if err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}
	return nil
}

func (s *Store) GetBid(ctx context.Context, id leave.BidID) (*leave.LeaveBid, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, pilot_id, rank, options_json, roster_period, status, submitted_at, resolved_request_id
		FROM leave_bids WHERE id = ?`, id)
	bid, err := scanBid(row)
	if err == sql.ErrNoRows {
		return nil, &leave.NotFoundError{Kind: "bid", ID: string(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bid: %w", err)
	}
	return bid, nil
}

func (s *Store) UpdateBidStatus(ctx context.Context, id leave.BidID, expected, next leave.BidStatus, resolvedRequestID leave.RequestID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_bids
		SET status = ?, resolved_request_id = COALESCE(NULLIF(?, ''), resolved_request_id)
		WHERE id = ? AND status = ?`,
		next, resolvedRequestID, id, expected)
	if err != nil {
		return fmt.Errorf("failed to update bid status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}
	if _, err := s.GetBid(ctx, id); err != nil {
		return err
	}
	return &leave.ValidationError{Field: "status", Detail: "bid is not " + string(expected)}
}

func (s *Store) ListBids(ctx context.Context, rank leave.Rank, status leave.BidStatus) ([]*leave.LeaveBid, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pilot_id, rank, options_json, roster_period, status, submitted_at, resolved_request_id
		FROM leave_bids
		WHERE rank = ? AND status = ?
		ORDER BY submitted_at ASC, id ASC`, rank, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	var bids []*leave.LeaveBid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

// =============================================================================
// AUDIT LOG (leave.AuditLog)
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, entry leave.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, at, actor_id, action, request_id, pilot_id, rank, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.At.UTC().Format(time.RFC3339Nano),
		entry.ActorID,
		entry.Action,
		nullString(string(entry.RequestID)),
		nullString(string(entry.PilotID)),
		nullString(string(entry.Rank)),
		nullString(entry.Detail),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) QueryAudit(ctx context.Context, filter leave.AuditFilter) ([]leave.AuditEntry, error) {
	query := `SELECT id, at, actor_id, action, request_id, pilot_id, rank, detail FROM audit_log WHERE 1=1`
	var args []any
	if filter.RequestID != nil {
		query += ` AND request_id = ?`
		args = append(args, *filter.RequestID)
	}
	if filter.PilotID != nil {
		query += ` AND pilot_id = ?`
		args = append(args, *filter.PilotID)
	}
	if filter.ActorID != nil {
		query += ` AND actor_id = ?`
		args = append(args, *filter.ActorID)
	}
	if len(filter.Actions) > 0 {
		query += ` AND action IN (?` + repeatPlaceholder(len(filter.Actions)-1) + `)`
		for _, a := range filter.Actions {
			args = append(args, a)
		}
	}
	if filter.From != nil {
		query += ` AND at >= ?`
		args = append(args, filter.From.UTC().Format(time.RFC3339Nano))
	}
	if filter.To != nil {
		query += ` AND at <= ?`
		args = append(args, filter.To.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []leave.AuditEntry
	for rows.Next() {
		var e leave.AuditEntry
		var at string
		var requestID, pilotID, rank, detail sql.NullString
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &e.Action, &requestID, &pilotID, &rank, &detail); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		e.RequestID = leave.RequestID(requestID.String)
		e.PilotID = leave.PilotID(pilotID.String)
		e.Rank = leave.Rank(rank.String)
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*leave.LeaveRequest, error) {
	var req leave.LeaveRequest
	var start, end, submittedAt string
	var reviewedBy, reviewedAt, comment sql.NullString
	err := row.Scan(
		&req.ID,
		&req.PilotID,
		&req.Rank,
		&start,
		&end,
		&req.Status,
		&submittedAt,
		&req.RosterPeriod,
		&req.IsLateRequest,
		&reviewedBy,
		&reviewedAt,
		&comment,
	)
	if err != nil {
		return nil, err
	}

	if req.Range.Start, err = leave.ParseDate(start); err != nil {
		return nil, err
	}
	if req.Range.End, err = leave.ParseDate(end); err != nil {
		return nil, err
	}
	if req.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
		return nil, err
	}
	req.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, reviewedAt.String)
		if err != nil {
			return nil, err
		}
		req.ReviewedAt = &t
	}
	req.Comment = comment.String
	return &req, nil
}

func scanRequests(rows *sql.Rows) ([]*leave.LeaveRequest, error) {
	var reqs []*leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func scanBid(row rowScanner) (*leave.LeaveBid, error) {
	var bid leave.LeaveBid
	var options, submittedAt string
	var resolved sql.NullString
	err := row.Scan(
		&bid.ID,
		&bid.PilotID,
		&bid.Rank,
		&options,
		&bid.RosterPeriod,
		&bid.Status,
		&submittedAt,
		&resolved,
	)
	if err != nil {
		return nil, err
	}
	if bid.Options, err = unmarshalOptions(options); err != nil {
		return nil, err
	}
	if bid.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
		return nil, err
	}
	bid.ResolvedRequestID = leave.RequestID(resolved.String)
	return &bid, nil
}

// bidOption is the JSON shape of one preferred window.
type bidOption struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func marshalOptions(options []leave.DateRange) (string, error) {
	out := make([]bidOption, 0, len(options))
	for _, o := range options {
		out = append(out, bidOption{Start: o.Start.String(), End: o.End.String()})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal bid options: %w", err)
	}
	return string(b), nil
}

func unmarshalOptions(data string) ([]leave.DateRange, error) {
	var raw []bidOption
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bid options: %w", err)
	}
	options := make([]leave.DateRange, 0, len(raw))
	for _, o := range raw {
		start, err := leave.ParseDate(o.Start)
		if err != nil {
			return nil, err
		}
		end, err := leave.ParseDate(o.End)
		if err != nil {
			return nil, err
		}
		options = append(options, leave.NewDateRange(start, end))
	}
	return options, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
