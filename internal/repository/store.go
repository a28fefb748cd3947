package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the querying surface shared by *pgxpool.Pool and pgx.Tx, letting
// repositories run either directly against the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories and provides transactional execution.
type Store interface {
	Workspaces() WorkspaceRepository
	Users() UserRepository
	Tickets() TicketRepository
	Messages() TicketMessageRepository
	Policies() SLAPolicyRepository
	TicketSLAs() TicketSLARepository
	Assignments() AssignmentRepository
	Audit() AuditLogRepository
	Reports() ReportRepository

	// WithinTx runs fn against a store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Nested calls reuse the enclosing transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type sqlStore struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewStore builds a Store backed by the given pgx pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &sqlStore{db: pool, pool: pool}
}

func (s *sqlStore) Workspaces() WorkspaceRepository    { return &workspaceRepository{db: s.db} }
func (s *sqlStore) Users() UserRepository              { return &userRepository{db: s.db} }
func (s *sqlStore) Tickets() TicketRepository          { return &ticketRepository{db: s.db} }
func (s *sqlStore) Messages() TicketMessageRepository  { return &ticketMessageRepository{db: s.db} }
func (s *sqlStore) Policies() SLAPolicyRepository      { return &slaPolicyRepository{db: s.db} }
func (s *sqlStore) TicketSLAs() TicketSLARepository    { return &ticketSLARepository{db: s.db} }
func (s *sqlStore) Assignments() AssignmentRepository  { return &assignmentRepository{db: s.db} }
func (s *sqlStore) Audit() AuditLogRepository          { return &auditLogRepository{db: s.db} }
func (s *sqlStore) Reports() ReportRepository          { return &reportRepository{db: s.db} }

func (s *sqlStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&sqlStore{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
