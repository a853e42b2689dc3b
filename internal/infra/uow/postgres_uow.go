package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"garage-booking/internal/infra/db"
	"garage-booking/internal/infra/readstore"
	"garage-booking/internal/infra/repository"
	"garage-booking/internal/pkg/errs"
	"garage-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jinzhu/copier"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
	errSnapshotMapping    = errs.New("failed to map snapshot")
)

type PostgresUoW struct {
	pool *pgxpool.Pool
}

func NewPostgresUoW(pool *pgxpool.Pool) shared.UnitOfWork {
	return &PostgresUoW{
		pool: pool,
	}
}

// ReadCommitted prevents dirty reads while allowing concurrent writes
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// Read-only transaction for consistent multi-table snapshots
func (u *PostgresUoW) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error {
	return u.runReadOnlyTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

func (u *PostgresUoW) WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error {
	return fn(ctx, u.pool)
}

func (u *PostgresUoW) CommandReads() shared.CommandReads {
	return &commandReads{dbtx: u.pool}
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{
			dbtx: pgxTx,
		}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries {
				slog.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func (u *PostgresUoW) runReadOnlyTx(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, db db.DBTX) error) error {
	pgxTx, err := u.pool.BeginTx(ctx, options)
	if err != nil {
		return errs.Mark(err, errTransactionBegin)
	}

	defer func() {
		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("failed to rollback read-only transaction", "error", rollbackErr.Error())
			}
		}
	}()

	if err := fn(ctx, pgxTx); err != nil {
		return err
	}

	return pgxTx.Commit(ctx)
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Fallback to a simple calculation if crypto/rand fails
		return 0
	}
	// Safe conversion: mask high bit to ensure positive int64
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- Intentionally safe conversion after masking
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx db.DBTX

	// Lazy-initialized repositories
	appointmentRepo shared.AppointmentRepository
	idempotencyRepo shared.IdempotencyRepository
	userRepo        shared.UserRepository
	commandReads    shared.CommandReads
}

func (t *pgTx) DB() db.DBTX {
	return t.dbtx
}

func (t *pgTx) Appointments() shared.AppointmentRepository {
	if t.appointmentRepo == nil {
		t.appointmentRepo = repository.NewAppointmentRepository()
	}
	return t.appointmentRepo
}

func (t *pgTx) Idempotency() shared.IdempotencyRepository {
	if t.idempotencyRepo == nil {
		t.idempotencyRepo = repository.NewIdempotencyRepository()
	}
	return t.idempotencyRepo
}

func (t *pgTx) Users() shared.UserRepository {
	if t.userRepo == nil {
		t.userRepo = repository.NewUserRepository()
	}
	return t.userRepo
}

func (t *pgTx) Reads() shared.CommandReads {
	if t.commandReads == nil {
		t.commandReads = &commandReads{
			dbtx: t.dbtx,
		}
	}
	return t.commandReads
}

type commandReads struct {
	dbtx db.DBTX

	// Lazy-initialized readstores
	serviceStore     *readstore.ServiceReadStore
	vehicleStore     *readstore.VehicleReadStore
	hoursStore       *readstore.HoursReadStore
	userStore        *readstore.UserReadStore
	idempotencyStore *readstore.IdempotencyReadStore
}

func (r *commandReads) ServiceByID(ctx context.Context, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	if r.serviceStore == nil {
		r.serviceStore = readstore.NewServiceReadStore()
	}

	view, err := r.serviceStore.FindByID(ctx, r.dbtx, id)
	if err != nil {
		return nil, err
	}

	snapshot := &shared.ServiceSnapshot{}
	if err := copier.Copy(snapshot, view); err != nil {
		return nil, errs.Mark(err, errSnapshotMapping)
	}
	return snapshot, nil
}

func (r *commandReads) VehicleByID(ctx context.Context, id uuid.UUID) (*shared.VehicleSnapshot, error) {
	if r.vehicleStore == nil {
		r.vehicleStore = readstore.NewVehicleReadStore()
	}

	return r.vehicleStore.FindByID(ctx, r.dbtx, id)
}

func (r *commandReads) HoursForWeekday(ctx context.Context, weekday int) (*shared.DayHours, error) {
	if r.hoursStore == nil {
		r.hoursStore = readstore.NewHoursReadStore()
	}

	return r.hoursStore.FindByWeekday(ctx, r.dbtx, weekday)
}

func (r *commandReads) UserByEmail(ctx context.Context, email string) (*shared.AuthorizedUser, error) {
	if r.userStore == nil {
		r.userStore = readstore.NewUserReadStore()
	}

	view, hash, err := r.userStore.FindByEmail(ctx, r.dbtx, email)
	if err != nil {
		return nil, err
	}

	snapshot := &shared.AuthorizedUser{}
	if err := copier.Copy(snapshot, view); err != nil {
		return nil, errs.Mark(err, errSnapshotMapping)
	}
	snapshot.PasswordHash = hash
	return snapshot, nil
}

func (r *commandReads) UserByID(ctx context.Context, id uuid.UUID) (*shared.AuthorizedUser, error) {
	if r.userStore == nil {
		r.userStore = readstore.NewUserReadStore()
	}

	view, err := r.userStore.FindByID(ctx, r.dbtx, id)
	if err != nil {
		return nil, err
	}

	snapshot := &shared.AuthorizedUser{}
	if err := copier.Copy(snapshot, view); err != nil {
		return nil, errs.Mark(err, errSnapshotMapping)
	}
	return snapshot, nil
}

func (r *commandReads) IdempotencyByKey(ctx context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	if r.idempotencyStore == nil {
		r.idempotencyStore = readstore.NewIdempotencyReadStore()
	}

	return r.idempotencyStore.Get(ctx, r.dbtx, key, userID)
}
