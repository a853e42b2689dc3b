package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"garage-booking/internal/domain/user"
	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/errs"
	"garage-booking/internal/usecase/shared"
)

var (
	ErrAppointmentNotFound = errs.New("appointment not found")
	ErrAppointmentAccess   = errs.New("appointment access denied")
	ErrInvalidCursor       = errs.New("invalid cursor")
)

type AppointmentFilters struct {
	Status string
}

type AppointmentQueries interface {
	GetByID(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*AppointmentView, error)
	// GetByIDSystem skips authorization; command flows use it for
	// read-after-write and idempotent replay.
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*AppointmentView, error)
	List(ctx context.Context, actorID uuid.UUID, actorRole string, filters AppointmentFilters, cursor *Cursor, limit int) ([]*AppointmentListItem, *Cursor, error)
}

type AppointmentReadStore interface {
	FindByID(ctx context.Context, db db.DBTX, id uuid.UUID) (*AppointmentView, error)
	FindByCustomerFirstPage(ctx context.Context, db db.DBTX, customerID uuid.UUID, status string, limit int32) ([]*AppointmentListItem, error)
	FindByCustomerKeyset(ctx context.Context, db db.DBTX, customerID uuid.UUID, status string, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*AppointmentListItem, error)
	FindAllFirstPage(ctx context.Context, db db.DBTX, status string, limit int32) ([]*AppointmentListItem, error)
	FindAllKeyset(ctx context.Context, db db.DBTX, status string, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*AppointmentListItem, error)
}

type appointmentQueriesImpl struct {
	uow       shared.UnitOfWork
	readStore AppointmentReadStore
}

func NewAppointmentQueries(uow shared.UnitOfWork, readStore AppointmentReadStore) AppointmentQueries {
	return &appointmentQueriesImpl{
		uow:       uow,
		readStore: readStore,
	}
}

func (q *appointmentQueriesImpl) GetByID(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*AppointmentView, error) {
	view, err := q.GetByIDSystem(ctx, id)
	if err != nil {
		return nil, err
	}

	role, err := user.NewRole(actorRole)
	if err != nil {
		return nil, ErrAppointmentAccess
	}

	if !role.IsStaff() {
		if view.CustomerID != actorID {
			return nil, ErrAppointmentAccess
		}
		// Shop-internal notes never reach the customer
		view.InternalNote = nil
	}

	return view, nil
}

func (q *appointmentQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*AppointmentView, error) {
	var view *AppointmentView

	err := q.uow.WithDB(ctx, func(ctx context.Context, db db.DBTX) error {
		v, err := q.readStore.FindByID(ctx, db, id)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return view, nil
}

func (q *appointmentQueriesImpl) List(ctx context.Context, actorID uuid.UUID, actorRole string, filters AppointmentFilters, cursor *Cursor, limit int) ([]*AppointmentListItem, *Cursor, error) {
	role, err := user.NewRole(actorRole)
	if err != nil {
		return nil, nil, ErrAppointmentAccess
	}

	limit = ValidateLimit(limit)

	var rows []*AppointmentListItem
	err = q.uow.WithDB(ctx, func(ctx context.Context, db db.DBTX) error {
		var ferr error
		if cursor == nil || cursor.After == "" {
			if role.IsStaff() {
				rows, ferr = q.readStore.FindAllFirstPage(ctx, db, filters.Status, int32(limit+1))
			} else {
				rows, ferr = q.readStore.FindByCustomerFirstPage(ctx, db, actorID, filters.Status, int32(limit+1))
			}
			return ferr
		}

		lastCreatedAt, lastID, derr := DecodeAfterCursor(cursor.After)
		if derr != nil {
			return ErrInvalidCursor
		}
		if role.IsStaff() {
			rows, ferr = q.readStore.FindAllKeyset(ctx, db, filters.Status, lastCreatedAt, lastID, int32(limit+1))
		} else {
			rows, ferr = q.readStore.FindByCustomerKeyset(ctx, db, actorID, filters.Status, lastCreatedAt, lastID, int32(limit+1))
		}
		return ferr
	})
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(rows) > limit {
		last := rows[limit-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
		rows = rows[:limit]
	}

	return rows, next, nil
}
