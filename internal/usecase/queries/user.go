package queries

import (
	"context"

	"github.com/google/uuid"

	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/errs"
	"garage-booking/internal/usecase/shared"
)

var (
	ErrUserNotFound = errs.New("user not found")
	ErrUserInactive = errs.New("user inactive")
)

type UserQueries interface {
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*AuthorizedUserView, error)
}

type UserReadStore interface {
	FindByID(ctx context.Context, db db.DBTX, id uuid.UUID) (*AuthorizedUserView, error)
}

type userQueriesImpl struct {
	uow       shared.UnitOfWork
	readStore UserReadStore
}

func NewUserQueries(uow shared.UnitOfWork, readStore UserReadStore) UserQueries {
	return &userQueriesImpl{
		uow:       uow,
		readStore: readStore,
	}
}

func (q *userQueriesImpl) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*AuthorizedUserView, error) {
	var view *AuthorizedUserView

	err := q.uow.WithDB(ctx, func(ctx context.Context, db db.DBTX) error {
		v, err := q.readStore.FindByID(ctx, db, userID)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !view.IsActive {
		return nil, ErrUserInactive
	}

	return view, nil
}
