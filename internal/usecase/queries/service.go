package queries

import (
	"context"

	"github.com/google/uuid"

	"garage-booking/internal/infra/db"
	"garage-booking/internal/usecase/shared"
)

type ServiceQueries interface {
	ListActive(ctx context.Context) ([]*ServiceView, error)
}

type ServiceReadStore interface {
	FindByID(ctx context.Context, db db.DBTX, id uuid.UUID) (*ServiceView, error)
	ListActive(ctx context.Context, db db.DBTX) ([]*ServiceView, error)
}

type serviceQueriesImpl struct {
	uow       shared.UnitOfWork
	readStore ServiceReadStore
}

func NewServiceQueries(uow shared.UnitOfWork, readStore ServiceReadStore) ServiceQueries {
	return &serviceQueriesImpl{
		uow:       uow,
		readStore: readStore,
	}
}

func (q *serviceQueriesImpl) ListActive(ctx context.Context) ([]*ServiceView, error) {
	var views []*ServiceView

	err := q.uow.WithDB(ctx, func(ctx context.Context, db db.DBTX) error {
		vs, err := q.readStore.ListActive(ctx, db)
		if err != nil {
			return err
		}
		views = vs
		return nil
	})
	if err != nil {
		return nil, err
	}

	return views, nil
}
