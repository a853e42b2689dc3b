package components

import (
	"garage-booking/internal/infra/readstore"
	"garage-booking/internal/infra/uow"
	"garage-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

// The write side lives behind the unit of work: repositories are
// stateless and constructed inside the transaction, so only the UoW
// itself is wired here. Read stores are stateless too but the query
// layer takes them as explicit dependencies.
var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		uow.NewPostgresUoW,
	),
	readstoreModule,
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		// Service
		fx.Annotate(
			readstore.NewServiceReadStore,
			fx.As(new(queries.ServiceReadStore)),
		),
		// Operating hours
		fx.Annotate(
			readstore.NewHoursReadStore,
			fx.As(new(queries.HoursReadStore)),
		),
		// Appointment: one store serves both the detail/list views and
		// the booked-interval scan availability needs.
		fx.Annotate(
			readstore.NewAppointmentReadStore,
			fx.As(new(queries.AppointmentReadStore)),
			fx.As(new(queries.BookedIntervalStore)),
		),
		// User
		fx.Annotate(
			readstore.NewUserReadStore,
			fx.As(new(queries.UserReadStore)),
		),
	),
)
