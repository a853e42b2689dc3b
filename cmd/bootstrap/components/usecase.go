package components

import (
	"time"

	"garage-booking/internal/pkg/clock"
	"garage-booking/internal/usecase/commands"
	"garage-booking/internal/usecase/queries"
	"garage-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewUserQueries,
		queries.NewServiceQueries,
		queries.NewAppointmentQueries,
		newAvailabilityQueries,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAuthCommands,
		commands.NewAppointmentUseCase,
	),
)

// Availability shares the booking policy's lead time and horizon so the
// grid a customer sees and the validation at booking time never drift.
func newAvailabilityQueries(
	uow shared.UnitOfWork,
	services queries.ServiceReadStore,
	hours queries.HoursReadStore,
	booked queries.BookedIntervalStore,
	clk clock.Clock,
	loc *time.Location,
	policy commands.BookingPolicy,
) queries.AvailabilityQueries {
	return queries.NewAvailabilityQueries(uow, services, hours, booked, clk, loc, policy.MinLead, policy.HorizonDays)
}
