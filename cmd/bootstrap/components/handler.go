package components

import (
	"garage-booking/internal/handler"
	"garage-booking/internal/handler/api"
	"garage-booking/internal/handler/middleware"
	"garage-booking/internal/pkg/jwt"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuthHandler,
		api.NewServiceHandler,
		api.NewAvailabilityHandler,
		api.NewAppointmentHandler,
		newTokenValidator,
		middleware.NewAuthMiddleware,
		newHandlers,
	),
	fx.Invoke(handler.NewRouter),
)

func newTokenValidator(jwtService *jwt.Service) middleware.TokenValidator {
	return jwtService
}

func newHandlers(
	auth *api.AuthHandler,
	service *api.ServiceHandler,
	availability *api.AvailabilityHandler,
	appointment *api.AppointmentHandler,
) handler.Handlers {
	return handler.Handlers{
		Auth:         auth,
		Service:      service,
		Availability: availability,
		Appointment:  appointment,
	}
}
