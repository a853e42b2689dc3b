package bootstrap

import (
	"time"

	"garage-booking/internal/pkg/config"
	"garage-booking/internal/usecase/commands"

	"go.uber.org/fx"
)

var ShopModule = fx.Module("shop",
	fx.Provide(
		NewShopLocation,
		NewBookingPolicy,
	),
)

// NewShopLocation loads the garage's IANA time zone. Every schedule
// computation runs in this location so the slot grid matches the wall
// clock posted on the door.
func NewShopLocation(cfg config.Config) (*time.Location, error) {
	return time.LoadLocation(cfg.Shop.TimeZone)
}

func NewBookingPolicy(cfg config.Config) commands.BookingPolicy {
	return commands.BookingPolicy{
		MinLead:      cfg.Booking.MinLead,
		CancelCutoff: cfg.Booking.CancelCutoff,
		HorizonDays:  cfg.Booking.HorizonDays,
	}
}
