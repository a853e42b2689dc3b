package bootstrap

import (
	"log/slog"

	"garage-booking/internal/infra/payment"
	"garage-booking/internal/pkg/config"

	"go.uber.org/fx"
)

var PaymentModule = fx.Module("payment",
	fx.Provide(
		NewPaymentGateway,
	),
)

// NewPaymentGateway picks Stripe when a secret key is configured and
// falls back to the in-process gateway otherwise. The local gateway
// auto-succeeds intents, which is what dev and CI environments want.
func NewPaymentGateway(cfg config.Config) payment.Gateway {
	if cfg.Stripe.SecretKey != "" {
		return payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
	}
	slog.Warn("STRIPE_SECRET_KEY not set, payments run against the local gateway")
	return payment.NewLocalGateway()
}
