package bootstrap

import (
	"garage-booking/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	JWTModule,
	ShopModule,
	PaymentModule,
	RedisModule,
	components.PersistenceModule,
	components.UseCaseModule,
	components.HandlerModule,
)
