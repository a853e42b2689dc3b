package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"garage-booking/internal/domain/user"
	"garage-booking/internal/handler/api"
	"garage-booking/internal/handler/middleware"
	"garage-booking/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *api.AuthHandler
	Service      *api.ServiceHandler
	Availability *api.AvailabilityHandler
	Appointment  *api.AppointmentHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, handlers Handlers, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, handlers, authMiddleware, rateLimiter)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, handlers Handlers, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Rate limiting covers the endpoints a scripted client would hammer:
	// availability polling and booking. Nil means Redis is not configured.
	var limited []gin.HandlerFunc
	if rateLimiter != nil {
		limited = []gin.HandlerFunc{rateLimiter.Handler()}
	}

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: handlers.Auth.Login},
				{Method: http.MethodPost, Path: "/refresh", Handler: handlers.Auth.Refresh},
			})

			authRequired := auth.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodPost, Path: "/logout", Handler: handlers.Auth.Logout},
				{Method: http.MethodGet, Path: "/me", Handler: handlers.Auth.Me},
			})
		}

		// Catalog and availability are public so the booking page works
		// before login.
		addRoutes(apiGroup, []route{
			{Method: http.MethodGet, Path: "/services", Handler: handlers.Service.List},
			{Method: http.MethodGet, Path: "/services/:id/availability", Handler: handlers.Availability.GetDaySchedule, Mw: limited},
		})

		appointments := apiGroup.Group("/appointments")
		appointments.Use(authMiddleware.RequireAuth())
		{
			addRoutes(appointments, []route{
				{Method: http.MethodPost, Path: "", Handler: handlers.Appointment.Book, Mw: limited},
				{Method: http.MethodGet, Path: "", Handler: handlers.Appointment.List},
				{Method: http.MethodGet, Path: "/:id", Handler: handlers.Appointment.GetByID},
				{Method: http.MethodPost, Path: "/:id/payment-intent", Handler: handlers.Appointment.CreatePaymentIntent},
				{Method: http.MethodPost, Path: "/:id/confirm-payment", Handler: handlers.Appointment.ConfirmPayment},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: handlers.Appointment.Cancel},
			})

			staff := appointments.Group("")
			staff.Use(authMiddleware.RequireRoleAtLeast(user.RoleStaff))
			addRoutes(staff, []route{
				{Method: http.MethodPost, Path: "/:id/start", Handler: handlers.Appointment.Start},
				{Method: http.MethodPost, Path: "/:id/complete", Handler: handlers.Appointment.Complete},
				{Method: http.MethodPost, Path: "/:id/no-show", Handler: handlers.Appointment.MarkNoShow},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
