package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/pos/internal/config"
	domainRepo "github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/internal/presentation/http/handler"
	"github.com/tillpoint/pos/internal/presentation/http/middleware"
	"github.com/tillpoint/pos/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth     *handler.AuthHandler
	Catalog  *handler.CatalogHandler
	Order    *handler.OrderHandler
	Customer *handler.CustomerHandler
	Shift    *handler.ShiftHandler
	Settings *handler.SettingsHandler
	Sync     *handler.SyncHandler
	Printer  *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		// The user picker and PIN login are reachable before authentication.
		auth := v1.Group("/auth")
		{
			auth.GET("/users", h.Auth.ListUsers)
			auth.POST("/login", h.Auth.Login)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		rateLimiter := middleware.NewCashierRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/auth/profile", h.Auth.Profile)

	// Settings
	protected.GET("/settings", h.Settings.Get)
	protected.PUT("/settings", middleware.RequireRole("manager", "admin"), h.Settings.Update)

	// Catalog
	protected.GET("/categories", h.Catalog.ListCategories)
	protected.GET("/products", h.Catalog.ListProducts)
	protected.GET("/products/:id", h.Catalog.GetProduct)

	registerOrderRoutes(protected, h, deps)
	registerCustomerRoutes(protected, h)
	registerShiftRoutes(protected, h)
	registerSyncRoutes(protected, h)
	registerPrinterRoutes(protected, h)
}

func registerOrderRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	orders := protected.Group("/orders")
	{
		orders.GET("", h.Order.List)
		// Order creation uses idempotency middleware to prevent duplicates
		orders.POST("", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		}), h.Order.Create)
		orders.POST("/preview", h.Order.Preview)
		orders.GET("/:id", h.Order.Get)
		orders.PUT("/:id/items", h.Order.UpdateItems)
		orders.PUT("/:id/status", h.Order.Transition)
		orders.POST("/:id/payments", h.Order.Pay)
		orders.PUT("/:id/driver", h.Order.AssignDriver)
	}
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
		customers.DELETE("/:id", h.Customer.Delete)
	}
}

func registerShiftRoutes(protected *gin.RouterGroup, h *Handlers) {
	shifts := protected.Group("/shifts")
	{
		shifts.GET("", h.Shift.List)
		shifts.POST("", h.Shift.Open)
		shifts.GET("/current", h.Shift.Current)
		shifts.POST("/close", h.Shift.Close)
		shifts.GET("/:id/z-report", h.Shift.ZReport)
	}
}

func registerSyncRoutes(protected *gin.RouterGroup, h *Handlers) {
	syncGroup := protected.Group("/sync")
	{
		syncGroup.POST("/trigger", h.Sync.Trigger)
		syncGroup.GET("/status", h.Sync.Status)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printerGroup := protected.Group("/printer")
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
		printerGroup.POST("/test", h.Printer.TestPrint)
		printerGroup.POST("/drawer", h.Printer.OpenDrawer)
		printerGroup.POST("/orders/:id/receipt", h.Printer.PrintReceipt)
		printerGroup.POST("/orders/:id/kitchen-ticket", h.Printer.PrintKitchenTicket)
	}
}
