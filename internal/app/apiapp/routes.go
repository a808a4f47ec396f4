package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
	catalogsvc "github.com/pkaravayeu/paylater/internal/services/catalog"
	ledgersvc "github.com/pkaravayeu/paylater/internal/services/ledger"
	notifysvc "github.com/pkaravayeu/paylater/internal/services/notifications"
	reportsvc "github.com/pkaravayeu/paylater/internal/services/reports"
	"github.com/pkaravayeu/paylater/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService         *authsvc.Service
	CatalogService      *catalogsvc.Service
	LedgerService       *ledgersvc.Service
	ReportService       *reportsvc.Service
	NotificationService *notifysvc.Service
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	categoryHandler := handlers.NewCategoryHandler(deps.CatalogService)
	productHandler := handlers.NewProductHandler(deps.CatalogService)
	purchaseHandler := handlers.NewPurchaseHandler(deps.LedgerService)
	installmentHandler := handlers.NewInstallmentHandler(deps.LedgerService)
	reportHandler := handlers.NewReportHandler(deps.ReportService)
	customerHandler := handlers.NewCustomerHandler(deps.AuthService)
	notificationHandler := handlers.NewNotificationHandler(deps.NotificationService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	adminMW := RequireRole(enums.RoleAdmin)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Get("/me", authHandler.Me)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Get("/{id}", categoryHandler.Get)
			r.With(authMW, adminMW).Post("/", categoryHandler.Create)
			r.With(authMW, adminMW).Put("/{id}", categoryHandler.Update)
			r.With(authMW, adminMW).Delete("/{id}", categoryHandler.Delete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.Get)
			r.With(authMW, adminMW).Post("/", productHandler.Create)
			r.With(authMW, adminMW).Put("/{id}", productHandler.Update)
			r.With(authMW, adminMW).Delete("/{id}", productHandler.Delete)
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", purchaseHandler.Create)
			r.Get("/", purchaseHandler.List)
			r.Get("/{id}", purchaseHandler.Get)
		})

		r.Route("/installments", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", installmentHandler.List)
			r.Post("/{id}/pay", installmentHandler.Pay)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", notificationHandler.List)
			r.Post("/{id}/read", notificationHandler.MarkRead)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMW, adminMW)
			r.Get("/stats/dashboard", reportHandler.Dashboard)
			r.Get("/reports/period", reportHandler.Period)
			r.Post("/notifications", notificationHandler.Send)
			r.Get("/customers", customerHandler.List)
			r.Post("/customers/{id}/verify", customerHandler.Verify)
		})
	})
}
