package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
)

// Handlers bundles everything the API serves
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Sale    *handler.SaleHandler
	GST     *handler.GSTHandler
	Audit   *handler.AuditHandler
}

// Roles that may void or refund sales and adjust stock
var stockControllers = []auth.Role{auth.RoleOwner, auth.RoleManager, auth.RoleAdmin}

// Roles that may read the audit trail
var auditReaders = []auth.Role{auth.RoleOwner, auth.RoleAuditor, auth.RoleAdmin}

// API returns the route groups of the REST surface. Every group except
// health runs behind authenticate.
func API(h Handlers, authenticate ...gin.HandlerFunc) []*DomainGroup {
	controlStock := middleware.RequireRoles(stockControllers...)
	readAudit := middleware.RequireRoles(auditReaders...)
	protected := append(authenticate[:len(authenticate):len(authenticate)], middleware.TracingAttributeInjector())

	system := NewDomainGroup("system", "/health").
		GET("", h.Health.Live).
		GET("/ready", h.Health.Ready)

	authGroup := NewDomainGroup("auth", "/auth").Use(protected...).
		POST("/logout", h.Auth.Logout)

	products := NewDomainGroup("products", "/products").Use(protected...).
		POST("", h.Product.Create).
		GET("", h.Product.List).
		GET("/summary", h.Product.Summary).
		GET("/low-stock", h.Product.LowStock).
		GET("/valuation", h.Product.Valuation).
		GET("/:id", h.Product.Get).
		PATCH("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Deactivate).
		POST("/:id/adjust-stock", controlStock, h.Product.AdjustStock).
		POST("/:id/movements", h.Product.RecordMovement).
		GET("/:id/movements", h.Product.Movements).
		GET("/:id/stock", h.Product.Stock)

	sales := NewDomainGroup("sales", "/sales").Use(protected...).
		GET("/payment-methods", h.Sale.PaymentMethods).
		GET("/payment-stats", h.Sale.PaymentStats).
		POST("", h.Sale.Create).
		GET("", h.Sale.List).
		GET("/:id", h.Sale.Get).
		PATCH("/:id", h.Sale.Update).
		POST("/:id/void", controlStock, h.Sale.Void).
		POST("/:id/refund", controlStock, h.Sale.Refund)

	gst := NewDomainGroup("gst", "/gst").Use(protected...).
		GET("/summary", h.GST.Summary).
		GET("/report", h.GST.Report).
		POST("/calculate", h.GST.Calculate).
		POST("/invoices/:sale_id", h.GST.CreateInvoice)

	audit := NewDomainGroup("audit", "/audit-logs").Use(protected...).
		GET("", readAudit, h.Audit.List)

	return []*DomainGroup{system, authGroup, products, sales, gst, audit}
}

// Mount registers the API groups on engine under /api/v1
func Mount(engine *gin.Engine, h Handlers, authenticate ...gin.HandlerFunc) *Router {
	r := NewRouter(engine)
	for _, g := range API(h, authenticate...) {
		r.Register(g)
	}
	r.Setup()
	return r
}
