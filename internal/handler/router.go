package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/feastline/backoffice/internal/auth"
	"github.com/feastline/backoffice/pkg/health"
)

// Router bundles everything the HTTP surface needs.
type Router struct {
	Catalog *CatalogHandler
	Cart    *CartHandler
	Report  *ReportHandler
	Health  *health.Tracker

	// JWTSecret signs both token audiences.
	JWTSecret []byte
}

// Register mounts every route on the engine: probe endpoints unauthenticated,
// management endpoints behind admin tokens, storefront endpoints behind user
// tokens.
func (r Router) Register(e *gin.Engine) {
	e.GET("/livez", r.Health.LiveHandler())
	e.GET("/readyz", r.Health.ReadyHandler())

	admin := e.Group("/admin", auth.Require(r.JWTSecret, auth.AudienceAdmin))
	{
		admin.POST("/dish", r.Catalog.CreateDish)
		admin.PUT("/dish", r.Catalog.UpdateDish)
		admin.DELETE("/dish", r.Catalog.DeleteDishes)
		admin.GET("/dish/:id", r.Catalog.GetDish)
		admin.POST("/dish/status/:status", r.Catalog.SetDishStatus)

		admin.POST("/combo", r.Catalog.CreateCombo)
		admin.PUT("/combo", r.Catalog.UpdateCombo)
		admin.DELETE("/combo", r.Catalog.DeleteCombos)
		admin.GET("/combo/:id", r.Catalog.GetCombo)
		admin.POST("/combo/status/:status", r.Catalog.SetComboStatus)

		admin.GET("/report/turnoverStatistics", r.Report.Turnover)
		admin.GET("/report/userStatistics", r.Report.UserGrowth)
		admin.GET("/report/ordersStatistics", r.Report.OrderStats)
		admin.GET("/report/top10", r.Report.TopSales)
		admin.GET("/report/export", r.Report.Export)
	}

	user := e.Group("/user", auth.Require(r.JWTSecret, auth.AudienceUser))
	{
		user.GET("/dish/list", r.Catalog.ListDishes)

		user.POST("/shoppingCart/add", r.Cart.Add)
		user.POST("/shoppingCart/sub", r.Cart.Remove)
		user.GET("/shoppingCart/list", r.Cart.List)
		user.DELETE("/shoppingCart/clean", r.Cart.Clear)
	}
}
