// Package handler exposes the back office over HTTP using gin.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/feastline/backoffice/internal/domain/catalog"
)

// CatalogHandler serves the dish and combo management endpoints.
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler creates a CatalogHandler over the catalog service.
func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

type flavorRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

type dishRequest struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name" binding:"required"`
	CategoryID  int64           `json:"categoryId" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Status      *int            `json:"status"`
	Flavors     []flavorRequest `json:"flavors"`
}

func (r dishRequest) dish() (*catalog.Dish, []catalog.DishFlavor) {
	d := &catalog.Dish{
		ID:          r.ID,
		Name:        r.Name,
		CategoryID:  r.CategoryID,
		Price:       r.Price,
		Image:       r.Image,
		Description: r.Description,
		Status:      catalog.StatusDisabled,
	}
	if r.Status != nil {
		d.Status = catalog.Status(*r.Status)
	}
	flavors := make([]catalog.DishFlavor, len(r.Flavors))
	for i, f := range r.Flavors {
		flavors[i] = catalog.DishFlavor{Name: f.Name, Value: f.Value}
	}
	return d, flavors
}

// CreateDish handles POST /admin/dish.
func (h *CatalogHandler) CreateDish(c *gin.Context) {
	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, flavors := req.dish()
	id, err := h.catalog.SaveDishWithFlavors(c.Request.Context(), d, flavors)
	if err != nil {
		catalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateDish handles PUT /admin/dish.
func (h *CatalogHandler) UpdateDish(c *gin.Context) {
	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ID == 0 {
		badRequestMsg(c, "id is required")
		return
	}

	d, flavors := req.dish()
	if err := h.catalog.UpdateDishWithFlavors(c.Request.Context(), d, flavors); err != nil {
		catalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteDishes handles DELETE /admin/dish?ids=1,2,3.
func (h *CatalogHandler) DeleteDishes(c *gin.Context) {
	ids, err := parseIDList(c.Query("ids"))
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := h.catalog.DeleteDishes(c.Request.Context(), ids); err != nil {
		catalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetDish handles GET /admin/dish/:id.
func (h *CatalogHandler) GetDish(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.catalog.GetDishWithFlavors(c.Request.Context(), id)
	if err != nil {
		catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// SetDishStatus handles POST /admin/dish/status/:status?id=N.
func (h *CatalogHandler) SetDishStatus(c *gin.Context) {
	status, err := strconv.Atoi(c.Param("status"))
	if err != nil {
		badRequest(c, err)
		return
	}
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := h.catalog.SetDishStatus(c.Request.Context(), id, catalog.Status(status)); err != nil {
		catalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDishes handles GET /user/dish/list?categoryId=N, the cached storefront
// listing.
func (h *CatalogHandler) ListDishes(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Query("categoryId"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}

	dishes, err := h.catalog.ListDishesByCategory(c.Request.Context(), categoryID)
	if err != nil {
		catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, dishes)
}

type comboDishRequest struct {
	DishID int64           `json:"dishId" binding:"required"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Copies int             `json:"copies" binding:"required"`
}

type comboRequest struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name" binding:"required"`
	CategoryID  int64              `json:"categoryId" binding:"required"`
	Price       decimal.Decimal    `json:"price" binding:"required"`
	Image       string             `json:"image"`
	Description string             `json:"description"`
	Status      *int               `json:"status"`
	Dishes      []comboDishRequest `json:"dishes"`
}

func (r comboRequest) combo() (*catalog.Combo, []catalog.ComboDish) {
	cb := &catalog.Combo{
		ID:          r.ID,
		Name:        r.Name,
		CategoryID:  r.CategoryID,
		Price:       r.Price,
		Image:       r.Image,
		Description: r.Description,
		Status:      catalog.StatusDisabled,
	}
	if r.Status != nil {
		cb.Status = catalog.Status(*r.Status)
	}
	dishes := make([]catalog.ComboDish, len(r.Dishes))
	for i, d := range r.Dishes {
		dishes[i] = catalog.ComboDish{DishID: d.DishID, Name: d.Name, Price: d.Price, Copies: d.Copies}
	}
	return cb, dishes
}

// CreateCombo handles POST /admin/combo.
func (h *CatalogHandler) CreateCombo(c *gin.Context) {
	var req comboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cb, dishes := req.combo()
	id, err := h.catalog.SaveComboWithDishes(c.Request.Context(), cb, dishes)
	if err != nil {
		catalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateCombo handles PUT /admin/combo.
func (h *CatalogHandler) UpdateCombo(c *gin.Context) {
	var req comboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ID == 0 {
		badRequestMsg(c, "id is required")
		return
	}

	cb, dishes := req.combo()
	if err := h.catalog.UpdateComboWithDishes(c.Request.Context(), cb, dishes); err != nil {
		catalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteCombos handles DELETE /admin/combo?ids=1,2,3.
func (h *CatalogHandler) DeleteCombos(c *gin.Context) {
	ids, err := parseIDList(c.Query("ids"))
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := h.catalog.DeleteCombos(c.Request.Context(), ids); err != nil {
		catalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCombo handles GET /admin/combo/:id.
func (h *CatalogHandler) GetCombo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}

	cb, err := h.catalog.GetComboWithDishes(c.Request.Context(), id)
	if err != nil {
		catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, cb)
}

// SetComboStatus handles POST /admin/combo/status/:status?id=N.
func (h *CatalogHandler) SetComboStatus(c *gin.Context) {
	status, err := strconv.Atoi(c.Param("status"))
	if err != nil {
		badRequest(c, err)
		return
	}
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := h.catalog.SetComboStatus(c.Request.Context(), id, catalog.Status(status)); err != nil {
		catalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
