package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feastline/backoffice/internal/auth"
	"github.com/feastline/backoffice/internal/domain/cart"
)

// CartHandler serves the per-user shopping cart endpoints.
type CartHandler struct {
	carts *cart.Service
}

// NewCartHandler creates a CartHandler over the cart service.
func NewCartHandler(svc *cart.Service) *CartHandler {
	return &CartHandler{carts: svc}
}

type cartItemRequest struct {
	DishID  *int64 `json:"dishId"`
	ComboID *int64 `json:"comboId"`
	Flavor  string `json:"dishFlavor"`
}

func (r cartItemRequest) ref() cart.ItemRef {
	return cart.ItemRef{DishID: r.DishID, ComboID: r.ComboID, Flavor: r.Flavor}
}

// Add handles POST /user/shoppingCart/add.
func (h *CartHandler) Add(c *gin.Context) {
	userID, ok := auth.UserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.carts.Add(c.Request.Context(), userID, req.ref()); err != nil {
		cartError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove handles POST /user/shoppingCart/sub.
func (h *CartHandler) Remove(c *gin.Context) {
	userID, ok := auth.UserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.carts.Remove(c.Request.Context(), userID, req.ref()); err != nil {
		cartError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List handles GET /user/shoppingCart/list.
func (h *CartHandler) List(c *gin.Context) {
	userID, ok := auth.UserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	lines, err := h.carts.List(c.Request.Context(), userID)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// Clear handles DELETE /user/shoppingCart/clean.
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := auth.UserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		cartError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
