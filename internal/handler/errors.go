package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/feastline/backoffice/internal/domain/cart"
	"github.com/feastline/backoffice/internal/domain/catalog"
)

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func badRequestMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// catalogError maps catalog domain errors onto HTTP statuses. Guard failures
// are conflicts: the request was well formed but the catalog state forbids it.
func catalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrDishNotFound), errors.Is(err, catalog.ErrComboNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrDishOnSale),
		errors.Is(err, catalog.ErrComboOnSale),
		errors.Is(err, catalog.ErrDishInCombo):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		internalError(c, err)
	}
}

func cartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrUnknownItem):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrNoItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		internalError(c, err)
	}
}

func internalError(c *gin.Context, err error) {
	zctx.From(c.Request.Context()).Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
