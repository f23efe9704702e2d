package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/models"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func respondValidation(c *gin.Context, errs []string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "validation failed", Errors: errs})
}

// respondError maps the engine's typed errors onto HTTP statuses. Business
// rule rejections are 400s, lookups 404s; anything untyped is a 500 with the
// detail kept in the log, not the response.
func respondError(c *gin.Context, err error) {
	var (
		validationErr   *models.ValidationError
		notFoundErr     *models.NotFoundError
		duplicateErr    *models.DuplicateError
		insufficientErr *models.InsufficientStockError
		priceErr        *models.PriceMismatchError
		stateErr        *models.InvalidStateError
	)
	switch {
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, envelope{Success: false, Message: err.Error()})
	case errors.As(err, &validationErr),
		errors.As(err, &duplicateErr),
		errors.As(err, &insufficientErr),
		errors.As(err, &priceErr),
		errors.As(err, &stateErr):
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
	default:
		logger := config.GetLogger()
		config.LogError(logger, "response.go", "respondError", c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "internal server error"})
	}
}
