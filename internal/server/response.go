package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	billingdomain "github.com/municipay/municipay/internal/billing/domain"
)

const pgUniqueViolation = "23505"

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func abortWithError(c *gin.Context, err error) {
	if errors.Is(err, billingdomain.ErrBillNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "not_found",
				"message": err.Error(),
			},
		})
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":    "conflict",
				"message": err.Error(),
			},
		})
		return
	}

	var validation billingdomain.ValidationError
	if errors.As(err, &validation) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "validation_failed",
				"field":   validation.Field,
				"message": validation.Error(),
			},
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "internal",
			"message": err.Error(),
		},
	})
}

func badRequest(c *gin.Context, field, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":    "validation_failed",
			"field":   field,
			"message": message,
		},
	})
}
