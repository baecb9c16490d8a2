// Package handlers exposes the store workflows over HTTP.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go-hardware-pos/internal/ai"
	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/catalog"
	"go-hardware-pos/internal/customers"
	"go-hardware-pos/internal/export"
	"go-hardware-pos/internal/logger"
	"go-hardware-pos/internal/middleware"
	"go-hardware-pos/internal/payroll"
	"go-hardware-pos/internal/sales"
	"go-hardware-pos/internal/storage"
	"go-hardware-pos/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler holds every service the routes call. Files, Forecasts and Assistant
// are optional; their routes answer 503 when unset. Queue and Summaries may be
// nil too.
type Handler struct {
	DB        *gorm.DB
	Tokens    *auth.Tokens
	Sales     *sales.Service
	Catalog   *catalog.Service
	Customers *customers.Service
	Payroll   *payroll.Service
	Exports   *export.Exporter
	Files     *storage.FileService
	Forecasts *ai.Forecaster
	Assistant *ai.Assistant

	// Queue runs forecast regeneration in the worker instead of inline.
	Queue ForecastQueue

	// Summaries is cleared when a branch is deleted.
	Summaries ai.SummaryStore
}

// ForecastQueue takes explicit forecast requests.
type ForecastQueue interface {
	RequestForecast(ctx context.Context, branchID uint) error
}

// statusFor maps an error kind to the HTTP status the client sees.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInvalidState, apperr.KindInsufficientStock:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": message}. Server-side failures are logged with
// their cause; the client only gets the generic message.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		l := logger.WithComponent("http")
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " is not configured"})
}

// idParam reads a positive numeric path parameter, answering 400 if it is not one.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func listFilter(c *gin.Context) utils.ListFilter {
	var f utils.ListFilter
	_ = c.ShouldBindQuery(&f)
	f.Defaults()
	return f
}

func scopeOf(c *gin.Context) auth.Scope { return middleware.ScopeFrom(c) }
