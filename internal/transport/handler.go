package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/zedarvates/storycore-grid/internal/config"
	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/internal/service"
	"github.com/zedarvates/storycore-grid/internal/strategy"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

type handler struct {
	svc service.OptimizationService
	cfg *config.Config
}

func NewHandler(svc service.OptimizationService, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	h := &handler{svc: svc, cfg: cfg}

	r.GET("/health", healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/formats", listFormats)
	r.POST("/formats/validate", h.validateFormat)
	r.POST("/formats/recommend", h.recommend)
	r.POST("/content/analyze", h.analyzeContent)

	r.POST("/coherence/analyze", h.analyzeCoherence)
	r.POST("/coherence/optimize", h.optimizeTransitions)

	r.POST("/quality/analyze", h.analyzeQuality)
	r.POST("/feedback", h.recordFeedback)

	r.GET("/reports/performance", h.performanceReport)
	r.GET("/reports/quality", h.qualityReport)

	return r
}

// bind decodes the JSON body, responding with 400 on failure
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format",
			apperrors.NewValidationError("invalid request body", err))
		return false
	}
	return true
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
}

func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": strategy.Specs()})
}

func (h *handler) validateFormat(c *gin.Context) {
	var req models.ValidateFormatRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.ValidateFormat(req.Format))
}

func (h *handler) analyzeContent(c *gin.Context) {
	var req models.AnalyzeContentRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.AnalyzeContent(req.Project))
}

func (h *handler) recommend(c *gin.Context) {
	startTime := time.Now()
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req models.RecommendRequest
	if !bind(c, &req) {
		return
	}
	rec, err := h.svc.Recommend(ctx, req)
	if err != nil {
		respondError(c, determineStatusCode(err), "format recommendation failed", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"recommendation_id":  rec.ID,
		"format":             rec.RecommendedFormat,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Recommendation served")
	c.JSON(http.StatusOK, rec)
}

func (h *handler) analyzeCoherence(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req models.CoherenceRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.AnalyzeCoherence(ctx, req)
	if err != nil {
		respondError(c, determineStatusCode(err), "coherence analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) optimizeTransitions(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req models.CoherenceRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.OptimizeTransitions(ctx, req)
	if err != nil {
		respondError(c, determineStatusCode(err), "transition optimization failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) analyzeQuality(c *gin.Context) {
	startTime := time.Now()
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req models.QualityRequest
	if !bind(c, &req) {
		return
	}
	report, err := h.svc.AnalyzeQuality(ctx, req)
	if err != nil {
		respondError(c, determineStatusCode(err), "quality analysis failed", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"report_id":          report.ID,
		"format":             report.Format,
		"panels":             len(req.Panels),
		"classification":     report.Classification,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Quality analysis completed successfully")
	c.JSON(http.StatusOK, report)
}

func (h *handler) recordFeedback(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req models.FeedbackRequest
	if !bind(c, &req) {
		return
	}
	update, err := h.svc.RecordFeedback(ctx, req)
	if err != nil {
		respondError(c, determineStatusCode(err), "feedback rejected", err)
		return
	}
	c.JSON(http.StatusOK, update)
}

func (h *handler) performanceReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.PerformanceReport())
}

func (h *handler) qualityReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.QualityReport())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"formats": models.FormatStrings(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Type = string(appErr.Type)
		resp.SupportedFormats = appErr.SupportedFormats
	}
	c.AbortWithStatusJSON(code, resp)
}
