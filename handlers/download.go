package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/downloads"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ResolveDownload(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	token := c.Param("token")

	result, err := h.d.Resolve(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, downloads.ErrNotFound):
			slog.Error("download token not found", slog.String(logkey.TraceID, traceId), slog.String(logkey.Token, token))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Download not found"})
		case errors.Is(err, downloads.ErrExpired):
			slog.Error("download token expired", slog.String(logkey.TraceID, traceId), slog.String(logkey.Token, token))
			c.AbortWithStatusJSON(http.StatusGone, gin.H{"error": "Download link has expired"})
		default:
			slog.Error("error resolving download", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve download"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) MarkDownloadUsed(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	token := c.Param("token")

	if err := h.d.MarkUsed(c.Request.Context(), token); err != nil {
		if errors.Is(err, downloads.ErrNotFound) {
			slog.Error("download token not found", slog.String(logkey.TraceID, traceId), slog.String(logkey.Token, token))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Download not found"})
		} else {
			slog.Error("error marking download used", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark download"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Download marked as used"})
}
