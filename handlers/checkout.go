package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/orders"
	"storefront/internal/products"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// CreateCheckoutSession snapshots the requested items against the live
// catalog and asks the payment gateway for a session. With the mock gateway
// this is a synchronous, always-successful placeholder for what would be an
// asynchronous, webhook-confirmed flow against a real processor.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	id := identityOf(c)

	var request struct {
		Items []struct {
			ProductID string `json:"product_id"`
			Qty       int    `json:"qty"`
		} `json:"items"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if len(request.Items) == 0 {
		slog.Error("checkout with empty items", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "At least one item is required"})
		return
	}

	lineItems := make([]orders.LineItem, 0, len(request.Items))
	currency := "usd"
	for i, item := range request.Items {
		if item.ProductID == "" || item.Qty <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Product ID and qty must be valid"})
			return
		}
		p, err := h.p.GetByID(c.Request.Context(), item.ProductID)
		if err != nil {
			if errors.Is(err, products.ErrNotFound) {
				slog.Error("checkout item not in catalog", slog.String(logkey.TraceID, traceId),
					slog.String(logkey.ProductID, item.ProductID))
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Product not found"})
				return
			}
			slog.Error("error resolving checkout item", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create checkout session"})
			return
		}
		if i == 0 {
			currency = p.Currency
		}
		lineItems = append(lineItems, orders.LineItem{
			ProductID:  p.ID,
			Title:      p.Title,
			PriceCents: p.PriceCents,
			Qty:        item.Qty,
		})
	}

	email := request.Email
	if email == "" {
		email = claimsEmail(c)
	}

	session, err := h.gateway.CreateSession(c.Request.Context(), lineItems, currency, email, id)
	if err != nil {
		slog.Error("error creating checkout session", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create checkout session"})
		return
	}

	slog.Info("checkout session created", slog.String(logkey.TraceID, traceId), slog.String(logkey.SessionID, session.ID))
	c.JSON(http.StatusOK, session)
}
