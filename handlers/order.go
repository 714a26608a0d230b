package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/smtp"
	"os"

	"storefront/internal/identity"
	"storefront/internal/orders"
	"storefront/internal/stores/kafka"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	Email            string            `json:"email" validate:"required,email"`
	Items            []orders.LineItem `json:"items" validate:"required,min=1,dive"`
	AmountTotalCents int64             `json:"amount_total_cents" validate:"min=0"`
	Currency         string            `json:"currency" validate:"required,len=3"`
	PaymentSessionID string            `json:"payment_session_id" validate:"required"`
}

// CreateOrder records a completed (mocked) checkout: the order snapshot,
// one download token per line item, and the fire-and-forget side effects.
func (h *Handler) CreateOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	id := identityOf(c)

	var request createOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(request); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	order, err := h.o.Create(c.Request.Context(), request.Email, request.Items,
		request.AmountTotalCents, request.Currency, request.PaymentSessionID, id)
	if err != nil {
		slog.Error("error creating order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	go h.publishOrderCreated(order, traceId)
	go func() {
		if err := sendOrderConfirmationEmail(order.Email, order.ID); err != nil {
			slog.Error("error sending order confirmation", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
		}
	}()

	slog.Info("order created", slog.String(logkey.TraceID, traceId), slog.String(logkey.OrderID, order.ID))
	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "download_tokens": order.DownloadTokens})
}

// ListOrders returns the authenticated user's orders, most recent first.
// Anonymous identities get an empty list: orders must survive login/logout,
// so they are never retrievable by session id.
func (h *Handler) ListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	id := identityOf(c)

	if id.Kind != identity.User {
		c.JSON(http.StatusOK, gin.H{"orders": []orders.Order{}})
		return
	}

	list, err := h.o.ListByUser(c.Request.Context(), id.ID)
	if err != nil {
		slog.Error("error listing orders", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, id.ID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	if list == nil {
		list = []orders.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) GetOrderByPaymentSession(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	sessionID := c.Param("sessionID")

	order, err := h.o.GetByPaymentSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			slog.Error("order not found for payment session", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.SessionID, sessionID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) publishOrderCreated(order orders.Order, traceId string) {
	if h.k == nil {
		return
	}

	jsonData, err := json.Marshal(kafka.OrderCreatedEvent{
		OrderID:          order.ID,
		UserID:           order.UserID,
		Email:            order.Email,
		AmountTotalCents: order.AmountTotalCents,
		Currency:         order.Currency,
		ItemCount:        len(order.Items),
		CreatedAt:        order.CreatedAt,
	})
	if err != nil {
		slog.Error("failed to marshal OrderCreatedEvent", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		return
	}

	if err := h.k.ProduceMessage(kafka.TopicOrderCreated, []byte(order.ID), jsonData); err != nil {
		slog.Error("failed to produce message", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		return
	}
	slog.Info("order event produced", slog.String(logkey.TraceID, traceId), slog.String(logkey.OrderID, order.ID))
}

func sendOrderConfirmationEmail(to string, orderId string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost == "" {
		// mail delivery not configured, e.g. local development
		return nil
	}
	smtpPort := os.Getenv("SMTP_PORT")
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "no-reply@example.com"
	}

	subject := "Order Confirmation"
	body := fmt.Sprintf("Thank you for your order! Your order ID is %s. Your download links are available for 72 hours.", orderId)

	message := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", username, password, smtpHost)
	if err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, []string{to}, message); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}
