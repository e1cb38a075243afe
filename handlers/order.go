package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JonFloz/P3-31899312/internal/orders"
	"github.com/JonFloz/P3-31899312/internal/payment"
	"github.com/JonFloz/P3-31899312/pkg/ctxmanage"
	"github.com/JonFloz/P3-31899312/pkg/jsend"
	"github.com/JonFloz/P3-31899312/pkg/logkey"
)

func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := currentClaims(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, jsend.Fail("authentication required"))
		return
	}

	var req orders.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, jsend.Fail("items with positive productId and quantity, and a paymentMethod are required"))
		return
	}

	order, err := h.o.ProcessCheckout(c.Request.Context(), traceId, claims.UserID, req)
	if err != nil {
		h.writeCheckoutError(c, traceId, err)
		return
	}

	c.JSON(http.StatusCreated, jsend.Success(gin.H{"order": order}))
}

// writeCheckoutError maps checkout failures onto status codes: anything
// the caller can fix (bad product, short stock, declined card) is a 400;
// an unreachable gateway or storage fault is a 500.
func (h *Handler) writeCheckoutError(c *gin.Context, traceId string, err error) {
	var notFound *orders.ProductNotFoundError
	var shortStock *orders.InsufficientStockError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusBadRequest, jsend.Fail(notFound.Error()))
	case errors.As(err, &shortStock):
		c.JSON(http.StatusBadRequest, jsend.Fail(shortStock.Error()))
	case errors.Is(err, payment.ErrUnknownMethod):
		c.JSON(http.StatusBadRequest, jsend.Fail("unsupported payment method"))
	case errors.Is(err, payment.ErrMissingFields):
		c.JSON(http.StatusBadRequest, jsend.Fail(err.Error()))
	case errors.Is(err, payment.ErrCardRejected),
		errors.Is(err, payment.ErrCardProcessing),
		errors.Is(err, payment.ErrInsufficientFunds),
		errors.Is(err, payment.ErrPaymentFailed):
		c.JSON(http.StatusBadRequest, jsend.Fail(err.Error()))
	case errors.Is(err, payment.ErrGatewayUnreachable):
		slog.Error("payment gateway unreachable",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error("payment gateway unreachable"))
	default:
		slog.Error("checkout failed",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error("checkout failed"))
	}
}

func (h *Handler) GetOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := currentClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, jsend.Fail("authentication required"))
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			c.JSON(http.StatusBadRequest, jsend.Fail("page must be at least 1"))
			return
		}
		page = v
	}
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			c.JSON(http.StatusBadRequest, jsend.Fail("limit must be between 1 and 100"))
			return
		}
		limit = v
	}

	list, total, err := h.o.GetUserOrders(c.Request.Context(), claims.UserID, page, limit)
	if err != nil {
		slog.Error("failed to list orders",
			slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.UserID, claims.UserID),
			slog.String(logkey.Error, err.Error()),
		)
		c.JSON(http.StatusInternalServerError, jsend.Error("failed to list orders"))
		return
	}

	pages := (total + int64(limit) - 1) / int64(limit)
	c.JSON(http.StatusOK, jsend.Success(gin.H{
		"orders": list,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
	}))
}

func (h *Handler) GetOrderDetail(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := currentClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, jsend.Fail("authentication required"))
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID < 1 {
		c.JSON(http.StatusBadRequest, jsend.Fail("order id must be a positive integer"))
		return
	}

	order, err := h.o.GetOrderDetail(c.Request.Context(), orderID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, jsend.Fail("order not found"))
		case errors.Is(err, orders.ErrUnauthorizedOrderAccess):
			c.JSON(http.StatusForbidden, jsend.Fail("you do not have access to this order"))
		default:
			slog.Error("failed to fetch order",
				slog.String(logkey.TraceID, traceId),
				slog.Int64(logkey.OrderID, orderID),
				slog.String(logkey.Error, err.Error()),
			)
			c.JSON(http.StatusInternalServerError, jsend.Error("failed to fetch order"))
		}
		return
	}

	c.JSON(http.StatusOK, jsend.Success(gin.H{"order": order}))
}
