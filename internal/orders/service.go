package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/JonFloz/P3-31899312/internal/payment"
	"github.com/JonFloz/P3-31899312/internal/products"
	"github.com/JonFloz/P3-31899312/pkg/logkey"
)

// ProductReader is the slice of the product store the checkout needs.
type ProductReader interface {
	FindByID(ctx context.Context, id int64) (products.Manga, error)
}

// Store is the order persistence contract. *Conf satisfies it; tests
// substitute fakes.
type Store interface {
	CreatePendingOrder(ctx context.Context, order *Order) error
	CommitStock(ctx context.Context, orderID int64, items []OrderItem) error
	MarkCanceled(ctx context.Context, orderID int64) error
	OrderByID(ctx context.Context, orderID int64) (Order, error)
	OrdersByUser(ctx context.Context, userID int64, page, limit int) ([]Order, int64, error)
}

// EventPublisher emits order lifecycle events. Publishing is best-effort;
// a broker outage never fails a checkout.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, order Order) error
}

var ErrUnauthorizedOrderAccess = errors.New("order belongs to another user")

// Service orchestrates checkout: stock verification, totals, payment,
// then persistence and the stock commit.
type Service struct {
	products  ProductReader
	store     Store
	payments  *payment.Registry
	publisher EventPublisher
}

func NewService(products ProductReader, store Store, payments *payment.Registry, publisher EventPublisher) (*Service, error) {
	if products == nil || store == nil || payments == nil {
		return nil, fmt.Errorf("nil dependency")
	}
	return &Service{products: products, store: store, payments: payments, publisher: publisher}, nil
}

// ProcessCheckout runs the checkout steps in an order chosen so that no
// money moves before stock looks sufficient, no data mutates before money
// moves, and the order row exists before stock mutates:
//
//  1. verify every product exists with enough stock (read-only)
//  2. compute the total from current server-side prices
//  3. charge the card; a payment failure leaves the catalog untouched
//  4. persist the order as PENDING with the gateway transaction id
//  5. conditionally decrement stock and flip the order to COMPLETED in
//     one transaction; a concurrent sell-out cancels the order instead
//     of overselling
func (s *Service) ProcessCheckout(ctx context.Context, traceID string, userID int64, req CheckoutRequest) (Order, error) {
	strategy, err := s.payments.Resolve(req.PaymentMethod)
	if err != nil {
		return Order{}, err
	}

	items := make([]OrderItem, 0, len(req.Items))
	total := decimal.Zero
	for _, ci := range req.Items {
		m, err := s.products.FindByID(ctx, ci.ProductID)
		if err != nil {
			if errors.Is(err, products.ErrNotFound) {
				return Order{}, &ProductNotFoundError{ProductID: ci.ProductID}
			}
			return Order{}, fmt.Errorf("failed to verify product %d: %w", ci.ProductID, err)
		}
		if ci.Quantity > m.Stock {
			return Order{}, &InsufficientStockError{
				ProductName: m.Name,
				Available:   m.Stock,
				Requested:   ci.Quantity,
			}
		}

		unitPrice := decimal.NewFromFloat(m.Price).Round(2)
		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(ci.Quantity))).Round(2)
		total = total.Add(subtotal)

		items = append(items, OrderItem{
			ProductID:   ci.ProductID,
			ProductName: m.Name,
			Quantity:    ci.Quantity,
			UnitPrice:   unitPrice,
			Subtotal:    subtotal,
		})
	}
	total = total.Round(2)

	currency := req.CardDetails.Currency
	if currency == "" {
		currency = "USD"
	}
	description := fmt.Sprintf("Manga order for user %d", userID)

	result, err := strategy.ProcessPayment(ctx, req.CardDetails, total, currency, description)
	if err != nil {
		slog.Warn("payment declined",
			slog.String(logkey.TraceID, traceID),
			slog.Int64(logkey.UserID, userID),
			slog.String(logkey.Error, err.Error()),
		)
		return Order{}, err
	}

	order := Order{
		UserID:        userID,
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		TransactionID: result.TransactionID,
		Items:         items,
	}
	if err := s.store.CreatePendingOrder(ctx, &order); err != nil {
		// The charge went through but the order row did not land. Surface
		// the transaction id so the charge can be reconciled by hand.
		slog.Error("order persistence failed after successful payment",
			slog.String(logkey.TraceID, traceID),
			slog.Int64(logkey.UserID, userID),
			slog.String("transaction_id", result.TransactionID),
			slog.String(logkey.Error, err.Error()),
		)
		return Order{}, fmt.Errorf("failed to persist order for transaction %s: %w", result.TransactionID, err)
	}

	if err := s.store.CommitStock(ctx, order.ID, order.Items); err != nil {
		if cancelErr := s.store.MarkCanceled(ctx, order.ID); cancelErr != nil {
			slog.Error("failed to cancel order after stock conflict",
				slog.String(logkey.TraceID, traceID),
				slog.Int64(logkey.OrderID, order.ID),
				slog.String(logkey.Error, cancelErr.Error()),
			)
		}
		var conflict *StockConflictError
		if errors.As(err, &conflict) {
			name := fmt.Sprintf("product %d", conflict.ProductID)
			requested := 0
			for _, item := range order.Items {
				if item.ProductID == conflict.ProductID {
					name = item.ProductName
					requested = item.Quantity
				}
			}
			available := 0
			if m, lookupErr := s.products.FindByID(ctx, conflict.ProductID); lookupErr == nil {
				available = m.Stock
			}
			return Order{}, &InsufficientStockError{
				ProductName: name,
				Available:   available,
				Requested:   requested,
			}
		}
		return Order{}, fmt.Errorf("failed to commit stock for order %d: %w", order.ID, err)
	}
	order.Status = StatusCompleted

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCompleted(ctx, order); err != nil {
			slog.Warn("failed to publish order completed event",
				slog.String(logkey.TraceID, traceID),
				slog.Int64(logkey.OrderID, order.ID),
				slog.String(logkey.Error, err.Error()),
			)
		}
	}

	slog.Info("checkout completed",
		slog.String(logkey.TraceID, traceID),
		slog.Int64(logkey.UserID, userID),
		slog.Int64(logkey.OrderID, order.ID),
		slog.String("total", total.StringFixed(2)),
	)
	return order, nil
}

// GetUserOrders returns one page of the caller's own orders.
func (s *Service) GetUserOrders(ctx context.Context, userID int64, page, limit int) ([]Order, int64, error) {
	return s.store.OrdersByUser(ctx, userID, page, limit)
}

// GetOrderDetail enforces ownership: only the purchasing user may read an
// order.
func (s *Service) GetOrderDetail(ctx context.Context, orderID, userID int64) (Order, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.UserID != userID {
		return Order{}, ErrUnauthorizedOrderAccess
	}
	return order, nil
}
