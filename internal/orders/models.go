package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonFloz/P3-31899312/internal/payment"
)

const (
	StatusPending       = "PENDING"
	StatusCompleted     = "COMPLETED"
	StatusCanceled      = "CANCELED"
	StatusPaymentFailed = "PAYMENT_FAILED"
)

type Order struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	TransactionID string          `json:"transactionId"`
	Items         []OrderItem     `json:"items"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"-"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type CheckoutItem struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type CheckoutRequest struct {
	Items         []CheckoutItem      `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string              `json:"paymentMethod" validate:"required"`
	CardDetails   payment.CardDetails `json:"cardDetails"`
}

// ProductNotFoundError names the unknown product id so the client can fix
// the cart instead of guessing.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product with id %d not found", e.ProductID)
}

// InsufficientStockError reports which product ran short and by how much.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// StockConflictError signals that a conditional decrement affected zero
// rows: a concurrent checkout consumed the stock between verification and
// commit.
type StockConflictError struct {
	ProductID int64
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock changed concurrently for product %d", e.ProductID)
}
