package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonFloz/P3-31899312/internal/payment"
	"github.com/JonFloz/P3-31899312/internal/products"
)

type fakeProducts struct {
	byID map[int64]products.Manga
}

func (f *fakeProducts) FindByID(_ context.Context, id int64) (products.Manga, error) {
	m, ok := f.byID[id]
	if !ok {
		return products.Manga{}, products.ErrNotFound
	}
	return m, nil
}

type fakeStore struct {
	created    *Order
	committed  bool
	canceled   bool
	nextID     int64
	commitErr  error
	ordersByID map[int64]Order
	listOrders []Order
	listTotal  int64
}

func (f *fakeStore) CreatePendingOrder(_ context.Context, order *Order) error {
	f.nextID++
	order.ID = f.nextID
	order.Status = StatusPending
	f.created = order
	return nil
}

func (f *fakeStore) CommitStock(_ context.Context, orderID int64, items []OrderItem) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeStore) MarkCanceled(_ context.Context, orderID int64) error {
	f.canceled = true
	return nil
}

func (f *fakeStore) OrderByID(_ context.Context, orderID int64) (Order, error) {
	o, ok := f.ordersByID[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeStore) OrdersByUser(_ context.Context, userID int64, page, limit int) ([]Order, int64, error) {
	return f.listOrders, f.listTotal, nil
}

type fakeStrategy struct {
	result payment.Result
	err    error
	called bool
	amount decimal.Decimal
}

func (f *fakeStrategy) ProcessPayment(_ context.Context, _ payment.CardDetails, amount decimal.Decimal, _, _ string) (payment.Result, error) {
	f.called = true
	f.amount = amount
	if f.err != nil {
		return payment.Result{}, f.err
	}
	return f.result, nil
}

func newTestService(t *testing.T, p *fakeProducts, store *fakeStore, strategy *fakeStrategy) *Service {
	t.Helper()
	reg := payment.NewRegistry()
	reg.Register(payment.MethodCreditCard, strategy)
	svc, err := NewService(p, store, reg, nil)
	require.NoError(t, err)
	return svc
}

func checkoutRequest(items ...CheckoutItem) CheckoutRequest {
	return CheckoutRequest{
		Items:         items,
		PaymentMethod: payment.MethodCreditCard,
		CardDetails:   payment.CardDetails{FullName: "APPROVED", Currency: "usd"},
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	p := &fakeProducts{byID: map[int64]products.Manga{
		1: {ID: 1, Name: "One Piece Vol. 1", Price: 9.99, Stock: 5},
	}}
	store := &fakeStore{}
	strategy := &fakeStrategy{result: payment.Result{TransactionID: "tx-1"}}
	svc := newTestService(t, p, store, strategy)

	order, err := svc.ProcessCheckout(context.Background(), "trace", 42,
		checkoutRequest(CheckoutItem{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, order.Status)
	assert.Equal(t, int64(42), order.UserID)
	assert.Equal(t, "tx-1", order.TransactionID)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(19.98)), "total was %s", order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromFloat(9.99)))
	assert.True(t, order.Items[0].Subtotal.Equal(decimal.NewFromFloat(19.98)))

	assert.True(t, strategy.called)
	assert.True(t, strategy.amount.Equal(decimal.NewFromFloat(19.98)))
	assert.True(t, store.committed)
	assert.False(t, store.canceled)
}

func TestCheckoutUnknownProductFailsBeforeAnySideEffect(t *testing.T) {
	p := &fakeProducts{byID: map[int64]products.Manga{}}
	store := &fakeStore{}
	strategy := &fakeStrategy{result: payment.Result{TransactionID: "tx-1"}}
	svc := newTestService(t, p, store, strategy)

	_, err := svc.ProcessCheckout(context.Background(), "trace", 42,
		checkoutRequest(CheckoutItem{ProductID: 99, Quantity: 1}))
	require.Error(t, err)

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(99), notFound.ProductID)

	assert.False(t, strategy.called, "payment must not run for unknown products")
	assert.Nil(t, store.created)
}

func TestCheckoutInsufficientStockFailsBeforePayment(t *testing.T) {
	p := &fakeProducts{byID: map[int64]products.Manga{
		1: {ID: 1, Name: "Berserk Vol. 3", Price: 14.50, Stock: 1},
	}}
	store := &fakeStore{}
	strategy := &fakeStrategy{result: payment.Result{TransactionID: "tx-1"}}
	svc := newTestService(t, p, store, strategy)

	_, err := svc.ProcessCheckout(context.Background(), "trace", 42,
		checkoutRequest(CheckoutItem{ProductID: 1, Quantity: 3}))
	require.Error(t, err)

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "Berserk Vol. 3", short.ProductName)
	assert.Equal(t, 1, short.Available)
	assert.Equal(t, 3, short.Requested)

	assert.False(t, strategy.called)
	assert.Nil(t, store.created)
}

func TestCheckoutPaymentFailureIsFullyInert(t *testing.T) {
	p := &fakeProducts{byID: map[int64]products.Manga{
		1: {ID: 1, Name: "Naruto Vol. 1", Price: 7.99, Stock: 10},
	}}
	store := &fakeStore{}
	strategy := &fakeStrategy{err: payment.ErrCardRejected}
	svc := newTestService(t, p, store, strategy)

	_, err := svc.ProcessCheckout(context.Background(), "trace", 42,
		checkoutRequest(CheckoutItem{ProductID: 1, Quantity: 1}))
	require.ErrorIs(t, err, payment.ErrCardRejected)

	assert.Nil(t, store.created, "no order row on payment failure")
	assert.False(t, store.committed, "no stock mutation on payment failure")
}

func TestCheckoutUnknownMethodRejected(t *testing.T) {
	p := &fakeProducts{byID: map[int64]products.Manga{}}
	store := &fakeStore{}
	strategy := &fakeStrategy{}
	svc := newTestService(t, p, store, strategy)

	req := checkoutRequest(CheckoutItem{ProductID: 1, Quantity: 1})
	req.PaymentMethod = "Barter"
	_, err := svc.ProcessCheckout(context.Background(), "trace", 42, req)
	require.ErrorIs(t, err, payment.ErrUnknownMethod)
	assert.False(t, strategy.called)
}

func TestCheckoutStockConflictCancelsOrder(t *testing.T) {
	p := &fakeProducts{byID: map[int64]products.Manga{
		1: {ID: 1, Name: "Vinland Saga Vol. 2", Price: 12.00, Stock: 2},
	}}
	store := &fakeStore{commitErr: &StockConflictError{ProductID: 1}}
	strategy := &fakeStrategy{result: payment.Result{TransactionID: "tx-9"}}
	svc := newTestService(t, p, store, strategy)

	_, err := svc.ProcessCheckout(context.Background(), "trace", 42,
		checkoutRequest(CheckoutItem{ProductID: 1, Quantity: 2}))
	require.Error(t, err)

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "Vinland Saga Vol. 2", short.ProductName)

	assert.True(t, store.canceled, "order must be canceled for payment reconciliation")
	require.NotNil(t, store.created)
	assert.Equal(t, "tx-9", store.created.TransactionID)
}

func TestCheckoutMultiItemTotal(t *testing.T) {
	p := &fakeProducts{byID: map[int64]products.Manga{
		1: {ID: 1, Name: "A", Price: 9.99, Stock: 5},
		2: {ID: 2, Name: "B", Price: 3.33, Stock: 5},
	}}
	store := &fakeStore{}
	strategy := &fakeStrategy{result: payment.Result{TransactionID: "tx-2"}}
	svc := newTestService(t, p, store, strategy)

	order, err := svc.ProcessCheckout(context.Background(), "trace", 7, checkoutRequest(
		CheckoutItem{ProductID: 1, Quantity: 2},
		CheckoutItem{ProductID: 2, Quantity: 3},
	))
	require.NoError(t, err)

	// 2*9.99 + 3*3.33 = 19.98 + 9.99 = 29.97
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(29.97)), "total was %s", order.TotalAmount)
}

func TestGetOrderDetailOwnership(t *testing.T) {
	store := &fakeStore{ordersByID: map[int64]Order{
		5: {ID: 5, UserID: 1},
	}}
	strategy := &fakeStrategy{}
	svc := newTestService(t, &fakeProducts{}, store, strategy)

	_, err := svc.GetOrderDetail(context.Background(), 5, 2)
	assert.ErrorIs(t, err, ErrUnauthorizedOrderAccess)

	o, err := svc.GetOrderDetail(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), o.ID)

	_, err = svc.GetOrderDetail(context.Background(), 77, 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
