package application

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"maps"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/dmehra2102/order-consistency-engine/internal/catalog/application"
	catalog "github.com/dmehra2102/order-consistency-engine/internal/catalog/domain"
	"github.com/dmehra2102/order-consistency-engine/internal/order/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/metrics"
	"github.com/dmehra2102/order-consistency-engine/pkg/money"
	"github.com/dmehra2102/order-consistency-engine/pkg/outbox"
)

// memStore keeps committed state as snapshots. Each unit of work works on
// its own copies and only writes them back when fn succeeds.
type memStore struct {
	products  map[catalog.ProductID]catalog.Snapshot
	orders    map[domain.OrderID]domain.Snapshot
	customers map[domain.CustomerID]bool
	events    []outbox.Event
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[catalog.ProductID]catalog.Snapshot{},
		orders:    map[domain.OrderID]domain.Snapshot{},
		customers: map[domain.CustomerID]bool{},
	}
}

func (m *memStore) Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx := &memTx{
		store:    m,
		products: maps.Clone(m.products),
		orders:   maps.Clone(m.orders),
		loaded:   map[catalog.ProductID]*catalog.Product{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.products, m.orders = tx.products, tx.orders
	m.events = append(m.events, tx.events...)
	return nil
}

type memTx struct {
	store    *memStore
	products map[catalog.ProductID]catalog.Snapshot
	orders   map[domain.OrderID]domain.Snapshot
	loaded   map[catalog.ProductID]*catalog.Product
	events   []outbox.Event
}

func (t *memTx) Orders() OrderRepository                { return (*memOrders)(t) }
func (t *memTx) Products() catalogapp.ProductRepository { return (*memProducts)(t) }
func (t *memTx) Customers() CustomerDirectory           { return (*memCustomers)(t) }
func (t *memTx) Outbox() OutboxWriter                   { return (*memOutbox)(t) }

type memOrders memTx

func (r *memOrders) Create(_ context.Context, o *domain.Order) error {
	r.orders[o.ID()] = o.Snapshot()
	return nil
}

func (r *memOrders) Get(_ context.Context, id domain.OrderID) (*domain.Order, error) {
	s, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return domain.Rehydrate(s)
}

func (r *memOrders) Save(_ context.Context, o *domain.Order) error {
	if r.orders[o.ID()].Version != o.Version() {
		return fault.New(fault.Conflict, "stale order")
	}
	o.MarkPersisted(o.Version() + 1)
	r.orders[o.ID()] = o.Snapshot()
	return nil
}

type memProducts memTx

func (r *memProducts) Get(_ context.Context, id catalog.ProductID) (*catalog.Product, error) {
	if p, ok := r.loaded[id]; ok {
		return p, nil
	}
	s, ok := r.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	p, err := catalog.Rehydrate(s)
	if err != nil {
		return nil, err
	}
	r.loaded[id] = p
	return p, nil
}

func (r *memProducts) Save(_ context.Context, p *catalog.Product) error {
	p.MarkPersisted(p.Version() + 1)
	r.products[p.ID()] = p.Snapshot()
	return nil
}

type memCustomers memTx

func (r *memCustomers) Exists(_ context.Context, id domain.CustomerID) (bool, error) {
	return r.store.customers[id], nil
}

type memOutbox memTx

func (r *memOutbox) Append(_ context.Context, e outbox.Event) error {
	r.events = append(r.events, e)
	return nil
}

type seed struct {
	price int64
	stock int
}

type fixture struct {
	svc     *Service
	store   *memStore
	metrics *metrics.OrderMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	store.customers["c-1"] = true
	for id, p := range map[string]seed{
		"mug":    {price: 800, stock: 10},
		"teapot": {price: 4500, stock: 2},
		"kettle": {price: 12000, stock: 1},
	} {
		stock, err := catalog.NewStock(p.stock)
		require.NoError(t, err)
		prod, err := catalog.NewProduct(catalog.ProductID(id), id, money.MustNew(p.price), stock)
		require.NoError(t, err)
		store.products[prod.ID()] = prod.Snapshot()
	}
	m := metrics.NewOrderMetrics(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{svc: NewService(log, store, m), store: store, metrics: m}
}

func (f *fixture) stock(id string) int {
	return f.store.products[catalog.ProductID(id)].Stock
}

func (f *fixture) eventTypes() []string {
	var out []string
	for _, e := range f.store.events {
		out = append(out, e.Type)
	}
	return out
}

func (f *fixture) place(t *testing.T, pm domain.PaymentMethod, items ...PlaceOrderItem) *domain.Order {
	t.Helper()
	o, err := f.svc.PlaceOrder(context.Background(), PlaceOrderCommand{CustomerID: "c-1", Items: items, Payment: pm})
	require.NoError(t, err)
	return o
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)

	o := f.place(t, domain.CashOnDelivery{},
		PlaceOrderItem{ProductID: "mug", Quantity: 3},
		PlaceOrderItem{ProductID: "teapot", Quantity: 1},
	)

	assert.Equal(t, domain.StatusPending, o.Status())
	assert.Equal(t, int64(800*3+4500+330), o.Total().Amount())
	assert.Equal(t, 7, f.stock("mug"))
	assert.Equal(t, 1, f.stock("teapot"))
	assert.Contains(t, f.store.orders, o.ID())
	assert.Equal(t, []string{"OrderPlaced", "PaymentMethodSelected"}, f.eventTypes())

	var placed domain.OrderPlaced
	require.NoError(t, json.Unmarshal(f.store.events[0].Payload, &placed))
	assert.Equal(t, string(o.ID()), placed.OrderID)
	assert.Equal(t, int64(330), placed.PaymentFee)
	assert.Len(t, placed.Lines, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Commands.WithLabelValues("place_order", "ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.StockMovements.WithLabelValues("out")))
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		CustomerID: "c-1",
		Items: []PlaceOrderItem{
			{ProductID: "mug", Quantity: 2},
			{ProductID: "teapot", Quantity: 3},
		},
	})

	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.ErrorIs(t, err, fault.InsufficientStock)
	assert.Equal(t, 10, f.stock("mug"), "earlier lines must not keep their stock")
	assert.Equal(t, 2, f.stock("teapot"))
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.store.events)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Commands.WithLabelValues("place_order", "insufficient_stock")))
}

func TestPlaceOrderRejections(t *testing.T) {
	tests := []struct {
		name string
		cmd  PlaceOrderCommand
		want error
	}{
		{"unknown customer", PlaceOrderCommand{CustomerID: "ghost", Items: []PlaceOrderItem{{"mug", 1}}}, domain.ErrMissingCustomer},
		{"no items", PlaceOrderCommand{CustomerID: "c-1"}, domain.ErrEmptyOrder},
		{"unknown product", PlaceOrderCommand{CustomerID: "c-1", Items: []PlaceOrderItem{{"spoon", 1}}}, domain.ErrMissingProduct},
		{"zero quantity", PlaceOrderCommand{CustomerID: "c-1", Items: []PlaceOrderItem{{"mug", 0}}}, domain.ErrInvalidQuantity},
		{"too many units", PlaceOrderCommand{CustomerID: "c-1", Items: []PlaceOrderItem{{"mug", 51}}}, domain.ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.PlaceOrder(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.store.orders)
			assert.Equal(t, 10, f.stock("mug"))
		})
	}
}

func TestPlaceOrderUnknownProductIsMissingReference(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		CustomerID: "c-1", Items: []PlaceOrderItem{{"spoon", 1}},
	})
	assert.Equal(t, fault.MissingReference, fault.KindOf(err))
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestPlaceOrderFreezesPrice(t *testing.T) {
	f := newFixture(t)
	o := f.place(t, nil, PlaceOrderItem{ProductID: "mug", Quantity: 1})

	s := f.store.products["mug"]
	s.UnitPrice = 9999
	f.store.products["mug"] = s

	got, err := f.svc.GetOrder(context.Background(), o.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(800), got.Lines()[0].UnitPrice().Amount())
	assert.Equal(t, int64(800), got.Total().Amount())
}

func TestSelectPaymentMethodReplacesFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, domain.CashOnDelivery{}, PlaceOrderItem{ProductID: "kettle", Quantity: 1})
	assert.Equal(t, int64(12000+440), o.Total().Amount())

	card, err := domain.NewCreditCard("4111111111111111", "12/30")
	require.NoError(t, err)
	o, err = f.svc.SelectPaymentMethod(ctx, o.ID(), card)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), o.Total().Amount())
	assert.True(t, o.PaymentFee().IsZero())

	stored, err := f.svc.GetOrder(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.KindCreditCard, stored.PaymentMethod().Kind())
}

func TestAdvanceOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, domain.CashOnDelivery{}, PlaceOrderItem{ProductID: "mug", Quantity: 1})

	for _, next := range []domain.OrderStatus{
		domain.StatusConfirmed, domain.StatusPreparing, domain.StatusShipped, domain.StatusDelivered, domain.StatusReturned,
	} {
		got, err := f.svc.AdvanceOrder(ctx, o.ID(), next)
		require.NoError(t, err, next)
		assert.Equal(t, next, got.Status())
	}

	_, err := f.svc.AdvanceOrder(ctx, o.ID(), domain.StatusShipped)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 9, f.stock("mug"), "returns do not restock")
}

func TestConfirmRequiresPayment(t *testing.T) {
	f := newFixture(t)
	o := f.place(t, nil, PlaceOrderItem{ProductID: "mug", Quantity: 1})

	_, err := f.svc.AdvanceOrder(context.Background(), o.ID(), domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrNoPaymentMethod)
}

func TestCancelOrderRestocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, domain.CashOnDelivery{},
		PlaceOrderItem{ProductID: "mug", Quantity: 4},
		PlaceOrderItem{ProductID: "teapot", Quantity: 2},
	)
	_, err := f.svc.AdvanceOrder(ctx, o.ID(), domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, 6, f.stock("mug"))
	assert.Equal(t, 0, f.stock("teapot"))

	got, err := f.svc.AdvanceOrder(ctx, o.ID(), domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status())
	assert.Equal(t, 10, f.stock("mug"))
	assert.Equal(t, 2, f.stock("teapot"))
	assert.Contains(t, f.eventTypes(), "OrderCancelled")
	assert.Equal(t, 6.0, testutil.ToFloat64(f.metrics.StockMovements.WithLabelValues("in")))
}

func TestCancelPendingOrderRejected(t *testing.T) {
	f := newFixture(t)
	o := f.place(t, nil, PlaceOrderItem{ProductID: "mug", Quantity: 2})

	_, err := f.svc.CancelOrder(context.Background(), o.ID())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 8, f.stock("mug"))
	assert.Equal(t, domain.StatusPending, f.store.orders[o.ID()].Status)
}

func TestCancelTwiceRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, domain.CashOnDelivery{}, PlaceOrderItem{ProductID: "mug", Quantity: 2})
	_, err := f.svc.AdvanceOrder(ctx, o.ID(), domain.StatusConfirmed)
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, o.ID())
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, o.ID())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 10, f.stock("mug"), "stock is returned once")
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestPlaceOrderLineLimit(t *testing.T) {
	f := newFixture(t)
	stock, _ := catalog.NewStock(100)
	items := make([]PlaceOrderItem, 0, domain.MaxLines+1)
	for range domain.MaxLines + 1 {
		items = append(items, PlaceOrderItem{ProductID: "bulk", Quantity: 1})
	}
	p, err := catalog.NewProduct("bulk", "bulk", money.MustNew(10), stock)
	require.NoError(t, err)
	f.store.products["bulk"] = p.Snapshot()

	_, err = f.svc.PlaceOrder(context.Background(), PlaceOrderCommand{CustomerID: "c-1", Items: items})
	assert.ErrorIs(t, err, domain.ErrTooManyLines)
	assert.Equal(t, fault.CapacityExceeded, fault.KindOf(err))
	assert.Equal(t, 100, f.stock("bulk"))
}
