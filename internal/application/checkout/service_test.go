package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropflow/backend/internal/domain/catalog"
	"github.com/dropflow/backend/internal/domain/order"
	"github.com/dropflow/backend/internal/domain/shared"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
	"github.com/dropflow/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateSession(ctx context.Context, req CreateSessionRequest) (Session, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Session), args.Error(1)
}

func (m *mockGateway) Verify(ctx context.Context, sessionID string) (VerifyResult, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(VerifyResult), args.Error(1)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockRepository) FindByPaymentReference(ctx context.Context, ref string) (*order.Order, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockRepository) FindAll(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockRepository) Totals(ctx context.Context) (order.Totals, error) {
	args := m.Called(ctx)
	return args.Get(0).(order.Totals), args.Error(1)
}

func (m *mockRepository) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Enqueue(o *order.Order) error {
	return m.Called(o).Error(0)
}

func newTestService(gateway *mockGateway, repo *mockRepository, dispatcher *mockDispatcher) *Service {
	return NewService(gateway, repo, dispatcher, cache.NewInMemoryIdempotencyStore(), 5*time.Second, zap.NewNop())
}

func paidResult(amount float64, meta map[string]string) VerifyResult {
	return VerifyResult{
		Status:     PaymentStatusPaid,
		AmountPaid: valueobject.NewMoneyUSDFromFloat(amount),
		BuyerEmail: "buyer@example.com",
		Metadata:   meta,
	}
}

func sessionMetadata() map[string]string {
	return map[string]string{
		"sku":              "B0TEST123",
		"product_name":     "Posture Corrector",
		"cost":             "24.99",
		"supplier_url":     "https://www.amazon.com/dp/B0TEST123",
		"customer_name":    "Jane Buyer",
		"shipping_street":  "1 Main St",
		"shipping_city":    "Austin",
		"shipping_state":   "TX",
		"shipping_zip":     "78701",
		"shipping_country": "US",
	}
}

func validCheckoutRequest() CreateCheckoutRequest {
	return CreateCheckoutRequest{
		SKU:            "B0TEST123",
		ProductName:    "Posture Corrector",
		Cost:           24.99,
		Price:          49.99,
		SupplierURL:    "https://www.amazon.com/dp/B0TEST123",
		CustomerName:   "Jane Buyer",
		CustomerEmail:  "buyer@example.com",
		ShippingStreet: "1 Main St",
		ShippingCity:   "Austin",
		ShippingState:  "TX",
		ShippingZip:    "78701",
		SuccessURL:     "https://shop.example.com/success",
		CancelURL:      "https://shop.example.com/cancel",
	}
}

func TestCreateCheckout(t *testing.T) {
	t.Run("opens a session with the order context as metadata", func(t *testing.T) {
		gateway := new(mockGateway)
		svc := newTestService(gateway, new(mockRepository), new(mockDispatcher))

		gateway.On("CreateSession", mock.Anything, mock.MatchedBy(func(req CreateSessionRequest) bool {
			return req.Metadata["cost"] == "24.99" &&
				req.Metadata["supplier_url"] == "https://www.amazon.com/dp/B0TEST123" &&
				req.Metadata["shipping_zip"] == "78701" &&
				req.Amount.Cents() == 4999
		})).Return(Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil)

		resp, err := svc.CreateCheckout(context.Background(), validCheckoutRequest())
		require.NoError(t, err)
		assert.Equal(t, "cs_test_1", resp.SessionID)
		assert.Equal(t, "https://pay.example.com/cs_test_1", resp.CheckoutURL)
		gateway.AssertExpectations(t)
	})

	t.Run("falls back to configured redirect URLs", func(t *testing.T) {
		gateway := new(mockGateway)
		svc := newTestService(gateway, new(mockRepository), new(mockDispatcher))
		svc.SetRedirectDefaults("https://shop.example.com/ok", "https://shop.example.com/back")

		gateway.On("CreateSession", mock.Anything, mock.MatchedBy(func(req CreateSessionRequest) bool {
			return req.SuccessURL == "https://shop.example.com/ok" &&
				req.CancelURL == "https://shop.example.com/back"
		})).Return(Session{ID: "cs_test_2", URL: "https://pay.example.com/cs_test_2"}, nil)

		req := validCheckoutRequest()
		req.SuccessURL = ""
		req.CancelURL = ""

		_, err := svc.CreateCheckout(context.Background(), req)
		require.NoError(t, err)
		gateway.AssertExpectations(t)
	})

	t.Run("rejects when no redirect URLs are available", func(t *testing.T) {
		gateway := new(mockGateway)
		svc := newTestService(gateway, new(mockRepository), new(mockDispatcher))

		req := validCheckoutRequest()
		req.SuccessURL = ""
		req.CancelURL = ""

		_, err := svc.CreateCheckout(context.Background(), req)
		require.ErrorContains(t, err, "success_url")
		gateway.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("rejects a listing priced below cost", func(t *testing.T) {
		gateway := new(mockGateway)
		svc := newTestService(gateway, new(mockRepository), new(mockDispatcher))

		req := validCheckoutRequest()
		req.Price = 19.99

		_, err := svc.CreateCheckout(context.Background(), req)
		require.Error(t, err)
		gateway.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})
}

func TestHandlePaymentConfirmation(t *testing.T) {
	t.Run("unpaid session returns pending with no side effects", func(t *testing.T) {
		gateway := new(mockGateway)
		repo := new(mockRepository)
		svc := newTestService(gateway, repo, new(mockDispatcher))

		gateway.On("Verify", mock.Anything, "cs_unpaid").
			Return(VerifyResult{Status: PaymentStatusUnpaid}, nil)

		res, err := svc.HandlePaymentConfirmation(context.Background(), "cs_unpaid")
		require.NoError(t, err)
		assert.Equal(t, ConfirmationPending, res.Status)
		assert.Empty(t, res.OrderID)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("paid session creates the order and dispatches fulfillment", func(t *testing.T) {
		gateway := new(mockGateway)
		repo := new(mockRepository)
		dispatcher := new(mockDispatcher)
		svc := newTestService(gateway, repo, dispatcher)

		gateway.On("Verify", mock.Anything, "cs_paid").
			Return(paidResult(49.99, sessionMetadata()), nil)
		repo.On("FindByPaymentReference", mock.Anything, "cs_paid").
			Return(nil, shared.ErrNotFound)

		var created *order.Order
		repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*order.Order) }).
			Return(nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
		dispatcher.On("Enqueue", mock.AnythingOfType("*order.Order")).Return(nil)

		res, err := svc.HandlePaymentConfirmation(context.Background(), "cs_paid")
		require.NoError(t, err)
		assert.Equal(t, ConfirmationSuccess, res.Status)
		assert.InDelta(t, 49.99, res.AmountPaid, 0.001)
		assert.InDelta(t, 25.00, res.Profit, 0.001)

		require.NotNil(t, created)
		assert.Equal(t, "cs_paid", created.PaymentReference)
		assert.Equal(t, order.StatusAwaitingFulfillment, created.Status)
		dispatcher.AssertExpectations(t)
	})

	t.Run("second confirmation returns the existing order without creating", func(t *testing.T) {
		gateway := new(mockGateway)
		repo := new(mockRepository)
		svc := newTestService(gateway, repo, new(mockDispatcher))

		existing := newPaidOrder(t, "cs_dup")
		gateway.On("Verify", mock.Anything, "cs_dup").
			Return(paidResult(49.99, sessionMetadata()), nil)
		repo.On("FindByPaymentReference", mock.Anything, "cs_dup").
			Return(existing, nil)

		res, err := svc.HandlePaymentConfirmation(context.Background(), "cs_dup")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, res.OrderID)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing cost metadata parks the order for manual review", func(t *testing.T) {
		gateway := new(mockGateway)
		repo := new(mockRepository)
		dispatcher := new(mockDispatcher)
		svc := newTestService(gateway, repo, dispatcher)

		meta := sessionMetadata()
		delete(meta, "cost")
		gateway.On("Verify", mock.Anything, "cs_nocost").
			Return(paidResult(49.99, meta), nil)
		repo.On("FindByPaymentReference", mock.Anything, "cs_nocost").
			Return(nil, shared.ErrNotFound)

		var created *order.Order
		repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*order.Order) }).
			Return(nil)

		res, err := svc.HandlePaymentConfirmation(context.Background(), "cs_nocost")
		require.NoError(t, err)
		assert.Equal(t, ConfirmationSuccess, res.Status)

		require.NotNil(t, created)
		assert.Equal(t, order.StatusManualReview, created.Status)
		// With no known cost the recorded profit equals the full amount paid.
		assert.InDelta(t, 49.99, res.Profit, 0.001)
		dispatcher.AssertNotCalled(t, "Enqueue", mock.Anything)
	})

	t.Run("missing shipping metadata fails loudly without an order", func(t *testing.T) {
		gateway := new(mockGateway)
		repo := new(mockRepository)
		svc := newTestService(gateway, repo, new(mockDispatcher))

		meta := sessionMetadata()
		delete(meta, "shipping_street")
		gateway.On("Verify", mock.Anything, "cs_noaddr").
			Return(paidResult(49.99, meta), nil)
		repo.On("FindByPaymentReference", mock.Anything, "cs_noaddr").
			Return(nil, shared.ErrNotFound)

		_, err := svc.HandlePaymentConfirmation(context.Background(), "cs_noaddr")
		require.Error(t, err)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("transient storage failure is retried", func(t *testing.T) {
		gateway := new(mockGateway)
		repo := new(mockRepository)
		dispatcher := new(mockDispatcher)
		svc := newTestService(gateway, repo, dispatcher)

		gateway.On("Verify", mock.Anything, "cs_flaky").
			Return(paidResult(49.99, sessionMetadata()), nil)
		repo.On("FindByPaymentReference", mock.Anything, "cs_flaky").
			Return(nil, shared.ErrNotFound)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).
			Return(shared.ErrStorageUnavailable).Once()
		repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).
			Return(nil).Once()
		repo.On("Update", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
		dispatcher.On("Enqueue", mock.AnythingOfType("*order.Order")).Return(nil)

		res, err := svc.HandlePaymentConfirmation(context.Background(), "cs_flaky")
		require.NoError(t, err)
		assert.Equal(t, ConfirmationSuccess, res.Status)
		repo.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("dispatch failure does not roll back the order", func(t *testing.T) {
		gateway := new(mockGateway)
		repo := new(mockRepository)
		dispatcher := new(mockDispatcher)
		svc := newTestService(gateway, repo, dispatcher)

		gateway.On("Verify", mock.Anything, "cs_full").
			Return(paidResult(49.99, sessionMetadata()), nil)
		repo.On("FindByPaymentReference", mock.Anything, "cs_full").
			Return(nil, shared.ErrNotFound)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
		dispatcher.On("Enqueue", mock.AnythingOfType("*order.Order")).
			Return(shared.NewDomainError("QUEUE_FULL", "fulfillment queue is full"))

		res, err := svc.HandlePaymentConfirmation(context.Background(), "cs_full")
		require.NoError(t, err)
		assert.Equal(t, ConfirmationSuccess, res.Status)
		assert.NotEmpty(t, res.OrderID)
	})
}

// fakeOrderStore is a concurrency-safe map-backed store used to prove that
// racing confirmations produce exactly one order.
type fakeOrderStore struct {
	mockRepository
	mu     sync.Mutex
	byRef  map[string]*order.Order
	writes int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{byRef: make(map[string]*order.Order)}
}

func (f *fakeOrderStore) Create(_ context.Context, o *order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byRef[o.PaymentReference]; ok {
		return shared.ErrAlreadyExists
	}
	f.byRef[o.PaymentReference] = o
	f.writes++
	return nil
}

func (f *fakeOrderStore) FindByPaymentReference(_ context.Context, ref string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.byRef[ref]; ok {
		return o, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOrderStore) Update(_ context.Context, _ *order.Order) error { return nil }

func TestHandlePaymentConfirmationConcurrent(t *testing.T) {
	gateway := new(mockGateway)
	dispatcher := new(mockDispatcher)
	store := newFakeOrderStore()
	svc := NewService(gateway, store, dispatcher, cache.NewInMemoryIdempotencyStore(), 5*time.Second, zap.NewNop())

	gateway.On("Verify", mock.Anything, "cs_race").
		Return(paidResult(49.99, sessionMetadata()), nil)
	dispatcher.On("Enqueue", mock.AnythingOfType("*order.Order")).Return(nil)

	const callers = 20
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.HandlePaymentConfirmation(context.Background(), "cs_race")
			assert.NoError(t, err)
			assert.NotNil(t, res)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.writes, "racing confirmations must create exactly one order")
}

func TestRetryFulfillment(t *testing.T) {
	t.Run("re-queues a failed order", func(t *testing.T) {
		repo := new(mockRepository)
		dispatcher := new(mockDispatcher)
		svc := newTestService(new(mockGateway), repo, dispatcher)

		o := newPaidOrder(t, "cs_retry")
		require.NoError(t, o.MarkAwaitingFulfillment())
		require.NoError(t, o.MarkFulfillmentFailed(order.FulfillmentRecord{}))

		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("Update", mock.Anything, o).Return(nil)
		dispatcher.On("Enqueue", o).Return(nil)

		res, err := svc.RetryFulfillment(context.Background(), o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, res.OrderID)
		assert.Equal(t, order.StatusAwaitingFulfillment, o.Status)
		dispatcher.AssertExpectations(t)
	})

	t.Run("rejects a retry on a fulfilled order", func(t *testing.T) {
		repo := new(mockRepository)
		dispatcher := new(mockDispatcher)
		svc := newTestService(new(mockGateway), repo, dispatcher)

		o := newPaidOrder(t, "cs_done")
		require.NoError(t, o.MarkAwaitingFulfillment())
		require.NoError(t, o.MarkFulfilled(order.NewBotRecord(order.BotResult{Success: true, ExternalOrderID: "114-1"})))

		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.RetryFulfillment(context.Background(), o.ID)
		require.ErrorIs(t, err, shared.ErrInvalidState)
		dispatcher.AssertNotCalled(t, "Enqueue", mock.Anything)
	})
}

func newPaidOrder(t *testing.T, ref string) *order.Order {
	t.Helper()
	dc := decodeMetadata(sessionMetadata())
	require.NoError(t, dc.AddrErr)
	product := catalog.Product{
		SKU:         dc.SKU,
		Name:        dc.ProductName,
		Cost:        dc.Cost,
		ResalePrice: valueobject.NewMoneyUSDFromFloat(49.99),
		SupplierURL: dc.SupplierURL,
	}
	o, err := order.NewOrder(ref, product, order.Customer{Name: dc.CustomerName, Email: "buyer@example.com"},
		dc.ShipTo, valueobject.NewMoneyUSDFromFloat(49.99), dc.Cost)
	require.NoError(t, err)
	return o
}
