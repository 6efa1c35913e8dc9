package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/logging"
	"github.com/dmitrijs2005/bookshelf/internal/server/auth"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
	"github.com/dmitrijs2005/bookshelf/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	register     func(services.RegisterInput) (*models.User, string, error)
	authenticate func(email, password string) (*models.User, string, error)
	profile      func(userID string) (*models.User, error)
	update       func(userID string, in services.UpdateProfileInput) (*models.User, error)
	deleteAcct   func(userID string) error
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*models.User, string, error) {
	return f.register(in)
}
func (f *fakeUsers) Authenticate(_ context.Context, email, password string) (*models.User, string, error) {
	return f.authenticate(email, password)
}
func (f *fakeUsers) Profile(_ context.Context, userID string) (*models.User, error) {
	return f.profile(userID)
}
func (f *fakeUsers) UpdateProfile(_ context.Context, userID string, in services.UpdateProfileInput) (*models.User, error) {
	return f.update(userID, in)
}
func (f *fakeUsers) DeleteAccount(_ context.Context, userID string) error {
	return f.deleteAcct(userID)
}

type fakeCart struct {
	items   map[string][]*models.CartItem
	listErr error
}

func (f *fakeCart) List(_ context.Context, userID string) ([]*models.CartItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items[userID], nil
}

func (f *fakeCart) Add(_ context.Context, userID string, in services.AddItemInput) (models.AddOutcome, error) {
	if in.ItemID == "" {
		return "", common.NewValidationError("id", "is required")
	}
	if in.Price == nil {
		return "", common.NewValidationError("price", "is required")
	}
	for _, it := range f.items[userID] {
		if it.ItemID == in.ItemID {
			it.Quantity++
			return models.OutcomeUpdated, nil
		}
	}
	f.items[userID] = append([]*models.CartItem{{
		UserID: userID, ItemID: in.ItemID, Title: in.Title, Price: *in.Price, Quantity: 1,
		ImageRef: in.ImageRef, ContentRef: in.ContentRef,
	}}, f.items[userID]...)
	return models.OutcomeCreated, nil
}

func (f *fakeCart) Remove(_ context.Context, userID, itemID string) error {
	items := f.items[userID]
	for i, it := range items {
		if it.ItemID == itemID {
			f.items[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeCart) Clear(_ context.Context, userID string) (int64, error) {
	n := int64(len(f.items[userID]))
	delete(f.items, userID)
	return n, nil
}

type fakeCheckout struct {
	cart *fakeCart
	err  error
}

func (f *fakeCheckout) Checkout(_ context.Context, userID string) (*models.CheckoutResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	items := f.cart.items[userID]
	if len(items) == 0 {
		return nil, common.ErrEmptyCart
	}
	var total float64
	for _, it := range items {
		total += it.Subtotal()
	}
	delete(f.cart.items, userID)
	return &models.CheckoutResult{
		CheckoutID: "chk-1", ItemsProcessed: len(items), Total: models.RoundCents(total),
		PurchasedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

type fakePurchases struct {
	recs []*models.PurchaseRecord
	err  error
}

func (f *fakePurchases) List(_ context.Context, userID string) ([]*models.PurchaseRecord, error) {
	return f.recs, f.err
}

type testEnv struct {
	srv       *Server
	tokens    *auth.TokenService
	users     *fakeUsers
	cart      *fakeCart
	checkout  *fakeCheckout
	purchases *fakePurchases
	registry  *prometheus.Registry
	healthErr error
}

func newTestEnv(t *testing.T, opts Options, limiter RateLimiter) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte("http-test-secret"), time.Hour)
	require.NoError(t, err)

	env := &testEnv{tokens: tokens, registry: prometheus.NewRegistry()}
	env.cart = &fakeCart{items: map[string][]*models.CartItem{}}
	env.checkout = &fakeCheckout{cart: env.cart}
	env.purchases = &fakePurchases{}
	env.users = &fakeUsers{}

	env.srv = NewServer(opts, Deps{
		Users:     env.users,
		Cart:      env.cart,
		Checkout:  env.checkout,
		Purchases: env.purchases,
		Tokens:    tokens,
		Limiter:   limiter,
		Registry:  env.registry,
		DBHealth:  func(context.Context) error { return env.healthErr },
	}, logging.Nop{})
	return env
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.tokens.Issue(userID)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	return e.serve(newAPIRequest(method, path, token, body))
}

// doFrom sends the request as if it arrived from remoteAddr, optionally with
// an X-Forwarded-For header.
func (e *testEnv) doFrom(remoteAddr, forwarded, method, path, token, body string) *httptest.ResponseRecorder {
	req := newAPIRequest(method, path, token, body)
	req.RemoteAddr = remoteAddr
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	return e.serve(req)
}

func newAPIRequest(method, path, token, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}
