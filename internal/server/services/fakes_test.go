package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/dbx"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/cartitems"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/purchases"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// memStore backs the fake repositories. It has no transactions; tests that
// care about commit and rollback use the sqlite repositories in
// checkout_sqlite_test.go or assert on the sqlmock expectations.
type memStore struct {
	mu        sync.Mutex
	clock     time.Time
	users     map[string]*models.User
	cart      map[string][]*models.CartItem
	purchases []*models.PurchaseRecord

	// failures injected by tests
	listErr        error
	createPurchErr error
	failCreateAt   int
	createCalls    int
	deleteErr      error
	deleteAllErr   error
	userErr        error
}

func newMemStore() *memStore {
	return &memStore{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users: map[string]*models.User{},
		cart:  map[string][]*models.CartItem{},
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

type fakeRepoManager struct{ s *memStore }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository            { return &fakeUsers{f.s} }
func (f *fakeRepoManager) CartItems(dbx.DBTX) cartitems.Repository    { return &fakeCart{f.s} }
func (f *fakeRepoManager) Purchases(dbx.DBTX) purchases.Repository    { return &fakePurchases{f.s} }

type fakeUsers struct{ s *memStore }

func (r *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userErr != nil {
		return nil, r.s.userErr
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrDuplicateUser
		}
	}
	c := *u
	c.CreatedAt = r.s.tick()
	r.s.users[c.ID] = &c
	return &c, nil
}

func (r *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userErr != nil {
		return nil, r.s.userErr
	}
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userErr != nil {
		return nil, r.s.userErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[u.ID]
	if !ok {
		return nil, common.ErrNotFound
	}
	for id, other := range r.s.users {
		if id != u.ID && other.Email == u.Email {
			return nil, common.ErrDuplicateUser
		}
	}
	existing.Name = u.Name
	existing.Email = u.Email
	c := *existing
	return &c, nil
}

func (r *fakeUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

type fakeCart struct{ s *memStore }

func (r *fakeCart) sorted(userID string, newestFirst bool) ([]*models.CartItem, error) {
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
	out := []*models.CartItem{}
	for _, it := range r.s.cart[userID] {
		c := *it
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeCart) List(_ context.Context, userID string) ([]*models.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(userID, true)
}

func (r *fakeCart) ListForUpdate(_ context.Context, userID string) ([]*models.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(userID, false)
}

func (r *fakeCart) Upsert(_ context.Context, item *models.CartItem) (models.AddOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range r.s.cart[item.UserID] {
		if it.ItemID == item.ItemID {
			it.Quantity++
			return models.OutcomeUpdated, nil
		}
	}
	c := *item
	c.Quantity = 1
	c.CreatedAt = r.s.tick()
	r.s.cart[item.UserID] = append(r.s.cart[item.UserID], &c)
	return models.OutcomeCreated, nil
}

func (r *fakeCart) Delete(_ context.Context, userID, itemID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deleteErr != nil {
		return r.s.deleteErr
	}
	items := r.s.cart[userID]
	for i, it := range items {
		if it.ItemID == itemID {
			r.s.cart[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *fakeCart) DeleteAll(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deleteAllErr != nil {
		return 0, r.s.deleteAllErr
	}
	n := int64(len(r.s.cart[userID]))
	delete(r.s.cart, userID)
	return n, nil
}

type fakePurchases struct{ s *memStore }

func (r *fakePurchases) Create(_ context.Context, rec *models.PurchaseRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.createCalls++
	if r.s.createPurchErr != nil && r.s.createCalls >= r.s.failCreateAt {
		return r.s.createPurchErr
	}
	c := *rec
	r.s.purchases = append(r.s.purchases, &c)
	return nil
}

func (r *fakePurchases) ListByUser(_ context.Context, userID string) ([]*models.PurchaseRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
	out := []*models.PurchaseRecord{}
	for i := len(r.s.purchases) - 1; i >= 0; i-- {
		if r.s.purchases[i].UserID == userID {
			c := *r.s.purchases[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakePurchases) DeleteAll(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.purchases[:0]
	var n int64
	for _, p := range r.s.purchases {
		if p.UserID == userID {
			n++
			continue
		}
		kept = append(kept, p)
	}
	r.s.purchases = kept
	return n, nil
}

func price(v float64) *float64 { return &v }

func cartItem(userID, itemID string, p float64) *models.CartItem {
	return &models.CartItem{UserID: userID, ItemID: itemID, Title: "title " + itemID, Price: p}
}

func purchase(userID, itemID string) *models.PurchaseRecord {
	return &models.PurchaseRecord{ID: "p-" + itemID, CheckoutID: "c0", UserID: userID, ItemID: itemID, Quantity: 1}
}
