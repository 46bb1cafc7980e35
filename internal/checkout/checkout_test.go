package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagecount/bookstore-api/internal/data"
)

// fakeStore is an in-memory Store honoring the same contracts as the real
// database-backed one: ReserveStock is a conditional decrement, InTx
// serializes transactions and rolls every mutation back when fn fails.
type fakeStore struct {
	mu        sync.Mutex
	books     map[int64]*data.Book
	users     map[int64]*data.User
	purchases map[int64]*data.Purchase

	nextUserID     int64
	nextPurchaseID int64

	// insertPurchaseErr, when set, makes InsertPurchase fail. Used to
	// exercise the rollback path.
	insertPurchaseErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:     map[int64]*data.Book{},
		users:     map[int64]*data.User{},
		purchases: map[int64]*data.Purchase{},
	}
}

func (s *fakeStore) addBook(id int64, price float64, stock int) *data.Book {
	book := &data.Book{ID: id, Title: fmt.Sprintf("Book %d", id), Author: "Author", ISBN: fmt.Sprintf("isbn-%d", id), Price: price, Stock: stock}
	s.books[id] = book
	return book
}

func (s *fakeStore) addUser(name, email string, totalSpent float64) *data.User {
	s.nextUserID++
	user := &data.User{ID: s.nextUserID, Name: name, Email: email, TotalSpent: totalSpent}
	s.users[user.ID] = user
	return user
}

// snapshot deep-copies the mutable state so InTx can restore it on failure.
func (s *fakeStore) snapshot() (map[int64]*data.Book, map[int64]*data.User, map[int64]*data.Purchase, int64, int64) {
	books := make(map[int64]*data.Book, len(s.books))
	for id, b := range s.books {
		clone := *b
		books[id] = &clone
	}
	users := make(map[int64]*data.User, len(s.users))
	for id, u := range s.users {
		clone := *u
		users[id] = &clone
	}
	purchases := make(map[int64]*data.Purchase, len(s.purchases))
	for id, p := range s.purchases {
		clone := *p
		purchases[id] = &clone
	}
	return books, users, purchases, s.nextUserID, s.nextPurchaseID
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, users, purchases, nextUser, nextPurchase := s.snapshot()
	if err := fn(s); err != nil {
		s.books, s.users, s.purchases = books, users, purchases
		s.nextUserID, s.nextPurchaseID = nextUser, nextPurchase
		return err
	}
	return nil
}

func (s *fakeStore) ReserveStock(ctx context.Context, bookID int64, quantity int) (*data.Book, error) {
	book, ok := s.books[bookID]
	if !ok || book.Stock < quantity {
		return nil, data.ErrInsufficientStock
	}
	book.Stock -= quantity
	clone := *book
	return &clone, nil
}

func (s *fakeStore) BookByID(ctx context.Context, id int64) (*data.Book, error) {
	book, ok := s.books[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	clone := *book
	return &clone, nil
}

func (s *fakeStore) UserByID(ctx context.Context, id int64) (*data.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *fakeStore) UserByEmail(ctx context.Context, email string) (*data.User, error) {
	var oldest *data.User
	for _, u := range s.users {
		if u.Email == email && (oldest == nil || u.ID < oldest.ID) {
			oldest = u
		}
	}
	if oldest == nil {
		return nil, data.ErrRecordNotFound
	}
	clone := *oldest
	return &clone, nil
}

func (s *fakeStore) InsertUser(ctx context.Context, user *data.User) error {
	s.nextUserID++
	user.ID = s.nextUserID
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeStore) AddSpending(ctx context.Context, userID int64, amount float64) (float64, error) {
	user, ok := s.users[userID]
	if !ok {
		return 0, data.ErrRecordNotFound
	}
	user.TotalSpent += amount
	return user.TotalSpent, nil
}

func (s *fakeStore) InsertPurchase(ctx context.Context, purchase *data.Purchase) error {
	if s.insertPurchaseErr != nil {
		return s.insertPurchaseErr
	}
	s.nextPurchaseID++
	purchase.ID = s.nextPurchaseID
	clone := *purchase
	s.purchases[purchase.ID] = &clone
	return nil
}

func (s *fakeStore) PurchaseByKey(ctx context.Context, key uuid.UUID) (*data.Purchase, error) {
	for _, p := range s.purchases {
		if p.IdempotencyKey != nil && *p.IdempotencyKey == key {
			clone := *p
			return &clone, nil
		}
	}
	return nil, data.ErrRecordNotFound
}

func TestProcessRejectsInvalidQuantity(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 20.00, 5)
	processor := NewProcessor(store, nil)

	for _, quantity := range []int{0, 6, -1} {
		_, err := processor.Process(context.Background(), Request{BookID: 1, Quantity: quantity})
		assert.ErrorIs(t, err, ErrInvalidArgument, "quantity %d", quantity)
	}

	// No mutation may have been attempted.
	assert.Equal(t, 5, store.books[1].Stock)
	assert.Empty(t, store.users)
	assert.Empty(t, store.purchases)
}

func TestProcessRejectsMissingBookID(t *testing.T) {
	processor := NewProcessor(newFakeStore(), nil)

	_, err := processor.Process(context.Background(), Request{Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProcessInsufficientStock(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 20.00, 1)
	processor := NewProcessor(store, nil)

	_, err := processor.Process(context.Background(), Request{BookID: 1, Quantity: 2, Name: "Alice"})
	assert.ErrorIs(t, err, data.ErrInsufficientStock)
	assert.Equal(t, 1, store.books[1].Stock, "stock must be untouched after a rejected reservation")
	assert.Empty(t, store.purchases)
}

func TestProcessUnknownBook(t *testing.T) {
	processor := NewProcessor(newFakeStore(), nil)

	_, err := processor.Process(context.Background(), Request{BookID: 42, Quantity: 1})
	assert.ErrorIs(t, err, data.ErrInsufficientStock)
}

func TestProcessEndToEndScenario(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 20.00, 5)
	processor := NewProcessor(store, nil)

	// First purchase by a brand-new buyer: full price, no discount.
	result, err := processor.Process(context.Background(), Request{
		BookID: 1, Quantity: 2, Name: "Buyer A", Email: "a@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 40.00, result.Purchase.TotalPrice)
	assert.Equal(t, 0.0, result.Purchase.DiscountRate)
	assert.Equal(t, 3, result.NewStock)
	assert.Equal(t, 40.00, result.UserTotalSpent)

	buyerID := result.Purchase.UserID

	// Second purchase resolves the same account by email; spend is 40,
	// still at or below the threshold, so still no discount.
	result, err = processor.Process(context.Background(), Request{
		BookID: 1, Quantity: 1, Email: "a@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, buyerID, result.Purchase.UserID)
	assert.Equal(t, 20.00, result.Purchase.TotalPrice)
	assert.Equal(t, 0.0, result.Purchase.DiscountRate)
	assert.Equal(t, 60.00, result.UserTotalSpent)

	// Push the spend above the threshold, then buy once more: 5% off.
	store.books[1].Stock = 10
	store.users[buyerID].TotalSpent = 160.00

	result, err = processor.Process(context.Background(), Request{
		BookID: 1, Quantity: 1, UserID: buyerID,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.05, result.Purchase.DiscountRate)
	assert.Equal(t, 19.00, result.Purchase.TotalPrice)
	assert.Equal(t, 179.00, result.UserTotalSpent)
}

func TestProcessDiscountThresholdIsStrict(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 20.00, 10)
	atThreshold := store.addUser("At Threshold", "at@example.com", 150.00)
	justOver := store.addUser("Just Over", "over@example.com", 150.01)
	processor := NewProcessor(store, nil)

	result, err := processor.Process(context.Background(), Request{BookID: 1, Quantity: 1, UserID: atThreshold.ID})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Purchase.DiscountRate, "exactly 150.00 must not qualify")
	assert.Equal(t, 20.00, result.Purchase.TotalPrice)

	result, err = processor.Process(context.Background(), Request{BookID: 1, Quantity: 1, UserID: justOver.ID})
	require.NoError(t, err)
	assert.Equal(t, 0.05, result.Purchase.DiscountRate)
	assert.Equal(t, 19.00, result.Purchase.TotalPrice)
}

func TestProcessCreatesGuestBuyer(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 9.50, 3)
	processor := NewProcessor(store, nil)

	result, err := processor.Process(context.Background(), Request{BookID: 1, Quantity: 1})
	require.NoError(t, err)

	user := store.users[result.Purchase.UserID]
	require.NotNil(t, user)
	assert.Equal(t, "Guest", user.Name)
	assert.Empty(t, user.Email)
	assert.Equal(t, 9.50, user.TotalSpent)
}

func TestProcessBuyerResolutionPrefersAccountID(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 10.00, 5)
	byID := store.addUser("By ID", "id@example.com", 0)
	store.addUser("By Email", "email@example.com", 0)
	processor := NewProcessor(store, nil)

	// Both an ID and a different account's email are supplied; the ID wins.
	result, err := processor.Process(context.Background(), Request{
		BookID: 1, Quantity: 1, UserID: byID.ID, Email: "email@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, byID.ID, result.Purchase.UserID)
}

func TestProcessUnknownAccountIDFallsThrough(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 10.00, 5)
	existing := store.addUser("Existing", "existing@example.com", 0)
	processor := NewProcessor(store, nil)

	result, err := processor.Process(context.Background(), Request{
		BookID: 1, Quantity: 1, UserID: 999, Email: "existing@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.Purchase.UserID, "stale account id should fall through to email lookup")
}

func TestProcessStorageFaultRollsBackReservation(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 20.00, 5)
	store.insertPurchaseErr = errors.New("disk on fire")
	processor := NewProcessor(store, nil)

	_, err := processor.Process(context.Background(), Request{BookID: 1, Quantity: 2, Name: "Alice"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, data.ErrInsufficientStock)

	// The transaction rolled back, so the reserved stock is restored and
	// no account was created.
	assert.Equal(t, 5, store.books[1].Stock)
	assert.Empty(t, store.users)
	assert.Empty(t, store.purchases)
}

func TestProcessIdempotencyKeyReplay(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 20.00, 5)
	processor := NewProcessor(store, nil)

	key := uuid.New()
	req := Request{BookID: 1, Quantity: 2, Name: "Alice", Email: "alice@example.com", IdempotencyKey: &key}

	first, err := processor.Process(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)
	assert.Equal(t, 3, first.NewStock)

	// Resubmitting the same key must not decrement stock or charge again.
	second, err := processor.Process(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Purchase.ID, second.Purchase.ID)
	assert.Equal(t, 3, second.NewStock)
	assert.Equal(t, 40.00, second.UserTotalSpent)
	assert.Len(t, store.purchases, 1)
}

// TestProcessConcurrentPurchasesNeverOversell drives many concurrent buyers
// at one book and checks the stock invariant: the sum of successfully
// reserved quantities never exceeds the initial stock, and the final stock
// equals initial minus that sum.
func TestProcessConcurrentPurchasesNeverOversell(t *testing.T) {
	const (
		initialStock = 5
		buyers       = 20
	)

	store := newFakeStore()
	store.addBook(1, 12.00, initialStock)
	processor := NewProcessor(store, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := processor.Process(context.Background(), Request{
				BookID:   1,
				Quantity: 1,
				Name:     fmt.Sprintf("Buyer %d", i),
				Email:    fmt.Sprintf("buyer%d@example.com", i),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, data.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, initialStock, succeeded, "exactly the available stock should be sold")
	assert.Equal(t, 0, store.books[1].Stock)
	assert.Len(t, store.purchases, initialStock)
}
