// Package integration wires the real services against in-memory adapters to
// exercise end-to-end flows without PostgreSQL. The fakes honor the same
// contracts the pgx repositories do: reference_number uniqueness, one wallet
// per owner, and serialized writer transactions standing in for row locks.
package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ridewallet/internal/core/domain"
	"ridewallet/internal/core/ports"
)

// memStore holds all state shared by the in-memory repositories.
type memStore struct {
	mu sync.RWMutex

	// txMu serializes writer transactions, the in-memory analogue of the
	// SELECT ... FOR UPDATE row lock.
	txMu sync.Mutex

	walletsByID    map[uuid.UUID]*domain.Wallet
	walletsByOwner map[uuid.UUID]uuid.UUID

	txnsByRef map[string]*domain.Transaction
	txns      []*domain.Transaction

	ordersByID        map[uuid.UUID]*domain.PaymentOrder
	ordersByGatewayID map[string]*domain.PaymentOrder
}

func newMemStore() *memStore {
	return &memStore{
		walletsByID:       make(map[uuid.UUID]*domain.Wallet),
		walletsByOwner:    make(map[uuid.UUID]uuid.UUID),
		txnsByRef:         make(map[string]*domain.Transaction),
		ordersByID:        make(map[uuid.UUID]*domain.PaymentOrder),
		ordersByGatewayID: make(map[string]*domain.PaymentOrder),
	}
}

func copyWallet(w *domain.Wallet) *domain.Wallet {
	cp := *w
	if w.LastPayoutAmount != nil {
		v := *w.LastPayoutAmount
		cp.LastPayoutAmount = &v
	}
	if w.LastPayoutDate != nil {
		v := *w.LastPayoutDate
		cp.LastPayoutDate = &v
	}
	return &cp
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	cp := *t
	if t.PaymentMethod != nil {
		m := *t.PaymentMethod
		cp.PaymentMethod = &m
	}
	return &cp
}

func copyOrder(o *domain.PaymentOrder) *domain.PaymentOrder {
	cp := *o
	if o.GatewayPaymentID != nil {
		v := *o.GatewayPaymentID
		cp.GatewayPaymentID = &v
	}
	return &cp
}

// memTx satisfies pgx.Tx for the transactor port. Only Commit and Rollback
// are implemented; the embedded nil interface panics on anything else, which
// would indicate a repository bypassing its port.
type memTx struct {
	pgx.Tx
	store   *memStore
	release sync.Once
}

func (t *memTx) Commit(ctx context.Context) error {
	t.release.Do(t.store.txMu.Unlock)
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.release.Do(t.store.txMu.Unlock)
	return nil
}

// memTransactor implements ports.DBTransactor.
type memTransactor struct {
	store *memStore
}

func (m *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	m.store.txMu.Lock()
	return &memTx{store: m.store}, nil
}

// memWalletRepo implements ports.WalletRepository.
type memWalletRepo struct {
	store *memStore
}

func (r *memWalletRepo) Create(ctx context.Context, wallet *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	// ON CONFLICT (owner_id) DO NOTHING
	if _, exists := r.store.walletsByOwner[wallet.OwnerID]; exists {
		return nil
	}
	r.store.walletsByID[wallet.ID] = copyWallet(wallet)
	r.store.walletsByOwner[wallet.OwnerID] = wallet.ID
	return nil
}

func (r *memWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	w, ok := r.store.walletsByID[id]
	if !ok {
		return nil, nil
	}
	return copyWallet(w), nil
}

func (r *memWalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	id, ok := r.store.walletsByOwner[ownerID]
	if !ok {
		return nil, nil
	}
	return copyWallet(r.store.walletsByID[id]), nil
}

func (r *memWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *memWalletRepo) GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByOwner(ctx, ownerID)
}

func (r *memWalletRepo) Update(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.walletsByID[wallet.ID]; !ok {
		return fmt.Errorf("wallet %s not found", wallet.ID)
	}
	r.store.walletsByID[wallet.ID] = copyWallet(wallet)
	return nil
}

// memTransactionRepo implements ports.TransactionRepository.
type memTransactionRepo struct {
	store *memStore
}

func (r *memTransactionRepo) Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.txnsByRef[transaction.ReferenceNumber]; exists {
		return domain.ErrDuplicateReference
	}
	cp := copyTransaction(transaction)
	r.store.txnsByRef[cp.ReferenceNumber] = cp
	r.store.txns = append(r.store.txns, cp)
	return nil
}

func (r *memTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, t := range r.store.txns {
		if t.ID == id {
			return copyTransaction(t), nil
		}
	}
	return nil, nil
}

func (r *memTransactionRepo) GetByReference(ctx context.Context, referenceNumber string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.txnsByRef[referenceNumber]
	if !ok {
		return nil, nil
	}
	return copyTransaction(t), nil
}

func (r *memTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*domain.Transaction
	for _, t := range r.store.txns {
		if t.WalletID != params.WalletID {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		matched = append(matched, t)
	}

	// Newest first, like the SQL ORDER BY created_at DESC.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := params.Offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]domain.Transaction, 0, end-params.Offset)
	for _, t := range matched[params.Offset:end] {
		page = append(page, *copyTransaction(t))
	}
	return page, total, nil
}

func (r *memTransactionRepo) GetSummary(ctx context.Context, walletID uuid.UUID) (*ports.WalletSummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	summary := &ports.WalletSummary{}
	for _, t := range r.store.txns {
		if t.WalletID != walletID {
			continue
		}
		summary.TotalTransactions++
		switch t.Status {
		case domain.TransactionStatusCompleted:
			summary.Completed++
			if t.Type.IsCredit() {
				summary.TotalCredited += t.Amount
			} else {
				summary.TotalDebited += t.Amount
			}
		case domain.TransactionStatusPending:
			summary.Pending++
		case domain.TransactionStatusFailed:
			summary.Failed++
		}
	}
	return summary, nil
}

// memPaymentOrderRepo implements ports.PaymentOrderRepository.
type memPaymentOrderRepo struct {
	store *memStore
}

func (r *memPaymentOrderRepo) Create(ctx context.Context, order *domain.PaymentOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := copyOrder(order)
	r.store.ordersByID[cp.ID] = cp
	r.store.ordersByGatewayID[cp.GatewayOrderID] = cp
	return nil
}

func (r *memPaymentOrderRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentOrder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	o, ok := r.store.ordersByGatewayID[gatewayOrderID]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (r *memPaymentOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentOrderStatus, gatewayPaymentID *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.ordersByID[id]
	if !ok {
		return fmt.Errorf("payment order %s not found", id)
	}
	o.Status = status
	if gatewayPaymentID != nil {
		v := *gatewayPaymentID
		o.GatewayPaymentID = &v
	}
	return nil
}

// memReferenceCache implements ports.ReferenceCache without TTL handling.
type memReferenceCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func newMemReferenceCache() *memReferenceCache {
	return &memReferenceCache{entries: make(map[string][]byte)}
}

func (c *memReferenceCache) Get(ctx context.Context, referenceNumber string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[referenceNumber]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (c *memReferenceCache) Set(ctx context.Context, referenceNumber string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[referenceNumber] = value
	return nil
}

// stubGateway implements ports.GatewayClient, minting deterministic order IDs.
type stubGateway struct {
	mu      sync.Mutex
	counter int
}

func (g *stubGateway) CreateOrder(ctx context.Context, amount int64, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("order_mem_%d", g.counter), nil
}
