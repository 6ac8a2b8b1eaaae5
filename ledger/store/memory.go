// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/bookstore-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	members  map[ledger.MemberID]ledger.Member
	books    map[ledger.BookID]ledger.Book
	sales    map[ledger.SaleID]ledger.Sale
	nextSale ledger.SaleID

	// writeErr, when set, is returned by mutating calls once writeBudget
	// successful writes have been spent. Lets tests simulate a storage
	// failure mid-operation and observe the rollback.
	writeErr    error
	writeBudget int
}

func NewMemory() *Memory {
	return &Memory{
		members:  make(map[ledger.MemberID]ledger.Member),
		books:    make(map[ledger.BookID]ledger.Book),
		sales:    make(map[ledger.SaleID]ledger.Sale),
		nextSale: 1,
	}
}

// FailWrites makes every subsequent mutating call return err.
// Pass nil to restore normal behavior.
func (m *Memory) FailWrites(err error) {
	m.FailWritesAfter(0, err)
}

// FailWritesAfter allows n more successful writes, then makes every
// mutating call return err. Used to fail an atomic unit mid-way.
func (m *Memory) FailWritesAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
	m.writeBudget = n
}

// failWrite implements the injected-failure accounting. Caller holds mu.
func (m *Memory) failWrite() error {
	if m.writeErr == nil {
		return nil
	}
	if m.writeBudget > 0 {
		m.writeBudget--
		return nil
	}
	return m.writeErr
}

// SetBook overwrites a book record unconditionally. Test hook for
// simulating catalog edits (e.g. a price change) outside the engine.
func (m *Memory) SetBook(b ledger.Book) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.ID] = b
}

// SeedMember inserts a member if the id is not already present.
func (m *Memory) SeedMember(mem ledger.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[mem.ID]; !ok {
		m.members[mem.ID] = mem
	}
}

// SeedBook inserts a book if the id is not already present.
func (m *Memory) SeedBook(b ledger.Book) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[b.ID]; !ok {
		m.books[b.ID] = b
	}
}

func (m *Memory) FindMember(_ context.Context, id ledger.MemberID) (*ledger.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mem, ok := m.members[id]; ok {
		return &mem, nil
	}
	return nil, nil
}

func (m *Memory) FindBook(_ context.Context, id ledger.BookID) (*ledger.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.books[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (m *Memory) FindSale(_ context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sales[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) ListMembers(_ context.Context) ([]ledger.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Member, 0, len(m.members))
	for _, mem := range m.members {
		out = append(out, mem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListBooks(_ context.Context) ([]ledger.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Book, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) InsertSale(_ context.Context, s ledger.Sale) (ledger.SaleID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWrite(); err != nil {
		return 0, err
	}
	s.ID = m.nextSale
	m.nextSale++ // never reused, even after deletes
	m.sales[s.ID] = s
	return s.ID, nil
}

func (m *Memory) UpdateSale(_ context.Context, id ledger.SaleID, quantity, discount, total int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWrite(); err != nil {
		return err
	}
	s, ok := m.sales[id]
	if !ok {
		return ledger.ErrSaleNotFound
	}
	s.Quantity = quantity
	s.Discount = discount
	s.Total = total
	m.sales[id] = s
	return nil
}

func (m *Memory) DeleteSale(_ context.Context, id ledger.SaleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWrite(); err != nil {
		return err
	}
	delete(m.sales, id)
	return nil
}

func (m *Memory) AdjustStock(_ context.Context, id ledger.BookID, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWrite(); err != nil {
		return err
	}
	b, ok := m.books[id]
	if !ok {
		return ledger.ErrBookNotFound
	}
	b.Stock += delta
	m.books[id] = b
	return nil
}

func (m *Memory) ListSaleViews(_ context.Context) ([]ledger.SaleView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]ledger.SaleID, 0, len(m.sales))
	for id := range m.sales {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	views := make([]ledger.SaleView, 0, len(ids))
	for _, id := range ids {
		s := m.sales[id]
		views = append(views, ledger.SaleView{
			SaleID:     s.ID,
			Date:       s.Date,
			MemberName: m.members[s.MemberID].Name,
			BookTitle:  m.books[s.BookID].Title,
			UnitPrice:  m.books[s.BookID].Price,
			Quantity:   s.Quantity,
			Discount:   s.Discount,
			Total:      s.Total,
		})
	}
	return views, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn within a simulated transaction: the state is
// snapshotted up front and restored if fn fails.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err := fn(&txView{parent: m}); err != nil {
		m.mu.Lock()
		m.restoreLocked(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memorySnapshot struct {
	members  map[ledger.MemberID]ledger.Member
	books    map[ledger.BookID]ledger.Book
	sales    map[ledger.SaleID]ledger.Sale
	nextSale ledger.SaleID
}

func (m *Memory) snapshotLocked() memorySnapshot {
	snap := memorySnapshot{
		members:  make(map[ledger.MemberID]ledger.Member, len(m.members)),
		books:    make(map[ledger.BookID]ledger.Book, len(m.books)),
		sales:    make(map[ledger.SaleID]ledger.Sale, len(m.sales)),
		nextSale: m.nextSale,
	}
	for k, v := range m.members {
		snap.members[k] = v
	}
	for k, v := range m.books {
		snap.books[k] = v
	}
	for k, v := range m.sales {
		snap.sales[k] = v
	}
	return snap
}

func (m *Memory) restoreLocked(snap memorySnapshot) {
	m.members = snap.members
	m.books = snap.books
	m.sales = snap.sales
	m.nextSale = snap.nextSale
}

// txView forwards to the parent store; rollback is handled by WithTx.
type txView struct {
	parent *Memory
}

func (tv *txView) FindMember(ctx context.Context, id ledger.MemberID) (*ledger.Member, error) {
	return tv.parent.FindMember(ctx, id)
}

func (tv *txView) FindBook(ctx context.Context, id ledger.BookID) (*ledger.Book, error) {
	return tv.parent.FindBook(ctx, id)
}

func (tv *txView) FindSale(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	return tv.parent.FindSale(ctx, id)
}

func (tv *txView) ListMembers(ctx context.Context) ([]ledger.Member, error) {
	return tv.parent.ListMembers(ctx)
}

func (tv *txView) ListBooks(ctx context.Context) ([]ledger.Book, error) {
	return tv.parent.ListBooks(ctx)
}

func (tv *txView) InsertSale(ctx context.Context, s ledger.Sale) (ledger.SaleID, error) {
	return tv.parent.InsertSale(ctx, s)
}

func (tv *txView) UpdateSale(ctx context.Context, id ledger.SaleID, quantity, discount, total int64) error {
	return tv.parent.UpdateSale(ctx, id, quantity, discount, total)
}

func (tv *txView) DeleteSale(ctx context.Context, id ledger.SaleID) error {
	return tv.parent.DeleteSale(ctx, id)
}

func (tv *txView) AdjustStock(ctx context.Context, id ledger.BookID, delta int64) error {
	return tv.parent.AdjustStock(ctx, id, delta)
}

func (tv *txView) ListSaleViews(ctx context.Context) ([]ledger.SaleView, error) {
	return tv.parent.ListSaleViews(ctx)
}
