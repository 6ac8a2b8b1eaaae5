/*
Package sqlite provides the SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore using a single local SQLite
  file. The store is the only persistence in the system; opening it once at
  process start and closing it at process end is the whole lifecycle.

ATOMIC UNITS:
  Every sale mutation runs through WithTx. The sale-row change and the
  book-stock change are issued on the same *sql.Tx, so a failure anywhere
  before commit rolls both back. There is no independently-committable
  stock step.

KEY TABLES:
  members: Registered customers (seeded, never mutated by the engine)
  books:   Catalog items with price and on-hand stock (stock CHECKed >= 0)
  sales:   Sale records; ids come from AUTOINCREMENT and are never reused

BOOTSTRAP:
  Schema is created with CREATE TABLE IF NOT EXISTS on New(). Seed() inserts
  the demonstration rows with INSERT OR IGNORE keyed by primary id, so
  re-running bootstrap never duplicates or overwrites existing rows.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better crash recovery.

USAGE:
  store, err := sqlite.New("./bookstore.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := ledger.NewEngine(store, logger)

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/engine.go: Operations using WithTx
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/bookstore-ledger/ledger"
)

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and matches the
	// single-user execution model.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id    TEXT PRIMARY KEY,
		name  TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT
	);

	CREATE TABLE IF NOT EXISTS books (
		id    TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		price INTEGER NOT NULL CHECK (price >= 0),
		stock INTEGER NOT NULL CHECK (stock >= 0)
	);

	-- AUTOINCREMENT keeps sale ids monotonic: a deleted id is never handed
	-- out again, so historical reports stay addressable by stable id.
	CREATE TABLE IF NOT EXISTS sales (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_date TEXT NOT NULL,
		member_id TEXT NOT NULL,
		book_id   TEXT NOT NULL,
		quantity  INTEGER NOT NULL,
		discount  INTEGER NOT NULL,
		total     INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_member ON sales(member_id);
	CREATE INDEX IF NOT EXISTS idx_sales_book ON sales(book_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Seed inserts the demonstration rows. Idempotent: keyed by primary id,
// existing rows are left untouched.
func (s *Store) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	seed := `
	INSERT OR IGNORE INTO members (id, name, phone, email) VALUES
		('M001', 'Alice', '0912-345678', 'alice@example.com'),
		('M002', 'Bob', '0923-456789', 'bob@example.com'),
		('M003', 'Cathy', '0934-567890', 'cathy@example.com');

	INSERT OR IGNORE INTO books (id, title, price, stock) VALUES
		('B001', 'Python Programming', 600, 50),
		('B002', 'Data Science Basics', 800, 30),
		('B003', 'Machine Learning Guide', 1200, 20);

	INSERT OR IGNORE INTO sales (id, sale_date, member_id, book_id, quantity, discount, total) VALUES
		(1, '2024-01-15', 'M001', 'B001', 2, 100, 1100),
		(2, '2024-01-16', 'M002', 'B002', 1, 50, 750),
		(3, '2024-01-17', 'M001', 'B003', 3, 200, 3400),
		(4, '2024-01-18', 'M003', 'B001', 1, 0, 600);
	`

	if _, err := tx.ExecContext(ctx, seed); err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}
	return tx.Commit()
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the query helpers below
// serve direct calls and calls inside WithTx alike.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// CATALOG ACCESSORS (ledger.Store interface)
// =============================================================================

func (s *Store) FindMember(ctx context.Context, id ledger.MemberID) (*ledger.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findMember(ctx, s.db, id)
}

func (s *Store) findMember(ctx context.Context, db dbtx, id ledger.MemberID) (*ledger.Member, error) {
	var m ledger.Member
	var email sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT id, name, phone, email FROM members WHERE id = ?", id,
	).Scan(&m.ID, &m.Name, &m.Phone, &email)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query member: %w", err)
	}
	m.Email = email.String
	return &m, nil
}

func (s *Store) FindBook(ctx context.Context, id ledger.BookID) (*ledger.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findBook(ctx, s.db, id)
}

func (s *Store) findBook(ctx context.Context, db dbtx, id ledger.BookID) (*ledger.Book, error) {
	var b ledger.Book
	err := db.QueryRowContext(ctx,
		"SELECT id, title, price, stock FROM books WHERE id = ?", id,
	).Scan(&b.ID, &b.Title, &b.Price, &b.Stock)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query book: %w", err)
	}
	return &b, nil
}

func (s *Store) ListMembers(ctx context.Context) ([]ledger.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listMembers(ctx, s.db)
}

func (s *Store) listMembers(ctx context.Context, db dbtx) ([]ledger.Member, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, phone, email FROM members ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []ledger.Member
	for rows.Next() {
		var m ledger.Member
		var email sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &m.Phone, &email); err != nil {
			return nil, err
		}
		m.Email = email.String
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) ListBooks(ctx context.Context) ([]ledger.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listBooks(ctx, s.db)
}

func (s *Store) listBooks(ctx context.Context, db dbtx) ([]ledger.Book, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, title, price, stock FROM books ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []ledger.Book
	for rows.Next() {
		var b ledger.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Price, &b.Stock); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// =============================================================================
// SALES
// =============================================================================

func (s *Store) FindSale(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findSale(ctx, s.db, id)
}

func (s *Store) findSale(ctx context.Context, db dbtx, id ledger.SaleID) (*ledger.Sale, error) {
	var sale ledger.Sale
	err := db.QueryRowContext(ctx,
		`SELECT id, sale_date, member_id, book_id, quantity, discount, total
		 FROM sales WHERE id = ?`, id,
	).Scan(&sale.ID, &sale.Date, &sale.MemberID, &sale.BookID,
		&sale.Quantity, &sale.Discount, &sale.Total)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sale: %w", err)
	}
	return &sale, nil
}

func (s *Store) InsertSale(ctx context.Context, sale ledger.Sale) (ledger.SaleID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertSale(ctx, s.db, sale)
}

func (s *Store) insertSale(ctx context.Context, db dbtx, sale ledger.Sale) (ledger.SaleID, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO sales (sale_date, member_id, book_id, quantity, discount, total)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sale.Date, sale.MemberID, sale.BookID, sale.Quantity, sale.Discount, sale.Total)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sale: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read sale id: %w", err)
	}
	return ledger.SaleID(id), nil
}

func (s *Store) UpdateSale(ctx context.Context, id ledger.SaleID, quantity, discount, total int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateSale(ctx, s.db, id, quantity, discount, total)
}

func (s *Store) updateSale(ctx context.Context, db dbtx, id ledger.SaleID, quantity, discount, total int64) error {
	res, err := db.ExecContext(ctx,
		"UPDATE sales SET quantity = ?, discount = ?, total = ? WHERE id = ?",
		quantity, discount, total, id)
	if err != nil {
		return fmt.Errorf("failed to update sale: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrSaleNotFound
	}
	return nil
}

func (s *Store) DeleteSale(ctx context.Context, id ledger.SaleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteSale(ctx, s.db, id)
}

func (s *Store) deleteSale(ctx context.Context, db dbtx, id ledger.SaleID) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM sales WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	return nil
}

func (s *Store) AdjustStock(ctx context.Context, id ledger.BookID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adjustStock(ctx, s.db, id, delta)
}

func (s *Store) adjustStock(ctx context.Context, db dbtx, id ledger.BookID, delta int64) error {
	res, err := db.ExecContext(ctx,
		"UPDATE books SET stock = stock + ? WHERE id = ?", delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrBookNotFound
	}
	return nil
}

// =============================================================================
// REPORT READER
// =============================================================================

func (s *Store) ListSaleViews(ctx context.Context) ([]ledger.SaleView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listSaleViews(ctx, s.db)
}

func (s *Store) listSaleViews(ctx context.Context, db dbtx) ([]ledger.SaleView, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT sales.id, sales.sale_date, members.name, books.title, books.price,
		       sales.quantity, sales.discount, sales.total
		FROM sales
		JOIN members ON sales.member_id = members.id
		JOIN books ON sales.book_id = books.id
		ORDER BY sales.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales report: %w", err)
	}
	defer rows.Close()

	var views []ledger.SaleView
	for rows.Next() {
		var v ledger.SaleView
		if err := rows.Scan(&v.SaleID, &v.Date, &v.MemberName, &v.BookTitle,
			&v.UnitPrice, &v.Quantity, &v.Discount, &v.Total); err != nil {
			return nil, fmt.Errorf("failed to scan sale view: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore routes every call through the parent's unlocked helpers on the
// open *sql.Tx. The parent holds the mutex for the whole unit of work.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) FindMember(ctx context.Context, id ledger.MemberID) (*ledger.Member, error) {
	return ts.parent.findMember(ctx, ts.tx, id)
}

func (ts *txStore) FindBook(ctx context.Context, id ledger.BookID) (*ledger.Book, error) {
	return ts.parent.findBook(ctx, ts.tx, id)
}

func (ts *txStore) FindSale(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	return ts.parent.findSale(ctx, ts.tx, id)
}

func (ts *txStore) ListMembers(ctx context.Context) ([]ledger.Member, error) {
	return ts.parent.listMembers(ctx, ts.tx)
}

func (ts *txStore) ListBooks(ctx context.Context) ([]ledger.Book, error) {
	return ts.parent.listBooks(ctx, ts.tx)
}

func (ts *txStore) InsertSale(ctx context.Context, sale ledger.Sale) (ledger.SaleID, error) {
	return ts.parent.insertSale(ctx, ts.tx, sale)
}

func (ts *txStore) UpdateSale(ctx context.Context, id ledger.SaleID, quantity, discount, total int64) error {
	return ts.parent.updateSale(ctx, ts.tx, id, quantity, discount, total)
}

func (ts *txStore) DeleteSale(ctx context.Context, id ledger.SaleID) error {
	return ts.parent.deleteSale(ctx, ts.tx, id)
}

func (ts *txStore) AdjustStock(ctx context.Context, id ledger.BookID, delta int64) error {
	return ts.parent.adjustStock(ctx, ts.tx, id, delta)
}

func (ts *txStore) ListSaleViews(ctx context.Context) ([]ledger.SaleView, error) {
	return ts.parent.listSaleViews(ctx, ts.tx)
}
