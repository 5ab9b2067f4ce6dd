// Package sqlite persists the lending context in an embedded SQLite file
// through the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dmehra2102/order-consistency-engine/internal/lending/application"
	"github.com/dmehra2102/order-consistency-engine/internal/lending/domain"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS books (
    id    TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    stock INTEGER NOT NULL CHECK (stock >= 0)
);

CREATE TABLE IF NOT EXISTS borrowers (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS loans (
    borrower_id TEXT NOT NULL REFERENCES borrowers(id) ON DELETE CASCADE,
    book_id     TEXT NOT NULL REFERENCES books(id),
    position    INTEGER NOT NULL,
    PRIMARY KEY (borrower_id, book_id)
);
`

type Store struct {
	db *sql.DB
}

// Open opens the database at path (":memory:" works for tests) and applies
// the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	// single writer; also keeps an in-memory database on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{"PRAGMA foreign_keys=ON", "PRAGMA journal_mode=WAL", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepo{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

type txRepo struct {
	tx *sql.Tx
}

func (r *txRepo) CreateBook(ctx context.Context, b *domain.Book) error {
	_, err := r.tx.ExecContext(ctx, `INSERT INTO books (id, title, stock) VALUES (?, ?, ?)`,
		string(b.ID()), b.Title(), b.Stock().Int())
	return err
}

func (r *txRepo) GetBook(ctx context.Context, id domain.BookID) (*domain.Book, error) {
	var (
		title string
		stock int
	)
	err := r.tx.QueryRowContext(ctx, `SELECT title, stock FROM books WHERE id = ?`, string(id)).Scan(&title, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return restoreBook(id, title, stock)
}

func (r *txRepo) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT id, title, stock FROM books ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		var (
			id, title string
			stock     int
		)
		if err := rows.Scan(&id, &title, &stock); err != nil {
			return nil, err
		}
		b, err := restoreBook(domain.BookID(id), title, stock)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *txRepo) SaveStock(ctx context.Context, b *domain.Book) error {
	res, err := r.tx.ExecContext(ctx, `UPDATE books SET stock = ? WHERE id = ?`, b.Stock().Int(), string(b.ID()))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrBookNotFound, b.ID())
	}
	return nil
}

func (r *txRepo) CreateBorrower(ctx context.Context, b *domain.Borrower) error {
	_, err := r.tx.ExecContext(ctx, `INSERT INTO borrowers (id, name) VALUES (?, ?)`, string(b.ID()), b.Name())
	return err
}

func (r *txRepo) GetBorrower(ctx context.Context, id domain.BorrowerID) (*domain.Borrower, error) {
	var name string
	err := r.tx.QueryRowContext(ctx, `SELECT name FROM borrowers WHERE id = ?`, string(id)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBorrowerNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.QueryContext(ctx, `SELECT book_id FROM loans WHERE borrower_id = ? ORDER BY position`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	loans := []domain.BookID{}
	for rows.Next() {
		var bookID string
		if err := rows.Scan(&bookID); err != nil {
			return nil, err
		}
		loans = append(loans, domain.BookID(bookID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.RestoreBorrower(id, name, loans)
}

// SaveLoans replaces the stored loan list with the borrower's current one.
func (r *txRepo) SaveLoans(ctx context.Context, b *domain.Borrower) error {
	if _, err := r.tx.ExecContext(ctx, `DELETE FROM loans WHERE borrower_id = ?`, string(b.ID())); err != nil {
		return err
	}
	for i, bookID := range b.Loans().Items() {
		_, err := r.tx.ExecContext(ctx, `INSERT INTO loans (borrower_id, book_id, position) VALUES (?, ?, ?)`,
			string(b.ID()), string(bookID), i)
		if err != nil {
			return err
		}
	}
	return nil
}

func restoreBook(id domain.BookID, title string, stock int) (*domain.Book, error) {
	s, err := domain.NewBookStock(stock)
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", id, err)
	}
	return domain.NewBook(id, title, s)
}
