package domain

import (
	"fmt"
	"strings"

	"github.com/dmehra2102/order-consistency-engine/pkg/collection"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
)

// MaxLoans caps how many distinct books a borrower holds at once.
const MaxLoans = 5

var (
	ErrNegativeStock    = fault.New(fault.Validation, "book stock must not be negative")
	ErrOutOfStock       = fault.New(fault.InsufficientStock, "book is out of stock")
	ErrInvalidBook      = fault.New(fault.Validation, "book title is required")
	ErrInvalidBorrower  = fault.New(fault.Validation, "borrower name is required")
	ErrBookNotFound     = fault.New(fault.NotFound, "book not found")
	ErrBorrowerNotFound = fault.New(fault.NotFound, "borrower not found")
)

type BookID string

// BookStock is the number of copies left on the shelf.
type BookStock struct {
	value int
}

func NewBookStock(v int) (BookStock, error) {
	if v < 0 {
		return BookStock{}, fmt.Errorf("%w: %d", ErrNegativeStock, v)
	}
	return BookStock{value: v}, nil
}

func (s BookStock) Int() int        { return s.value }
func (s BookStock) Available() bool { return s.value > 0 }

// Decrease returns the stock after lending one copy.
func (s BookStock) Decrease() (BookStock, error) {
	if !s.Available() {
		return s, ErrOutOfStock
	}
	return BookStock{value: s.value - 1}, nil
}

type Book struct {
	id    BookID
	title string
	stock BookStock
}

func NewBook(id BookID, title string, stock BookStock) (*Book, error) {
	if id == "" || strings.TrimSpace(title) == "" {
		return nil, ErrInvalidBook
	}
	return &Book{id: id, title: title, stock: stock}, nil
}

func (b *Book) ID() BookID       { return b.id }
func (b *Book) Title() string    { return b.title }
func (b *Book) Stock() BookStock { return b.stock }

// Checkout takes one copy off the shelf. The book is unchanged on error.
func (b *Book) Checkout() error {
	next, err := b.stock.Decrease()
	if err != nil {
		return fmt.Errorf("%w: %q", err, b.title)
	}
	b.stock = next
	return nil
}

type BorrowerID string

// Borrower holds the set of books currently on loan.
type Borrower struct {
	id    BorrowerID
	name  string
	loans collection.Bounded[BookID]
}

func NewBorrower(id BorrowerID, name string) (*Borrower, error) {
	if id == "" || strings.TrimSpace(name) == "" {
		return nil, ErrInvalidBorrower
	}
	return &Borrower{id: id, name: name, loans: collection.Empty[BookID](MaxLoans)}, nil
}

// RestoreBorrower rebuilds a borrower from storage. Stored loans go through
// the same checks as Borrow.
func RestoreBorrower(id BorrowerID, name string, loans []BookID) (*Borrower, error) {
	b, err := NewBorrower(id, name)
	if err != nil {
		return nil, err
	}
	b.loans, err = collection.FromExisting(MaxLoans, loans)
	if err != nil {
		return nil, fmt.Errorf("borrower %s: %w", id, err)
	}
	return b, nil
}

func (b *Borrower) ID() BorrowerID                    { return b.id }
func (b *Borrower) Name() string                      { return b.name }
func (b *Borrower) Loans() collection.Bounded[BookID] { return b.loans }

// Borrow records a loan and checks the book out. Neither the borrower nor the
// book changes when the loan limit, a duplicate loan or an empty shelf
// rejects it.
func (b *Borrower) Borrow(book *Book) error {
	if book == nil {
		return collection.ErrNilItem
	}
	next, err := b.loans.Add(book.ID())
	if err != nil {
		return err
	}
	if err := book.Checkout(); err != nil {
		return err
	}
	b.loans = next
	return nil
}
