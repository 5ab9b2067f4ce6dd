package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/order-consistency-engine/pkg/collection"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

const MaxAddresses = 3

var (
	ErrInvalidUser  = fault.New(fault.Validation, "invalid user")
	ErrMissingRank  = fault.New(fault.MissingReference, "user requires a rank")
	ErrUserNotFound = fault.New(fault.NotFound, "user not found")
	ErrEmailTaken   = fault.New(fault.DuplicateItem, "email is already registered")
	ErrUserExists   = fault.New(fault.DuplicateItem, "user id is already registered")
)

type UserID string

// Rank drives member discounts. DiscountBasisPoints of 1000 means 10%.
type Rank struct {
	ID                  int64
	Name                string
	DisplayName         string
	DiscountBasisPoints int64
}

// DiscountAmount is floor(price * rate).
func (r Rank) DiscountAmount(price money.Money) money.Money {
	if r.DiscountBasisPoints <= 0 {
		return money.Zero
	}
	return money.MustNew(price.Amount() * r.DiscountBasisPoints / 10000)
}

// Address is a value: changing one means dropping it and adding another.
type Address struct {
	PostalCode string
	Prefecture string
	City       string
	Street     string
}

func NewAddress(postalCode, prefecture, city, street string) (Address, error) {
	if strings.TrimSpace(postalCode) == "" || strings.TrimSpace(prefecture) == "" {
		return Address{}, fmt.Errorf("%w: postal code and prefecture are required", ErrInvalidUser)
	}
	return Address{PostalCode: postalCode, Prefecture: prefecture, City: city, Street: street}, nil
}

type User struct {
	id          UserID
	name        string
	credentials Credentials
	rank        Rank
	addresses   collection.Bounded[Address]
	createdAt   time.Time
}

func NewUser(id UserID, name string, creds Credentials, rank *Rank) (*User, error) {
	if id == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: id and name are required", ErrInvalidUser)
	}
	if creds.IsZero() {
		return nil, fmt.Errorf("%w: credentials are required", ErrInvalidUser)
	}
	if rank == nil {
		return nil, ErrMissingRank
	}
	return &User{
		id:          id,
		name:        name,
		credentials: creds,
		rank:        *rank,
		addresses:   collection.Empty[Address](MaxAddresses),
		createdAt:   time.Now().UTC(),
	}, nil
}

// RestoreUser rebuilds a stored user; the stored addresses must still fit
// the cap.
func RestoreUser(id UserID, name string, creds Credentials, rank *Rank, addresses []Address, createdAt time.Time) (*User, error) {
	u, err := NewUser(id, name, creds, rank)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []Address{}
	}
	u.addresses, err = collection.FromExisting(MaxAddresses, addresses)
	if err != nil {
		return nil, fmt.Errorf("user %s addresses: %w", id, err)
	}
	u.createdAt = createdAt
	return u, nil
}

func (u *User) ID() UserID               { return u.id }
func (u *User) Name() string             { return u.name }
func (u *User) Credentials() Credentials { return u.credentials }
func (u *User) Rank() Rank               { return u.rank }
func (u *User) Addresses() []Address     { return u.addresses.Items() }
func (u *User) CreatedAt() time.Time     { return u.createdAt }

// CalculatePrice applies the rank discount.
func (u *User) CalculatePrice(price money.Money) money.Money {
	discounted, err := price.Sub(u.rank.DiscountAmount(price))
	if err != nil {
		return money.Zero
	}
	return discounted
}

func (u *User) ChangeRank(r *Rank) error {
	if r == nil {
		return ErrMissingRank
	}
	u.rank = *r
	return nil
}

func (u *User) AddAddress(a Address) error {
	next, err := u.addresses.Add(a)
	if err != nil {
		return fmt.Errorf("user %s: %w", u.id, err)
	}
	u.addresses = next
	return nil
}
