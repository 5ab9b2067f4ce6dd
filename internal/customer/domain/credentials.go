package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

// Email is compared by value.
type Email struct {
	value string
}

func NewEmail(v string) (Email, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Email{}, fmt.Errorf("%w: email is required", ErrInvalidUser)
	}
	if !emailRe.MatchString(v) {
		return Email{}, fmt.Errorf("%w: malformed email %q", ErrInvalidUser, v)
	}
	return Email{value: v}, nil
}

func (e Email) String() string { return e.value }

// Password holds a bcrypt hash; the plain text is never kept.
type Password struct {
	hash string
}

func HashPassword(plain string) (Password, error) {
	if plain == "" {
		return Password{}, fmt.Errorf("%w: password is required", ErrInvalidUser)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return Password{}, fmt.Errorf("%w: password too long", ErrInvalidUser)
	}
	if err != nil {
		return Password{}, err
	}
	return Password{hash: string(h)}, nil
}

func PasswordFromHash(hash string) (Password, error) {
	if hash == "" {
		return Password{}, fmt.Errorf("%w: password hash is required", ErrInvalidUser)
	}
	return Password{hash: hash}, nil
}

func (p Password) Hash() string { return p.hash }

func (p Password) Matches(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.hash), []byte(plain)) == nil
}

type Credentials struct {
	Email    Email
	Password Password
	Active   bool
	Locked   bool
}

func NewCredentials(email Email, password Password) Credentials {
	return Credentials{Email: email, Password: password, Active: true}
}

func (c Credentials) IsZero() bool { return c.Email == Email{} || c.Password == Password{} }
