// Package store persists the sandbox server's users, reset codes,
// categories and tours. Memory and Postgres implementations share the
// Store contract.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrInvalidCode       = errors.New("invalid or expired code")
	ErrNotVerified       = errors.New("reset code not verified")
)

// User is a registered admin account
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Category is a tour category. Names are not unique.
type Category struct {
	ID   string
	Name string
}

// Surrounding is a nearby place listed on a tour
type Surrounding struct {
	Title    string `json:"title"`
	Distance string `json:"distance"`
}

// Tour is a stored tour package
type Tour struct {
	ID             string
	PackageName    string
	Location       string
	Price          float64
	TotalNights    int
	Category       string
	Policies       string
	HotelDetails   string
	ContactDetails string
	IsPremium      bool
	Review         string
	Expression     string
	Amenities      []string
	Surroundings   []Surrounding
	Image          string
	CreatedAt      time.Time
}

// Store defines the persistence operations the server needs
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UserByUsername(ctx context.Context, username string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, email, hash string) error

	// SaveResetCode replaces any pending code for email
	SaveResetCode(ctx context.Context, email, code string, expiresAt time.Time) error
	// VerifyResetCode consumes a matching unexpired code and marks email
	// verified until the same expiry
	VerifyResetCode(ctx context.Context, email, code string, now time.Time) error
	// ConsumeVerification clears a verified marker, failing if there is none
	ConsumeVerification(ctx context.Context, email string, now time.Time) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	// DeleteCategory removes the oldest category with name
	DeleteCategory(ctx context.Context, name string) error
	CategoryExists(ctx context.Context, name string) (bool, error)

	CreateTour(ctx context.Context, t *Tour) error
	TourByID(ctx context.Context, id string) (*Tour, error)

	Ping(ctx context.Context) error
	Close()
}
