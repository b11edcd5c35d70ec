// Package tours implements category management and tour package authoring.
package tours

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"tourdesk/internal/api"
	"tourdesk/internal/notify"
	"tourdesk/internal/screen"
)

// User-facing messages
const (
	MsgCategoryNameEmpty     = "Category name cannot be empty!"
	MsgCategoryServerError   = "Server error. Please try again."
	MsgFetchCategoriesFailed = "Failed to fetch categories"
	MsgDeleteCategoryFailed  = "Failed to delete category. Please try again."
	MsgLoadingCategories     = "Loading categories..."
	MsgCategoriesLoaded      = "Categories loaded successfully!"
	MsgNoCategories          = "No categories found"
	MsgLoadCategoriesFailed  = "Failed to load categories"
	MsgWaitForCategories     = "Please wait while categories are loading"
	MsgAllTourFieldsRequired = "All fields including image, amenities, and surroundings are required."
	MsgAmenityAdded          = "Amenity added!"
	MsgAmenityEmpty          = "Amenity cannot be empty"
	MsgAmenityRemoved        = "Amenity removed"
	MsgSurroundingAdded      = "Surrounding place added!"
	MsgSurroundingIncomplete = "Both title and distance are required"
	MsgSurroundingRemoved    = "Surrounding removed"
	MsgImageRemoved          = "Image removed"
	MsgImageUploaded         = "Image uploaded successfully!"
	MsgImageUploadFailed     = "Image upload failed!"
	MsgImageUploadRetry      = "Image upload failed. Please try again."
	MsgTourAdded             = "Tour added successfully!"
	MsgTourSaveFailed        = "Error saving tour!"
)

// Premium expressions
const (
	ExpressionGood     = "good"
	ExpressionVeryGood = "very good"
	ExpressionBad      = "bad"
)

var (
	ErrCategoriesNotLoaded = errors.New("categories not loaded")
	ErrNoCategories        = errors.New("no categories found")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrUploadFailed        = errors.New("image upload failed")
	ErrNotPremium          = errors.New("expression is only editable for premium tours")
	ErrInvalidExpression   = errors.New("unknown expression")
	ErrBusy                = screen.ErrBusy
)

// API is the subset of the remote client these screens call
type API interface {
	ListCategories(ctx context.Context) ([]api.Category, error)
	CreateCategory(ctx context.Context, name string) (*api.MessageResponse, error)
	DeleteCategory(ctx context.Context, name string) (*api.MessageResponse, error)
	Upload(ctx context.Context, filename string, r io.Reader) (*api.UploadResponse, error)
	CreateTour(ctx context.Context, tour api.Tour) (*api.TourRecord, error)
	FileURL(filePath string) string
}

// Deps are shared by the tours screens
type Deps struct {
	API      API
	Notifier notify.Notifier
	Logger   *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func validExpression(e string) bool {
	switch e {
	case ExpressionGood, ExpressionVeryGood, ExpressionBad:
		return true
	}
	return false
}
