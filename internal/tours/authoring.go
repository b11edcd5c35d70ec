package tours

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"tourdesk/internal/api"
	"tourdesk/internal/files"
	"tourdesk/internal/forms"
	"tourdesk/internal/notify"
	"tourdesk/internal/screen"
)

// Fields are the free-form inputs of the tour form. Price and TotalNights
// hold the raw text as typed.
type Fields struct {
	PackageName    string
	Location       string
	Price          string
	TotalNights    string
	Category       string
	Policies       string
	HotelDetails   string
	ContactDetails string
	Review         string
}

// Image is the selected banner, held in memory until submit or teardown
type Image struct {
	Name        string
	ContentType string
	data        []byte
}

// Size returns the image size in bytes
func (i *Image) Size() int {
	return len(i.data)
}

type tourForm struct {
	PackageName    string            `form:"packageName" validate:"notblank"`
	Location       string            `form:"location" validate:"notblank"`
	Price          string            `form:"price" validate:"required,nonnegnumber"`
	TotalNights    string            `form:"totalNights" validate:"required,posint"`
	Category       string            `form:"category" validate:"required"`
	Policies       string            `form:"policies" validate:"notblank"`
	HotelDetails   string            `form:"hotelDetails" validate:"notblank"`
	ContactDetails string            `form:"contactDetails" validate:"notblank"`
	Amenities      []string          `form:"amenities" validate:"min=1"`
	Surroundings   []api.Surrounding `form:"surroundings" validate:"min=1"`
	HasImage       bool              `form:"image" validate:"required"`
}

// TourForm authors one tour package. Submit uploads the banner first and
// creates the tour only with the path the upload returned.
type TourForm struct {
	deps Deps
	life *screen.Lifecycle

	mu           sync.Mutex
	fields       Fields
	premium      bool
	expression   string
	amenities    []string
	surroundings []api.Surrounding
	image        *Image

	categories    []api.Category
	categoryPhase screen.Phase
	submitPhase   screen.Phase
	lastCreated   *api.TourRecord
}

// NewTourForm mounts the tour screen. Call LoadCategories before submitting.
func NewTourForm(ctx context.Context, deps Deps) *TourForm {
	f := &TourForm{
		deps:       deps,
		life:       screen.NewLifecycle(ctx),
		expression: ExpressionGood,
	}
	f.life.OnTeardown(f.releaseImage)
	return f
}

// Teardown disposes the screen, cancels in-flight requests and releases the
// image selection
func (f *TourForm) Teardown() {
	f.life.Teardown()
}

func (f *TourForm) releaseImage() {
	f.mu.Lock()
	f.image = nil
	f.mu.Unlock()
}

// LoadCategories fetches the categories a tour can belong to. An empty
// result leaves the form not loaded.
func (f *TourForm) LoadCategories() error {
	if !f.life.Alive() {
		return screen.ErrTornDown
	}
	f.mu.Lock()
	if f.categoryPhase.Busy() {
		f.mu.Unlock()
		return ErrBusy
	}
	f.categoryPhase = screen.PhaseLoading
	f.mu.Unlock()

	notify.Loading(f.deps.Notifier, MsgLoadingCategories)
	list, err := f.deps.API.ListCategories(f.life.Context())

	var result error
	if !f.life.Guard(func() {
		f.mu.Lock()
		switch {
		case err != nil:
			f.categoryPhase = screen.PhaseFailed
			result = err
		case len(list) == 0:
			f.categoryPhase = screen.PhaseIdle
			result = ErrNoCategories
		default:
			f.categories = list
			f.categoryPhase = screen.PhaseLoaded
		}
		f.mu.Unlock()
	}) {
		return screen.ErrTornDown
	}

	f.deps.Notifier.Dismiss()
	switch {
	case err != nil:
		f.deps.logger().Debug("Category load failed", "error", err)
		notify.Error(f.deps.Notifier, MsgLoadCategoriesFailed)
	case result != nil:
		notify.Error(f.deps.Notifier, MsgNoCategories)
	default:
		notify.Success(f.deps.Notifier, MsgCategoriesLoaded)
	}
	return result
}

// CategoryPhase is the state of the category load
func (f *TourForm) CategoryPhase() screen.Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.categoryPhase
}

// Categories returns the loaded categories
func (f *TourForm) Categories() []api.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Category, len(f.categories))
	copy(out, f.categories)
	return out
}

// Update edits the free-form fields
func (f *TourForm) Update(fn func(*Fields)) {
	f.mu.Lock()
	fn(&f.fields)
	f.mu.Unlock()
}

// Fields returns a copy of the free-form fields
func (f *TourForm) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// SetPremium marks the tour as premium, which unlocks the expression
func (f *TourForm) SetPremium(v bool) {
	f.mu.Lock()
	f.premium = v
	f.mu.Unlock()
}

// Premium reports whether the tour is premium
func (f *TourForm) Premium() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.premium
}

// SetExpression sets the premium expression
func (f *TourForm) SetExpression(e string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.premium {
		return ErrNotPremium
	}
	if !validExpression(e) {
		return fmt.Errorf("%w: %q", ErrInvalidExpression, e)
	}
	f.expression = e
	return nil
}

// Expression returns the premium expression
func (f *TourForm) Expression() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expression
}

// AddAmenity appends a trimmed, non-empty amenity. Duplicates are kept.
func (f *TourForm) AddAmenity(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		notify.Error(f.deps.Notifier, MsgAmenityEmpty)
		return &forms.Error{Field: "amenities", Tag: forms.TagNotBlank, Message: MsgAmenityEmpty}
	}
	f.mu.Lock()
	f.amenities = append(f.amenities, v)
	f.mu.Unlock()
	notify.Success(f.deps.Notifier, MsgAmenityAdded)
	return nil
}

// RemoveAmenity removes the amenity at index i
func (f *TourForm) RemoveAmenity(i int) error {
	f.mu.Lock()
	if i < 0 || i >= len(f.amenities) {
		f.mu.Unlock()
		return fmt.Errorf("%w: amenity %d", ErrIndexOutOfRange, i)
	}
	f.amenities = append(f.amenities[:i:i], f.amenities[i+1:]...)
	f.mu.Unlock()
	notify.Info(f.deps.Notifier, MsgAmenityRemoved)
	return nil
}

// Amenities returns the amenities in insertion order
func (f *TourForm) Amenities() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.amenities...)
}

// AddSurrounding appends a nearby place. Both parts must be non-blank.
func (f *TourForm) AddSurrounding(title, distance string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(distance) == "" {
		notify.Error(f.deps.Notifier, MsgSurroundingIncomplete)
		return &forms.Error{Field: "surroundings", Tag: forms.TagNotBlank, Message: MsgSurroundingIncomplete}
	}
	f.mu.Lock()
	f.surroundings = append(f.surroundings, api.Surrounding{Title: title, Distance: distance})
	f.mu.Unlock()
	notify.Success(f.deps.Notifier, MsgSurroundingAdded)
	return nil
}

// RemoveSurrounding removes the surrounding at index i
func (f *TourForm) RemoveSurrounding(i int) error {
	f.mu.Lock()
	if i < 0 || i >= len(f.surroundings) {
		f.mu.Unlock()
		return fmt.Errorf("%w: surrounding %d", ErrIndexOutOfRange, i)
	}
	f.surroundings = append(f.surroundings[:i:i], f.surroundings[i+1:]...)
	f.mu.Unlock()
	notify.Info(f.deps.Notifier, MsgSurroundingRemoved)
	return nil
}

// Surroundings returns the surroundings in insertion order
func (f *TourForm) Surroundings() []api.Surrounding {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Surrounding(nil), f.surroundings...)
}

// SelectImage reads the banner from r. The name decides the content type and
// must be on the image whitelist.
func (f *TourForm) SelectImage(name string, r io.Reader) error {
	name = filepath.Base(name)
	if err := files.ValidateImage(name, ""); err != nil {
		return err
	}
	ct, err := files.ContentType(name)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(r, files.MaxFileSize+1))
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > files.MaxFileSize {
		return fmt.Errorf("image exceeds %d bytes", files.MaxFileSize)
	}
	if len(data) == 0 {
		return fmt.Errorf("image %s is empty", name)
	}

	f.mu.Lock()
	f.image = &Image{Name: name, ContentType: ct, data: data}
	f.mu.Unlock()
	return nil
}

// SelectImageFile selects the banner at path
func (f *TourForm) SelectImageFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()
	return f.SelectImage(path, file)
}

// RemoveImage clears the banner selection
func (f *TourForm) RemoveImage() {
	f.releaseImage()
	notify.Info(f.deps.Notifier, MsgImageRemoved)
}

// Image returns the selected banner, or nil
func (f *TourForm) Image() *Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.image
}

// Submitting reports whether a submit is in flight
func (f *TourForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitPhase.Busy()
}

// LastCreated returns the record of the most recent successful submit
func (f *TourForm) LastCreated() *api.TourRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCreated
}

// snapshot is the form state captured at submit time
type snapshot struct {
	form       tourForm
	premium    bool
	expression string
	review     string
	image      *Image
	loaded     bool
	categories []api.Category
}

func (f *TourForm) snapshot() snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return snapshot{
		form: tourForm{
			PackageName:    f.fields.PackageName,
			Location:       f.fields.Location,
			Price:          f.fields.Price,
			TotalNights:    f.fields.TotalNights,
			Category:       f.fields.Category,
			Policies:       f.fields.Policies,
			HotelDetails:   f.fields.HotelDetails,
			ContactDetails: f.fields.ContactDetails,
			Amenities:      append([]string(nil), f.amenities...),
			Surroundings:   append([]api.Surrounding(nil), f.surroundings...),
			HasImage:       f.image != nil,
		},
		premium:    f.premium,
		expression: f.expression,
		review:     f.fields.Review,
		image:      f.image,
		loaded:     f.categoryPhase == screen.PhaseLoaded,
		categories: f.categories,
	}
}

func (s snapshot) hasCategory() bool {
	for _, c := range s.categories {
		if c.Name == s.form.Category {
			return true
		}
	}
	return false
}

// Submit uploads the banner and then creates the tour. A failed upload
// creates nothing and keeps every field.
func (f *TourForm) Submit() error {
	snap := f.snapshot()

	if !snap.loaded {
		notify.Error(f.deps.Notifier, MsgWaitForCategories)
		return ErrCategoriesNotLoaded
	}
	if err := forms.Check(snap.form, nil, MsgAllTourFieldsRequired); err != nil {
		notify.Error(f.deps.Notifier, err.Error())
		return err
	}
	if !snap.hasCategory() {
		notify.Error(f.deps.Notifier, MsgAllTourFieldsRequired)
		return &forms.Error{Field: "category", Tag: "oneof", Message: MsgAllTourFieldsRequired}
	}
	if !f.life.Alive() {
		return screen.ErrTornDown
	}

	f.mu.Lock()
	if f.submitPhase.Busy() {
		f.mu.Unlock()
		return ErrBusy
	}
	f.submitPhase = screen.PhaseLoading
	f.mu.Unlock()

	ctx := f.life.Context()
	logger := f.deps.logger()

	uploaded, err := f.deps.API.Upload(ctx, snap.image.Name, bytes.NewReader(snap.image.data))
	if err != nil {
		if !f.settle(screen.PhaseFailed, nil) {
			return screen.ErrTornDown
		}
		logger.Debug("Banner upload failed", "image", snap.image.Name, "error", err)
		notify.Error(f.deps.Notifier, MsgImageUploadFailed)
		notify.Error(f.deps.Notifier, MsgImageUploadRetry)
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if !f.life.Alive() {
		return screen.ErrTornDown
	}
	notify.Success(f.deps.Notifier, MsgImageUploaded)

	// validated above
	price, _ := strconv.ParseFloat(strings.TrimSpace(snap.form.Price), 64)
	nights, _ := strconv.Atoi(strings.TrimSpace(snap.form.TotalNights))

	tour := api.Tour{
		PackageName:    snap.form.PackageName,
		Location:       snap.form.Location,
		Price:          price,
		TotalNights:    nights,
		Category:       snap.form.Category,
		Policies:       snap.form.Policies,
		HotelDetails:   snap.form.HotelDetails,
		ContactDetails: snap.form.ContactDetails,
		IsPremium:      snap.premium,
		Review:         snap.review,
		Expression:     snap.expression,
		Amenities:      snap.form.Amenities,
		Surroundings:   snap.form.Surroundings,
		Image:          f.deps.API.FileURL(uploaded.FilePath),
	}

	record, err := f.deps.API.CreateTour(ctx, tour)
	if err != nil {
		if !f.settle(screen.PhaseFailed, nil) {
			return screen.ErrTornDown
		}
		logger.Warn("Tour create failed after upload", "image", tour.Image, "error", err)
		notify.Error(f.deps.Notifier, MsgTourSaveFailed)
		return err
	}

	if !f.settle(screen.PhaseLoaded, func() {
		f.resetLocked()
		f.lastCreated = record
	}) {
		return screen.ErrTornDown
	}
	notify.Success(f.deps.Notifier, MsgTourAdded)
	return nil
}

// settle ends a submit, running fn under the form lock while the screen is
// still mounted
func (f *TourForm) settle(phase screen.Phase, fn func()) bool {
	return f.life.Guard(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.submitPhase = phase
		if fn != nil {
			fn()
		}
	})
}

func (f *TourForm) resetLocked() {
	f.fields = Fields{}
	f.premium = false
	f.expression = ExpressionGood
	f.amenities = nil
	f.surroundings = nil
	f.image = nil
}
