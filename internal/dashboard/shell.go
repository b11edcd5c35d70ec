package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tourdesk/internal/tours"
)

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrNoSubmenu      = errors.New("menu item has no submenu")
	ErrClosed         = errors.New("dashboard closed")
)

// Screen is a mounted content screen
type Screen interface {
	Teardown()
}

// Overview is the default content. It holds no state.
type Overview struct{}

func (Overview) Teardown() {}

// Shell tracks the active section and owns the screen rendered for it.
// Switching to a different view tears the previous screen down so its late
// responses are dropped.
type Shell struct {
	ctx  context.Context
	deps tours.Deps

	mu         sync.Mutex
	active     string
	submenu    string
	mobileOpen bool
	view       View
	current    Screen
	closed     bool
}

// NewShell opens the dashboard on the overview
func NewShell(ctx context.Context, deps tours.Deps) *Shell {
	return &Shell{
		ctx:     ctx,
		deps:    deps,
		active:  SectionDashboard,
		view:    ViewOverview,
		current: Overview{},
	}
}

// Active returns the active section
func (s *Shell) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Title returns the header title for the active section
func (s *Shell) Title() string {
	return Title(s.Active())
}

// View returns what the content area renders
func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Current returns the mounted screen
func (s *Shell) Current() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Categories returns the category screen when it is mounted
func (s *Shell) Categories() (*tours.CategoryManager, bool) {
	m, ok := s.Current().(*tours.CategoryManager)
	return m, ok
}

// TourForm returns the tour screen when it is mounted
func (s *Shell) TourForm() (*tours.TourForm, bool) {
	f, ok := s.Current().(*tours.TourForm)
	return f, ok
}

// Select activates section and closes the mobile menu. When the view
// changes the previous screen is torn down, the new one mounted and its
// initial load run. The load error is returned but the section stays
// active.
func (s *Shell) Select(section string) error {
	if !Known(section) {
		return fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.active = section
	s.mobileOpen = false
	view := ViewFor(section)
	if view == s.view {
		s.mu.Unlock()
		return nil
	}
	prev := s.current
	next, load := s.mount(view)
	s.view = view
	s.current = next
	s.mu.Unlock()

	prev.Teardown()
	if load == nil {
		return nil
	}
	return load()
}

func (s *Shell) mount(view View) (Screen, func() error) {
	switch view {
	case ViewCategories:
		m := tours.NewCategoryManager(s.ctx, s.deps)
		return m, m.Refresh
	case ViewAddTour:
		f := tours.NewTourForm(s.ctx, s.deps)
		return f, f.LoadCategories
	default:
		return Overview{}, nil
	}
}

// ToggleSubmenu opens the named item's submenu, or closes it if open.
// Opening one submenu closes any other.
func (s *Shell) ToggleSubmenu(name string) error {
	item, ok := Find(name)
	if !ok || len(item.SubItems) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSubmenu, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submenu == name {
		s.submenu = ""
	} else {
		s.submenu = name
	}
	return nil
}

// OpenSubmenu returns the name of the open submenu, or ""
func (s *Shell) OpenSubmenu() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submenu
}

// SetMobileMenu opens or closes the mobile sidebar
func (s *Shell) SetMobileMenu(open bool) {
	s.mu.Lock()
	s.mobileOpen = open
	s.mu.Unlock()
}

// MobileMenuOpen reports whether the mobile sidebar is open
func (s *Shell) MobileMenuOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mobileOpen
}

// Close tears down the mounted screen
func (s *Shell) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cur := s.current
	s.mu.Unlock()
	cur.Teardown()
}
