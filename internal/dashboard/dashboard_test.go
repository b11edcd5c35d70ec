package dashboard

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"tourdesk/internal/api"
	"tourdesk/internal/logger"
	"tourdesk/internal/notify"
	"tourdesk/internal/screen"
	"tourdesk/internal/tours"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	mu    sync.Mutex
	lists int
	block chan struct{}
}

func (s *stubAPI) ListCategories(ctx context.Context) ([]api.Category, error) {
	s.mu.Lock()
	s.lists++
	block := s.block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []api.Category{{Name: "Adventure", ID: "1"}}, nil
}

func (s *stubAPI) CreateCategory(context.Context, string) (*api.MessageResponse, error) {
	return &api.MessageResponse{}, nil
}

func (s *stubAPI) DeleteCategory(context.Context, string) (*api.MessageResponse, error) {
	return &api.MessageResponse{}, nil
}

func (s *stubAPI) Upload(context.Context, string, io.Reader) (*api.UploadResponse, error) {
	return &api.UploadResponse{FilePath: "/uploads/x.jpg"}, nil
}

func (s *stubAPI) CreateTour(_ context.Context, t api.Tour) (*api.TourRecord, error) {
	return &api.TourRecord{ID: "1", Tour: t}, nil
}

func (s *stubAPI) FileURL(p string) string { return p }

func (s *stubAPI) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

func newShell() (*Shell, *stubAPI) {
	stub := &stubAPI{}
	deps := tours.Deps{API: stub, Notifier: notify.NewRecorder(), Logger: logger.Discard()}
	return NewShell(context.Background(), deps), stub
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"dashboard":    "Dashboard",
		"settings":     "Settings",
		"customers":    "Customers",
		"bookings":     "Bookings",
		"catagories":   "Dashboard",
		"add-tours":    "Dashboard",
		"tours-extra":  "Tours",
		"new-bookings": "Dashboard",
	}
	for section, want := range tests {
		assert.Equal(t, want, Title(section), section)
	}
}

func TestViewFor(t *testing.T) {
	assert.Equal(t, ViewCategories, ViewFor("catagories"))
	assert.Equal(t, ViewAddTour, ViewFor("add-tours"))
	for _, s := range []string{"dashboard", "adventure-tours", "bookings", "cancelled-bookings", "reports"} {
		assert.Equal(t, ViewOverview, ViewFor(s), s)
	}
}

func TestMobileNavigation(t *testing.T) {
	var names []string
	for _, item := range BottomNav() {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"Dashboard", "Tours", "Bookings", "Settings"}, names)
	assert.Len(t, MobileMenu(), 4)
}

func TestShell_Defaults(t *testing.T) {
	s, _ := newShell()
	assert.Equal(t, SectionDashboard, s.Active())
	assert.Equal(t, "Dashboard", s.Title())
	assert.Equal(t, ViewOverview, s.View())
	assert.Empty(t, s.OpenSubmenu())
	assert.False(t, s.MobileMenuOpen())
}

func TestShell_Submenu(t *testing.T) {
	s, _ := newShell()

	require.NoError(t, s.ToggleSubmenu("Tours"))
	assert.Equal(t, "Tours", s.OpenSubmenu())

	require.NoError(t, s.ToggleSubmenu("Bookings"))
	assert.Equal(t, "Bookings", s.OpenSubmenu())

	require.NoError(t, s.ToggleSubmenu("Bookings"))
	assert.Empty(t, s.OpenSubmenu())

	assert.ErrorIs(t, s.ToggleSubmenu("Reports"), ErrNoSubmenu)
}

func TestShell_SelectClosesMobileMenu(t *testing.T) {
	s, _ := newShell()
	s.SetMobileMenu(true)
	require.NoError(t, s.Select("settings"))
	assert.False(t, s.MobileMenuOpen())
	assert.Equal(t, "Settings", s.Title())

	assert.ErrorIs(t, s.Select("nowhere"), ErrUnknownSection)
	assert.Equal(t, "settings", s.Active())
}

func TestShell_MountsScreens(t *testing.T) {
	s, stub := newShell()

	require.NoError(t, s.Select(SectionCategories))
	mgr, ok := s.Categories()
	require.True(t, ok)
	assert.Equal(t, 1, stub.listCount())
	assert.Len(t, mgr.Categories(), 1)

	require.NoError(t, s.Select(SectionAddTours))
	form, ok := s.TourForm()
	require.True(t, ok)
	assert.Equal(t, screen.PhaseLoaded, form.CategoryPhase())
	assert.Equal(t, 2, stub.listCount())

	// the category screen was torn down on the way out
	assert.ErrorIs(t, mgr.Refresh(), screen.ErrTornDown)

	require.NoError(t, s.Select("adventure-tours"))
	assert.Equal(t, ViewOverview, s.View())
	assert.Nil(t, form.Image())
	assert.ErrorIs(t, form.LoadCategories(), screen.ErrTornDown)
}

func TestShell_SameViewKeepsScreen(t *testing.T) {
	s, stub := newShell()
	require.NoError(t, s.Select(SectionCategories))
	first := s.Current()

	require.NoError(t, s.Select(SectionCategories))
	assert.Same(t, first, s.Current())
	assert.Equal(t, 1, stub.listCount())
}

func TestShell_LateResponseAfterSwitch(t *testing.T) {
	s, stub := newShell()
	stub.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.Select(SectionCategories) }()

	// wait until the fetch is in flight, then navigate away
	require.Eventually(t, func() bool { return stub.listCount() == 1 }, waitFor, tick)
	mgr, ok := s.Categories()
	require.True(t, ok)

	stub.mu.Lock()
	stub.block = nil
	stub.mu.Unlock()
	require.NoError(t, s.Select("dashboard"))

	assert.ErrorIs(t, <-done, screen.ErrTornDown)
	assert.Empty(t, mgr.Categories())
}

func TestShell_Close(t *testing.T) {
	s, _ := newShell()
	require.NoError(t, s.Select(SectionAddTours))
	form, _ := s.TourForm()

	s.Close()
	s.Close()
	assert.ErrorIs(t, form.LoadCategories(), screen.ErrTornDown)
	assert.ErrorIs(t, s.Select("dashboard"), ErrClosed)
}

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)
