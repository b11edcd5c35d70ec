package tours

import (
	"context"
	"strings"
	"sync"

	"tourdesk/internal/api"
	"tourdesk/internal/forms"
	"tourdesk/internal/notify"
	"tourdesk/internal/screen"
)

type categoryForm struct {
	Name string `form:"catagoryName" validate:"notblank"`
}

// CategoryManager creates, lists and deletes categories. Every successful
// mutation is followed by exactly one full refetch, and the displayed list
// is whatever that refetch returned.
type CategoryManager struct {
	deps Deps
	life *screen.Lifecycle

	mu    sync.Mutex
	name  string
	list  []api.Category
	phase screen.Phase
}

// NewCategoryManager mounts the category screen. Call Refresh to populate it.
func NewCategoryManager(ctx context.Context, deps Deps) *CategoryManager {
	return &CategoryManager{deps: deps, life: screen.NewLifecycle(ctx)}
}

// SetName updates the new-category input
func (m *CategoryManager) SetName(v string) {
	m.mu.Lock()
	m.name = v
	m.mu.Unlock()
}

// Name returns the new-category input
func (m *CategoryManager) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Categories returns the displayed list
func (m *CategoryManager) Categories() []api.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.Category, len(m.list))
	copy(out, m.list)
	return out
}

// Phase is the state of the last list fetch
func (m *CategoryManager) Phase() screen.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Teardown disposes the screen and cancels its in-flight requests
func (m *CategoryManager) Teardown() {
	m.life.Teardown()
}

// Refresh replaces the displayed list with the server's
func (m *CategoryManager) Refresh() error {
	if !m.life.Alive() {
		return screen.ErrTornDown
	}
	m.mu.Lock()
	m.phase = screen.PhaseLoading
	m.mu.Unlock()

	list, err := m.deps.API.ListCategories(m.life.Context())
	if !m.life.Guard(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if err != nil {
			m.phase = screen.PhaseFailed
			return
		}
		m.list = list
		m.phase = screen.PhaseLoaded
	}) {
		return screen.ErrTornDown
	}

	if err != nil {
		m.deps.logger().Debug("Category fetch failed", "error", err)
		notify.Error(m.deps.Notifier, MsgFetchCategoriesFailed)
		return err
	}
	return nil
}

// Create adds a category named after the current input
func (m *CategoryManager) Create() error {
	m.mu.Lock()
	form := categoryForm{Name: m.name}
	m.mu.Unlock()

	if err := forms.Check(form, nil, MsgCategoryNameEmpty); err != nil {
		notify.Error(m.deps.Notifier, err.Error())
		return err
	}
	name := strings.TrimSpace(form.Name)
	if !m.life.Alive() {
		return screen.ErrTornDown
	}

	resp, err := m.deps.API.CreateCategory(m.life.Context(), name)
	if err != nil {
		if m.life.Alive() {
			m.deps.logger().Debug("Category create failed", "name", name, "error", err)
			notify.Error(m.deps.Notifier, MsgCategoryServerError)
		}
		return err
	}
	if !m.life.Guard(func() {
		m.mu.Lock()
		m.name = ""
		m.mu.Unlock()
	}) {
		return screen.ErrTornDown
	}

	successMessage(m.deps.Notifier, resp)
	return m.Refresh()
}

// Delete removes the category called name. Names are not unique; the server
// decides which match goes.
func (m *CategoryManager) Delete(name string) error {
	if !m.life.Alive() {
		return screen.ErrTornDown
	}

	resp, err := m.deps.API.DeleteCategory(m.life.Context(), name)
	if !m.life.Alive() {
		return screen.ErrTornDown
	}
	if err != nil {
		m.deps.logger().Debug("Category delete failed", "name", name, "error", err)
		notify.Error(m.deps.Notifier, MsgDeleteCategoryFailed)
		return err
	}

	successMessage(m.deps.Notifier, resp)
	return m.Refresh()
}

func successMessage(n notify.Notifier, resp *api.MessageResponse) {
	if resp != nil && resp.Message != "" {
		notify.Success(n, resp.Message)
	}
}
