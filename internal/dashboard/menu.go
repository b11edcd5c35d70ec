// Package dashboard is the navigation shell around the admin screens.
package dashboard

import "strings"

// Sections with a dedicated screen
const (
	SectionDashboard  = "dashboard"
	SectionCategories = "catagories"
	SectionAddTours   = "add-tours"
)

// DefaultTitle is shown when no menu item matches the active section
const DefaultTitle = "Dashboard"

// BottomNavSize is how many mobile items the bottom bar shows
const BottomNavSize = 4

// Item is one menu entry
type Item struct {
	Name           string
	Section        string
	MobilePriority bool
	SubItems       []Item
}

// Menu is the sidebar in display order
var Menu = []Item{
	{Name: "Dashboard", Section: "dashboard", MobilePriority: true},
	{Name: "Tours", Section: "tours", MobilePriority: true, SubItems: []Item{
		{Name: "Add Catagories", Section: SectionCategories},
		{Name: "Add Tours", Section: SectionAddTours},
		{Name: "Adventure", Section: "adventure-tours"},
		{Name: "Cultural", Section: "cultural-tours"},
	}},
	{Name: "Bookings", Section: "bookings", MobilePriority: true, SubItems: []Item{
		{Name: "New Bookings", Section: "new-bookings"},
		{Name: "Confirmed", Section: "confirmed-bookings"},
		{Name: "Cancelled", Section: "cancelled-bookings"},
	}},
	{Name: "Customers", Section: "customers"},
	{Name: "Saved", Section: "saved"},
	{Name: "Payments", Section: "payments"},
	{Name: "Reports", Section: "reports"},
	{Name: "Settings", Section: "settings", MobilePriority: true},
}

// View is what the content area renders
type View int

const (
	ViewOverview View = iota
	ViewCategories
	ViewAddTour
)

func (v View) String() string {
	switch v {
	case ViewCategories:
		return "categories"
	case ViewAddTour:
		return "add-tour"
	default:
		return "overview"
	}
}

// ViewFor maps a section to its view. Sections without a screen of their
// own show the overview.
func ViewFor(section string) View {
	switch section {
	case SectionCategories:
		return ViewCategories
	case SectionAddTours:
		return ViewAddTour
	default:
		return ViewOverview
	}
}

// Title is the name of the first top-level item whose section, up to its
// first '-', prefixes the active section
func Title(section string) string {
	for _, item := range Menu {
		prefix, _, _ := strings.Cut(item.Section, "-")
		if strings.HasPrefix(section, prefix) {
			return item.Name
		}
	}
	return DefaultTitle
}

// MobileMenu returns the items shown in the mobile sidebar
func MobileMenu() []Item {
	var out []Item
	for _, item := range Menu {
		if item.MobilePriority {
			out = append(out, item)
		}
	}
	return out
}

// BottomNav returns the items on the mobile bottom bar
func BottomNav() []Item {
	items := MobileMenu()
	if len(items) > BottomNavSize {
		items = items[:BottomNavSize]
	}
	return items
}

// Known reports whether section is reachable from the menu
func Known(section string) bool {
	for _, item := range Menu {
		if item.Section == section {
			return true
		}
		for _, sub := range item.SubItems {
			if sub.Section == section {
				return true
			}
		}
	}
	return false
}

// Find returns the top-level item called name
func Find(name string) (Item, bool) {
	for _, item := range Menu {
		if item.Name == name {
			return item, true
		}
	}
	return Item{}, false
}
