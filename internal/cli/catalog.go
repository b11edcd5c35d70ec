package cli

import (
	"fmt"
	"strings"

	"tourdesk/internal/dashboard"
	"tourdesk/internal/tours"

	"github.com/spf13/cobra"
)

func (a *App) categoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "List, create and delete tour categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			return a.withCategories(cmd, func(m *tours.CategoryManager) error {
				a.printCategories(m)
				return nil
			})
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Create a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.withCategories(cmd, func(m *tours.CategoryManager) error {
				m.SetName(strings.Join(args, " "))
				if err := m.Create(); err != nil {
					return err
				}
				a.printCategories(m)
				return nil
			})
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete the first category called NAME",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.withCategories(cmd, func(m *tours.CategoryManager) error {
				if err := m.Delete(strings.Join(args, " ")); err != nil {
					return err
				}
				a.printCategories(m)
				return nil
			})
		}),
	})

	return cmd
}

// withCategories opens the categories section of the dashboard, which
// loads the list, and hands its manager to fn
func (a *App) withCategories(cmd *cobra.Command, fn func(m *tours.CategoryManager) error) error {
	shell := dashboard.NewShell(cmd.Context(), a.tourDeps())
	defer shell.Close()

	if err := shell.Select(dashboard.SectionCategories); err != nil {
		return err
	}
	m, ok := shell.Categories()
	if !ok {
		return fmt.Errorf("categories screen not mounted")
	}
	return fn(m)
}

func (a *App) printCategories(m *tours.CategoryManager) {
	list := m.Categories()
	if len(list) == 0 {
		a.printf("No categories\n")
		return
	}
	for _, c := range list {
		a.printf("%s\t%s\n", c.ID, c.Name)
	}
}

func (a *App) tourCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tour",
		Aliases: []string{"tours"},
		Short:   "Author tour packages",
	}
	cmd.AddCommand(a.tourCreateCommand())
	return cmd
}

type tourFlags struct {
	fields       tours.Fields
	premium      bool
	expression   string
	amenities    []string
	surroundings []string
	image        string
}

func (a *App) tourCreateCommand() *cobra.Command {
	var tf tourFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Upload a banner image and create a tour package",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			shell := dashboard.NewShell(cmd.Context(), a.tourDeps())
			defer shell.Close()

			if err := shell.Select(dashboard.SectionAddTours); err != nil {
				return err
			}
			form, ok := shell.TourForm()
			if !ok {
				return fmt.Errorf("tour form not mounted")
			}
			if err := tf.apply(form); err != nil {
				return err
			}
			if err := form.Submit(); err != nil {
				return err
			}
			if rec := form.LastCreated(); rec != nil && rec.ID != "" {
				a.printf("Created tour %s\n", rec.ID)
			}
			return nil
		}),
	}

	fs := cmd.Flags()
	fs.StringVar(&tf.fields.PackageName, "name", "", "Package name")
	fs.StringVar(&tf.fields.Location, "location", "", "Destination")
	fs.StringVar(&tf.fields.Price, "price", "", "Price, a non-negative number")
	fs.StringVar(&tf.fields.TotalNights, "nights", "", "Total nights, a positive whole number")
	fs.StringVar(&tf.fields.Category, "category", "", "Category name, one of the existing categories")
	fs.StringVar(&tf.fields.Policies, "policies", "", "Booking policies")
	fs.StringVar(&tf.fields.HotelDetails, "hotel", "", "Hotel details")
	fs.StringVar(&tf.fields.ContactDetails, "contact", "", "Contact details")
	fs.StringVar(&tf.fields.Review, "review", "", "Review text")
	fs.BoolVar(&tf.premium, "premium", false, "Mark the tour as premium")
	fs.StringVar(&tf.expression, "expression", "", "Premium expression (good, very good, bad)")
	fs.StringArrayVar(&tf.amenities, "amenity", nil, "Amenity, repeat for several")
	fs.StringArrayVar(&tf.surroundings, "surrounding", nil, "Nearby place as title=distance, repeat for several")
	fs.StringVar(&tf.image, "image", "", "Path to the banner image")
	return cmd
}

// apply feeds the flag values into form the way the screen's inputs would
func (tf *tourFlags) apply(form *tours.TourForm) error {
	form.Update(func(f *tours.Fields) { *f = tf.fields })
	form.SetPremium(tf.premium)
	if tf.expression != "" {
		if err := form.SetExpression(tf.expression); err != nil {
			return err
		}
	}
	for _, v := range tf.amenities {
		if err := form.AddAmenity(v); err != nil {
			return err
		}
	}
	for _, v := range tf.surroundings {
		title, distance, found := strings.Cut(v, "=")
		if !found {
			return fmt.Errorf("invalid surrounding %q: want title=distance", v)
		}
		if err := form.AddSurrounding(title, distance); err != nil {
			return err
		}
	}
	if tf.image != "" {
		if err := form.SelectImageFile(tf.image); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) dashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard [SECTION]",
		Short: "Show the dashboard menu, optionally opening a section",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			shell := dashboard.NewShell(cmd.Context(), a.tourDeps())
			defer shell.Close()

			if len(args) == 1 {
				if err := shell.Select(args[0]); err != nil {
					return err
				}
			}

			if name, err := a.sess.Username(cmd.Context()); err == nil && name != "" {
				a.printf("Signed in as %s\n", name)
			}
			a.printf("%s (%s)\n\n", shell.Title(), shell.View())
			for _, item := range dashboard.Menu {
				a.printf("%s %s\n", marker(shell.Active() == item.Section), item.Name)
				for _, sub := range item.SubItems {
					a.printf("    %s %s [%s]\n", marker(shell.Active() == sub.Section), sub.Name, sub.Section)
				}
			}

			names := make([]string, 0, dashboard.BottomNavSize)
			for _, item := range dashboard.BottomNav() {
				names = append(names, item.Name)
			}
			a.printf("\nMobile bar: %s\n", strings.Join(names, " | "))

			if m, ok := shell.Categories(); ok {
				a.printf("\n")
				a.printCategories(m)
			}
			if f, ok := shell.TourForm(); ok {
				a.printf("\n%d categories available for new tours\n", len(f.Categories()))
			}
			return nil
		}),
	}
}

func marker(active bool) string {
	if active {
		return "*"
	}
	return "-"
}
