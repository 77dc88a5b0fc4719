package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fjod/go_cart/storefront/internal/account"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/geo"
	"github.com/spf13/cobra"
)

func newLocationsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List active service areas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			locations, err := svc.Locations(cmd.Context())
			if err != nil {
				return err
			}

			current, _ := a.session.Location()
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "\tID\tNAME\tCITY\tPINCODE")
			for _, l := range locations {
				marker := ""
				if l.ID == current.ID {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, l.ID, l.Name, l.City, l.Pincode)
			}
			return w.Flush()
		},
	}
}

func newUseLocationCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use-location LOCATION_ID",
		Short: "Select the service area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			locations, err := svc.Locations(ctx)
			if err != nil {
				return err
			}
			for _, l := range locations {
				if l.ID == args[0] {
					accounts, err := a.accounts(ctx)
					if err != nil {
						return err
					}
					if err := accounts.SwitchLocation(ctx, l); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Location set to %s\n", l.Name)
					return nil
				}
			}
			return fmt.Errorf("unknown location %q", args[0])
		},
	}
}

func newDetectLocationCommand(a *app) *cobra.Command {
	var (
		lat, lon float64
		city     string
		apply    bool
	)
	cmd := &cobra.Command{
		Use:   "detect-location",
		Short: "Pick the nearest service area for a position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			locations, err := svc.Locations(ctx)
			if err != nil {
				return err
			}

			provider := geo.StaticProvider{Position: geo.Coordinates{Latitude: lat, Longitude: lon}}
			if city != "" {
				provider.Address = &geo.Address{City: city}
			}
			det, err := geo.Detect(ctx, provider, locations)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if det.DistanceKm >= 0 {
				fmt.Fprintf(out, "Nearest service area: %s (%.1f km)\n", det.Location.Name, det.DistanceKm)
			} else {
				fmt.Fprintf(out, "Service area: %s\n", det.Location.Name)
			}
			if det.Address != nil && det.Address.City != "" {
				fmt.Fprintf(out, "You are in %s\n", det.Address.City)
			}

			if !apply {
				return nil
			}
			accounts, err := a.accounts(ctx)
			if err != nil {
				return err
			}
			return accounts.SwitchLocation(ctx, det.Location)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	cmd.Flags().StringVar(&city, "city", "", "city name to display")
	cmd.Flags().BoolVar(&apply, "apply", false, "select the detected area")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func newCategoriesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			categories, err := svc.Categories(cmd.Context())
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME")
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
			}
			return w.Flush()
		},
	}
}

func newProductsCommand(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products of the selected service area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups, err := a.productGroups(cmd, category)
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "GROUP\tNAME\tPRICE\tUNIT\tVARIANTS")
			for _, g := range groups {
				labels := make([]string, len(g.Variants))
				for i, v := range g.Variants {
					labels[i] = v.ProductID + "=" + v.Variant
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", g.ID, g.Name, g.Price.StringFixed(2), g.Unit, strings.Join(labels, ", "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category id")
	return cmd
}

func (a *app) productGroups(cmd *cobra.Command, category string) ([]domain.ProductGroup, error) {
	loc, ok := a.session.Location()
	if !ok {
		return nil, account.ErrLocationNotSelected
	}
	svc, err := a.catalog(cmd.Context())
	if err != nil {
		return nil, err
	}
	return svc.Products(cmd.Context(), loc.ID, category)
}

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login PHONE",
		Short: "Log in with the shop phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.accounts(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Login(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newRegisterCommand(a *app) *cobra.Command {
	var form account.RegistrationForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new shop in the selected service area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.accounts(ctx)
			if err != nil {
				return err
			}

			// a known number goes through login instead of a second registration
			existing, err := svc.ProbeExisting(ctx, form.Phone)
			if err != nil {
				return err
			}
			if existing.Outcome != account.OutcomeNotFound {
				printOutcome(cmd.OutOrStdout(), existing)
				return nil
			}

			shop, err := svc.Register(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shop %s registered. %s\n", shop.Name, account.OutcomePendingApproval.Message())
			return nil
		},
	}
	cmd.Flags().StringVar(&form.ShopName, "shop-name", "", "shop name")
	cmd.Flags().StringVar(&form.OwnerName, "owner", "", "owner name")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "10-digit phone number")
	cmd.Flags().StringVar(&form.Email, "email", "", "email (optional)")
	cmd.Flags().StringVar(&form.Address, "address", "", "shop address")
	return cmd
}

func printOutcome(w io.Writer, res account.Result) {
	switch {
	case res.Outcome.EntersCatalog():
		fmt.Fprintf(w, "Welcome, %s\n", res.Shop.Name)
	case res.Outcome == account.OutcomeLocationMismatch:
		fmt.Fprintln(w, res.Outcome.Message())
		fmt.Fprintf(w, "Run: storefront use-location %s\n", res.Shop.LocationID)
	default:
		fmt.Fprintln(w, res.Outcome.Message())
	}
}

func newCartCommand(a *app) *cobra.Command {
	cart := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
	}

	var showVariant string
	show := &cobra.Command{
		Use:   "show [GROUP_ID]",
		Short: "Show cart lines and total, or a single line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cart := a.session.Cart()
			if len(args) == 0 {
				printCart(cmd.OutOrStdout(), cart)
				return nil
			}
			key, err := lineKey(cart, args[0], showVariant)
			if err != nil {
				return err
			}
			line, ok := cart.Line(key)
			if !ok {
				return fmt.Errorf("no cart line for %q", args[0])
			}
			printCart(cmd.OutOrStdout(), domain.Cart{line})
			return nil
		},
	}
	show.Flags().StringVar(&showVariant, "variant", "", "product id of the variant")

	var variant string
	var qty int
	add := &cobra.Command{
		Use:   "add GROUP_ID",
		Short: "Add a product group to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.productGroups(cmd, "")
			if err != nil {
				return err
			}
			group, ok := domain.FindGroup(groups, args[0])
			if !ok {
				return fmt.Errorf("unknown product %q", args[0])
			}

			item, err := newCartItem(group, variant, qty)
			if err != nil {
				return err
			}
			if err := a.session.AddToCart(cmd.Context(), item); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), a.session.Cart())
			return nil
		},
	}
	add.Flags().StringVar(&variant, "variant", "", "product id of the variant (default: first variant)")
	add.Flags().IntVar(&qty, "qty", 1, "quantity")

	var updateVariant string
	update := &cobra.Command{
		Use:   "update GROUP_ID QUANTITY",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var n int
			if _, err := fmt.Sscanf(args[1], "%d", &n); err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			key, err := lineKey(a.session.Cart(), args[0], updateVariant)
			if err != nil {
				return err
			}
			if err := a.session.UpdateQuantity(cmd.Context(), key, n); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), a.session.Cart())
			return nil
		},
	}
	update.Flags().StringVar(&updateVariant, "variant", "", "product id of the variant")

	var removeVariant string
	remove := &cobra.Command{
		Use:   "remove GROUP_ID",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := lineKey(a.session.Cart(), args[0], removeVariant)
			if err != nil {
				return err
			}
			if err := a.session.RemoveFromCart(cmd.Context(), key); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), a.session.Cart())
			return nil
		},
	}
	remove.Flags().StringVar(&removeVariant, "variant", "", "product id of the variant")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.session.ClearCart(cmd.Context())
		},
	}

	cart.AddCommand(show, add, update, remove, clearCmd)
	return cart
}

// newCartItem selects the variant a line is for, defaulting to the first one so
// the order item always references a real product.
func newCartItem(group domain.ProductGroup, variant string, qty int) (domain.CartItem, error) {
	v, ok := group.Selection(variant)
	if !ok {
		if variant == "" {
			return domain.CartItem{}, fmt.Errorf("product %q has no variants", group.ID)
		}
		return domain.CartItem{}, fmt.Errorf("product %q has no variant %q", group.ID, variant)
	}
	return domain.CartItem{ProductGroup: group, Quantity: qty, SelectedVariant: &v}, nil
}

// lineKey resolves a cart line. Without a variant the group must have exactly
// one line in the cart.
func lineKey(cart domain.Cart, groupID, variant string) (domain.LineKey, error) {
	if variant != "" {
		return domain.LineKey{GroupID: groupID, VariantID: variant}, nil
	}

	var found []domain.LineKey
	for _, line := range cart {
		if line.ID == groupID {
			found = append(found, line.Key())
		}
	}
	switch len(found) {
	case 0:
		return domain.LineKey{}, fmt.Errorf("no cart line for %q", groupID)
	case 1:
		return found[0], nil
	}
	return domain.LineKey{}, fmt.Errorf("%q has %d lines in the cart; pass --variant", groupID, len(found))
}

func printCart(w io.Writer, cart domain.Cart) {
	if len(cart) == 0 {
		fmt.Fprintln(w, "Cart is empty")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "GROUP\tNAME\tVARIANT\tQTY\tPRICE\tSUBTOTAL")
	for _, line := range cart {
		label := domain.DefaultVariant
		if line.SelectedVariant != nil {
			label = line.SelectedVariant.Variant
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			line.ID, line.Name, label, line.Quantity, line.Price.StringFixed(2), line.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t\t%d\t\t%s\n", cart.ItemCount(), cart.Total().StringFixed(2))
	_ = tw.Flush()
}

func newCheckoutCommand(a *app) *cobra.Command {
	var customer domain.CustomerInfo
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place a cash-on-delivery order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.checkout(cmd.Context())
			if err != nil {
				return err
			}
			placement, err := svc.PlaceOrder(cmd.Context(), customer)
			if placement != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Order placed: %s\n", placement.OrderNumber)
			}
			var partial *checkout.PartialOrderError
			if errors.As(err, &partial) {
				return fmt.Errorf("order %s was only partly saved, please contact support: %w", partial.OrderNumber, err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&customer.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&customer.Phone, "phone", "", "customer phone")
	cmd.Flags().StringVar(&customer.Address, "address", "", "delivery address")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the location, shop and cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.session.Logout(cmd.Context())
		},
	}
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
