package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	kdsrender "github.com/ndoemo02/Freeflow-Final/internal/adapters/render/kds"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/spf13/cobra"
)

func newCartCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
	}

	cmd.AddCommand(
		newCartShowCmd(app),
		newCartAddCmd(app),
		newCartRemoveCmd(app),
		newCartQtyCmd(app),
		newCartClearCmd(app),
		newCartSubmitCmd(app),
	)

	return cmd
}

func newCartShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show cart contents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.cartService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			cart := svc.Cart()
			if asJSON {
				return writeJSON(cmd, struct {
					Cart  domain.Cart `json:"cart"`
					Total float64     `json:"total"`
				}{Cart: cart, Total: cart.Total()})
			}
			writeCart(cmd.OutOrStdout(), cart)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newCartAddCmd(app *app) *cobra.Command {
	var quantity int
	var restaurantID string
	var restaurantName string
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "add <item-id> <name> <price>",
		Short: "Add a menu item to the cart",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parsePrice(args[2])
			if err != nil {
				return err
			}
			if quantity <= 0 {
				return fmt.Errorf("invalid --qty %d", quantity)
			}

			svc, err := app.cartService(cmd.Context(), newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), assumeYes))
			if err != nil {
				return err
			}

			restaurant := domain.RestaurantRef{ID: strings.TrimSpace(restaurantID), Name: strings.TrimSpace(restaurantName)}
			if restaurant.IsZero() {
				current := svc.Cart().Restaurant
				if current == nil {
					return errors.New("restaurant is required for an empty cart (use --restaurant-id or --restaurant)")
				}
				restaurant = *current
			}

			added, err := svc.AddToCart(cmd.Context(), domain.CartEntry{
				ID:       args[0],
				Name:     args[1],
				Price:    price,
				Quantity: quantity,
			}, restaurant)
			if err != nil {
				return err
			}
			if !added {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "cart unchanged")
				return err
			}
			writeCart(cmd.OutOrStdout(), svc.Cart())
			return nil
		},
	}

	cmd.Flags().IntVar(&quantity, "qty", 1, "Quantity")
	cmd.Flags().StringVar(&restaurantID, "restaurant-id", "", "Restaurant ID")
	cmd.Flags().StringVar(&restaurantName, "restaurant", "", "Restaurant name")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Switch restaurants without asking")

	return cmd
}

func newCartRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove an item from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.cartService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := svc.RemoveFromCart(cmd.Context(), args[0]); err != nil {
				return err
			}
			writeCart(cmd.OutOrStdout(), svc.Cart())
			return nil
		},
	}
}

func newCartQtyCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "qty <item-id> <quantity>",
		Short: "Set an item's quantity (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			svc, err := app.cartService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := svc.UpdateQuantity(cmd.Context(), args[0], quantity); err != nil {
				return err
			}
			writeCart(cmd.OutOrStdout(), svc.Cart())
			return nil
		},
	}
}

func newCartClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.cartService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := svc.ClearCart(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return err
		},
	}
}

func newCartSubmitCmd(app *app) *cobra.Command {
	var delivery domain.DeliveryInfo

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Place an order for the cart contents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.cartService(cmd.Context(), nil)
			if err != nil {
				return err
			}

			var created domain.CreatedOrder
			err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Sending order...", func(ctx context.Context) error {
				var submitErr error
				created, submitErr = svc.SubmitOrder(ctx, delivery)
				return submitErr
			})
			if err != nil {
				if errors.Is(err, domain.ErrNotAuthenticated) {
					return fmt.Errorf("%w: run `ff auth set-token` first", err)
				}
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "order %s: %s, total %s\n", created.ID, created.Status, kdsrender.FormatPrice(created.Total))
			return err
		},
	}

	cmd.Flags().StringVar(&delivery.Name, "name", "", "Customer name")
	cmd.Flags().StringVar(&delivery.Phone, "phone", "", "Contact phone")
	cmd.Flags().StringVar(&delivery.Address, "address", "", "Delivery address")
	cmd.Flags().StringVar(&delivery.Notes, "notes", "", "Notes for the kitchen")

	return cmd
}

func writeCart(w io.Writer, cart domain.Cart) {
	if cart.IsEmpty() {
		_, _ = fmt.Fprintln(w, "cart is empty")
		return
	}
	if cart.Restaurant != nil {
		_, _ = fmt.Fprintf(w, "restaurant: %s\n", valueOr(cart.Restaurant.Name, cart.Restaurant.ID))
	}
	for _, entry := range cart.Entries {
		_, _ = fmt.Fprintf(w, "  %dx %s [%s]  %s\n", entry.Quantity, entry.Name, entry.ID, kdsrender.FormatPrice(entry.Subtotal()))
	}
	_, _ = fmt.Fprintf(w, "total: %s (%d items)\n", kdsrender.FormatPrice(cart.Total()), cart.ItemCount())
}

func parsePrice(raw string) (float64, error) {
	value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "zł"))
	price, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil || price < 0 {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return price, nil
}
