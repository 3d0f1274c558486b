package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	kdsrender "github.com/ndoemo02/Freeflow-Final/internal/adapters/render/kds"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/spf13/cobra"
)

func newToolsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Call the assistant's tool endpoints directly",
	}

	cmd.AddCommand(newToolsMenuCmd(app), newToolsStockCmd(app), newToolsOrderCmd(app))

	return cmd
}

func newToolsMenuCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "menu <restaurant-id>",
		Short: "List a restaurant's menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.backendClient(cmd.Context()).ToolMenu(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, items)
			}
			if len(items) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "menu is empty")
				return err
			}
			for _, item := range items {
				line := fmt.Sprintf("%s  %s  %s", item.ID, item.Name, kdsrender.FormatPrice(item.Price))
				if item.Category != "" {
					line += "  [" + item.Category + "]"
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newToolsStockCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stock <restaurant-id>",
		Short: "Show item availability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levels, err := app.backendClient(cmd.Context()).ToolStock(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, levels)
			}
			for _, level := range levels {
				state := "out"
				if level.Available {
					state = "available"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s (%d)\n", level.ItemID, level.Name, state, level.Quantity); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newToolsOrderCmd(app *app) *cobra.Command {
	var delivery domain.DeliveryInfo

	cmd := &cobra.Command{
		Use:   "order <restaurant-id> <item-id>[=qty]...",
		Short: "Place an order through the tools endpoint using menu prices",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			token, err := app.tokens.Token(ctx)
			if err != nil {
				if errors.Is(err, domain.ErrNotAuthenticated) {
					return fmt.Errorf("%w: run `ff auth set-token` first", err)
				}
				return err
			}

			client := app.backendClient(ctx)
			menu, err := client.ToolMenu(ctx, args[0])
			if err != nil {
				return err
			}

			cart := domain.Cart{Restaurant: &domain.RestaurantRef{ID: args[0]}}
			for _, line := range args[1:] {
				id, quantity, err := parseOrderLine(line)
				if err != nil {
					return err
				}
				item, ok := findMenuItem(menu, id)
				if !ok {
					return fmt.Errorf("item %q is not on the menu", id)
				}
				cart.Add(domain.CartEntry{ID: item.ID, Name: item.Name, Price: item.Price, Quantity: quantity})
			}

			created, err := client.ToolOrder(ctx, token, domain.NewOrderDraft(args[0], cart, delivery))
			if err != nil {
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

func parseOrderLine(raw string) (string, int, error) {
	id, qty, found := strings.Cut(raw, "=")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", 0, fmt.Errorf("invalid order line %q", raw)
	}
	if !found {
		return id, 1, nil
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(qty))
	if err != nil || quantity <= 0 {
		return "", 0, fmt.Errorf("invalid quantity in %q", raw)
	}
	return id, quantity, nil
}

func findMenuItem(menu []domain.MenuItem, id string) (domain.MenuItem, bool) {
	for _, item := range menu {
		if item.ID == id {
			return item, true
		}
	}
	return domain.MenuItem{}, false
}

func newAgentCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Talk to the tool-using agent endpoint",
	}

	cmd.AddCommand(newAgentAskCmd(app))

	return cmd
}

func newAgentAskCmd(app *app) *cobra.Command {
	var sessionID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to the agent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if sessionID == "" {
				sessions, closeSessions, err := app.sessionRepository()
				if err != nil {
					return err
				}
				if session, err := sessions.Load(ctx); err == nil {
					sessionID = string(session.ID)
				}
				closeSessions()
			}

			reply, err := app.backendClient(ctx).Agent(ctx, domain.SessionID(sessionID), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, reply)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "agent> %s\n", reply.Reply); err != nil {
				return err
			}
			for _, action := range reply.Actions {
				if name, ok := action["type"].(string); ok {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  action: %s\n", name)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (defaults to the current chat session)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
