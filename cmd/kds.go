package cmd

import (
	"context"
	"fmt"
	"strconv"

	kdsrender "github.com/ndoemo02/Freeflow-Final/internal/adapters/render/kds"
	"github.com/ndoemo02/Freeflow-Final/internal/application"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/spf13/cobra"
)

func newKDSCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kds",
		Short: "Kitchen display: watch and move orders",
	}

	cmd.AddCommand(
		newKDSWatchCmd(app),
		newKDSListCmd(app),
		newKDSActionCmd(app, "start", "Start preparing an order", (*application.KDSPoller).StartOrder),
		newKDSActionCmd(app, "ready", "Mark an order ready", (*application.KDSPoller).MarkOrderReady),
		newKDSActionCmd(app, "bump", "Clear a ready order from the line", (*application.KDSPoller).BumpOrder),
		newKDSActionCmd(app, "complete", "Complete an order", (*application.KDSPoller).CompleteOrder),
		newKDSRecallCmd(app),
		newKDSToggleCmd(app),
	)

	return cmd
}

func newKDSWatchCmd(app *app) *cobra.Command {
	var station string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live kitchen display",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			poller := app.kdsPoller(ctx, 0)
			poller.Start(ctx)
			defer poller.Stop()

			return kdsrender.RunBoard(ctx, poller, station)
		},
	}

	cmd.Flags().StringVar(&station, "station", app.cfg.KDS.Station, "Station to show (all shows every order)")

	return cmd
}

func newKDSListCmd(app *app) *cobra.Command {
	var station string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the current orders once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			poller := app.kdsPoller(cmd.Context(), limit)
			if err := poller.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("load orders: %w", err)
			}
			snapshot := poller.Snapshot()

			if asJSON {
				return writeJSON(cmd, struct {
					Orders []domain.KDSOrder `json:"orders"`
					Stats  domain.KDSStats   `json:"stats"`
				}{Orders: kdsrender.VisibleOrders(snapshot.Orders, station), Stats: snapshot.Stats})
			}

			rendered, err := kdsrender.Render(snapshot, kdsrender.RenderOptions{
				Now:      app.now(),
				Station:  station,
				Selected: -1,
			})
			if err != nil {
				return fmt.Errorf("render orders: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&station, "station", app.cfg.KDS.Station, "Station to show (all shows every order)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum orders to fetch (defaults to kds.limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newKDSActionCmd(app *app, action string, short string, run func(*application.KDSPoller, context.Context, string) bool) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <order-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			poller := app.kdsPoller(cmd.Context(), 0)
			if err := poller.Refresh(cmd.Context()); err != nil {
				app.logger.Debug("orders not loaded before action", "error", err)
			}
			if !run(poller, cmd.Context(), args[0]) {
				return fmt.Errorf("kds %s %s failed", action, args[0])
			}
			return writeOrderStatus(cmd, poller, args[0])
		},
	}
}

func newKDSRecallCmd(app *app) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "recall <order-id>",
		Short: "Put a bumped or completed order back on the line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := domain.OrderStatus(target)
			switch status {
			case domain.OrderStatusPending, domain.OrderStatusPreparing, domain.OrderStatusReady:
			default:
				return fmt.Errorf("unsupported recall status %q (want pending, preparing or ready)", target)
			}

			poller := app.kdsPoller(cmd.Context(), 0)
			if !poller.RecallOrder(cmd.Context(), args[0], status) {
				return fmt.Errorf("kds recall %s failed", args[0])
			}
			return writeOrderStatus(cmd, poller, args[0])
		},
	}

	cmd.Flags().StringVar(&target, "to", string(domain.OrderStatusPreparing), "Status to return the order to")

	return cmd
}

func newKDSToggleCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <order-id> <item-number>",
		Short: "Mark a single item done (not supported by the orders backend)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := strconv.Atoi(args[1])
			if err != nil || item < 1 {
				return fmt.Errorf("invalid item number %q", args[1])
			}
			poller := app.kdsPoller(cmd.Context(), 0)
			if !poller.ToggleItem(cmd.Context(), args[0], item-1) {
				return domain.ErrItemTrackingDisabled
			}
			return nil
		},
	}
}

func writeOrderStatus(cmd *cobra.Command, poller *application.KDSPoller, orderID string) error {
	if order, ok := domain.FindOrder(poller.Snapshot().Orders, orderID); ok {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "order %s: %s\n", valueOr(order.OrderNumber, order.ID), order.Status)
		return err
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "order %s updated\n", orderID)
	return err
}
