package kds

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ndoemo02/Freeflow-Final/internal/application"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

// LateAfter is the order age from which the age is highlighted.
const LateAfter = 15 * time.Minute

type RenderOptions struct {
	Now     time.Time
	Station string
	// Selected is the index of the highlighted order in display order, or -1.
	Selected int
}

// VisibleOrders returns the orders shown for station in display order.
func VisibleOrders(orders []domain.KDSOrder, station string) []domain.KDSOrder {
	return domain.SortForDisplay(domain.FilterByStation(orders, station))
}

func renderView(snapshot application.KDSSnapshot, opts RenderOptions, s styles) string {
	orders := VisibleOrders(snapshot.Orders, opts.Station)

	lines := []string{
		s.title.Render(boardTitle(opts.Station)),
		s.header.Render(statsLine(snapshot.Stats)),
	}
	if status := refreshLine(snapshot, opts.Now); status != "" {
		lines = append(lines, s.header.Render(status))
	}
	if snapshot.Error != "" {
		lines = append(lines, s.warning.Render("[stale] "+snapshot.Error))
	}

	if len(orders) == 0 {
		lines = append(lines, s.empty.Render("No orders on this station."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for i, order := range orders {
		card := renderOrder(order, opts, s)
		if i == opts.Selected {
			lines = append(lines, s.selected.Render(card))
			continue
		}
		lines = append(lines, s.order.Render(card))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func boardTitle(station string) string {
	station = strings.TrimSpace(station)
	if station == "" || strings.EqualFold(station, "all") {
		return "Kitchen Display"
	}
	return fmt.Sprintf("Kitchen Display: %s", station)
}

func statsLine(stats domain.KDSStats) string {
	return fmt.Sprintf(
		"orders: %d  pending: %d  preparing: %d  ready: %d  completed: %d  revenue: %s",
		stats.Total, stats.Pending, stats.InProgress, stats.Ready, stats.Completed, FormatPrice(stats.Revenue),
	)
}

func refreshLine(snapshot application.KDSSnapshot, now time.Time) string {
	parts := make([]string, 0, 3)
	if snapshot.Loading {
		parts = append(parts, "refreshing")
	}
	if !snapshot.LastUpdated.IsZero() {
		if now.IsZero() {
			parts = append(parts, "updated "+snapshot.LastUpdated.Format("15:04:05"))
		} else {
			parts = append(parts, "updated "+formatAge(now.Sub(snapshot.LastUpdated))+" ago")
		}
	}
	if !snapshot.Polling && !snapshot.LastUpdated.IsZero() {
		parts = append(parts, "paused")
	}
	return strings.Join(parts, "  ")
}

func renderOrder(order domain.KDSOrder, opts RenderOptions, s styles) string {
	heading := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.title.Render("#"+order.OrderNumber),
		" ",
		statusStyle(order.Status, s).Render(statusLabel(order.Status)),
		" ",
		s.meta.Render(orderMeta(order)),
	)
	if age := orderAge(order, opts.Now); age != "" {
		style := s.meta
		if opts.Now.Sub(order.CreatedAt) >= LateAfter && order.Status.IsOpen() {
			style = s.late
		}
		heading += " " + style.Render(age)
	}

	parts := []string{heading}
	for i, item := range order.Items {
		line := fmt.Sprintf("%d. %dx %s", i+1, item.Quantity, item.Name)
		if !strings.EqualFold(item.Station, domain.DefaultStation) && item.Station != "" {
			line += fmt.Sprintf(" [%s]", item.Station)
		}
		if item.Done {
			parts = append(parts, s.itemDone.Render(line))
			continue
		}
		parts = append(parts, s.item.Render(line))
	}
	if order.Notes != "" {
		parts = append(parts, s.notes.Render("note: "+order.Notes))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func orderMeta(order domain.KDSOrder) string {
	parts := []string{order.Channel}
	if order.Location != "" {
		parts = append(parts, order.Location)
	}
	if order.Total > 0 {
		parts = append(parts, FormatPrice(order.Total))
	}
	if order.Priority > 0 {
		parts = append(parts, fmt.Sprintf("priority %d", order.Priority))
	}
	return strings.Join(parts, " · ")
}

func orderAge(order domain.KDSOrder, now time.Time) string {
	if order.CreatedAt.IsZero() || now.IsZero() {
		return ""
	}
	return formatAge(now.Sub(order.CreatedAt))
}

func statusLabel(status domain.OrderStatus) string {
	switch status {
	case domain.OrderStatusNew, domain.OrderStatusPending:
		return "NEW"
	case domain.OrderStatusAccepted:
		return "ACCEPTED"
	case domain.OrderStatusPreparing:
		return "PREPARING"
	case domain.OrderStatusReady:
		return "READY"
	case domain.OrderStatusCompleted:
		return "DONE"
	case domain.OrderStatusCancelled:
		return "CANCELLED"
	default:
		return strings.ToUpper(string(status))
	}
}

func statusStyle(status domain.OrderStatus, s styles) lipgloss.Style {
	switch {
	case status.IsFresh() || status == domain.OrderStatusAccepted:
		return s.fresh
	case status == domain.OrderStatusPreparing:
		return s.preparing
	case status == domain.OrderStatusReady:
		return s.ready
	default:
		return s.closed
	}
}

func formatAge(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", max(0, int(d.Seconds())))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(math.Mod(d.Minutes(), 60)))
}

func FormatPrice(amount float64) string {
	return strings.Replace(fmt.Sprintf("%.2f zł", amount), ".", ",", 1)
}
