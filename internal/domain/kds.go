package domain

import (
	"sort"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

const (
	DefaultChannel = "restaurant"
	DefaultStation = "kuchnia"
)

// IsFresh reports whether the kitchen has not picked the order up yet.
func (s OrderStatus) IsFresh() bool {
	switch s {
	case OrderStatusNew, OrderStatusPending:
		return true
	default:
		return false
	}
}

func (s OrderStatus) IsOpen() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled:
		return false
	default:
		return true
	}
}

type KDSItem struct {
	Name     string
	Quantity int
	Station  string
	Done     bool
	PrepTime time.Duration
}

// KDSOrder is a read-only copy of a backend order. Status and item Done flags only change
// through a fresh fetch.
type KDSOrder struct {
	ID          string
	OrderNumber string
	Channel     string
	Status      OrderStatus
	Items       []KDSItem
	Total       float64
	Location    string
	Priority    int
	CreatedAt   time.Time
	Notes       string
}

type KDSStats struct {
	Total      int
	Pending    int
	InProgress int
	Ready      int
	Completed  int
	Cancelled  int
	Revenue    float64
	OldestOpen time.Time
}

func ComputeStats(orders []KDSOrder) KDSStats {
	var stats KDSStats
	for _, order := range orders {
		stats.Total++
		switch order.Status {
		case OrderStatusNew, OrderStatusPending, OrderStatusAccepted:
			stats.Pending++
		case OrderStatusPreparing:
			stats.InProgress++
		case OrderStatusReady:
			stats.Ready++
		case OrderStatusCompleted:
			stats.Completed++
		case OrderStatusCancelled:
			stats.Cancelled++
		}

		if order.Status != OrderStatusCancelled {
			stats.Revenue += order.Total
		}
		if order.Status.IsOpen() && !order.CreatedAt.IsZero() {
			if stats.OldestOpen.IsZero() || order.CreatedAt.Before(stats.OldestOpen) {
				stats.OldestOpen = order.CreatedAt
			}
		}
	}
	return stats
}

// FilterByStation keeps orders with at least one item at station. An empty station or "all"
// keeps every order. The input slice is never modified.
func FilterByStation(orders []KDSOrder, station string) []KDSOrder {
	station = strings.TrimSpace(station)
	result := make([]KDSOrder, 0, len(orders))
	for _, order := range orders {
		if station == "" || strings.EqualFold(station, "all") || order.hasStation(station) {
			result = append(result, order)
		}
	}
	return result
}

// SortForDisplay orders by priority descending, fresh orders first, then oldest first.
// It returns a sorted copy.
func SortForDisplay(orders []KDSOrder) []KDSOrder {
	sorted := make([]KDSOrder, len(orders))
	copy(sorted, orders)

	sort.SliceStable(sorted, func(i, j int) bool {
		left, right := sorted[i], sorted[j]
		if left.Priority != right.Priority {
			return left.Priority > right.Priority
		}
		if left.Status.IsFresh() != right.Status.IsFresh() {
			return left.Status.IsFresh()
		}
		return left.CreatedAt.Before(right.CreatedAt)
	})

	return sorted
}

func (o KDSOrder) hasStation(station string) bool {
	for _, item := range o.Items {
		if strings.EqualFold(item.Station, station) {
			return true
		}
	}
	return false
}

func (o KDSOrder) FindItem(index int) (KDSItem, bool) {
	if index < 0 || index >= len(o.Items) {
		return KDSItem{}, false
	}
	return o.Items[index], true
}

func FindOrder(orders []KDSOrder, id string) (KDSOrder, bool) {
	for _, order := range orders {
		if order.ID == id {
			return order, true
		}
	}
	return KDSOrder{}, false
}
