package domain

import (
	"math"
	"strings"
)

type RestaurantRef struct {
	ID   string
	Name string
}

func (r RestaurantRef) IsZero() bool {
	return strings.TrimSpace(r.ID) == "" && strings.TrimSpace(r.Name) == ""
}

// SameAs matches by id when both sides carry one, otherwise by case-insensitive name.
func (r RestaurantRef) SameAs(other RestaurantRef) bool {
	if r.ID != "" && other.ID != "" {
		return r.ID == other.ID
	}
	if r.Name == "" || other.Name == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(other.Name))
}

type CartEntry struct {
	ID       string
	Name     string
	Price    float64
	Quantity int
}

func (e CartEntry) Subtotal() float64 {
	return e.Price * float64(e.Quantity)
}

// Cart holds one pending order. All entries share Restaurant; an empty cart has no restaurant.
type Cart struct {
	Restaurant *RestaurantRef
	Entries    []CartEntry
}

func (c Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

func (c Cart) Total() float64 {
	total := 0.0
	for _, entry := range c.Entries {
		total += entry.Subtotal()
	}
	return total
}

func (c Cart) ItemCount() int {
	count := 0
	for _, entry := range c.Entries {
		count += entry.Quantity
	}
	return count
}

func (c Cart) Entry(id string) (CartEntry, bool) {
	for _, entry := range c.Entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return CartEntry{}, false
}

// Add merges by id, summing quantities. A non-positive quantity counts as one.
func (c *Cart) Add(entry CartEntry) {
	if entry.Quantity <= 0 {
		entry.Quantity = 1
	}
	for i := range c.Entries {
		if c.Entries[i].ID == entry.ID {
			c.Entries[i].Quantity += entry.Quantity
			return
		}
	}
	c.Entries = append(c.Entries, entry)
}

func (c *Cart) Remove(id string) bool {
	for i := range c.Entries {
		if c.Entries[i].ID != id {
			continue
		}
		c.Entries = append(c.Entries[:i:i], c.Entries[i+1:]...)
		if len(c.Entries) == 0 {
			c.Restaurant = nil
		}
		return true
	}
	return false
}

// SetQuantity removes the entry when quantity is zero or negative.
func (c *Cart) SetQuantity(id string, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(id)
	}
	for i := range c.Entries {
		if c.Entries[i].ID == id {
			c.Entries[i].Quantity = quantity
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.Entries = nil
	c.Restaurant = nil
}

func (c Cart) Clone() Cart {
	clone := Cart{}
	if c.Restaurant != nil {
		ref := *c.Restaurant
		clone.Restaurant = &ref
	}
	if len(c.Entries) > 0 {
		clone.Entries = make([]CartEntry, len(c.Entries))
		copy(clone.Entries, c.Entries)
	}
	return clone
}

// BackendCartItem is an item as confirmed by the brain, after alias resolution.
type BackendCartItem struct {
	ID       string
	Name     string
	Price    float64
	Quantity int
}

type DeliveryInfo struct {
	Name    string
	Phone   string
	Address string
	Notes   string
}

type OrderLine struct {
	MenuItemID string
	Name       string
	Quantity   int
	UnitPrice  int64
}

// OrderDraft amounts are in grosze.
type OrderDraft struct {
	RestaurantID string
	Lines        []OrderLine
	Total        int64
	Delivery     DeliveryInfo
}

type CreatedOrder struct {
	ID     string
	Status OrderStatus
	Total  float64
}

func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func NewOrderDraft(restaurantID string, cart Cart, delivery DeliveryInfo) OrderDraft {
	draft := OrderDraft{
		RestaurantID: restaurantID,
		Lines:        make([]OrderLine, 0, len(cart.Entries)),
		Delivery:     delivery,
	}
	for _, entry := range cart.Entries {
		unit := ToMinorUnits(entry.Price)
		draft.Lines = append(draft.Lines, OrderLine{
			MenuItemID: entry.ID,
			Name:       entry.Name,
			Quantity:   entry.Quantity,
			UnitPrice:  unit,
		})
		draft.Total += unit * int64(entry.Quantity)
	}
	return draft
}
