package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddSumsRequestedQuantities(t *testing.T) {
	t.Parallel()

	var cart Cart
	for _, qty := range []int{2, 3, 1, 4} {
		cart.Add(CartEntry{ID: "pierogi", Name: "Pierogi", Price: 12.5, Quantity: qty})
	}

	require.Len(t, cart.Entries, 1)
	assert.Equal(t, 10, cart.Entries[0].Quantity)
	assert.InDelta(t, 125.0, cart.Total(), 0.0001)
}

func TestCartAddDefaultsQuantityToOne(t *testing.T) {
	t.Parallel()

	var cart Cart
	cart.Add(CartEntry{ID: "a", Price: 10})
	cart.Add(CartEntry{ID: "a", Price: 10, Quantity: -3})

	entry, ok := cart.Entry("a")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Quantity)
}

func TestCartTotalTracksEveryMutation(t *testing.T) {
	t.Parallel()

	cart := Cart{Restaurant: &RestaurantRef{ID: "r1"}}
	cart.Add(CartEntry{ID: "a", Price: 10, Quantity: 2})
	cart.Add(CartEntry{ID: "b", Price: 7.5, Quantity: 1})
	assert.InDelta(t, 27.5, cart.Total(), 0.0001)

	require.True(t, cart.SetQuantity("b", 4))
	assert.InDelta(t, 50.0, cart.Total(), 0.0001)

	require.True(t, cart.SetQuantity("a", 0))
	assert.InDelta(t, 30.0, cart.Total(), 0.0001)
	assert.Equal(t, 4, cart.ItemCount())

	require.True(t, cart.Remove("b"))
	assert.True(t, cart.IsEmpty())
	assert.Nil(t, cart.Restaurant)
	assert.Zero(t, cart.Total())
}

func TestCartRemoveUnknownKeepsRestaurant(t *testing.T) {
	t.Parallel()

	cart := Cart{Restaurant: &RestaurantRef{ID: "r1"}, Entries: []CartEntry{{ID: "a", Quantity: 1}}}
	assert.False(t, cart.Remove("missing"))
	assert.False(t, cart.SetQuantity("missing", 3))
	require.NotNil(t, cart.Restaurant)
	assert.Equal(t, "r1", cart.Restaurant.ID)
}

func TestCartCloneIsIndependent(t *testing.T) {
	t.Parallel()

	cart := Cart{Restaurant: &RestaurantRef{ID: "r1"}, Entries: []CartEntry{{ID: "a", Quantity: 1}}}
	clone := cart.Clone()
	clone.Entries[0].Quantity = 9
	clone.Restaurant.ID = "r2"

	assert.Equal(t, 1, cart.Entries[0].Quantity)
	assert.Equal(t, "r1", cart.Restaurant.ID)
}

func TestRestaurantRefSameAs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		left  RestaurantRef
		right RestaurantRef
		want  bool
	}{
		{name: "same id", left: RestaurantRef{ID: "1", Name: "A"}, right: RestaurantRef{ID: "1", Name: "B"}, want: true},
		{name: "different id", left: RestaurantRef{ID: "1", Name: "A"}, right: RestaurantRef{ID: "2", Name: "A"}, want: false},
		{name: "name fallback", left: RestaurantRef{Name: "Bar Mleczny"}, right: RestaurantRef{ID: "2", Name: " bar mleczny"}, want: true},
		{name: "no names", left: RestaurantRef{ID: "1"}, right: RestaurantRef{}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.left.SameAs(tt.right))
		})
	}
}

func TestNewOrderDraftUsesMinorUnits(t *testing.T) {
	t.Parallel()

	cart := Cart{
		Restaurant: &RestaurantRef{ID: "r1"},
		Entries: []CartEntry{
			{ID: "a", Name: "Zurek", Price: 19.99, Quantity: 2},
			{ID: "b", Name: "Kompot", Price: 0.1, Quantity: 3},
		},
	}

	draft := NewOrderDraft("r1", cart, DeliveryInfo{Address: "Rynek 1"})

	require.Len(t, draft.Lines, 2)
	assert.Equal(t, int64(1999), draft.Lines[0].UnitPrice)
	assert.Equal(t, int64(10), draft.Lines[1].UnitPrice)
	assert.Equal(t, int64(4028), draft.Total)
	assert.Equal(t, "Rynek 1", draft.Delivery.Address)
}
