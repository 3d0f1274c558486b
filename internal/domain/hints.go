package domain

import "strings"

type Panel string

const (
	PanelRestaurants Panel = "restaurants"
	PanelMenu        Panel = "menu"
	PanelKDS         Panel = "kds"
	PanelBusiness    Panel = "business"
	PanelNone        Panel = "none"
)

// UIHints selects the panel to show after an exchange. It replaces the previous hints wholesale.
type UIHints struct {
	Panel        Panel
	RestaurantID string
}

var (
	kdsIntentKeywords      = []string{"kds", "kitchen", "kuchnia"}
	businessIntentKeywords = []string{"business", "stats", "dashboard", "biznes"}
)

// DeriveUIHints maps a brain response to a panel. First match wins:
// restaurants, menu, business payloads, then intent keywords.
func DeriveUIHints(resp BrainResponse) UIHints {
	if len(resp.Restaurants) > 0 {
		return UIHints{Panel: PanelRestaurants}
	}

	if len(resp.MenuItems) > 0 {
		return UIHints{Panel: PanelMenu, RestaurantID: currentRestaurantID(resp)}
	}

	if resp.BusinessStats != nil || resp.Orders != nil {
		return UIHints{Panel: PanelBusiness}
	}

	intent := strings.ToLower(strings.TrimSpace(resp.Intent))
	if intent != "" {
		if containsAny(intent, kdsIntentKeywords) {
			return UIHints{Panel: PanelKDS}
		}
		if containsAny(intent, businessIntentKeywords) {
			return UIHints{Panel: PanelBusiness}
		}
	}

	return UIHints{Panel: PanelNone}
}

func currentRestaurantID(resp BrainResponse) string {
	if current := resp.Context.CurrentRestaurant; current != nil && current.ID != "" {
		return current.ID
	}
	for _, item := range resp.MenuItems {
		if item.RestaurantID != "" {
			return item.RestaurantID
		}
	}
	return ""
}

func containsAny(value string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(value, keyword) {
			return true
		}
	}
	return false
}
