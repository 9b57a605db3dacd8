package models

// Product represents a food product available for order.
// Prices are integer amounts in the currency minor unit.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BasePrice int64           `json:"basePrice"`
	Sizes     []SizeVariation `json:"sizes"`
	Category  string          `json:"category"`
	Toppings  []Topping       `json:"toppings"`
	Available bool            `json:"available"`
}

// SizeVariation is one selectable size of a product, priced as a delta over the base price.
type SizeVariation struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceDelta int64  `json:"priceDelta"`
	Available  bool   `json:"available"`
}

// Topping is an attachable extra embedded in a product.
type Topping struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
	Category  string `json:"category,omitempty"`
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Category      string
	AvailableOnly bool
}

// Matches reports whether the product passes the filter.
func (f ProductFilter) Matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.AvailableOnly && !p.Available {
		return false
	}
	return true
}

// Size returns the size variation with the given id.
func (p Product) Size(id string) (SizeVariation, bool) {
	for _, s := range p.Sizes {
		if s.ID == id {
			return s, true
		}
	}
	return SizeVariation{}, false
}

// Topping returns the embedded topping with the given id.
func (p Product) Topping(id string) (Topping, bool) {
	for _, t := range p.Toppings {
		if t.ID == id {
			return t, true
		}
	}
	return Topping{}, false
}

// AvailableSizeIDs lists the ids of sizes that can currently be ordered, in catalog order.
func (p Product) AvailableSizeIDs() []string {
	ids := make([]string, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		if s.Available {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
