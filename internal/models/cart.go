package models

// CartItem is one line of a shopping cart.
type CartItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qtty  int     `json:"qtty"`
	Total float64 `json:"total"`
}

// ShoppingCart holds at most one line per menu item name. Total is the sum
// of the lines' totals.
type ShoppingCart struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

// CartItems is the items/total projection of a shopping cart.
type CartItems struct {
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

// IndexOf returns the position of the line named name, or -1.
func (c *ShoppingCart) IndexOf(name string) int {
	for i, item := range c.Items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

// Sum recomputes the cart total from its lines.
func (c *ShoppingCart) Sum() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Total
	}
	return total
}
