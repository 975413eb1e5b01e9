package models

// MenuItem is a product that can be added to a shopping cart. Name is the
// record key and cannot change after creation.
type MenuItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// MenuEntry is the listing projection of a MenuItem.
type MenuEntry struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
