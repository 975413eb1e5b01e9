package models

// PurchaseOrder is the paid snapshot of a shopping cart. It is written once
// and never updated.
type PurchaseOrder struct {
	ID                string     `json:"id"`
	ShoppingCartID    string     `json:"shoppingCartId"` // the owner's email
	Items             []CartItem `json:"items"`
	Total             float64    `json:"total"`
	Currency          string     `json:"currency"`
	Authorization     bool       `json:"authorization"`
	AuthorizationID   string     `json:"authorizationId,omitempty"`
	AuthorizationDate string     `json:"authorizationDate"`
	PaymentMethod     string     `json:"paymentMethod"` // card brand
	Object            string     `json:"object,omitempty"`
	Last4             string     `json:"last4,omitempty"`
	Country           string     `json:"country,omitempty"`
}
