package models

// User represents a customer. Email is the record key and cannot change
// after creation.
type User struct {
	Email          string   `json:"email"`
	Address        string   `json:"address"`
	Name           string   `json:"name"`
	Password       string   `json:"password,omitempty"` // bcrypt hash; stripped before leaving the service layer
	ShoppingCartID bool     `json:"shoppingCartId"`
	OrdersBackup   []string `json:"ordersBckp"`
}

// Public returns a copy of u without the password hash.
func (u User) Public() User {
	u.Password = ""
	return u
}
