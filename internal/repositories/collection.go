package repositories

import (
	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
)

// Collection names one of the fixed set of record collections.
type Collection uint8

const (
	collectionInvalid Collection = iota
	Menus
	OrderArchive
	PurchaseOrders
	ShoppingCarts
	Users
	Tokens
)

// collectionPaths is the on-disk (or on-bucket) folder of each collection.
var collectionPaths = [...]string{
	Menus:          "menus",
	OrderArchive:   "oarc",
	PurchaseOrders: "purchaseOrders",
	ShoppingCarts:  "shoppingCarts",
	Users:          "users",
	Tokens:         "tokens",
}

// Collections returns every known collection.
func Collections() []Collection {
	return []Collection{Menus, OrderArchive, PurchaseOrders, ShoppingCarts, Users, Tokens}
}

// ParseCollection looks a collection up by its folder name.
func ParseCollection(name string) (Collection, error) {
	for _, c := range Collections() {
		if collectionPaths[c] == name {
			return c, nil
		}
	}
	return collectionInvalid, apperr.Errorf(apperr.InvalidArgument, "repositories.collection", "invalid entity %q", name)
}

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	return c > collectionInvalid && int(c) < len(collectionPaths)
}

func (c Collection) String() string {
	if !c.Valid() {
		return "invalid"
	}
	return collectionPaths[c]
}
