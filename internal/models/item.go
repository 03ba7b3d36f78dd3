package models

// ItemKind distinguishes the two kinds of recipe vocabulary
type ItemKind string

const (
	KindTag        ItemKind = "tag"
	KindIngredient ItemKind = "ingredient"
)

// Valid reports whether k is a known kind
func (k ItemKind) Valid() bool {
	return k == KindTag || k == KindIngredient
}

// Item is a user-scoped tag or ingredient
type Item struct {
	ID     int64    `json:"id"`
	UserID int64    `json:"-"`
	Kind   ItemKind `json:"-"`
	Name   string   `json:"name"`
}

// ItemRef names an item in a recipe payload
type ItemRef struct {
	Name string `json:"name"`
}
