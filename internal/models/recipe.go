package models

import "time"

// Recipe represents a user-owned recipe
type Recipe struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TimeMinutes int       `json:"time_minutes"`
	Price       float64   `json:"price"`
	Link        string    `json:"link"`
	Image       string    `json:"image"`
	Tags        []Item    `json:"tags"`
	Ingredients []Item    `json:"ingredients"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// RecipeSummary is the list view of a recipe
type RecipeSummary struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Link        string  `json:"link"`
	Tags        []Item  `json:"tags"`
	Ingredients []Item  `json:"ingredients"`
}

// Summary returns the list view of r
func (r *Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        nonNil(r.Tags),
		Ingredients: nonNil(r.Ingredients),
	}
}

// RecipeInput is the writable part of a recipe. Nil fields are absent from
// the request; a non-nil empty Tags or Ingredients slice clears the association.
type RecipeInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	TimeMinutes *int       `json:"time_minutes"`
	Price       *float64   `json:"price"`
	Link        *string    `json:"link"`
	Tags        *[]ItemRef `json:"tags"`
	Ingredients *[]ItemRef `json:"ingredients"`
}

// RecipeFilter narrows a recipe listing. Empty slices do not filter.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipeImage is the response to an image upload
type RecipeImage struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

func nonNil(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	return items
}
