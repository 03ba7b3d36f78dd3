package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Dan9191/recipe-service/internal/models"
	"github.com/Dan9191/recipe-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func refs(names ...string) *[]models.ItemRef {
	out := make([]models.ItemRef, len(names))
	for i, n := range names {
		out[i] = models.ItemRef{Name: n}
	}
	return &out
}

func sampleInput(title string) models.RecipeInput {
	return models.RecipeInput{
		Title:       strPtr(title),
		TimeMinutes: intPtr(22),
		Price:       floatPtr(5.25),
	}
}

func names(items []models.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func TestRecipes_RequireAuthentication(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.ListRecipes(ctx, models.RecipeFilter{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.CreateRecipe(ctx, sampleInput("x"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, s.DeleteRecipe(ctx, 1), ErrUnauthorized)
}

func TestCreateRecipe(t *testing.T) {
	s, _ := newTestService(t)
	ctx := signedIn(t, s, "cook@example.com")

	in := sampleInput("Thai Prawn Curry")
	in.Description = strPtr("Spicy")
	in.Link = strPtr("https://example.com/curry")
	in.Tags = refs("Thai", "Dinner", "Thai")
	in.Ingredients = refs("Prawns", "Ginger")

	recipe, err := s.CreateRecipe(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, recipe.ID)
	assert.Equal(t, "Thai Prawn Curry", recipe.Title)
	assert.Equal(t, 22, recipe.TimeMinutes)
	assert.Equal(t, 5.25, recipe.Price)
	assert.Equal(t, "Spicy", recipe.Description)
	assert.ElementsMatch(t, []string{"Thai", "Dinner"}, names(recipe.Tags))
	assert.ElementsMatch(t, []string{"Prawns", "Ginger"}, names(recipe.Ingredients))

	// the same names resolve to the same items
	second := sampleInput("Pad Thai")
	second.Tags = refs("Thai")
	other, err := s.CreateRecipe(ctx, second)
	require.NoError(t, err)
	require.Len(t, other.Tags, 1)
	for _, tag := range recipe.Tags {
		if tag.Name == "Thai" {
			assert.Equal(t, tag.ID, other.Tags[0].ID)
		}
	}
	assert.Empty(t, other.Ingredients)
	assert.NotNil(t, other.Ingredients)

	tags, err := s.ListItems(ctx, models.KindTag, false)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestCreateRecipe_Validation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := signedIn(t, s, "cook@example.com")

	tests := []struct {
		name  string
		in    func() models.RecipeInput
		field string
	}{
		{"missing title", func() models.RecipeInput { in := sampleInput(""); in.Title = nil; return in }, "title"},
		{"blank title", func() models.RecipeInput { return sampleInput("   ") }, "title"},
		{"long title", func() models.RecipeInput { return sampleInput(strings.Repeat("a", 256)) }, "title"},
		{"long multibyte title", func() models.RecipeInput { return sampleInput(strings.Repeat("é", 256)) }, "title"},
		{"long link", func() models.RecipeInput { in := sampleInput("x"); in.Link = strPtr(strings.Repeat("ü", 256)); return in }, "link"},
		{"long tag", func() models.RecipeInput { in := sampleInput("x"); in.Tags = refs(strings.Repeat("ß", 256)); return in }, "tags"},
		{"missing time", func() models.RecipeInput { in := sampleInput("x"); in.TimeMinutes = nil; return in }, "time_minutes"},
		{"negative time", func() models.RecipeInput { in := sampleInput("x"); in.TimeMinutes = intPtr(-1); return in }, "time_minutes"},
		{"missing price", func() models.RecipeInput { in := sampleInput("x"); in.Price = nil; return in }, "price"},
		{"negative price", func() models.RecipeInput { in := sampleInput("x"); in.Price = floatPtr(-1); return in }, "price"},
		{"price too large", func() models.RecipeInput { in := sampleInput("x"); in.Price = floatPtr(1000); return in }, "price"},
		{"price precision", func() models.RecipeInput { in := sampleInput("x"); in.Price = floatPtr(1.234); return in }, "price"},
		{"blank tag", func() models.RecipeInput { in := sampleInput("x"); in.Tags = refs(" "); return in }, "tags"},
		{"blank ingredient", func() models.RecipeInput { in := sampleInput("x"); in.Ingredients = refs(""); return in }, "ingredients"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateRecipe(ctx, tt.in())
			requireField(t, err, tt.field)
		})
	}

	recipes, err := s.ListRecipes(ctx, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestCreateRecipe_CountsCharacters(t *testing.T) {
	s, _ := newTestService(t)
	ctx := signedIn(t, s, "cook@example.com")

	title := strings.Repeat("é", 200)
	tag := strings.Repeat("ü", 255)
	in := sampleInput(title)
	in.Link = strPtr(strings.Repeat("ß", 255))
	in.Tags = refs(tag)
	in.Ingredients = refs(strings.Repeat("ñ", 255))

	recipe, err := s.CreateRecipe(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, title, recipe.Title)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, tag, recipe.Tags[0].Name)
	require.Len(t, recipe.Ingredients, 1)
}

func TestUpdateRecipe(t *testing.T) {
	s, _ := newTestService(t)
	ctx := signedIn(t, s, "cook@example.com")

	in := sampleInput("Curry")
	in.Link = strPtr("https://example.com/curry")
	in.Tags = refs("Dinner")
	in.Ingredients = refs("Rice", "Lentils")
	recipe, err := s.CreateRecipe(ctx, in)
	require.NoError(t, err)

	patched, err := s.UpdateRecipe(ctx, recipe.ID, models.RecipeInput{Title: strPtr("New Curry"), Tags: refs("Lunch")}, true)
	require.NoError(t, err)
	assert.Equal(t, "New Curry", patched.Title)
	assert.Equal(t, "https://example.com/curry", patched.Link)
	assert.Equal(t, []string{"Lunch"}, names(patched.Tags))
	assert.ElementsMatch(t, []string{"Rice", "Lentils"}, names(patched.Ingredients))

	_, err = s.UpdateRecipe(ctx, recipe.ID, models.RecipeInput{Title: strPtr("Only title")}, false)
	requireField(t, err, "time_minutes")

	full := sampleInput("Spaghetti")
	full.Ingredients = refs()
	put, err := s.UpdateRecipe(ctx, recipe.ID, full, false)
	require.NoError(t, err)
	assert.Equal(t, "Spaghetti", put.Title)
	assert.Empty(t, put.Ingredients)
	assert.Equal(t, []string{"Lunch"}, names(put.Tags))

	_, err = s.UpdateRecipe(ctx, recipe.ID+1000, sampleInput("x"), false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecipes_ScopedToOwner(t *testing.T) {
	s, _ := newTestService(t, WithImages(newFakeImages()))
	alice := signedIn(t, s, "alice@example.com")
	bob := signedIn(t, s, "bob@example.com")

	in := sampleInput("Private")
	in.Tags = refs("Secret")
	recipe, err := s.CreateRecipe(alice, in)
	require.NoError(t, err)

	list, err := s.ListRecipes(bob, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.GetRecipe(bob, recipe.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateRecipe(bob, recipe.ID, models.RecipeInput{Title: strPtr("Mine")}, true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteRecipe(bob, recipe.ID), ErrNotFound)
	_, err = s.UploadImage(bob, recipe.ID, bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrNotFound)

	// the same tag name in another account is a separate item
	bobIn := sampleInput("Bob's")
	bobIn.Tags = refs("Secret")
	bobRecipe, err := s.CreateRecipe(bob, bobIn)
	require.NoError(t, err)
	assert.NotEqual(t, recipe.Tags[0].ID, bobRecipe.Tags[0].ID)

	got, err := s.GetRecipe(alice, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)
}

func TestListRecipes_Filter(t *testing.T) {
	s, _ := newTestService(t)
	ctx := signedIn(t, s, "cook@example.com")

	create := func(title string, tags, ingredients *[]models.ItemRef) *models.Recipe {
		in := sampleInput(title)
		in.Tags, in.Ingredients = tags, ingredients
		r, err := s.CreateRecipe(ctx, in)
		require.NoError(t, err)
		return r
	}
	curry := create("Curry", refs("Vegan"), refs("Chickpeas"))
	tahini := create("Tahini", refs("Vegetarian"), refs("Sesame"))
	create("Fish", nil, refs("Cod"))

	all, err := s.ListRecipes(ctx, models.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Fish", all[0].Title, "newest first")

	got, err := s.ListRecipes(ctx, models.RecipeFilter{TagIDs: []int64{curry.Tags[0].ID, tahini.Tags[0].ID}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Tahini", got[0].Title)
	assert.Equal(t, "Curry", got[1].Title)

	got, err = s.ListRecipes(ctx, models.RecipeFilter{
		TagIDs:        []int64{curry.Tags[0].ID, tahini.Tags[0].ID},
		IngredientIDs: []int64{tahini.Ingredients[0].ID},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tahini", got[0].Title)
}

func TestUploadImage(t *testing.T) {
	images := newFakeImages()
	s, store := newTestService(t, WithImages(images))
	ctx := signedIn(t, s, "cook@example.com")

	recipe, err := s.CreateRecipe(ctx, sampleInput("Curry"))
	require.NoError(t, err)

	first, err := s.UploadImage(ctx, recipe.ID, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, first.ID)
	assert.True(t, strings.HasPrefix(first.Image, "http://media.test/"+utils.RecipeImageDir+"/"), first.Image)
	assert.True(t, strings.HasSuffix(first.Image, ".png"))
	require.Len(t, images.saved, 1)

	got, err := s.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Image, got.Image)

	second, err := s.UploadImage(ctx, recipe.ID, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.NotEqual(t, first.Image, second.Image)
	require.Len(t, images.saved, 1, "the replaced image is removed")
	assert.Equal(t, []string{strings.TrimPrefix(first.Image, "http://media.test/")}, images.deleted)

	refsInUse, err := store.ListImages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{strings.TrimPrefix(second.Image, "http://media.test/")}, refsInUse)

	_, err = s.UploadImage(ctx, recipe.ID, strings.NewReader("notimage"))
	requireField(t, err, "image")
	_, err = s.UploadImage(ctx, recipe.ID, bytes.NewReader(nil))
	requireField(t, err, "image")
	assert.Len(t, images.saved, 1)

	_, err = s.UploadImage(ctx, recipe.ID+1000, bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadImage_NoStore(t *testing.T) {
	s, _ := newTestService(t)
	ctx := signedIn(t, s, "cook@example.com")
	recipe, err := s.CreateRecipe(ctx, sampleInput("Curry"))
	require.NoError(t, err)

	_, err = s.UploadImage(ctx, recipe.ID, bytes.NewReader(pngHeader))
	assert.Error(t, err)
}
