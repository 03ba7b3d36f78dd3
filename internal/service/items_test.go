package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Dan9191/recipe-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItems(t *testing.T) {
	for _, kind := range []models.ItemKind{models.KindTag, models.KindIngredient} {
		t.Run(string(kind), func(t *testing.T) {
			s, _ := newTestService(t)
			ctx := signedIn(t, s, "cook@example.com")
			other := signedIn(t, s, "other@example.com")

			in := sampleInput("Porridge")
			if kind == models.KindTag {
				in.Tags = refs("Breakfast", "Dessert")
			} else {
				in.Ingredients = refs("Oats", "Kale")
			}
			recipe, err := s.CreateRecipe(ctx, in)
			require.NoError(t, err)

			items, err := s.ListItems(ctx, kind, false)
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Greater(t, items[0].Name, items[1].Name, "ordered by name descending")

			// detach the second item so assigned_only has something to drop
			keep := items[0].Name
			patch := models.RecipeInput{}
			if kind == models.KindTag {
				patch.Tags = refs(keep)
			} else {
				patch.Ingredients = refs(keep)
			}
			_, err = s.UpdateRecipe(ctx, recipe.ID, patch, true)
			require.NoError(t, err)

			assigned, err := s.ListItems(ctx, kind, true)
			require.NoError(t, err)
			require.Len(t, assigned, 1)
			assert.Equal(t, keep, assigned[0].Name)

			unassigned := items[1]

			_, err = s.UpdateItem(ctx, kind, unassigned.ID, "  ")
			requireField(t, err, "name")
			_, err = s.UpdateItem(ctx, kind, unassigned.ID, keep)
			requireField(t, err, "name")
			_, err = s.UpdateItem(other, kind, unassigned.ID, "Stolen")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.UpdateItem(ctx, kind, unassigned.ID, strings.Repeat("ö", 256))
			requireField(t, err, "name")
			wide, err := s.UpdateItem(ctx, kind, unassigned.ID, strings.Repeat("ö", 255))
			require.NoError(t, err)
			assert.Equal(t, strings.Repeat("ö", 255), wide.Name)

			renamed, err := s.UpdateItem(ctx, kind, unassigned.ID, " Renamed ")
			require.NoError(t, err)
			assert.Equal(t, "Renamed", renamed.Name)
			assert.Equal(t, unassigned.ID, renamed.ID)

			otherItems, err := s.ListItems(other, kind, false)
			require.NoError(t, err)
			assert.Empty(t, otherItems)

			assert.ErrorIs(t, s.DeleteItem(other, kind, assigned[0].ID), ErrNotFound)
			require.NoError(t, s.DeleteItem(ctx, kind, assigned[0].ID))
			assert.ErrorIs(t, s.DeleteItem(ctx, kind, assigned[0].ID), ErrNotFound)

			got, err := s.GetRecipe(ctx, recipe.ID)
			require.NoError(t, err)
			assert.Empty(t, got.Tags)
			assert.Empty(t, got.Ingredients)
		})
	}
}

func TestItems_UnknownKind(t *testing.T) {
	s, _ := newTestService(t)
	ctx := signedIn(t, s, "cook@example.com")

	_, err := s.ListItems(ctx, models.ItemKind("spice"), false)
	assert.Error(t, err)
	_, err = s.ListItems(context.Background(), models.KindTag, false)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
