package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/Dan9191/recipe-service/internal/models"
	"github.com/lib/pq"
)

const recipeColumns = `r.id, r.user_id, r.title, r.description, r.time_minutes, r.price, r.link, r.image, r.created_at, r.updated_at`

// ListRecipes returns the user's recipes, newest first, narrowed by filter
func (r *Repository) ListRecipes(ctx context.Context, userID int64, filter models.RecipeFilter) ([]models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM core.recipes r WHERE r.user_id = $1`
	args := []any{userID}
	if len(filter.TagIDs) > 0 {
		args = append(args, pq.Array(filter.TagIDs))
		query += ` AND r.id IN (SELECT recipe_id FROM core.recipe_tags WHERE tag_id = ANY($` + strconv.Itoa(len(args)) + `))`
	}
	if len(filter.IngredientIDs) > 0 {
		args = append(args, pq.Array(filter.IngredientIDs))
		query += ` AND r.id IN (SELECT recipe_id FROM core.recipe_ingredients WHERE ingredient_id = ANY($` + strconv.Itoa(len(args)) + `))`
	}
	query += ` ORDER BY r.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		var recipe models.Recipe
		if err := scanRecipe(rows, &recipe); err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	if err := attachItems(ctx, r.db, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetRecipe returns one of the user's recipes
func (r *Repository) GetRecipe(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM core.recipes r WHERE r.id = $1 AND r.user_id = $2`
	var recipe models.Recipe
	if err := scanRecipe(r.db.QueryRowContext(ctx, query, id, userID), &recipe); err != nil {
		return nil, err
	}

	recipes := []models.Recipe{recipe}
	if err := attachItems(ctx, r.db, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// CreateRecipe inserts a recipe and resolves its tags and ingredients by name
func (r *Repository) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO core.recipes (user_id, title, description, time_minutes, price, link, image, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query,
			recipe.UserID, recipe.Title, recipe.Description, recipe.TimeMinutes, recipe.Price, recipe.Link, recipe.Image).
			Scan(&recipe.ID, &recipe.CreatedAt, &recipe.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}

		if recipe.Tags, err = replaceItems(ctx, tx, models.KindTag, recipe, recipe.Tags); err != nil {
			return err
		}
		recipe.Ingredients, err = replaceItems(ctx, tx, models.KindIngredient, recipe, recipe.Ingredients)
		return err
	})
}

// UpdateRecipe saves the recipe's fields. Tags and ingredients are rebuilt
// from their names only when the matching replace flag is set.
func (r *Repository) UpdateRecipe(ctx context.Context, recipe *models.Recipe, replaceTags, replaceIngredients bool) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE core.recipes
			SET title = $1, description = $2, time_minutes = $3, price = $4, link = $5, updated_at = CURRENT_TIMESTAMP
			WHERE id = $6 AND user_id = $7
			RETURNING updated_at`
		err := tx.QueryRowContext(ctx, query,
			recipe.Title, recipe.Description, recipe.TimeMinutes, recipe.Price, recipe.Link, recipe.ID, recipe.UserID).
			Scan(&recipe.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("recipe %d: %w", recipe.ID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}

		if replaceTags {
			if recipe.Tags, err = replaceItems(ctx, tx, models.KindTag, recipe, recipe.Tags); err != nil {
				return err
			}
		}
		if replaceIngredients {
			if recipe.Ingredients, err = replaceItems(ctx, tx, models.KindIngredient, recipe, recipe.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRecipe deletes one of the user's recipes
func (r *Repository) DeleteRecipe(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM core.recipes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return expectAffected(res, "recipe")
}

// SetRecipeImage stores a new image key on the user's recipe and returns the previous one
func (r *Repository) SetRecipeImage(ctx context.Context, userID, id int64, image string) (string, error) {
	query := `
		UPDATE core.recipes r
		SET image = $1, updated_at = CURRENT_TIMESTAMP
		FROM (SELECT id, image FROM core.recipes WHERE id = $2 AND user_id = $3 FOR UPDATE) old
		WHERE r.id = old.id
		RETURNING old.image`
	var previous string
	err := r.db.QueryRowContext(ctx, query, image, id, userID).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to set recipe image: %w", err)
	}
	return previous, nil
}

// ListImages returns every image key referenced by any recipe
func (r *Repository) ListImages(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT image FROM core.recipes WHERE image <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []string
	for rows.Next() {
		var image string
		if err := rows.Scan(&image); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner, recipe *models.Recipe) error {
	err := row.Scan(&recipe.ID, &recipe.UserID, &recipe.Title, &recipe.Description, &recipe.TimeMinutes,
		&recipe.Price, &recipe.Link, &recipe.Image, &recipe.CreatedAt, &recipe.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("recipe: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to scan recipe: %w", err)
	}
	return nil
}

func replaceItems(ctx context.Context, q querier, kind models.ItemKind, recipe *models.Recipe, refs []models.Item) ([]models.Item, error) {
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
	}
	items, err := getOrCreateItems(ctx, q, kind, recipe.UserID, names)
	if err != nil {
		return nil, err
	}
	if err := linkItems(ctx, q, kind, recipe.ID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func attachItems(ctx context.Context, q querier, recipes []models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
	}

	tags, err := loadItems(ctx, q, models.KindTag, ids)
	if err != nil {
		return err
	}
	ingredients, err := loadItems(ctx, q, models.KindIngredient, ids)
	if err != nil {
		return err
	}
	for i := range recipes {
		recipes[i].Tags = tags[recipes[i].ID]
		recipes[i].Ingredients = ingredients[recipes[i].ID]
	}
	return nil
}
