package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/recipe-service/internal/models"
	"github.com/lib/pq"
)

// itemTables names the storage of one vocabulary kind
type itemTables struct {
	table  string // core.tags
	link   string // core.recipe_tags
	column string // tag_id
}

var tablesByKind = map[models.ItemKind]itemTables{
	models.KindTag:        {table: "core.tags", link: "core.recipe_tags", column: "tag_id"},
	models.KindIngredient: {table: "core.ingredients", link: "core.recipe_ingredients", column: "ingredient_id"},
}

func tablesFor(kind models.ItemKind) (itemTables, error) {
	t, ok := tablesByKind[kind]
	if !ok {
		return itemTables{}, fmt.Errorf("unknown item kind %q", kind)
	}
	return t, nil
}

// ListItems returns the user's items of a kind ordered by name descending.
// With assignedOnly, only items linked to at least one recipe are returned.
func (r *Repository) ListItems(ctx context.Context, kind models.ItemKind, userID int64, assignedOnly bool) ([]models.Item, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	query := `SELECT i.id, i.name FROM ` + t.table + ` i WHERE i.user_id = $1`
	if assignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM ` + t.link + ` l WHERE l.` + t.column + ` = i.id)`
	}
	query += ` ORDER BY i.name DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item := models.Item{UserID: userID, Kind: kind}
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	return items, nil
}

// getOrCreateItems resolves names to the user's items of a kind, creating the
// missing ones. Repeated names resolve to the same item.
func getOrCreateItems(ctx context.Context, q querier, kind models.ItemKind, userID int64, names []string) ([]models.Item, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO ` + t.table + ` (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	items := make([]models.Item, 0, len(names))
	for _, name := range dedupe(names) {
		item := models.Item{UserID: userID, Kind: kind, Name: name}
		if err := q.QueryRowContext(ctx, query, userID, name).Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("failed to get or create %s %q: %w", kind, name, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// UpdateItem renames one of the user's items
func (r *Repository) UpdateItem(ctx context.Context, item *models.Item) error {
	t, err := tablesFor(item.Kind)
	if err != nil {
		return err
	}

	query := `UPDATE ` + t.table + ` SET name = $1 WHERE id = $2 AND user_id = $3`
	res, err := r.db.ExecContext(ctx, query, item.Name, item.ID, item.UserID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %q: %w", item.Kind, item.Name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", item.Kind, err)
	}
	return expectAffected(res, string(item.Kind))
}

// DeleteItem deletes one of the user's items along with its recipe links
func (r *Repository) DeleteItem(ctx context.Context, kind models.ItemKind, userID, id int64) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM `+t.table+` WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return expectAffected(res, string(kind))
}

// linkItems replaces the recipe's links of a kind with items
func linkItems(ctx context.Context, q querier, kind models.ItemKind, recipeID int64, items []models.Item) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM `+t.link+` WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("failed to clear %ss: %w", kind, err)
	}
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	query := `
		INSERT INTO ` + t.link + ` (recipe_id, ` + t.column + `)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`
	if _, err := q.ExecContext(ctx, query, recipeID, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to link %ss: %w", kind, err)
	}
	return nil
}

// loadItems returns the items of a kind linked to each recipe
func loadItems(ctx context.Context, q querier, kind models.ItemKind, recipeIDs []int64) (map[int64][]models.Item, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT l.recipe_id, i.id, i.user_id, i.name
		FROM ` + t.link + ` l
		JOIN ` + t.table + ` i ON i.id = l.` + t.column + `
		WHERE l.recipe_id = ANY($1)
		ORDER BY i.name`
	rows, err := q.QueryContext(ctx, query, pq.Array(recipeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load %ss: %w", kind, err)
	}
	defer rows.Close()

	byRecipe := make(map[int64][]models.Item)
	for rows.Next() {
		var recipeID int64
		item := models.Item{Kind: kind}
		if err := rows.Scan(&recipeID, &item.ID, &item.UserID, &item.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		byRecipe[recipeID] = append(byRecipe[recipeID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load %ss: %w", kind, err)
	}
	return byRecipe, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
