package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/recipe-service/internal/models"
)

// Memory is an in-process store with the same ownership rules as Repository.
// It backs `serve --memory` and the service and handler tests.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]models.User
	recipes map[int64]models.Recipe
	items   map[models.ItemKind]map[int64]models.Item
	links   map[models.ItemKind]map[int64][]int64 // recipe id -> item ids
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[int64]models.User),
		recipes: make(map[int64]models.Recipe),
		items: map[models.ItemKind]map[int64]models.Item{
			models.KindTag:        {},
			models.KindIngredient: {},
		},
		links: map[models.ItemKind]map[int64][]int64{
			models.KindTag:        {},
			models.KindIngredient: {},
		},
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// Ping always succeeds
func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
	}
	user.ID = m.id()
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", ErrNotFound)
}

func (m *Memory) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	return &u, nil
}

func (m *Memory) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
	}
	updated := *user
	updated.CreatedAt = existing.CreatedAt
	updated.LastLogin = existing.LastLogin
	m.users[user.ID] = updated
	return nil
}

func (m *Memory) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	u.LastLogin = &at
	m.users[id] = u
	return nil
}

func (m *Memory) ListRecipes(_ context.Context, userID int64, filter models.RecipeFilter) ([]models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recipes := []models.Recipe{}
	for _, r := range m.recipes {
		if r.UserID != userID {
			continue
		}
		if len(filter.TagIDs) > 0 && !intersects(m.links[models.KindTag][r.ID], filter.TagIDs) {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !intersects(m.links[models.KindIngredient][r.ID], filter.IngredientIDs) {
			continue
		}
		recipes = append(recipes, m.withItems(r))
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID > recipes[j].ID })
	return recipes, nil
}

func (m *Memory) GetRecipe(_ context.Context, userID, id int64) (*models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recipes[id]
	if !ok || r.UserID != userID {
		return nil, fmt.Errorf("recipe: %w", ErrNotFound)
	}
	r = m.withItems(r)
	return &r, nil
}

func (m *Memory) CreateRecipe(_ context.Context, recipe *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	recipe.ID = m.id()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now
	recipe.Tags = m.replaceLinks(models.KindTag, recipe.UserID, recipe.ID, recipe.Tags)
	recipe.Ingredients = m.replaceLinks(models.KindIngredient, recipe.UserID, recipe.ID, recipe.Ingredients)

	stored := *recipe
	stored.Tags, stored.Ingredients = nil, nil
	m.recipes[recipe.ID] = stored
	return nil
}

func (m *Memory) UpdateRecipe(_ context.Context, recipe *models.Recipe, replaceTags, replaceIngredients bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.recipes[recipe.ID]
	if !ok || existing.UserID != recipe.UserID {
		return fmt.Errorf("recipe %d: %w", recipe.ID, ErrNotFound)
	}
	existing.Title = recipe.Title
	existing.Description = recipe.Description
	existing.TimeMinutes = recipe.TimeMinutes
	existing.Price = recipe.Price
	existing.Link = recipe.Link
	existing.UpdatedAt = time.Now()
	m.recipes[recipe.ID] = existing
	recipe.UpdatedAt = existing.UpdatedAt

	if replaceTags {
		recipe.Tags = m.replaceLinks(models.KindTag, recipe.UserID, recipe.ID, recipe.Tags)
	}
	if replaceIngredients {
		recipe.Ingredients = m.replaceLinks(models.KindIngredient, recipe.UserID, recipe.ID, recipe.Ingredients)
	}
	return nil
}

func (m *Memory) DeleteRecipe(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[id]
	if !ok || r.UserID != userID {
		return fmt.Errorf("recipe: %w", ErrNotFound)
	}
	delete(m.recipes, id)
	for _, links := range m.links {
		delete(links, id)
	}
	return nil
}

func (m *Memory) SetRecipeImage(_ context.Context, userID, id int64, image string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[id]
	if !ok || r.UserID != userID {
		return "", fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	previous := r.Image
	r.Image = image
	r.UpdatedAt = time.Now()
	m.recipes[id] = r
	return previous, nil
}

func (m *Memory) ListImages(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	var images []string
	for _, r := range m.recipes {
		if r.Image == "" {
			continue
		}
		if _, ok := seen[r.Image]; !ok {
			seen[r.Image] = struct{}{}
			images = append(images, r.Image)
		}
	}
	return images, nil
}

func (m *Memory) ListItems(_ context.Context, kind models.ItemKind, userID int64, assignedOnly bool) ([]models.Item, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	assigned := make(map[int64]bool)
	for _, ids := range m.links[kind] {
		for _, id := range ids {
			assigned[id] = true
		}
	}

	items := []models.Item{}
	for _, item := range m.items[kind] {
		if item.UserID != userID || (assignedOnly && !assigned[item.ID]) {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name > items[j].Name })
	return items, nil
}

func (m *Memory) UpdateItem(_ context.Context, item *models.Item) error {
	if !item.Kind.Valid() {
		return fmt.Errorf("unknown item kind %q", item.Kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.items[item.Kind][item.ID]
	if !ok || existing.UserID != item.UserID {
		return fmt.Errorf("%s: %w", item.Kind, ErrNotFound)
	}
	for _, other := range m.items[item.Kind] {
		if other.ID != item.ID && other.UserID == item.UserID && other.Name == item.Name {
			return fmt.Errorf("%s %q: %w", item.Kind, item.Name, ErrDuplicate)
		}
	}
	existing.Name = item.Name
	m.items[item.Kind][item.ID] = existing
	return nil
}

func (m *Memory) DeleteItem(_ context.Context, kind models.ItemKind, userID, id int64) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown item kind %q", kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.items[kind][id]
	if !ok || existing.UserID != userID {
		return fmt.Errorf("%s: %w", kind, ErrNotFound)
	}
	delete(m.items[kind], id)
	for recipeID, ids := range m.links[kind] {
		m.links[kind][recipeID] = without(ids, id)
	}
	return nil
}

// getOrCreate must be called with the write lock held
func (m *Memory) getOrCreate(kind models.ItemKind, userID int64, names []string) []models.Item {
	items := make([]models.Item, 0, len(names))
	for _, name := range dedupe(names) {
		var found *models.Item
		for _, item := range m.items[kind] {
			if item.UserID == userID && item.Name == name {
				found = &item
				break
			}
		}
		if found == nil {
			item := models.Item{ID: m.id(), UserID: userID, Kind: kind, Name: name}
			m.items[kind][item.ID] = item
			found = &item
		}
		items = append(items, *found)
	}
	return items
}

// replaceLinks must be called with the write lock held
func (m *Memory) replaceLinks(kind models.ItemKind, userID, recipeID int64, refs []models.Item) []models.Item {
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
	}
	items := m.getOrCreate(kind, userID, names)
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	m.links[kind][recipeID] = ids
	return items
}

// withItems must be called with at least the read lock held
func (m *Memory) withItems(r models.Recipe) models.Recipe {
	r.Tags = m.linked(models.KindTag, r.ID)
	r.Ingredients = m.linked(models.KindIngredient, r.ID)
	return r
}

func (m *Memory) linked(kind models.ItemKind, recipeID int64) []models.Item {
	var items []models.Item
	for _, id := range m.links[kind][recipeID] {
		if item, ok := m.items[kind][id]; ok {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return strings.Compare(items[i].Name, items[j].Name) < 0 })
	return items
}

func intersects(have, want []int64) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func without(ids []int64, drop int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
