package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Dan9191/recipe-service/internal/models"
	"github.com/Dan9191/recipe-service/internal/repository"
	"github.com/Dan9191/recipe-service/internal/utils"
)

const maxPrice = 1000 // NUMERIC(5, 2)

// ListRecipes returns the caller's recipes, newest first
func (s *Service) ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error) {
	userID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	recipes, err := s.store.ListRecipes(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		s.present(&recipes[i])
	}
	return recipes, nil
}

// GetRecipe returns one of the caller's recipes
func (s *Service) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	userID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	recipe, err := s.store.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, storeErr(err)
	}
	s.present(recipe)
	return recipe, nil
}

// CreateRecipe stores a new recipe owned by the caller. Tags and ingredients
// are resolved by name within the caller's vocabulary.
func (s *Service) CreateRecipe(ctx context.Context, in models.RecipeInput) (*models.Recipe, error) {
	userID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRecipeFields(in); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{UserID: userID}
	if err := applyRecipeInput(recipe, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		return nil, err
	}

	s.log.Infof("Recipe %d created for user %d", recipe.ID, userID)
	s.present(recipe)
	return recipe, nil
}

// UpdateRecipe changes one of the caller's recipes. A full update requires
// the same fields as creation. Present tag or ingredient lists replace the
// current ones, absent lists are kept.
func (s *Service) UpdateRecipe(ctx context.Context, id int64, in models.RecipeInput, partial bool) (*models.Recipe, error) {
	userID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if !partial {
		if err := requireRecipeFields(in); err != nil {
			return nil, err
		}
	}

	recipe, err := s.store.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := applyRecipeInput(recipe, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRecipe(ctx, recipe, in.Tags != nil, in.Ingredients != nil); err != nil {
		return nil, storeErr(err)
	}

	s.log.Infof("Recipe %d updated for user %d", recipe.ID, userID)
	return s.GetRecipe(ctx, id)
}

// DeleteRecipe removes one of the caller's recipes
func (s *Service) DeleteRecipe(ctx context.Context, id int64) error {
	userID, err := owner(ctx)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRecipe(ctx, userID, id); err != nil {
		return storeErr(err)
	}
	s.log.Infof("Recipe %d deleted for user %d", id, userID)
	return nil
}

// UploadImage attaches an image to one of the caller's recipes, replacing
// any previous one
func (s *Service) UploadImage(ctx context.Context, id int64, file io.Reader) (*models.RecipeImage, error) {
	userID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}
	if _, err := s.store.GetRecipe(ctx, userID, id); err != nil {
		return nil, storeErr(err)
	}

	br := bufio.NewReaderSize(file, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	contentType, ext, err := utils.DetectImage(head)
	if err != nil {
		return nil, invalid("image", "upload a valid image: "+err.Error())
	}

	key := utils.GenerateRecipeImageKey(ext)
	if err := s.images.Save(ctx, key, br, contentType); err != nil {
		return nil, err
	}

	previous, err := s.store.SetRecipeImage(ctx, userID, id, key)
	if err != nil {
		if delErr := s.images.Delete(ctx, key); delErr != nil {
			s.log.Warnf("Failed to remove unused image %s: %v", key, delErr)
		}
		return nil, storeErr(err)
	}
	if previous != "" {
		if err := s.images.Delete(ctx, previous); err != nil {
			s.log.Warnf("Failed to remove replaced image %s: %v", previous, err)
		}
	}

	s.log.Infof("Image %s uploaded for recipe %d", key, id)
	return &models.RecipeImage{ID: id, Image: s.images.URL(key)}, nil
}

// present prepares a stored recipe for output
func (s *Service) present(recipe *models.Recipe) {
	if recipe.Tags == nil {
		recipe.Tags = []models.Item{}
	}
	if recipe.Ingredients == nil {
		recipe.Ingredients = []models.Item{}
	}
	if recipe.Image != "" && s.images != nil {
		recipe.Image = s.images.URL(recipe.Image)
	}
}

func requireRecipeFields(in models.RecipeInput) error {
	fields := map[string]string{}
	if in.Title == nil {
		fields["title"] = "this field is required"
	}
	if in.TimeMinutes == nil {
		fields["time_minutes"] = "this field is required"
	}
	if in.Price == nil {
		fields["price"] = "this field is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func applyRecipeInput(recipe *models.Recipe, in models.RecipeInput) error {
	fields := map[string]string{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		switch {
		case title == "":
			fields["title"] = "this field may not be blank"
		case tooLong(title):
			fields["title"] = "ensure this field has no more than 255 characters"
		}
		recipe.Title = title
	}
	if in.Description != nil {
		recipe.Description = *in.Description
	}
	if in.TimeMinutes != nil {
		if *in.TimeMinutes < 0 {
			fields["time_minutes"] = "ensure this value is greater than or equal to 0"
		}
		recipe.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		if msg := checkPrice(*in.Price); msg != "" {
			fields["price"] = msg
		}
		recipe.Price = *in.Price
	}
	if in.Link != nil {
		link := strings.TrimSpace(*in.Link)
		if tooLong(link) {
			fields["link"] = "ensure this field has no more than 255 characters"
		}
		recipe.Link = link
	}
	if in.Tags != nil {
		items, msg := itemRefs(*in.Tags)
		if msg != "" {
			fields["tags"] = msg
		}
		recipe.Tags = items
	}
	if in.Ingredients != nil {
		items, msg := itemRefs(*in.Ingredients)
		if msg != "" {
			fields["ingredients"] = msg
		}
		recipe.Ingredients = items
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkPrice(price float64) string {
	switch {
	case math.IsNaN(price) || math.IsInf(price, 0):
		return "a valid number is required"
	case price < 0:
		return "ensure this value is greater than or equal to 0"
	case price >= maxPrice:
		return "ensure that there are no more than 5 digits in total"
	case math.Abs(price*100-math.Round(price*100)) > 1e-6:
		return "ensure that there are no more than 2 decimal places"
	}
	return ""
}

func itemRefs(refs []models.ItemRef) ([]models.Item, string) {
	items := make([]models.Item, 0, len(refs))
	for _, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			return nil, "name may not be blank"
		}
		if tooLong(name) {
			return nil, "name must have no more than 255 characters"
		}
		items = append(items, models.Item{Name: name})
	}
	return items, ""
}

// storeErr translates store sentinels into service errors
func storeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return invalid("name", "an entry with this name already exists")
	}
	return err
}
