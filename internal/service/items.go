package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dan9191/recipe-service/internal/models"
)

func checkKind(kind models.ItemKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown item kind %q", kind)
	}
	return nil
}

// ListItems returns the caller's tags or ingredients ordered by name descending
func (s *Service) ListItems(ctx context.Context, kind models.ItemKind, assignedOnly bool) ([]models.Item, error) {
	userID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	return s.store.ListItems(ctx, kind, userID, assignedOnly)
}

// UpdateItem renames one of the caller's tags or ingredients
func (s *Service) UpdateItem(ctx context.Context, kind models.ItemKind, id int64, name string) (*models.Item, error) {
	userID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "this field may not be blank")
	}
	if tooLong(name) {
		return nil, invalid("name", "ensure this field has no more than 255 characters")
	}

	item := &models.Item{ID: id, UserID: userID, Kind: kind, Name: name}
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, storeErr(err)
	}
	s.log.Infof("%s %d renamed for user %d", kind, id, userID)
	return item, nil
}

// DeleteItem removes one of the caller's tags or ingredients
func (s *Service) DeleteItem(ctx context.Context, kind models.ItemKind, id int64) error {
	userID, err := owner(ctx)
	if err != nil {
		return err
	}
	if err := checkKind(kind); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, kind, userID, id); err != nil {
		return storeErr(err)
	}
	s.log.Infof("%s %d deleted for user %d", kind, id, userID)
	return nil
}
