package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Dan9191/recipe-service/internal/config"
	"github.com/Dan9191/recipe-service/internal/models"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned for rows that do not exist or belong to another user
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned when a token cannot be issued
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
	// ErrUnauthorized is returned when the caller is not authenticated
	ErrUnauthorized = errors.New("authentication credentials were not provided or are invalid")
)

// ValidationError reports rejected input, keyed by field
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Store is the persistence the service depends on. Every recipe and item
// method is scoped by the owning user id.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error

	ListRecipes(ctx context.Context, userID int64, filter models.RecipeFilter) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, userID, id int64) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	UpdateRecipe(ctx context.Context, recipe *models.Recipe, replaceTags, replaceIngredients bool) error
	DeleteRecipe(ctx context.Context, userID, id int64) error
	SetRecipeImage(ctx context.Context, userID, id int64, image string) (string, error)

	ListItems(ctx context.Context, kind models.ItemKind, userID int64, assignedOnly bool) ([]models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, kind models.ItemKind, userID, id int64) error
}

// ImageStore receives uploaded recipe images
type ImageStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Notifier sends user-facing messages
type Notifier interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// Service handles business logic
type Service struct {
	store    Store
	log      *logrus.Logger
	config   *config.Config
	images   ImageStore
	notifier Notifier
	users    *lru.Cache
	now      func() time.Time
}

// Option configures optional collaborators
type Option func(*Service)

// WithImages sets the store used for recipe images
func WithImages(images ImageStore) Option {
	return func(s *Service) { s.images = images }
}

// WithNotifier enables welcome messages on registration
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService initializes a new service
func NewService(store Store, log *logrus.Logger, cfg *config.Config, opts ...Option) (*Service, error) {
	users, err := lru.New(cfg.AuthCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create user cache: %w", err)
	}

	s := &Service{
		store:  store,
		log:    log,
		config: cfg,
		users:  users,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type contextKey string

const userContextKey contextKey = "user"

// WithUser returns a context carrying the authenticated user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok && user != nil
}

// owner returns the id every owned row must match
func owner(ctx context.Context) (int64, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return 0, ErrUnauthorized
	}
	return user.ID, nil
}
