package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Dan9191/recipe-service/internal/models"
	"github.com/Dan9191/recipe-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 5

const maxFieldLength = 255

// tooLong counts characters, as VARCHAR(255) does
func tooLong(s string) bool {
	return utf8.RuneCountInString(s) > maxFieldLength
}

// NormalizeEmail lower-cases the domain part of an address
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "this field is required")
	}
	if tooLong(email) {
		return invalid("email", "ensure this field has no more than 255 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "enter a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return invalid("password", fmt.Sprintf("ensure this field has at least %d characters", MinPasswordLength))
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	return s.createUser(ctx, email, name, password, false)
}

// CreateSuperuser creates a staff user with all permissions
func (s *Service) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return s.createUser(ctx, email, "", password, true)
}

func (s *Service) createUser(ctx context.Context, email, name, password string, superuser bool) (*models.User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if name == "" && !superuser {
		return nil, invalid("name", "this field may not be blank")
	}
	if tooLong(name) {
		return nil, invalid("name", "ensure this field has no more than 255 characters")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("email", "user with this email already exists")
		}
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	if !superuser {
		s.welcome(user)
	}
	return user, nil
}

// welcome sends the greeting in the background; failures never fail registration
func (s *Service) welcome(user *models.User) {
	if s.notifier == nil {
		return
	}
	go func(to, name string) {
		if err := s.notifier.SendWelcome(context.Background(), to, name); err != nil {
			s.log.Warnf("Welcome email to %s failed: %v", to, err)
		}
	}(user.Email, user.Name)
}

// IssueToken authenticates a user by email and password and returns a JWT
func (s *Service) IssueToken(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL.Duration)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warnf("Failed to record login for %s: %v", user.Email, err)
	}
	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// Authenticate validates a token and returns the active user it names
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrUnauthorized
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}

	if cached, ok := s.users.Get(id); ok {
		user := cached.(models.User)
		return &user, nil
	}

	user, err := s.store.FindUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	s.users.Add(id, *user)
	return user, nil
}

// Me returns the authenticated user's profile
func (s *Service) Me(ctx context.Context) (models.Profile, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return models.Profile{}, ErrUnauthorized
	}
	return user.Profile(), nil
}

// UpdateMe changes the authenticated user's profile. A full update requires
// email and name; a partial one applies only the supplied fields.
func (s *Service) UpdateMe(ctx context.Context, patch models.UserPatch, partial bool) (models.Profile, error) {
	current, ok := UserFromContext(ctx)
	if !ok {
		return models.Profile{}, ErrUnauthorized
	}
	if !partial {
		if patch.Email == nil {
			return models.Profile{}, invalid("email", "this field is required")
		}
		if patch.Name == nil {
			return models.Profile{}, invalid("name", "this field is required")
		}
	}

	user := *current
	if patch.Email != nil {
		user.Email = NormalizeEmail(*patch.Email)
		if err := validateEmail(user.Email); err != nil {
			return models.Profile{}, err
		}
	}
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
		switch {
		case user.Name == "":
			return models.Profile{}, invalid("name", "this field may not be blank")
		case tooLong(user.Name):
			return models.Profile{}, invalid("name", "ensure this field has no more than 255 characters")
		}
	}
	if patch.Password != nil {
		if err := validatePassword(*patch.Password); err != nil {
			return models.Profile{}, err
		}
		hashed, err := hashPassword(*patch.Password)
		if err != nil {
			return models.Profile{}, err
		}
		user.PasswordHash = hashed
	}

	if err := s.store.UpdateUser(ctx, &user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return models.Profile{}, invalid("email", "user with this email already exists")
		case errors.Is(err, repository.ErrNotFound):
			return models.Profile{}, ErrUnauthorized
		}
		return models.Profile{}, err
	}
	s.users.Remove(user.ID)

	s.log.Infof("User updated: %s", user.Email)
	return user.Profile(), nil
}
