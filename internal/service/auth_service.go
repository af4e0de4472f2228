package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"healthwatch/internal/model"
	"healthwatch/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultLocation = "Assam"

type AuthService struct {
	users     store.Collection[*model.User]
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(users store.Collection[*model.User], jwtSecret string, expirationHours int) *AuthService {
	if expirationHours <= 0 {
		expirationHours = 24
	}
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		jwtExpiry: time.Duration(expirationHours) * time.Hour,
	}
}

// Register creates a user and issues a token. Self-registration never grants
// the plain admin role; an unknown role falls back to community.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, string, error) {
	role := req.Role
	switch role {
	case model.RoleCommunity, model.RoleHealthWorker, model.RoleNationalAdmin:
	default:
		role = model.RoleCommunity
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	_, err := s.users.FindOne(ctx, store.Filter{"email": email})
	if err == nil {
		return nil, "", ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	location := req.Location
	if location == "" {
		location = defaultLocation
	}

	user, err := s.users.Insert(ctx, &model.User{
		Name:        req.Name,
		Email:       email,
		Password:    string(hashed),
		Role:        role,
		Location:    location,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials, records last login and issues a token.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.FindOne(ctx, store.Filter{"email": email})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if updated, err := s.users.UpdateByID(ctx, user.ID, store.Patch{"lastLogin": now}); err == nil {
		user = updated
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}

// ListUsers returns the directory minus credentials.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.users.Find(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	out := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.Response())
	}
	return out, nil
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     now.Add(s.jwtExpiry).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
