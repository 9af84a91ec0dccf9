package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password Register accepts
	MinPasswordLength = 8

	issuer = "reasoning-engine"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrAccountsDisabled   = errors.New("accounts are not available without a database")
)

// User is an account that owns archived analyses
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// UserUUID parses the user id carried by the token
func (c *Claims) UserUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Service defines the authentication service interface
type Service interface {
	Register(ctx context.Context, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Config holds authentication configuration
type Config struct {
	SecretKey     string
	TokenDuration time.Duration
}

// JWTService issues HS256 tokens for users stored in repo.
// With a nil repo it can still validate tokens, but Register and Login fail with ErrAccountsDisabled.
type JWTService struct {
	config Config
	repo   UserRepository
	now    func() time.Time
}

// NewJWTService creates a new JWT-based authentication service
func NewJWTService(config Config, repo UserRepository) *JWTService {
	if config.TokenDuration <= 0 {
		config.TokenDuration = 24 * time.Hour
	}
	return &JWTService{
		config: config,
		repo:   repo,
		now:    time.Now,
	}
}

// Register creates a new user with a bcrypt-hashed password. Emails are case-insensitive.
func (s *JWTService) Register(ctx context.Context, email, password string) (*User, error) {
	if s.repo == nil {
		return nil, ErrAccountsDisabled
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	email = normalizeEmail(email)

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, ErrUserExists
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &User{
		Email:        email,
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the password and returns a signed token for the user
func (s *JWTService) Login(ctx context.Context, email, password string) (string, *User, error) {
	if s.repo == nil {
		return "", nil, ErrAccountsDisabled
	}

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.SecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *JWTService) generateToken(user *User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SecretKey))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
