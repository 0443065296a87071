package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	// ErrAuthenticationFailed covers bad credentials AND a role mismatch
	// on a role-specific login page; the caller never learns which.
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate session token")
)

// SessionClaims is the JWT payload carried by the session cookie.
type SessionClaims struct {
	UserID    int64       `json:"uid"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	LoginTime int64       `json:"login"` // unix seconds; survives sliding reissue
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	// Login authenticates and checks the account role against the role of
	// the login page used; admin accounts may log in anywhere.
	Login(ctx context.Context, email, password string, expectedRole domain.Role) (token string, user *domain.User, err error)
}

type authService struct {
	userRepo   repository.UserRepository
	sessSecret string
	sessTTL    time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, sessionSecret string, sessionTTL time.Duration) AuthService {
	if sessionSecret == "" {
		panic("session secret cannot be empty") // critical configuration
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &authService{
		userRepo:   userRepo,
		sessSecret: sessionSecret,
		sessTTL:    sessionTTL,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if name == "" || email == "" || role == "" {
		return nil, errors.New("name, email, password, and role cannot be empty")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	// Check-then-insert: a racing duplicate can pass this check, in which
	// case the unique constraint rejects the second insert below.
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsActive:     true,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	user.PasswordHash = ""
	return user, nil
}

// Login handles authentication and session token generation.
func (s *authService) Login(ctx context.Context, email, password string, expectedRole domain.Role) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrAuthenticationFailed
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	// The account must match the login page's role; admins are permitted
	// everywhere. The mismatch is indistinguishable from bad credentials.
	if expectedRole != "" && user.Role != expectedRole && !user.IsAdmin() {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := IssueSessionToken(user, s.sessSecret, s.sessTTL, time.Now())
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// IssueSessionToken signs a session JWT for the user. loginAt is kept as
// its own claim so the sliding reissue in the middleware preserves the
// original login time for logout duration reporting.
func IssueSessionToken(user *domain.User, secret string, ttl time.Duration, loginAt time.Time) (string, error) {
	claims := &SessionClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		LoginTime: loginAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "lms-app",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
