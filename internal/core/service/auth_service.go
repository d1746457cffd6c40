package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// AuthConfig carries the credential settings of AuthService.
type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	ResetCodeTTL time.Duration
}

// AuthService implements registration, login, password reset and token
// verification.
type AuthService struct {
	users     ports.UserRepository
	mailer    ports.Mailer
	jwtSecret []byte
	tokenTTL  time.Duration
	resetTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(users ports.UserRepository, mailer ports.Mailer, cfg AuthConfig, log zerolog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.ResetCodeTTL <= 0 {
		cfg.ResetCodeTTL = 10 * time.Minute
	}
	return &AuthService{
		users:     users,
		mailer:    mailer,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  cfg.TokenTTL,
		resetTTL:  cfg.ResetCodeTTL,
		log:       log.With().Str("component", "auth").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type tokenClaims struct {
	Role domain.Role `json:"role"`
	Name string      `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Surname) == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, surname, email, password and role are required", domain.ErrValidation)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: role must be student or teacher", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Skills:       []string{},
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyToken resolves a bearer token to the caller it was issued to.
func (s *AuthService) VerifyToken(token string) (domain.Caller, error) {
	var claims tokenClaims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return domain.Caller{}, domain.ErrUnauthorized
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return domain.Caller{}, domain.ErrUnauthorized
	}
	return domain.Caller{ID: claims.Subject, Role: claims.Role, Name: claims.Name}, nil
}

// ForgotPassword stores a fresh six-digit reset code on the user and mails it.
// Mail delivery is best-effort.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := resetCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	expiresAt := s.now().Add(s.resetTTL)
	if err := s.users.SetResetCode(ctx, user.ID, code, expiresAt); err != nil {
		return err
	}

	if err := s.mailer.SendResetCode(ctx, user.Email, code, expiresAt); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("reset code delivery failed")
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, password string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" || password == "" {
		return fmt.Errorf("%w: email, code and password are required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.ResetPassword(ctx, email, code, string(hash), s.now()); err != nil {
		return err
	}

	s.log.Info().Str("email", email).Msg("password reset")
	return nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Role: user.Role,
		Name: user.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}

func resetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
