package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/config"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stemsi/exam-portal/internal/session"
)

// TokenType distinguishes candidate vs admin tokens.
type TokenType string

const (
	TokenTypeCandidate TokenType = "candidate"
	TokenTypeAdmin     TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	SessionID string    `json:"session_id,omitempty"` // Candidate only
	AdminID   int       `json:"admin_id,omitempty"`   // Admin only
	Email     string    `json:"email,omitempty"`      // Admin only
}

// AdminFinder looks up admins by email.
type AdminFinder interface {
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// StoreFactory opens the persisted session record of one candidate session.
type StoreFactory func(sessionID string) session.Store

// AuthService issues and validates tokens and seeds candidate sessions.
type AuthService struct {
	cfg    *config.Config
	admins AdminFinder
	stores StoreFactory
	log    zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, admins AdminFinder, stores StoreFactory, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		admins: admins,
		stores: stores,
		log:    log.With().Str("component", "auth_service").Logger(),
	}
}

// CandidateLogin opens a fresh session holding the candidate's identity and
// language, and returns a token bound to it.
func (s *AuthService) CandidateLogin(ctx context.Context, req model.CandidateLoginRequest) (*model.CandidateLoginResponse, error) {
	lang := req.Language
	if lang == "" {
		lang = model.LanguageArabic
	}
	identity := req.Identity()
	identity.UserName = strings.TrimSpace(identity.UserName)

	sessionID := uuid.New().String()
	store := s.stores(sessionID)
	if err := store.Set(ctx, map[string]string{
		session.KeyUserName:    identity.UserName,
		session.KeyUserID:      identity.IDNumber,
		session.KeyPhoneNumber: identity.PhoneNumber,
		session.KeyLanguage:    string(lang),
	}); err != nil {
		return nil, fmt.Errorf("store identity: %w", err)
	}

	token, err := s.sign(Claims{
		RegisteredClaims: s.registered(identity.IDNumber),
		TokenType:        TokenTypeCandidate,
		SessionID:        sessionID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("session_id", sessionID).Msg("Candidate signed in")
	return &model.CandidateLoginResponse{
		Token:     token,
		SessionID: sessionID,
		Identity:  identity,
		Language:  lang,
	}, nil
}

// CandidateLogout returns the session to the entry point. Identity and any
// unfinished progress are cleared; the language preference stays.
func (s *AuthService) CandidateLogout(ctx context.Context, sessionID string) error {
	fields := append(append([]string{}, session.IdentityKeys...), session.ProgressKeys...)
	return s.stores(sessionID).Clear(ctx, fields...)
}

// AdminLogin admits any email present in the admins table.
func (s *AuthService) AdminLogin(ctx context.Context, email string) (*model.AdminLoginResponse, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	token, err := s.sign(Claims{
		RegisteredClaims: s.registered(strconv.Itoa(admin.ID)),
		TokenType:        TokenTypeAdmin,
		AdminID:          admin.ID,
		Email:            admin.Email,
	})
	if err != nil {
		return nil, err
	}
	return &model.AdminLoginResponse{Token: token, Admin: *admin}, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) registered(subject string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
	}
}

func (s *AuthService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
