package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/models"
	"fhirfly-backend/internal/sessions"
	"fhirfly-backend/internal/utils"
	"fhirfly-backend/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims are the JWT claims of a session token. The token id is the session key.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	Secret                string
	TokenTTL              time.Duration
	ClinicianEmail        string
	ClinicianPassword     string
	ClinicianPasswordHash string
}

// clinicianUser is the demo clinician account.
var clinicianUser = models.User{
	AbhaID:  "CLINICIAN",
	Name:    "Clinician",
	Role:    models.RoleClinician,
	Age:     35,
	Address: "Healthcare St, City",
	Mobile:  "+1 555-0100",
}

// AuthService issues and checks session tokens.
type AuthService struct {
	sessions  *sessions.Store
	secret    []byte
	ttl       time.Duration
	clinician utils.Credentials
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(cfg AuthConfig, store *sessions.Store, logger *zap.Logger) (*AuthService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	creds, err := utils.NewCredentials(cfg.ClinicianEmail, cfg.ClinicianPassword, cfg.ClinicianPasswordHash)
	if err != nil {
		return nil, fmt.Errorf("auth: hash clinician password: %w", err)
	}
	return &AuthService{
		sessions:  store,
		secret:    []byte(cfg.Secret),
		ttl:       cfg.TokenTTL,
		clinician: creds,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Login signs in with an ABHA id. There is no identity check beyond the id's shape.
func (s *AuthService) Login(ctx context.Context, abhaID string) (*models.LoginResponse, error) {
	abhaID = strings.TrimSpace(abhaID)
	if abhaID == "" {
		return nil, apperrors.NewValidationError("ABHA ID is required")
	}
	if !validation.ValidABHAID(abhaID) {
		return nil, apperrors.NewUnauthorizedError("Invalid ABHA ID")
	}

	user := models.User{
		AbhaID: abhaID,
		Name:   "User " + lastRunes(abhaID, 4),
		Role:   models.RoleABHA,
	}
	return s.issue(ctx, user)
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// LoginClinician signs in the clinician. With no credentials at all the demo
// clinician is signed in; otherwise both must match the configured account.
func (s *AuthService) LoginClinician(ctx context.Context, req models.ClinicianLoginRequest) (*models.LoginResponse, error) {
	if req.Email != nil || req.Password != nil {
		email := models.StringValue(req.Email)
		password := models.StringValue(req.Password)
		if !s.clinician.Matches(email, password) {
			return nil, apperrors.NewUnauthorizedError("Invalid clinician credentials")
		}
	}
	return s.issue(ctx, clinicianUser)
}

func (s *AuthService) issue(ctx context.Context, user models.User) (*models.LoginResponse, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	jti := uuid.NewString()

	claims := Claims{
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.AbhaID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to sign token", err)
	}

	if err := s.sessions.Save(ctx, jti, user, s.ttl); err != nil {
		return nil, apperrors.NewInternalError("Failed to store session", err)
	}

	s.logger.Info("user signed in",
		zap.String("abha_id", user.AbhaID),
		zap.String("role", user.Role),
	)
	return &models.LoginResponse{Token: token, ExpiresAt: expires.UnixMilli(), User: user}, nil
}

// Authenticate returns the user behind a token whose session is still alive.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.sessions.Load(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load session", err)
	}
	if user == nil {
		return nil, apperrors.NewUnauthorizedError("Session expired")
	}
	return user, nil
}

// Logout ends the token's session. Ending an already ended session succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return apperrors.NewInternalError("Failed to end session", err)
	}
	return nil
}

// bearerToken strips an optional "Bearer" scheme, matched case-insensitively.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	const scheme = "bearer "
	if len(header) >= len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		return strings.TrimSpace(header[len(scheme):])
	}
	return header
}

func (s *AuthService) parse(token string) (*Claims, error) {
	token = bearerToken(token)
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("Missing authentication token")
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewUnauthorizedError("Token has expired")
		}
		return nil, apperrors.NewUnauthorizedError("Invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, apperrors.NewUnauthorizedError("Invalid token")
	}
	return claims, nil
}
