package auth

import (
	"context"
	"fmt"
	"net/http"

	"rtc-relay/internal/config"
	"rtc-relay/internal/database"
	"rtc-relay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Service is the identity gate: it turns a bearer credential into an
// authenticated identity, or refuses the connection. It never issues
// credentials; that lives in a separate system sharing the same secret.
type Service struct {
	db  database.UserRepository
	cfg *config.Config
}

func NewService(db database.UserRepository, cfg *config.Config) *Service {
	return &Service{
		db:  db,
		cfg: cfg,
	}
}

// TokenFromRequest extracts the credential from the handshake: the token
// cookie first, then the token query parameter as an explicit fallback.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

func (s *Service) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.JWT.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// Authenticate resolves a token to the identity attached to the connection
// for its whole life. Missing token, bad signature, expiry, and a deleted
// user all collapse into one refusal.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*models.Identity, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	return &models.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}, nil
}
