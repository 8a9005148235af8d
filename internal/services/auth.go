package services

import (
	"context"

	"google.golang.org/api/idtoken"

	"github.com/NotescapeAi/notescape-backend/internal/middleware"
	"github.com/NotescapeAi/notescape-backend/internal/models"
	"github.com/NotescapeAi/notescape-backend/internal/repository"
)

const accessTokenTTLSeconds = 900

// AuthService is the thin boundary with the external identity provider:
// it verifies Google ID tokens and issues the service's own access tokens.
// There is no password path; identity is fully delegated.
type AuthService struct {
	users          *repository.UserRepo
	jwt            *middleware.JWTAuth
	googleClientID string
}

func NewAuthService(users *repository.UserRepo, jwt *middleware.JWTAuth, googleClientID string) *AuthService {
	return &AuthService{
		users:          users,
		jwt:            jwt,
		googleClientID: googleClientID,
	}
}

// LoginWithGoogle validates the provider token, upserts the user row and
// returns a signed access token.
func (s *AuthService) LoginWithGoogle(ctx context.Context, rawIDToken string) (*models.User, *models.AuthTokens, error) {
	if rawIDToken == "" {
		return nil, nil, &ValidationError{Fields: map[string]string{"id_token": "required"}}
	}

	payload, err := idtoken.Validate(ctx, rawIDToken, s.googleClientID)
	if err != nil {
		return nil, nil, &UnauthorizedError{Message: "Invalid Google ID token"}
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, nil, &UnauthorizedError{Message: "Google token has no email claim"}
	}
	name, _ := payload.Claims["name"].(string)
	if name == "" {
		name = email
	}
	var avatarURL *string
	if picture, ok := payload.Claims["picture"].(string); ok && picture != "" {
		avatarURL = &picture
	}

	user, err := s.users.UpsertGoogle(ctx, email, name, avatarURL, payload.Subject)
	if err != nil {
		return nil, nil, err
	}

	access, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}

	return user, &models.AuthTokens{
		AccessToken: access,
		ExpiresIn:   accessTokenTTLSeconds,
	}, nil
}
