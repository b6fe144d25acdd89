package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PrepMaster-App/analytics-service/internal/config"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"golang.org/x/oauth2"
)

// CasdoorProvider implements Provider against a hosted Casdoor instance.
// Password sign-in goes through the OAuth resource owner password grant;
// token verification parses the provider-issued JWT locally.
type CasdoorProvider struct {
	client *casdoorsdk.Client
	oauth  *oauth2.Config
	logger *slog.Logger
	org    string
	app    string
}

func NewCasdoorProvider(cfg config.CasdoorConfig, logger *slog.Logger) *CasdoorProvider {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: cfg.Endpoint + "/api/login/oauth/access_token",
		},
	}

	return &CasdoorProvider{
		client: client,
		oauth:  oauthConfig,
		logger: logger,
		org:    cfg.Organization,
		app:    cfg.Application,
	}
}

func (p *CasdoorProvider) SignUp(ctx context.Context, email, password, username string) (*User, error) {
	newUser := &casdoorsdk.User{
		Owner:             p.org,
		Name:              username,
		DisplayName:       username,
		Email:             email,
		Password:          password,
		SignupApplication: p.app,
	}

	ok, err := p.client.AddUser(newUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if !ok {
		return nil, ErrSignUpFailed
	}

	created, err := p.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to load created user: %w", err)
	}

	return mapUser(created), nil
}

func (p *CasdoorProvider) SignIn(ctx context.Context, email, password string) (*User, *Session, error) {
	token, err := p.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		p.logger.Warn("Password grant rejected", "email", email, "error", err)
		return nil, nil, ErrInvalidCredentials
	}

	claims, err := p.client.ParseJwtToken(token.AccessToken)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	session := &Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	return mapUser(&claims.User), session, nil
}

func (p *CasdoorProvider) Verify(ctx context.Context, accessToken string) (*User, error) {
	claims, err := p.client.ParseJwtToken(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return mapUser(&claims.User), nil
}

func (p *CasdoorProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	token, err := p.client.RefreshOAuthToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

func mapUser(u *casdoorsdk.User) *User {
	if u == nil {
		return nil
	}

	id := u.Id
	if id == "" {
		id = fmt.Sprintf("%s/%s", u.Owner, u.Name)
	}

	return &User{
		ID:        id,
		Email:     u.Email,
		Username:  u.Name,
		CreatedAt: u.CreatedTime,
	}
}
