package oauth

import (
	"context"
	"fmt"

	"github.com/bagdasarian/teamhub/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

type GoogleProvider struct {
	config      *oauth2.Config
	apiEndpoint string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
	}
}

func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google exchange: %w", err)
	}

	opts := []option.ClientOption{option.WithTokenSource(p.config.TokenSource(ctx, token))}
	if p.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.apiEndpoint))
	}

	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, ErrNoEmail
	}

	return &domain.OAuthProfile{
		Provider:       ProviderGoogle,
		ProviderUserID: info.Id,
		Email:          domain.NormalizeEmail(info.Email),
		EmailVerified:  info.VerifiedEmail != nil && *info.VerifiedEmail,
		Name:           info.Name,
		AvatarURL:      info.Picture,
	}, nil
}
