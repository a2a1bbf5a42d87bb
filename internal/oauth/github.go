package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/bagdasarian/teamhub/internal/domain"
	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

type GitHubProvider struct {
	config     *oauth2.Config
	apiBaseURL string
}

func NewGitHubProvider(clientID, clientSecret, redirectURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"read:user", "user:email"},
		},
	}
}

func (p *GitHubProvider) Name() string {
	return ProviderGitHub
}

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github exchange: %w", err)
	}

	client := gh.NewClient(p.config.Client(ctx, token))
	if p.apiBaseURL != "" {
		base, err := url.Parse(p.apiBaseURL)
		if err != nil {
			return nil, fmt.Errorf("github api url: %w", err)
		}
		client.BaseURL = base
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("github user: %w", err)
	}

	profile := &domain.OAuthProfile{
		Provider:       ProviderGitHub,
		ProviderUserID: strconv.FormatInt(user.GetID(), 10),
		Name:           user.GetName(),
		AvatarURL:      user.GetAvatarURL(),
	}
	if profile.Name == "" {
		profile.Name = user.GetLogin()
	}

	emails, _, err := client.Users.ListEmails(ctx, &gh.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("github emails: %w", err)
	}

	profile.Email, profile.EmailVerified = pickGitHubEmail(user.GetEmail(), emails)
	if profile.Email == "" {
		return nil, ErrNoEmail
	}
	profile.Email = domain.NormalizeEmail(profile.Email)

	return profile, nil
}

// pickGitHubEmail предпочитает основной подтверждённый адрес
func pickGitHubEmail(publicEmail string, emails []*gh.UserEmail) (string, bool) {
	for _, e := range emails {
		if e.GetPrimary() && e.GetVerified() {
			return e.GetEmail(), true
		}
	}
	for _, e := range emails {
		if e.GetVerified() && (publicEmail == "" || e.GetEmail() == publicEmail) {
			return e.GetEmail(), true
		}
	}
	return publicEmail, false
}
