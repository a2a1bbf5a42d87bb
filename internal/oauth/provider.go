package oauth

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

var ErrNoEmail = errors.New("provider did not return an email address")

// Provider - OAuth-провайдер с обменом кода на профиль пользователя
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error)
}

// Registry содержит только настроенные провайдеры
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// NewRegistryFromConfig подключает провайдеры, для которых заданы client id и secret
func NewRegistryFromConfig(cfg config.OAuthConfig, baseURL string) *Registry {
	baseURL = strings.TrimRight(baseURL, "/")

	var providers []Provider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, NewGoogleProvider(
			cfg.GoogleClientID, cfg.GoogleClientSecret, callbackURL(baseURL, ProviderGoogle)))
	}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		providers = append(providers, NewGitHubProvider(
			cfg.GitHubClientID, cfg.GitHubClientSecret, callbackURL(baseURL, ProviderGitHub)))
	}
	return NewRegistry(providers...)
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func callbackURL(baseURL, provider string) string {
	return baseURL + "/oauth/" + provider + "/callback"
}
