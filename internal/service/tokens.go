package service

import (
	"context"
	"time"

	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/repository"
	"github.com/bagdasarian/teamhub/internal/security"
	"github.com/google/uuid"
)

// issueEmailToken отзывает прежние токены того же назначения и создает новый
func issueEmailToken(
	ctx context.Context,
	tokenRepo repository.EmailTokenRepository,
	userID uuid.UUID,
	purpose domain.TokenPurpose,
	ttl time.Duration,
) (string, error) {
	if err := tokenRepo.DeleteForUser(ctx, userID, purpose); err != nil {
		return "", err
	}

	plain, hash, err := security.NewToken()
	if err != nil {
		return "", err
	}

	token := &domain.EmailToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := tokenRepo.Create(ctx, token); err != nil {
		return "", err
	}

	return plain, nil
}

// consumeEmailToken проверяет назначение, срок и одноразовость токена
func consumeEmailToken(
	ctx context.Context,
	tokenRepo repository.EmailTokenRepository,
	plain string,
	purpose domain.TokenPurpose,
) (*domain.EmailToken, error) {
	if plain == "" {
		return nil, domain.ErrTokenInvalid
	}

	token, err := tokenRepo.GetByHash(ctx, security.HashToken(plain))
	if err != nil {
		return nil, err
	}
	if token.Purpose != purpose {
		return nil, domain.ErrTokenInvalid
	}
	if err := token.Check(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := tokenRepo.MarkUsed(ctx, token.ID); err != nil {
		return nil, err
	}

	return token, nil
}
