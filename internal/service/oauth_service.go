package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
)

type OAuthLoginResult struct {
	User        *domain.User
	MFARequired bool
	// Linked - провайдер только что привязан к существующему аккаунту
	Linked bool
	// Created - аккаунт создан по профилю провайдера
	Created bool
}

type OAuthService interface {
	// Login входит, привязывает или регистрирует по профилю провайдера;
	// current - пользователь активной сессии или nil
	Login(ctx context.Context, profile *domain.OAuthProfile, current *domain.User) (*OAuthLoginResult, error)
}
