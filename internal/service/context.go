package service

import (
	"context"

	"github.com/bagdasarian/teamhub/internal/domain"
)

type requestMetaKey struct{}

// WithRequestMeta сохраняет IP и User-Agent запроса для журнала аудита
func WithRequestMeta(ctx context.Context, meta domain.RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFromContext(ctx context.Context) domain.RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(domain.RequestMeta)
	return meta
}
