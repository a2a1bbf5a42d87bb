package repository

import "context"

// Transactor выполняет fn в одной транзакции; репозитории берут её из ctx
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
