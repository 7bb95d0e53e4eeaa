// Package repository provides a thin generic store over gorm for
// query-by-example aggregate reads shared across domain packages.
package repository

import "context"

// Repository is the generic persistence contract for a single model type.
// Services that own their rows keep dedicated repositories; this store covers
// the cross-domain counting the quota guard needs without each domain
// exposing a count method.
type Repository[T any] interface {
	Count(ctx context.Context, query *T) (int64, error)
}
