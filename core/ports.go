package core

import (
	"context"
	"iter"
)

type Source interface {
	Get(ctx context.Context, id int) (Comic, error)
	Latest(ctx context.Context) (Comic, error)
}

type Fetcher interface {
	Comic(ctx context.Context, id int) (Comic, error)
	Latest(ctx context.Context) (Comic, error)
	Random(ctx context.Context) (Comic, error)
	Numbers(ctx context.Context) (NumberSet, error)
	All(ctx context.Context) iter.Seq2[Comic, error]
	Search(ctx context.Context, text string) (Comic, bool, error)
}
