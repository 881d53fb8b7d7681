package core

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"strings"

	"golang.org/x/text/cases"
)

type Service struct {
	log    *slog.Logger
	source Source
	intN   func(n int) int
}

type Option func(*Service)

// WithIntN replaces the uniform generator used by Random. intN(n) must
// return a value in [0, n).
func WithIntN(intN func(n int) int) Option {
	return func(s *Service) {
		if intN != nil {
			s.intN = intN
		}
	}
}

func NewService(log *slog.Logger, source Source, opts ...Option) (*Service, error) {
	if log == nil || source == nil {
		return nil, ErrNilDependency
	}
	s := &Service{
		log:    log,
		source: source,
		intN:   rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Comic(ctx context.Context, id int) (Comic, error) {
	if id == NotFoundID {
		return notFoundComic(), nil
	}
	c, err := s.source.Get(ctx, id)
	if err != nil {
		return Comic{}, fmt.Errorf("comic %d: %w", id, err)
	}
	return c, nil
}

func (s *Service) Latest(ctx context.Context) (Comic, error) {
	c, err := s.source.Latest(ctx)
	if err != nil {
		return Comic{}, fmt.Errorf("latest comic: %w", err)
	}
	return c, nil
}

func (s *Service) Random(ctx context.Context) (Comic, error) {
	last, err := s.lastID(ctx)
	if err != nil {
		return Comic{}, err
	}
	if last < 1 {
		return Comic{}, ErrNotFound
	}
	id := s.intN(last) + 1
	s.log.Debug("random comic picked", "id", id, "latest", last)
	return s.Comic(ctx, id)
}

func (s *Service) Numbers(ctx context.Context) (NumberSet, error) {
	last, err := s.lastID(ctx)
	if err != nil {
		return nil, err
	}
	return NewNumberSet(last), nil
}

// All yields comics from the latest down to 1. Iteration stops after the
// first error.
func (s *Service) All(ctx context.Context) iter.Seq2[Comic, error] {
	return func(yield func(Comic, error) bool) {
		last, err := s.lastID(ctx)
		if err != nil {
			yield(Comic{}, err)
			return
		}
		for id := last; id >= 1; id-- {
			if err := ctx.Err(); err != nil {
				yield(Comic{}, err)
				return
			}
			c, err := s.Comic(ctx, id)
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}

// Search returns the newest comic whose full text contains text, ignoring
// case. Surrounding spaces in text are part of the match. The boolean is
// false when nothing matched.
func (s *Service) Search(ctx context.Context, text string) (Comic, bool, error) {
	if strings.TrimSpace(text) == "" {
		return Comic{}, false, ErrBadArguments
	}
	needle := cases.Fold().String(text)
	for c, err := range s.All(ctx) {
		if err != nil {
			return Comic{}, false, err
		}
		if strings.Contains(c.FullText(), needle) {
			s.log.Debug("search matched", "id", c.Number(), "text", text)
			return c, true, nil
		}
	}
	return Comic{}, false, nil
}

func (s *Service) lastID(ctx context.Context) (int, error) {
	c, err := s.Latest(ctx)
	if err != nil {
		return 0, err
	}
	last := c.Number()
	if last < 0 {
		return 0, errors.New("latest comic has negative number")
	}
	return last, nil
}
