package quad

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Execute sums every plan entry on its own goroutine and returns the
// partial results indexed like the plan.
//
// Workers share f, g and ar read-only; each writes only its own slot of the
// result slice, so results are paired with entries by position no matter
// which worker finishes first. The first worker error fails the call and
// cancels the others; no partial result is returned alongside an error.
func Execute[T any](ctx context.Context, ar Arith[T], f Integrand, g Grid[T], p Plan, opts ...Option) ([]T, error) {
	return execute(ctx, ar, f, g, p, newSettings(opts))
}

func execute[T any](ctx context.Context, ar Arith[T], f Integrand, g Grid[T], p Plan, s *settings) ([]T, error) {
	partials := make([]T, p.Len())
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(p.Len())

	for i, e := range p.entries {
		grp.Go(func() error {
			start := time.Now()
			sum, err := SumSpan(gctx, ar, f, g, e.Span)
			elapsed := time.Since(start)

			s.observer.ObserveSpan(e.Class, e.Span.Count, elapsed, err)
			if err != nil {
				s.logger.Debug("span failed",
					"entry", i, "class", e.Class.String(), "first", e.Span.First, "count", e.Span.Count, "error", err)
				return err
			}

			partials[i] = sum
			s.logger.Debug("span done",
				"entry", i, "class", e.Class.String(), "first", e.Span.First, "count", e.Span.Count, "elapsed", elapsed)
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

// executeInline sums the plan entries one after another on the calling
// goroutine. It is the sequential counterpart of Execute.
func executeInline[T any](ctx context.Context, ar Arith[T], f Integrand, g Grid[T], p Plan, s *settings) ([]T, error) {
	partials := make([]T, p.Len())
	for i, e := range p.entries {
		start := time.Now()
		sum, err := SumSpan(ctx, ar, f, g, e.Span)
		s.observer.ObserveSpan(e.Class, e.Span.Count, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		partials[i] = sum
	}
	return partials, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
