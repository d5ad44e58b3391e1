package worker

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool ejecuta tareas independientes con un tope de concurrencia.
// Con workers=1 el orden de ejecución es el orden de los índices.
type Pool struct {
	workers int
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers devuelve el tope de concurrencia
func (p *Pool) Workers() int {
	return p.workers
}

// Run ejecuta fn(ctx, i) para i en [0, n). El primer error cancela el resto y se devuelve.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if p.workers == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// FirstSuccess ejecuta fn para cada índice hasta que alguna devuelva ok=true; ese
// resultado se adopta y las tareas en vuelo se cancelan. Si varias terminan con éxito
// antes de la cancelación gana el índice menor. Un error aborta todo.
// found=false sin error significa que ninguna tuvo éxito.
func FirstSuccess[T any](
	ctx context.Context,
	p *Pool,
	n int,
	fn func(ctx context.Context, i int) (T, bool, error),
) (result T, index int, found bool, err error) {
	index = -1

	if p.workers == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return result, -1, false, err
			}
			v, ok, err := fn(ctx, i)
			if err != nil {
				return result, -1, false, err
			}
			if ok {
				return v, i, true, nil
			}
		}
		return result, -1, false, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			v, ok, err := fn(gctx, i)
			if err != nil {
				return err
			}
			if ok {
				mu.Lock()
				if !found || i < index {
					result, index, found = v, i, true
				}
				mu.Unlock()
				cancel()
			}
			return nil
		})
	}

	if werr := g.Wait(); werr != nil && !found {
		var zero T
		return zero, -1, false, werr
	}
	return result, index, found, nil
}
