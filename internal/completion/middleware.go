package completion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Middleware wraps a Completer with extra behavior.
type Middleware func(next Completer) Completer

// Wrap applies mws to c. The first middleware is the outermost.
func Wrap(c Completer, mws ...Middleware) Completer {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// Retry retries failed completions up to attempts times with exponential
// backoff starting at base. Permanent errors and context cancellation stop
// it immediately.
func Retry(attempts int, base time.Duration) Middleware {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = 300 * time.Millisecond
	}
	return func(next Completer) Completer {
		return &retrying{next: next, max: attempts, base: base}
	}
}

type retrying struct {
	next Completer
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Complete(ctx context.Context, req Request) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		var pErr *PermanentError
		if errors.As(err, &pErr) {
			return "", err
		}
		last = err
		if i == r.max-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.base * time.Duration(1<<i)):
		}
	}
	return "", last
}

// Cache remembers responses for identical requests in an LRU of the given
// size. Only successful responses are stored.
func Cache(size int) (Middleware, error) {
	store, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return func(next Completer) Completer {
		return &caching{next: next, store: store}
	}, nil
}

type caching struct {
	next  Completer
	store *lru.Cache[string, string]
}

func (c *caching) Name() string { return c.next.Name() }

func (c *caching) Complete(ctx context.Context, req Request) (string, error) {
	key := cacheKey(c.next.Name(), req)
	if out, ok := c.store.Get(key); ok {
		return out, nil
	}
	out, err := c.next.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	c.store.Add(key, out)
	return out, nil
}

func cacheKey(name string, req Request) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(name)
	write(req.System)
	for _, m := range req.History {
		write(string(m.Role))
		write(m.Content)
	}
	write(req.Prompt)
	return hex.EncodeToString(h.Sum(nil))
}

// Logging records every call and its duration.
func Logging(log *zap.Logger) Middleware {
	return func(next Completer) Completer {
		return &logging{next: next, log: log}
	}
}

type logging struct {
	next Completer
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }

func (l *logging) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := l.next.Complete(ctx, req)
	fields := []zap.Field{
		zap.String("backend", l.next.Name()),
		zap.Int("history", len(req.History)),
		zap.Int("prompt_bytes", len(req.Prompt)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		l.log.Warn("completion failed", append(fields, zap.Error(err))...)
		return "", err
	}
	l.log.Debug("completion done", append(fields, zap.Int("response_bytes", len(out)))...)
	return out, nil
}
