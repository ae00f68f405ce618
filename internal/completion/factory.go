package completion

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

const (
	BackendClaude = "claude"
	BackendGemini = "gemini"
)

// Options selects and tunes a backend.
type Options struct {
	Backend     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Retries     int
	CacheSize   int
	Dir         string    // working directory for CLI backends
	LogPath     string    // raw output log for CLI backends
	Echo        io.Writer // streams CLI output while it runs
	Log         *zap.Logger
}

// New builds the configured backend wrapped in cache, retry, and logging
// middleware.
func New(ctx context.Context, opts Options) (Completer, error) {
	var base Completer
	switch opts.Backend {
	case BackendClaude, "":
		base = &Claude{
			Model:   opts.Model,
			Timeout: opts.Timeout,
			Dir:     opts.Dir,
			LogPath: opts.LogPath,
			Echo:    opts.Echo,
		}
	case BackendGemini:
		g, err := NewGemini(ctx, GeminiAPIKey(), opts.Model, opts.Temperature, opts.MaxTokens)
		if err != nil {
			return nil, err
		}
		base = g
	default:
		return nil, fmt.Errorf("unknown completion backend %q", opts.Backend)
	}

	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	var mws []Middleware
	if opts.CacheSize > 0 {
		cache, err := Cache(opts.CacheSize)
		if err != nil {
			return nil, err
		}
		mws = append(mws, cache)
	}
	mws = append(mws, Retry(opts.Retries, 0), Logging(log))
	return Wrap(base, mws...), nil
}

// Preflight checks that the backend can run: the claude binary must be on
// PATH, and gemini needs an API key.
func Preflight(backend string) error {
	switch backend {
	case BackendClaude, "":
		if _, err := exec.LookPath("claude"); err != nil {
			return fmt.Errorf("required binaries not found in PATH: claude")
		}
	case BackendGemini:
		if GeminiAPIKey() == "" {
			return fmt.Errorf("gemini backend needs GEMINI_API_KEY or GOOGLE_API_KEY")
		}
	default:
		return fmt.Errorf("unknown completion backend %q", backend)
	}
	return nil
}
