package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const DefaultFallbackTimeout = 10 * time.Second

// ErrFallbackTimeout is reported when the fallback request loses the race
// against its timer. The request itself keeps running.
var ErrFallbackTimeout = errors.New("fallback fetch timeout")

// Policy tries Direct first and, on a transient failure, Fallback raced
// against a fixed timer. Non-transient failures are returned unchanged.
type Policy struct {
	direct   Fetcher
	fallback Fetcher
	timeout  time.Duration
	logger   logger.Logger
}

// NewPolicy builds a fetch policy. fallback may be nil to disable the
// fallback path.
func NewPolicy(direct, fallback Fetcher, timeout time.Duration, log logger.Logger) *Policy {
	if timeout <= 0 {
		timeout = DefaultFallbackTimeout
	}
	return &Policy{direct: direct, fallback: fallback, timeout: timeout, logger: log}
}

func (p *Policy) Fetch(ctx context.Context, rawURL string) (Result, error) {
	res, err := p.direct.Fetch(ctx, rawURL)
	if err == nil {
		return res, nil
	}
	if !domain.IsTransient(err) || p.fallback == nil {
		return Result{}, err
	}

	p.logger.Debug("direct fetch failed, using fallback",
		logger.String("url", rawURL),
		logger.Error(err))

	type outcome struct {
		res Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		r, e := p.fallback.Fetch(context.WithoutCancel(ctx), rawURL)
		ch <- outcome{r, e}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		if o.err != nil {
			p.logger.Debug("fallback fetch failed",
				logger.String("url", rawURL),
				logger.Error(o.err))
			return Result{}, o.err
		}
		return o.res, nil
	case <-timer.C:
		p.logger.Warn("fallback fetch timed out",
			logger.String("url", rawURL),
			logger.Duration("timeout", p.timeout))
		return Result{}, &domain.FetchError{URL: rawURL, Err: ErrFallbackTimeout}
	}
}
