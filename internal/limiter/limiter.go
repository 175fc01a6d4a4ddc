package limiter

import (
	"context"
	"math"

	"github.com/jpalmerr/longrun"

	"golang.org/x/time/rate"
)

// New returns a limiter allowing rps requests per second with the given
// burst. A non-positive rps means unlimited and returns nil.
func New(rps float64, burst int) *rate.Limiter {
	if rps <= 0 || math.IsInf(rps, 1) {
		return nil
	}

	if burst < 1 {
		burst = 1
	}

	return rate.NewLimiter(rate.Limit(rps), burst)
}

type limitedRemote[Req, Res any] struct {
	limiter *rate.Limiter
	remote  longrun.Remote[Req, Res]
}

// NewRemote wraps a collaborator so that every call first waits for the
// limiter. A nil limiter returns r unchanged.
//
// Services meter status checks against the same quota as initiating calls,
// so all three calls share one limiter.
func NewRemote[Req, Res any](l *rate.Limiter, r longrun.Remote[Req, Res]) longrun.Remote[Req, Res] {
	if l == nil {
		return r
	}

	return &limitedRemote[Req, Res]{
		limiter: l,
		remote:  r,
	}
}

func (p *limitedRemote[Req, Res]) Initiate(ctx context.Context, req Req) (longrun.Accepted, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return longrun.Accepted{}, err
	}

	return p.remote.Initiate(ctx, req)
}

func (p *limitedRemote[Req, Res]) CheckStatus(ctx context.Context, id string) (longrun.Report, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return longrun.Report{}, err
	}

	return p.remote.CheckStatus(ctx, id)
}

func (p *limitedRemote[Req, Res]) FetchResult(ctx context.Context, id string) (Res, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		var zero Res
		return zero, err
	}

	return p.remote.FetchResult(ctx, id)
}
