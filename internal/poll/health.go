package poll

import (
	"context"
	"time"

	"symonectl/internal/api"
)

type HealthChecker interface {
	Health(ctx context.Context) (api.Health, error)
}

// WaitHealthy polls until the backend stops answering 503, then returns the
// health report. Other errors end the wait. There is no push channel; the
// caller decides how long to wait through ctx.
func WaitHealthy(ctx context.Context, c HealthChecker, every time.Duration, onCheck func(error)) (api.Health, error) {
	if every <= 0 {
		every = DefaultInterval
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		h, err := c.Health(ctx)
		if onCheck != nil {
			onCheck(err)
		}
		if err == nil {
			return h, nil
		}
		if !api.IsMaintenance(err) {
			return api.Health{}, err
		}
		select {
		case <-ctx.Done():
			return api.Health{}, ctx.Err()
		case <-t.C:
		}
	}
}
