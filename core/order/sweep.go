package order

import (
	"context"
	"time"

	"github.com/irsalhamdi/course-market/metrics"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Sweeper labels orders whose payment was abandoned. It never touches carts
// or enrollments, and a completion arriving later still marks the order paid.
type Sweeper struct {
	DB          *sqlx.DB
	Log         logrus.FieldLogger
	Metrics     *metrics.Metrics
	ExpireAfter time.Duration
	Interval    time.Duration
}

func (s Sweeper) Enabled() bool {
	return s.ExpireAfter > 0 && s.Interval > 0
}

func (s Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()

	n, err := ExpirePending(ctx, s.DB, now.Add(-s.ExpireAfter), now)
	if err != nil {
		return 0, err
	}

	s.Metrics.OrdersExpired(n)
	return n, nil
}

// Run sweeps every Interval until ctx is cancelled.
func (s Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.Log.WithField("expire_after", s.ExpireAfter.String()).Info("order sweep started")
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("order sweep stopped")
			return
		case now := <-t.C:
			n, err := s.Sweep(ctx, now)
			if err != nil {
				s.Log.WithError(err).Error("sweeping pending orders")
				continue
			}
			if n > 0 {
				s.Log.WithField("expired", n).Info("expired abandoned orders")
			}
		}
	}
}
