package verification

import (
	"context"
	"time"

	"NoticeBoard/internal/identity"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// SweepInterval is how often expired codes are cleared.
const SweepInterval = time.Minute

// Sweeper clears expired one-time codes in the background. Expired codes are
// already rejected on use; sweeping only keeps stale values out of storage.
type Sweeper struct {
	users    identity.Store
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(users identity.Store, logger *zap.Logger) *Sweeper {
	return &Sweeper{users: users, logger: logger, interval: SweepInterval, now: time.Now}
}

// Sweep runs a single pass and returns how many accounts were touched.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.users.ClearExpiredOTPs(ctx, s.now())
	if err != nil {
		s.logger.Error("otp sweep failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.logger.Debug("cleared expired otps", zap.Int64("accounts", n))
	}
	return n
}

// Start runs Sweep on every tick for the lifetime of the fx app.
func (s *Sweeper) Start(lc fx.Lifecycle) {
	ticker := time.NewTicker(s.interval)
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.logger.Info("starting otp sweeper", zap.Duration("interval", s.interval))
			go func() {
				ctx := context.Background()
				for {
					select {
					case <-ticker.C:
						s.Sweep(ctx)
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			s.logger.Info("stopping otp sweeper")
			ticker.Stop()
			close(done)
			return nil
		},
	})
}
