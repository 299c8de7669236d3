package services

import (
	"context"
	"sync"
	"time"

	"bloodlink/internal/config"
	"bloodlink/internal/models"
	"bloodlink/internal/repositories/interfaces"
	"bloodlink/internal/utils"
	"bloodlink/pkg/logger"
)

// ExpiryService periodically sweeps pending requests past their deadline
// into expired. Each flip is a compare-and-swap against pending, so a
// request resolved between scan and flip is left untouched.
type ExpiryService interface {
	Start()
	Stop()
	SweepOnce(ctx context.Context, now time.Time) (expired, failed int)
}

type expiryService struct {
	requestRepo interfaces.RequestRepository
	config      *config.EngineConfig
	logger      *logger.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func NewExpiryService(requestRepo interfaces.RequestRepository, cfg *config.EngineConfig, log *logger.Logger) ExpiryService {
	return &expiryService{
		requestRepo: requestRepo,
		config:      cfg,
		logger:      log,
	}
}

func (s *expiryService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(s.stopCh, s.doneCh)
	s.logger.WithField("interval", s.config.SweepInterval.String()).Info("Expiry reaper started")
}

func (s *expiryService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
	s.logger.Info("Expiry reaper stopped")
}

func (s *expiryService) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.config.SweepInterval)
			start := time.Now()
			expired, failed := s.SweepOnce(ctx, start)
			cancel()

			if expired > 0 || failed > 0 {
				s.logger.LogSweepResult(expired, failed, time.Since(start).Milliseconds())
			}
		}
	}
}

func (s *expiryService) SweepOnce(ctx context.Context, now time.Time) (expired, failed int) {
	candidates, err := s.requestRepo.FindExpiredPending(ctx, now, utils.SweepBatchSize)
	if err != nil {
		s.logger.WithError(err).Error("Failed to scan for expired requests")
		return 0, 0
	}

	for _, request := range candidates {
		updates := map[string]interface{}{"resolved_at": now}
		err := s.requestRepo.UpdateStatusCAS(ctx, request.ID, models.RequestStatusPending, models.RequestStatusExpired, updates)
		if err != nil {
			// A conflict means someone resolved the request between the
			// scan and the flip. That is the desired outcome, skip it.
			if utils.IsKind(err, utils.ErrKindStateConflict) {
				continue
			}
			failed++
			s.logger.WithRequestID(request.ID).WithError(err).Error("Failed to expire request")
			continue
		}

		expired++
		s.logger.LogRequestEvent(request.ID, utils.EventRequestExpired, map[string]interface{}{
			"expires_at": request.ExpiresAt.Format(time.RFC3339),
		})
	}

	return expired, failed
}
