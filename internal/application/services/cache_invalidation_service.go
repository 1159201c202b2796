package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/providers"
)

// CacheInvalidationService drops memoized report aggregates whenever a bill
// mutates, so reports reflect mutations immediately instead of waiting out
// the TTL.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for bill events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelBillUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to bill updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.BillEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent invalidates every report aggregate. Any bill mutation can move
// numbers in any report, so there is no finer-grained key to target.
func (s *CacheInvalidationService) handleEvent(event *entities.BillEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.cache.DeleteByPrefix(ctx, reportCachePrefix); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("failed to invalidate report caches")
		return
	}

	log.Debug().
		Str("event_id", event.ID).
		Str("bill_id", event.BillID).
		Str("event_type", string(event.EventType)).
		Msg("invalidated report caches")
}
