// Package pipeline is the operation surface of the vendor sourcing pipeline.
// HTTP handlers, the worker and webhooks call into Service only.
package pipeline

import (
	"context"
	"sync"
	"time"

	"vendorflow/internal/application/common/emailevent"
	deliveryusecases "vendorflow/internal/application/delivery/usecases"
	discoveryusecases "vendorflow/internal/application/discovery/usecases"
	outreachusecases "vendorflow/internal/application/outreach/usecases"
	rankingusecases "vendorflow/internal/application/ranking/usecases"
	replyusecases "vendorflow/internal/application/reply/usecases"
	selectionusecases "vendorflow/internal/application/selection/usecases"
	"vendorflow/internal/domain/discovery"
	"vendorflow/internal/domain/shared/events"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/goroutine"
	"vendorflow/internal/shared/logger"
)

const defaultRunLockTTL = 2 * time.Minute

// RunLocker serializes pipeline runs per key across processes.
type RunLocker interface {
	// TryLock returns ok=false when another holder has the key. A granted lock
	// is held until unlock; ttl only limits how long a crashed holder keeps it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

type Config struct {
	// AutoOutreach starts outreach as soon as discovery finds candidates.
	AutoOutreach bool
	RunLockTTL   time.Duration
}

type UseCases struct {
	Discover *discoveryusecases.DiscoverVendorsUseCase
	Outreach *outreachusecases.SendOutreachUseCase
	Rank     *rankingusecases.RankVendorsUseCase
	Select   *selectionusecases.SelectVendorUseCase
	Delivery *deliveryusecases.HandleDeliveryEventUseCase
	Reply    *replyusecases.HandleInboundReplyUseCase
}

type WebhookResult struct {
	Kind     emailevent.Kind                             `json:"kind"`
	Ignored  bool                                        `json:"ignored,omitempty"`
	Queued   bool                                        `json:"queued,omitempty"`
	Delivery *deliveryusecases.HandleDeliveryEventResult `json:"delivery,omitempty"`
	Reply    *replyusecases.HandleInboundReplyResult     `json:"reply,omitempty"`
}

type Service struct {
	uc     UseCases
	locker RunLocker
	cfg    Config
	logger logger.Interface
	runs   sync.WaitGroup
}

// NewService builds the facade. A nil locker disables run locking.
func NewService(uc UseCases, locker RunLocker, cfg Config, logger logger.Interface) *Service {
	if cfg.RunLockTTL <= 0 {
		cfg.RunLockTTL = defaultRunLockTTL
	}
	return &Service{
		uc:     uc,
		locker: locker,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Service) DiscoverVendors(ctx context.Context, ticketID string) (*discoveryusecases.DiscoverVendorsResult, error) {
	unlock, err := s.lock(ctx, "discover", ticketID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.uc.Discover.Execute(ctx, discoveryusecases.DiscoverVendorsCommand{TicketID: ticketID})
}

func (s *Service) SendOutreachEmails(ctx context.Context, ticketID string) (*outreachusecases.SendOutreachResult, error) {
	unlock, err := s.lock(ctx, "outreach", ticketID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.uc.Outreach.Execute(ctx, outreachusecases.SendOutreachCommand{TicketID: ticketID})
}

// StartDiscovery takes the run lock and runs discovery in the background.
// The run outlives ctx's cancellation.
func (s *Service) StartDiscovery(ctx context.Context, ticketID string) error {
	unlock, err := s.lock(ctx, "discover", ticketID)
	if err != nil {
		return err
	}

	runCtx := context.WithoutCancel(ctx)
	s.background("discover:"+ticketID, unlock, func() {
		if _, err := s.uc.Discover.Execute(runCtx, discoveryusecases.DiscoverVendorsCommand{TicketID: ticketID}); err != nil {
			s.logger.Errorw("background discovery failed", "ticket_id", ticketID, "error", err)
		}
	})
	return nil
}

// StartOutreach takes the run lock and sends outreach in the background.
func (s *Service) StartOutreach(ctx context.Context, ticketID string) error {
	unlock, err := s.lock(ctx, "outreach", ticketID)
	if err != nil {
		return err
	}

	runCtx := context.WithoutCancel(ctx)
	s.background("outreach:"+ticketID, unlock, func() {
		if _, err := s.uc.Outreach.Execute(runCtx, outreachusecases.SendOutreachCommand{TicketID: ticketID}); err != nil {
			s.logger.Errorw("background outreach failed", "ticket_id", ticketID, "error", err)
		}
	})
	return nil
}

func (s *Service) RankVendors(ctx context.Context, ticketID string) (*rankingusecases.RankVendorsResult, error) {
	return s.uc.Rank.Execute(ctx, rankingusecases.RankVendorsCommand{TicketID: ticketID})
}

func (s *Service) SelectVendor(ctx context.Context, ticketID, quoteID string) (*selectionusecases.SelectVendorResult, error) {
	unlock, err := s.lock(ctx, "select", ticketID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.uc.Select.Execute(ctx, selectionusecases.SelectVendorCommand{TicketID: ticketID, QuoteID: quoteID})
}

// HandleEmailWebhook routes a provider event to the delivery tracker or the
// reply classifier. Unrecognized events are acknowledged and dropped.
func (s *Service) HandleEmailWebhook(ctx context.Context, event emailevent.Event) (*WebhookResult, error) {
	result := &WebhookResult{Kind: event.Kind}

	switch {
	case event.Kind == emailevent.KindDelivery && event.Delivery != nil:
		res, err := s.uc.Delivery.Execute(ctx, *event.Delivery)
		if err != nil {
			return nil, err
		}
		result.Delivery = res

	case event.Kind == emailevent.KindInbound && event.Inbound != nil:
		res, err := s.uc.Reply.Execute(ctx, *event.Inbound)
		if err != nil {
			return nil, err
		}
		result.Reply = res

	default:
		s.logger.Infow("ignoring unrecognized email webhook", "webhook_id", event.ID, "type", event.RawType)
		result.Ignored = true
	}
	return result, nil
}

// HandleEmailWebhookAsync processes event in the background and returns at
// once. onError, when set, is called if processing fails.
func (s *Service) HandleEmailWebhookAsync(ctx context.Context, event emailevent.Event, onError func(error)) {
	bg := context.WithoutCancel(ctx)
	s.background("email-webhook", func() {}, func() {
		if _, err := s.HandleEmailWebhook(bg, event); err != nil {
			s.logger.Errorw("failed to handle queued email webhook", "webhook_id", event.ID, "type", event.RawType, "error", err)
			if onError != nil {
				onError(err)
			}
		}
	})
}

// SubscribeAutoOutreach starts outreach whenever discovery completes with
// candidates. It does nothing unless AutoOutreach is set.
func (s *Service) SubscribeAutoOutreach(subscriber events.EventSubscriber) error {
	if !s.cfg.AutoOutreach {
		return nil
	}
	return subscriber.Subscribe(discovery.EventTypeCompleted, events.NewSimpleEventHandler(
		discovery.EventTypeCompleted,
		func(event events.DomainEvent) error {
			ticketID := event.GetAggregateID()
			s.logger.Infow("discovery completed, starting outreach", "ticket_id", ticketID)
			_, err := s.SendOutreachEmails(context.Background(), ticketID)
			return err
		},
	))
}

// Wait blocks until every background run has finished.
func (s *Service) Wait() {
	s.runs.Wait()
}

func (s *Service) background(name string, unlock func(), fn func()) {
	s.runs.Add(1)
	goroutine.SafeGo(s.logger, name, func() {
		defer s.runs.Done()
		defer unlock()
		fn()
	})
}

func (s *Service) lock(ctx context.Context, operation, ticketID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	unlock, ok, err := s.locker.TryLock(ctx, operation+":"+ticketID, s.cfg.RunLockTTL)
	if err != nil {
		// Locking is a guard only; a lock store outage must not stop the pipeline.
		s.logger.Warnw("run lock unavailable, continuing without it", "operation", operation, "ticket_id", ticketID, "error", err)
		return func() {}, nil
	}
	if !ok {
		return nil, errors.NewConflictError(operation+" is already running for this ticket", ticketID)
	}
	return unlock, nil
}
