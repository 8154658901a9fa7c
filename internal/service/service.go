package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tokosepatu/backend/internal/cache"
	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/events"
	"tokosepatu/backend/internal/store"
)

const (
	DefaultRefundWindowDays = 3
	DefaultSaleCacheTTL     = time.Minute
	DefaultPublishTimeout   = 2 * time.Second
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// PaymentProcessor settles card payments and returns the marker stored on the sale.
type PaymentProcessor interface {
	Process(ctx context.Context, cardDetails string) (string, error)
}

// DummyGateway accepts every card payment.
type DummyGateway struct{}

func (DummyGateway) Process(_ context.Context, cardDetails string) (string, error) {
	return "Processed via Dummy Gateway: " + cardDetails, nil
}

type Service struct {
	repo             store.Repository
	logger           *zap.Logger
	saleCache        cache.SaleCache
	saleCacheTTL     time.Duration
	publisher        events.Publisher
	publishTimeout   time.Duration
	payments         PaymentProcessor
	now              func() time.Time
	refundWindowDays int
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithSaleCache(c cache.SaleCache, ttl time.Duration) Option {
	return func(s *Service) {
		if c != nil {
			s.saleCache = c
		}
		if ttl > 0 {
			s.saleCacheTTL = ttl
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithPublishTimeout bounds how long a committed sale or refund waits for its
// event to be accepted.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

func WithPaymentProcessor(p PaymentProcessor) Option {
	return func(s *Service) {
		if p != nil {
			s.payments = p
		}
	}
}

// WithClock replaces the wall clock used for sale and refund timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithRefundWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.refundWindowDays = days
		}
	}
}

func New(repo store.Repository, opts ...Option) *Service {
	s := &Service{
		repo:             repo,
		logger:           zap.NewNop(),
		saleCache:        cache.NoopSaleCache{},
		saleCacheTTL:     DefaultSaleCacheTTL,
		publisher:        events.NoopPublisher{},
		publishTimeout:   DefaultPublishTimeout,
		payments:         DummyGateway{},
		now:              time.Now,
		refundWindowDays: DefaultRefundWindowDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publishContext detaches event publishing from request cancellation and
// bounds it by the publish timeout.
func (s *Service) publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Forbidden("admin role required")
	}
	return nil
}

// storeErr turns store sentinels into business errors for the given entity.
func storeErr(err error, entity string, id any, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domain.NotFound(entity, id)
	case errors.Is(err, store.ErrConflict):
		return domain.Conflict(entity, conflictMsg)
	default:
		return fmt.Errorf("%s %v: %w", entity, id, err)
	}
}

// errorKind labels metrics; infrastructure failures are "internal".
func errorKind(err error) string {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return string(derr.Kind)
	}
	return "internal"
}
