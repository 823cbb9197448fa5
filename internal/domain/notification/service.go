package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/infrastructure/cache"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// UnreadCountCache is the slice of the cache layer the notification domain
// needs for unread counts. *cache.RedisClient implements it. Every write that
// changes a user's unread count must invalidate through it.
type UnreadCountCache interface {
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	SetUnreadCount(ctx context.Context, userID string, count int64) error
	InvalidateUnreadCount(ctx context.Context, userID string)
}

// Service is the read surface exposed to the primary API
type Service interface {
	List(ctx context.Context, userID string, limit, offset int) ([]Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*Notification, error)
}

type service struct {
	repo   Repository
	cache  UnreadCountCache
	logger *logger.Logger
}

// NewService creates the notification read service. The cache may be nil, in
// which case counts always hit the database.
func NewService(repo Repository, unreadCache UnreadCountCache, log *logger.Logger) Service {
	return &service{
		repo:   repo,
		cache:  unreadCache,
		logger: log,
	}
}

func (s *service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, int64, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		count, err := s.cache.GetUnreadCount(ctx, userID)
		if err == nil {
			return count, nil
		}
		if !errors.Is(err, cache.ErrCacheNotFound) {
			s.logger.Warn("Unread count cache lookup failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetUnreadCount(ctx, userID, count); err != nil {
			s.logger.Warn("Failed to cache unread count",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) (*Notification, error) {
	n, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateUnreadCount(ctx, n.UserID)
	}
	return n, nil
}
