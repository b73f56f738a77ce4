package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"anoa.com/fitquest/internal/entity"
	notifRepo "anoa.com/fitquest/internal/modules/notification/repository"
	"anoa.com/fitquest/internal/realtime"
	"anoa.com/fitquest/pkg/apperror"
	"anoa.com/fitquest/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	SentSince(ctx context.Context, userID uuid.UUID, notifType string, since time.Time) (bool, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	// 1. Save to DB
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	// 2. Publish to Redis if Redis is available
	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			channel := realtime.UserNotificationChannel(notification.UserID.String())
			if err := s.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
				logger.Logger.Warn("notification_publish_failed",
					zap.String("user_id", notification.UserID.String()),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	err := s.repo.MarkAsRead(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) SentSince(ctx context.Context, userID uuid.UUID, notifType string, since time.Time) (bool, error) {
	return s.repo.ExistsSince(ctx, userID, notifType, since)
}
