package repository

import (
	"context"
	"errors"
	"time"

	"agrimarket/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationFilter scopes a listing to one vendor
type NotificationFilter struct {
	VendorID   string
	UnreadOnly bool
	Page       int
	Limit      int
}

func (f NotificationFilter) offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// NotificationRepository is the durable notification store.
// Every read and mutation except the retention sweep is scoped by vendor id.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter NotificationFilter) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, vendorID string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, vendorID string) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, vendorID string) (int64, error)
	Delete(ctx context.Context, notificationID, vendorID string) error
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}

type notificationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db, now: time.Now}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = r.now().UTC()
	}
	return persistenceErr("create", r.db.WithContext(ctx).Create(notification).Error)
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	// a fresh chain per statement; gorm chains are not reusable after Count
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("vendor_id = ?", filter.VendorID)
		if filter.UnreadOnly {
			q = q.Where("is_read = ?", false)
		}
		return q
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, persistenceErr("count", err)
	}

	err := scoped().
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.offset()).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, persistenceErr("list", err)
	}

	return notifications, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, vendorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("vendor_id = ? AND is_read = ?", vendorID, false).
		Count(&count).Error
	return count, persistenceErr("count unread", err)
}

// MarkAsRead only ever writes true, so concurrent callers cannot conflict
func (r *notificationRepository) MarkAsRead(ctx context.Context, notificationID, vendorID string) (*models.Notification, error) {
	if !validID(notificationID) {
		return nil, ErrNotificationNotFound
	}

	var notification models.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", notificationID, vendorID).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, persistenceErr("find", err)
	}

	if notification.IsRead {
		return &notification, nil
	}

	err = r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND vendor_id = ?", notificationID, vendorID).
		Update("is_read", true).Error
	if err != nil {
		return nil, persistenceErr("mark read", err)
	}

	notification.IsRead = true
	return &notification, nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, vendorID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("vendor_id = ? AND is_read = ?", vendorID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, persistenceErr("mark all read", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) Delete(ctx context.Context, notificationID, vendorID string) error {
	if !validID(notificationID) {
		return ErrNotificationNotFound
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", notificationID, vendorID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return persistenceErr("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, persistenceErr("delete expired", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return persistenceErr("ping", err)
	}
	return persistenceErr("ping", sqlDB.PingContext(ctx))
}

// validID filters ids the uuid column would reject with a cast error
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
