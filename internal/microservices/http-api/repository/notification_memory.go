package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"agrimarket/internal/microservices/http-api/models"

	"github.com/google/uuid"
)

// memoryNotificationRepository keeps notifications in process memory.
// Used for local development (STORE_BACKEND=memory) and tests.
type memoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]models.Notification
	now           func() time.Time
}

func NewMemoryNotificationRepository() NotificationRepository {
	return NewMemoryNotificationRepositoryWithClock(time.Now)
}

// NewMemoryNotificationRepositoryWithClock lets tests control creation timestamps
func NewMemoryNotificationRepositoryWithClock(now func() time.Time) NotificationRepository {
	return &memoryNotificationRepository{
		notifications: make(map[string]models.Notification),
		now:           now,
	}
}

func (r *memoryNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return persistenceErr("create", err)
	}
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.notifications[notification.ID]; exists {
		return persistenceErr("create", ErrDuplicateNotification)
	}
	r.notifications[notification.ID] = *notification
	return nil
}

func (r *memoryNotificationRepository) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, persistenceErr("list", err)
	}

	r.mu.RLock()
	matched := make([]models.Notification, 0)
	for _, n := range r.notifications {
		if n.VendorID != filter.VendorID {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := filter.offset()
	if start >= len(matched) {
		return []models.Notification{}, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (r *memoryNotificationRepository) CountUnread(ctx context.Context, vendorID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, persistenceErr("count unread", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, n := range r.notifications {
		if n.VendorID == vendorID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *memoryNotificationRepository) MarkAsRead(ctx context.Context, notificationID, vendorID string) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, persistenceErr("mark read", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[notificationID]
	if !ok || n.VendorID != vendorID {
		return nil, ErrNotificationNotFound
	}
	n.IsRead = true
	r.notifications[notificationID] = n
	return &n, nil
}

func (r *memoryNotificationRepository) MarkAllAsRead(ctx context.Context, vendorID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, persistenceErr("mark all read", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for id, n := range r.notifications {
		if n.VendorID != vendorID || n.IsRead {
			continue
		}
		n.IsRead = true
		r.notifications[id] = n
		affected++
	}
	return affected, nil
}

func (r *memoryNotificationRepository) Delete(ctx context.Context, notificationID, vendorID string) error {
	if err := ctx.Err(); err != nil {
		return persistenceErr("delete", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[notificationID]
	if !ok || n.VendorID != vendorID {
		return ErrNotificationNotFound
	}
	delete(r.notifications, notificationID)
	return nil
}

func (r *memoryNotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, persistenceErr("delete expired", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, n := range r.notifications {
		if n.IsRead && n.CreatedAt.Before(cutoff) {
			delete(r.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryNotificationRepository) Ping(ctx context.Context) error {
	return nil
}
