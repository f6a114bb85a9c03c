package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"agrimarket/internal/mailer"
	"agrimarket/internal/metrics"
	"agrimarket/internal/microservices/http-api/models"
	"agrimarket/internal/microservices/http-api/repository"
	"agrimarket/internal/outbox"

	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100

	defaultSendTimeout     = 15 * time.Second
	defaultRetentionWindow = 30 * 24 * time.Hour
)

// AlertMailer sends the stock alert emails. *mailer.Dispatcher implements it.
type AlertMailer interface {
	SendLowStockAlert(ctx context.Context, to, vendorName string, product models.Product) (mailer.Result, error)
	SendOutOfStockAlert(ctx context.Context, to, vendorName string, product models.Product) (mailer.Result, error)
}

type CreateNotificationRequest struct {
	VendorID string
	// Type may be left empty; it is then taken from Data
	Type       models.NotificationType
	Title      string
	Message    string
	Data       models.Payload
	Priority   models.Priority
	ActionURL  string
	ActionText string
}

type ListOptions struct {
	Page       int
	Limit      int
	UnreadOnly bool
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
}

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
	UnreadCount   int64                 `json:"unreadCount"`
}

// NotificationInbox is the vendor facing read side
type NotificationInbox interface {
	GetNotifications(ctx context.Context, vendorID string, opts ListOptions) (*NotificationPage, error)
	UnreadCount(ctx context.Context, vendorID string) (int64, error)
	// MarkAsRead returns (nil, nil) when the vendor owns no such notification
	MarkAsRead(ctx context.Context, notificationID, vendorID string) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, vendorID string) (int64, error)
	DeleteNotification(ctx context.Context, notificationID, vendorID string) error
}

// NotificationService records vendor events and raises stock alert emails
type NotificationService interface {
	NotificationInbox

	CreateNotification(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error)

	NotifyNewOrder(ctx context.Context, vendorID string, order models.Order) (*models.Notification, error)
	NotifyOrderCancelled(ctx context.Context, vendorID string, order models.Order) (*models.Notification, error)
	NotifyOrderDelivered(ctx context.Context, vendorID string, order models.Order) (*models.Notification, error)
	NotifyLowStock(ctx context.Context, vendorID string, product models.Product) (*models.Notification, error)
	NotifyOutOfStock(ctx context.Context, vendorID string, product models.Product) (*models.Notification, error)
	NotifyStockRestored(ctx context.Context, vendorID string, product models.Product, previousStock, newStock int) (*models.Notification, error)
	NotifyPaymentReceived(ctx context.Context, vendorID string, amount float64, orderID string) (*models.Notification, error)
	NotifyKYCApproved(ctx context.Context, vendorID string) (*models.Notification, error)
	NotifyKYCRejected(ctx context.Context, vendorID, reason string) (*models.Notification, error)
	NotifyReviewReceived(ctx context.Context, vendorID, productName string, rating int, reviewText string) (*models.Notification, error)
	NotifySystemAlert(ctx context.Context, vendorID, title, message string, priority models.Priority) (*models.Notification, error)

	// NotifyStockChange records whichever stock event the change crosses
	// into, if any. It returns (nil, nil) when nothing was crossed.
	NotifyStockChange(ctx context.Context, vendorID string, product models.Product, previousStock int) (*models.Notification, error)

	CleanupOldNotifications(ctx context.Context) (int64, error)

	// DeliverStockAlert resolves the vendor and sends one alert email.
	// It is the outbox worker handler and the inline email step.
	DeliverStockAlert(ctx context.Context, job outbox.Job) error
}

// AlertOptions tunes the email side effect and retention
type AlertOptions struct {
	// Queue hands alerts to the outbox workers; nil sends inline
	Queue           outbox.Queue
	SendTimeout     time.Duration
	RetentionWindow time.Duration
}

type notificationService struct {
	repo    repository.NotificationRepository
	vendors repository.VendorDirectory
	mail    AlertMailer
	opts    AlertOptions
	logger  *slog.Logger
	now     func() time.Time
}

func NewNotificationService(
	repo repository.NotificationRepository,
	vendors repository.VendorDirectory,
	mail AlertMailer,
	opts AlertOptions,
	logger *slog.Logger,
) NotificationService {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if opts.RetentionWindow <= 0 {
		opts.RetentionWindow = defaultRetentionWindow
	}
	return &notificationService{
		repo:    repo,
		vendors: vendors,
		mail:    mail,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error) {
	if err := validateRequest(&req); err != nil {
		metrics.NotificationCreateFailures.WithLabelValues("validation").Inc()
		return nil, err
	}

	data, err := models.EncodePayload(req.Data)
	if err != nil {
		metrics.NotificationCreateFailures.WithLabelValues("validation").Inc()
		return nil, invalid("data", err.Error())
	}

	notification := &models.Notification{
		ID:         uuid.New().String(),
		VendorID:   req.VendorID,
		Type:       req.Type,
		Title:      req.Title,
		Message:    req.Message,
		Data:       data,
		Priority:   req.Priority,
		ActionURL:  req.ActionURL,
		ActionText: req.ActionText,
		IsRead:     false,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		metrics.NotificationCreateFailures.WithLabelValues("store").Inc()
		s.logger.Error("notification_create_failed",
			"vendor_id", req.VendorID,
			"type", req.Type,
			"error", err,
		)
		return nil, err
	}

	metrics.NotificationsCreated.WithLabelValues(string(notification.Type)).Inc()
	s.logger.Info("notification_created",
		"notification_id", notification.ID,
		"vendor_id", notification.VendorID,
		"type", notification.Type,
	)
	return notification, nil
}

func (s *notificationService) NotifyNewOrder(ctx context.Context, vendorID string, order models.Order) (*models.Notification, error) {
	total, items := order.VendorTotals(vendorID)
	return s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID: vendorID,
		Title:    "New Order Received!",
		Message:  fmt.Sprintf("You received a new order #%s for %d items worth %s", order.OrderNumber, items, rupees(total)),
		Data: models.NewOrderData{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			TotalAmount: total,
			ItemCount:   items,
			BuyerName:   buyerName(order),
		},
		Priority:   models.PriorityHigh,
		ActionURL:  "/vendor/orders",
		ActionText: "View Order",
	})
}

func (s *notificationService) NotifyOrderCancelled(ctx context.Context, vendorID string, order models.Order) (*models.Notification, error) {
	total, _ := order.VendorTotals(vendorID)
	return s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID: vendorID,
		Title:    "Order Cancelled",
		Message:  fmt.Sprintf("Order #%s worth %s has been cancelled", order.OrderNumber, rupees(total)),
		Data: models.OrderCancelledData{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			TotalAmount: total,
			BuyerName:   buyerName(order),
		},
		Priority:   models.PriorityMedium,
		ActionURL:  "/vendor/orders",
		ActionText: "View Orders",
	})
}

func (s *notificationService) NotifyOrderDelivered(ctx context.Context, vendorID string, order models.Order) (*models.Notification, error) {
	total, _ := order.VendorTotals(vendorID)
	return s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID: vendorID,
		Title:    "Order Delivered Successfully",
		Message:  fmt.Sprintf("Order #%s worth %s has been delivered", order.OrderNumber, rupees(total)),
		Data: models.OrderDeliveredData{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			TotalAmount: total,
			BuyerName:   buyerName(order),
		},
		Priority:   models.PriorityLow,
		ActionURL:  "/vendor/orders",
		ActionText: "View Order",
	})
}

// NotifyLowStock persists first; the email is attempted only after the write
// succeeded and its outcome never reaches the caller.
func (s *notificationService) NotifyLowStock(ctx context.Context, vendorID string, product models.Product) (*models.Notification, error) {
	notification, err := s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID: vendorID,
		Title:    "Low Stock Alert",
		Message:  fmt.Sprintf("%s is running low with only %d units remaining", product.Name, product.Stock),
		Data: models.LowStockData{
			ProductID:    product.ID,
			ProductName:  product.Name,
			CurrentStock: product.Stock,
			Threshold:    product.Threshold(),
		},
		Priority:   models.PriorityMedium,
		ActionURL:  "/vendor/inventory",
		ActionText: "Update Stock",
	})
	if err != nil {
		return nil, err
	}

	s.raiseStockAlert(ctx, outbox.KindLowStock, vendorID, product, notification.ID)
	return notification, nil
}

func (s *notificationService) NotifyOutOfStock(ctx context.Context, vendorID string, product models.Product) (*models.Notification, error) {
	notification, err := s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID: vendorID,
		Title:    "Product Out of Stock",
		Message:  fmt.Sprintf("%s is now out of stock and unavailable for purchase", product.Name),
		Data: models.OutOfStockData{
			ProductID:    product.ID,
			ProductName:  product.Name,
			CurrentStock: 0,
		},
		Priority:   models.PriorityHigh,
		ActionURL:  "/vendor/inventory",
		ActionText: "Restock Now",
	})
	if err != nil {
		return nil, err
	}

	product.Stock = 0
	s.raiseStockAlert(ctx, outbox.KindOutOfStock, vendorID, product, notification.ID)
	return notification, nil
}

func (s *notificationService) NotifyStockRestored(ctx context.Context, vendorID string, product models.Product, previousStock, newStock int) (*models.Notification, error) {
	return s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID: vendorID,
		Title:    "Stock Restored",
		Message:  fmt.Sprintf("%s stock has been updated from %d to %d units", product.Name, previousStock, newStock),
		Data: models.StockRestoredData{
			ProductID:     product.ID,
			ProductName:   product.Name,
			PreviousStock: previousStock,
			NewStock:      newStock,
		},
		Priority:   models.PriorityLow,
		ActionURL:  "/vendor/inventory",
		ActionText: "View Inventory",
	})
}

func (s *notificationService) NotifyPaymentReceived(ctx context.Context, vendorID string, amount float64, orderID string) (*models.Notification, error) {
	return s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID:   vendorID,
		Title:      "Payment Received",
		Message:    fmt.Sprintf("You received a payment of %s for your order", rupees(amount)),
		Data:       models.PaymentReceivedData{Amount: amount, OrderID: orderID},
		Priority:   models.PriorityMedium,
		ActionURL:  "/vendor/payments",
		ActionText: "View Payments",
	})
}

func (s *notificationService) NotifyKYCApproved(ctx context.Context, vendorID string) (*models.Notification, error) {
	return s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID:   vendorID,
		Title:      "KYC Verification Approved",
		Message:    "Congratulations! Your KYC verification has been approved. You can now sell products.",
		Data:       models.KYCApprovedData{},
		Priority:   models.PriorityHigh,
		ActionURL:  "/vendor/profile",
		ActionText: "View Profile",
	})
}

func (s *notificationService) NotifyKYCRejected(ctx context.Context, vendorID, reason string) (*models.Notification, error) {
	return s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID:   vendorID,
		Title:      "KYC Verification Rejected",
		Message:    "Your KYC verification was rejected. Reason: " + reason,
		Data:       models.KYCRejectedData{Reason: reason},
		Priority:   models.PriorityHigh,
		ActionURL:  "/vendor/profile",
		ActionText: "Resubmit KYC",
	})
}

func (s *notificationService) NotifyReviewReceived(ctx context.Context, vendorID, productName string, rating int, reviewText string) (*models.Notification, error) {
	return s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID: vendorID,
		Title:    "New Product Review",
		Message:  fmt.Sprintf("%s received a %d-star review: \"%s...\"", productName, rating, truncateRunes(reviewText, 50)),
		Data: models.ReviewReceivedData{
			ProductName: productName,
			Rating:      rating,
			ReviewText:  reviewText,
		},
		Priority:   models.PriorityLow,
		ActionURL:  "/vendor/feedback",
		ActionText: "View Reviews",
	})
}

// NotifySystemAlert uses the caller's priority, MEDIUM when empty
func (s *notificationService) NotifySystemAlert(ctx context.Context, vendorID, title, message string, priority models.Priority) (*models.Notification, error) {
	return s.CreateNotification(ctx, CreateNotificationRequest{
		VendorID:   vendorID,
		Title:      title,
		Message:    message,
		Data:       models.SystemAlertData{},
		Priority:   priority,
		ActionURL:  "/vendor/dashboard",
		ActionText: "View Dashboard",
	})
}

func (s *notificationService) NotifyStockChange(ctx context.Context, vendorID string, product models.Product, previousStock int) (*models.Notification, error) {
	switch t, _ := ClassifyStockChange(previousStock, product.Stock, product.LowStockThreshold); t {
	case models.TypeStockRestored:
		return s.NotifyStockRestored(ctx, vendorID, product, previousStock, product.Stock)
	case models.TypeOutOfStock:
		return s.NotifyOutOfStock(ctx, vendorID, product)
	case models.TypeLowStock:
		return s.NotifyLowStock(ctx, vendorID, product)
	}
	return nil, nil
}

// ClassifyStockChange maps a stock update to the event it crosses into.
// A zero threshold means the default of 10.
func ClassifyStockChange(oldStock, newStock, threshold int) (models.NotificationType, bool) {
	if threshold <= 0 {
		threshold = models.DefaultLowStockThreshold
	}
	switch {
	case oldStock == 0 && newStock > 0:
		return models.TypeStockRestored, true
	case newStock == 0 && oldStock > 0:
		return models.TypeOutOfStock, true
	case newStock > 0 && newStock <= threshold && oldStock > threshold:
		return models.TypeLowStock, true
	}
	return "", false
}

func (s *notificationService) GetNotifications(ctx context.Context, vendorID string, opts ListOptions) (*NotificationPage, error) {
	if opts.Page < 1 {
		opts.Page = defaultPage
	}
	if opts.Limit < 1 {
		opts.Limit = defaultLimit
	}
	if opts.Limit > maxLimit {
		opts.Limit = maxLimit
	}

	notifications, total, err := s.repo.List(ctx, repository.NotificationFilter{
		VendorID:   vendorID,
		UnreadOnly: opts.UnreadOnly,
		Page:       opts.Page,
		Limit:      opts.Limit,
	})
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	return &NotificationPage{
		Notifications: notifications,
		Pagination: Pagination{
			CurrentPage: opts.Page,
			TotalPages:  int(math.Ceil(float64(total) / float64(opts.Limit))),
			Total:       total,
			Limit:       opts.Limit,
		},
		UnreadCount: unread,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, vendorID string) (int64, error) {
	return s.repo.CountUnread(ctx, vendorID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, notificationID, vendorID string) (*models.Notification, error) {
	notification, err := s.repo.MarkAsRead(ctx, notificationID, vendorID)
	if errors.Is(err, repository.ErrNotificationNotFound) {
		return nil, nil
	}
	return notification, err
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, vendorID string) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, vendorID)
}

func (s *notificationService) DeleteNotification(ctx context.Context, notificationID, vendorID string) error {
	return s.repo.Delete(ctx, notificationID, vendorID)
}

// CleanupOldNotifications removes read notifications older than the
// retention window. Unread ones are kept however old they are.
func (s *notificationService) CleanupOldNotifications(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.opts.RetentionWindow)
	deleted, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("notification_cleanup_failed", "cutoff", cutoff, "error", err)
		return 0, err
	}
	metrics.RetentionDeleted.Add(float64(deleted))
	s.logger.Info("notification_cleanup_done", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

// raiseStockAlert never returns an error: every failure here is logged and
// the already persisted notification stands.
func (s *notificationService) raiseStockAlert(ctx context.Context, kind outbox.Kind, vendorID string, product models.Product, notificationID string) {
	job := outbox.Job{
		ID:             uuid.New().String(),
		Kind:           kind,
		VendorID:       vendorID,
		Product:        product,
		NotificationID: notificationID,
		EnqueuedAt:     s.now().UTC(),
	}

	if s.opts.Queue != nil {
		if err := s.opts.Queue.Enqueue(ctx, job); err != nil {
			metrics.AlertEmails.WithLabelValues(string(kind), "enqueue_failed").Inc()
			s.logger.Error("stock_alert_enqueue_failed",
				"vendor_id", vendorID,
				"notification_id", notificationID,
				"error", err,
			)
			return
		}
		metrics.AlertEmails.WithLabelValues(string(kind), "enqueued").Inc()
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()

	if err := s.DeliverStockAlert(sendCtx, job); err != nil {
		if errors.Is(err, repository.ErrVendorNotFound) || errors.Is(err, ErrVendorHasNoEmail) {
			s.logger.Warn("stock_alert_email_skipped",
				"vendor_id", vendorID,
				"notification_id", notificationID,
				"reason", err,
			)
			return
		}
		s.logger.Error("stock_alert_email_failed",
			"vendor_id", vendorID,
			"notification_id", notificationID,
			"kind", kind,
			"error", err,
		)
	}
}

func (s *notificationService) DeliverStockAlert(ctx context.Context, job outbox.Job) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SendTimeout)
		defer cancel()
	}

	contact, err := s.vendors.Lookup(ctx, job.VendorID)
	if err != nil {
		if errors.Is(err, repository.ErrVendorNotFound) {
			metrics.AlertEmails.WithLabelValues(string(job.Kind), "skipped").Inc()
			return outbox.Permanent(fmt.Errorf("vendor %s: %w", job.VendorID, err))
		}
		return fmt.Errorf("vendor lookup: %w", err)
	}
	if contact.Email == "" {
		metrics.AlertEmails.WithLabelValues(string(job.Kind), "skipped").Inc()
		return outbox.Permanent(fmt.Errorf("vendor %s: %w", job.VendorID, ErrVendorHasNoEmail))
	}

	start := time.Now()
	var result mailer.Result
	switch job.Kind {
	case outbox.KindLowStock:
		result, err = s.mail.SendLowStockAlert(ctx, contact.Email, contact.DisplayName, job.Product)
	case outbox.KindOutOfStock:
		result, err = s.mail.SendOutOfStockAlert(ctx, contact.Email, contact.DisplayName, job.Product)
	default:
		return outbox.Permanent(fmt.Errorf("unknown alert kind %q", job.Kind))
	}
	metrics.AlertEmailDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AlertEmails.WithLabelValues(string(job.Kind), "failed").Inc()
		// only transport failures are worth another attempt
		var dispatchErr *mailer.DispatchError
		if errors.As(err, &dispatchErr) && dispatchErr.Kind != mailer.KindTransport {
			return outbox.Permanent(err)
		}
		return err
	}

	metrics.AlertEmails.WithLabelValues(string(job.Kind), "sent").Inc()
	s.logger.Info("stock_alert_email_delivered",
		"vendor_id", job.VendorID,
		"notification_id", job.NotificationID,
		"product_id", job.Product.ID,
		"message_id", result.MessageID,
		"attempt", job.Attempt,
	)
	return nil
}

func buyerName(order models.Order) string {
	if order.BuyerName == "" {
		return "Customer"
	}
	return order.BuyerName
}

func rupees(amount float64) string {
	return fmt.Sprintf("₹%.2f", amount)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
