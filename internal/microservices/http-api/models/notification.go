package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// NotificationType is the closed set of vendor events the pipeline records
type NotificationType string

const (
	TypeNewOrder        NotificationType = "NEW_ORDER"
	TypeOrderCancelled  NotificationType = "ORDER_CANCELLED"
	TypeOrderDelivered  NotificationType = "ORDER_DELIVERED"
	TypeLowStock        NotificationType = "LOW_STOCK"
	TypeOutOfStock      NotificationType = "OUT_OF_STOCK"
	TypeStockRestored   NotificationType = "STOCK_RESTORED"
	TypePaymentReceived NotificationType = "PAYMENT_RECEIVED"
	TypeKYCApproved     NotificationType = "KYC_APPROVED"
	TypeKYCRejected     NotificationType = "KYC_REJECTED"
	TypeReviewReceived  NotificationType = "REVIEW_RECEIVED"
	TypeSystemAlert     NotificationType = "SYSTEM_ALERT"
)

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	_, ok := payloadDecoders[t]
	return ok
}

// Priority is used by clients for sorting and highlighting only
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Notification struct {
	ID         string           `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID   string           `gorm:"not null;index:idx_notifications_vendor_created,priority:1;index:idx_notifications_vendor_read,priority:1" json:"vendorId"`
	Type       NotificationType `gorm:"type:varchar(32);not null;index" json:"type"`
	Title      string           `gorm:"type:varchar(200);not null" json:"title"`
	Message    string           `gorm:"type:varchar(1000);not null" json:"message"`
	Data       datatypes.JSON   `gorm:"type:jsonb;not null" json:"data"`
	Priority   Priority         `gorm:"type:varchar(8);not null;default:MEDIUM" json:"priority"`
	ActionURL  string           `gorm:"type:varchar(500)" json:"actionUrl,omitempty"`
	ActionText string           `gorm:"type:varchar(50)" json:"actionText,omitempty"`
	IsRead     bool             `gorm:"not null;default:false;index:idx_notifications_vendor_read,priority:2" json:"isRead"`
	CreatedAt  time.Time        `gorm:"not null;index:idx_notifications_vendor_created,priority:2,sort:desc" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Payload decodes the stored data column into the variant that belongs to n.Type
func (n *Notification) Payload() (Payload, error) {
	return DecodePayload(n.Type, n.Data)
}

// Age renders how long ago the notification was created, e.g. "3d ago"
func (n *Notification) Age(now time.Time) string {
	diff := now.Sub(n.CreatedAt)
	switch {
	case diff >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	case diff >= time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff >= time.Minute:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	default:
		return "Just now"
	}
}

// EncodePayload serializes a payload for the data column
func EncodePayload(p Payload) (datatypes.JSON, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.NotificationType(), err)
	}
	return datatypes.JSON(raw), nil
}
