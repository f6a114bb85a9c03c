package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is the per-type data attached to a notification.
// Each variant carries exactly the fields of its type's schema.
type Payload interface {
	NotificationType() NotificationType
}

type NewOrderData struct {
	OrderID     string  `json:"orderId" validate:"required"`
	OrderNumber string  `json:"orderNumber" validate:"required"`
	TotalAmount float64 `json:"totalAmount" validate:"gte=0"`
	ItemCount   int     `json:"itemCount" validate:"gte=0"`
	BuyerName   string  `json:"buyerName" validate:"required"`
}

type OrderCancelledData struct {
	OrderID     string  `json:"orderId" validate:"required"`
	OrderNumber string  `json:"orderNumber" validate:"required"`
	TotalAmount float64 `json:"totalAmount" validate:"gte=0"`
	BuyerName   string  `json:"buyerName" validate:"required"`
}

type OrderDeliveredData struct {
	OrderID     string  `json:"orderId" validate:"required"`
	OrderNumber string  `json:"orderNumber" validate:"required"`
	TotalAmount float64 `json:"totalAmount" validate:"gte=0"`
	BuyerName   string  `json:"buyerName" validate:"required"`
}

type LowStockData struct {
	ProductID    string `json:"productId" validate:"required"`
	ProductName  string `json:"productName" validate:"required"`
	CurrentStock int    `json:"currentStock" validate:"gte=0"`
	Threshold    int    `json:"threshold" validate:"gte=0"`
}

type OutOfStockData struct {
	ProductID    string `json:"productId" validate:"required"`
	ProductName  string `json:"productName" validate:"required"`
	CurrentStock int    `json:"currentStock" validate:"eq=0"`
}

type StockRestoredData struct {
	ProductID     string `json:"productId" validate:"required"`
	ProductName   string `json:"productName" validate:"required"`
	PreviousStock int    `json:"previousStock" validate:"gte=0"`
	NewStock      int    `json:"newStock" validate:"gte=0"`
}

type PaymentReceivedData struct {
	Amount  float64 `json:"amount" validate:"gte=0"`
	OrderID string  `json:"orderId" validate:"required"`
}

type KYCApprovedData struct{}

type KYCRejectedData struct {
	Reason string `json:"reason" validate:"required"`
}

type ReviewReceivedData struct {
	ProductName string `json:"productName" validate:"required"`
	Rating      int    `json:"rating" validate:"min=1,max=5"`
	ReviewText  string `json:"reviewText"`
}

type SystemAlertData struct{}

func (NewOrderData) NotificationType() NotificationType        { return TypeNewOrder }
func (OrderCancelledData) NotificationType() NotificationType  { return TypeOrderCancelled }
func (OrderDeliveredData) NotificationType() NotificationType  { return TypeOrderDelivered }
func (LowStockData) NotificationType() NotificationType        { return TypeLowStock }
func (OutOfStockData) NotificationType() NotificationType      { return TypeOutOfStock }
func (StockRestoredData) NotificationType() NotificationType   { return TypeStockRestored }
func (PaymentReceivedData) NotificationType() NotificationType { return TypePaymentReceived }
func (KYCApprovedData) NotificationType() NotificationType     { return TypeKYCApproved }
func (KYCRejectedData) NotificationType() NotificationType     { return TypeKYCRejected }
func (ReviewReceivedData) NotificationType() NotificationType  { return TypeReviewReceived }
func (SystemAlertData) NotificationType() NotificationType     { return TypeSystemAlert }

var payloadDecoders = map[NotificationType]func(*json.Decoder) (Payload, error){
	TypeNewOrder:        decodeInto[NewOrderData],
	TypeOrderCancelled:  decodeInto[OrderCancelledData],
	TypeOrderDelivered:  decodeInto[OrderDeliveredData],
	TypeLowStock:        decodeInto[LowStockData],
	TypeOutOfStock:      decodeInto[OutOfStockData],
	TypeStockRestored:   decodeInto[StockRestoredData],
	TypePaymentReceived: decodeInto[PaymentReceivedData],
	TypeKYCApproved:     decodeInto[KYCApprovedData],
	TypeKYCRejected:     decodeInto[KYCRejectedData],
	TypeReviewReceived:  decodeInto[ReviewReceivedData],
	TypeSystemAlert:     decodeInto[SystemAlertData],
}

func decodeInto[T Payload](dec *json.Decoder) (Payload, error) {
	var v T
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodePayload parses raw JSON into the variant registered for t.
// Unknown fields are rejected so a stored row can never carry another type's data.
func DecodePayload(t NotificationType, raw []byte) (Payload, error) {
	decode, ok := payloadDecoders[t]
	if !ok {
		return nil, fmt.Errorf("unknown notification type %q", t)
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	p, err := decode(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	return p, nil
}
