package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	payloads := []Payload{
		NewOrderData{OrderID: "o1", OrderNumber: "ORD-1", TotalAmount: 40.5, ItemCount: 2, BuyerName: "Asha"},
		OrderCancelledData{OrderID: "o1", OrderNumber: "ORD-1", TotalAmount: 12, BuyerName: "Customer"},
		OrderDeliveredData{OrderID: "o1", OrderNumber: "ORD-1", TotalAmount: 12, BuyerName: "Customer"},
		LowStockData{ProductID: "p1", ProductName: "Neem Oil", CurrentStock: 3, Threshold: 10},
		OutOfStockData{ProductID: "p1", ProductName: "Neem Oil"},
		StockRestoredData{ProductID: "p1", ProductName: "Neem Oil", PreviousStock: 0, NewStock: 25},
		PaymentReceivedData{Amount: 199.99, OrderID: "o9"},
		KYCApprovedData{},
		KYCRejectedData{Reason: "blurry PAN card"},
		ReviewReceivedData{ProductName: "Seeds", Rating: 4, ReviewText: "good germination"},
		SystemAlertData{},
	}

	for _, p := range payloads {
		t.Run(string(p.NotificationType()), func(t *testing.T) {
			raw, err := EncodePayload(p)
			require.NoError(t, err)

			n := &Notification{Type: p.NotificationType(), Data: raw}
			decoded, err := n.Payload()
			require.NoError(t, err)
			assert.Equal(t, p, decoded)
		})
	}
}

func TestDecodePayload_RejectsForeignFields(t *testing.T) {
	_, err := DecodePayload(TypeKYCRejected, []byte(`{"reason":"x","orderId":"o1"}`))
	assert.Error(t, err)
}

func TestDecodePayload_UnknownType(t *testing.T) {
	_, err := DecodePayload(NotificationType("PRODUCT_APPROVED"), []byte(`{}`))
	assert.Error(t, err)
	assert.False(t, NotificationType("PRODUCT_APPROVED").Valid())
	assert.True(t, TypeSystemAlert.Valid())
}

func TestNotificationAge(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		created time.Time
		want    string
	}{
		{now.Add(-30 * time.Second), "Just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-49 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		n := Notification{CreatedAt: tt.created}
		assert.Equal(t, tt.want, n.Age(now))
	}
}

func TestOrderVendorTotals(t *testing.T) {
	order := Order{
		ID: "O1",
		Items: []OrderItem{
			{VendorID: "V1", Quantity: 1, Subtotal: 25},
			{VendorID: "V2", Quantity: 1, Subtotal: 15},
			{VendorID: "V1", Quantity: 1, Subtotal: 15},
		},
	}

	total, count := order.VendorTotals("V1")
	assert.Equal(t, 40.0, total)
	assert.Equal(t, 2, count)

	total, count = order.VendorTotals("V3")
	assert.Zero(t, total)
	assert.Zero(t, count)
}

func TestProductThreshold(t *testing.T) {
	assert.Equal(t, DefaultLowStockThreshold, (&Product{}).Threshold())
	assert.Equal(t, 4, (&Product{LowStockThreshold: 4}).Threshold())
}
