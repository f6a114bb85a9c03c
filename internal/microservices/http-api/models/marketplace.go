package models

// These types describe what the order, inventory and vendor subsystems hand
// to the notification core. They are not persisted by this module.

// DefaultLowStockThreshold applies when a product has no threshold of its own
const DefaultLowStockThreshold = 10

type Product struct {
	ID                string  `json:"id"`
	VendorID          string  `json:"vendorId"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	Price             float64 `json:"price"`
	Stock             int     `json:"stock"`
	LowStockThreshold int     `json:"lowStockThreshold"`
}

// Threshold returns the effective low stock threshold
func (p *Product) Threshold() int {
	if p.LowStockThreshold > 0 {
		return p.LowStockThreshold
	}
	return DefaultLowStockThreshold
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	VendorID  string  `json:"vendorId"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Order is a marketplace order that may span several vendors
type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	BuyerName   string      `json:"buyerName"`
	Items       []OrderItem `json:"items"`
}

// VendorTotals sums subtotals and quantities over the items sold by vendorID
func (o *Order) VendorTotals(vendorID string) (totalAmount float64, itemCount int) {
	for _, item := range o.Items {
		if item.VendorID != vendorID {
			continue
		}
		totalAmount += item.Subtotal
		itemCount += item.Quantity
	}
	return totalAmount, itemCount
}

// VendorContact is what the vendor directory resolves for alert emails
type VendorContact struct {
	VendorID    string `json:"vendorId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
