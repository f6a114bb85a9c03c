package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"agrimarket/internal/microservices/http-api/models"
)

// alertView is the data both alert templates render
type alertView struct {
	VendorName   string
	ProductName  string
	Category     string
	CurrentStock int
	Threshold    int
	Price        string
	ActionURL    string
	Year         int
}

func newAlertView(vendorName string, product models.Product, actionURL string, now time.Time) alertView {
	category := strings.TrimSpace(product.Category)
	if category == "" {
		category = "N/A"
	}
	return alertView{
		VendorName:   vendorName,
		ProductName:  product.Name,
		Category:     category,
		CurrentStock: product.Stock,
		Threshold:    product.Threshold(),
		Price:        fmt.Sprintf("₹%.2f", product.Price),
		ActionURL:    actionURL,
		Year:         now.Year(),
	}
}

type alertTemplate struct {
	subject func(v alertView) string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func (t alertTemplate) render(v alertView) (subject, html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := t.html.Execute(&hb, v); err != nil {
		return "", "", "", err
	}
	if err := t.text.Execute(&tb, v); err != nil {
		return "", "", "", err
	}
	return t.subject(v), hb.String(), tb.String(), nil
}

const sharedStyle = `
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.content { background: #f9fafb; padding: 30px; border: 1px solid #e5e7eb; }
.product-details { background: white; padding: 20px; border-radius: 8px; margin: 20px 0; }
.detail-row { display: flex; justify-content: space-between; padding: 10px 0; border-bottom: 1px solid #e5e7eb; }
.detail-label { font-weight: bold; color: #6b7280; }
.detail-value { color: #111827; }
.footer { text-align: center; padding: 20px; color: #6b7280; font-size: 0.9em; }
`

var lowStockTemplate = alertTemplate{
	subject: func(v alertView) string { return "⚠️ Low Stock Alert: " + v.ProductName },
	html: htmltemplate.Must(htmltemplate.New("low_stock_html").Parse(`<!DOCTYPE html>
<html>
<head>
<style>` + sharedStyle + `
.header { background: linear-gradient(135deg, #16a34a 0%, #15803d 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
.alert-box { background: #fef3c7; border-left: 4px solid #f59e0b; padding: 15px; margin: 20px 0; border-radius: 4px; }
.stock-critical { color: #dc2626; font-weight: bold; font-size: 1.2em; }
.button { display: inline-block; background: #16a34a; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; margin: 20px 0; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>⚠️ Low Stock Alert</h1>
    <p>Immediate attention required</p>
  </div>
  <div class="content">
    <p>Dear {{.VendorName}},</p>
    <div class="alert-box">
      <strong>⚠️ Stock Alert:</strong> Your product inventory is running low and needs immediate restocking.
    </div>
    <div class="product-details">
      <h2 style="margin-top: 0; color: #16a34a;">Product Details</h2>
      <div class="detail-row"><span class="detail-label">Product Name:</span><span class="detail-value">{{.ProductName}}</span></div>
      <div class="detail-row"><span class="detail-label">Category:</span><span class="detail-value">{{.Category}}</span></div>
      <div class="detail-row"><span class="detail-label">Current Stock:</span><span class="stock-critical">{{.CurrentStock}} units</span></div>
      <div class="detail-row"><span class="detail-label">Alert Threshold:</span><span class="detail-value">{{.Threshold}} units</span></div>
      <div class="detail-row" style="border-bottom: none;"><span class="detail-label">Price per Unit:</span><span class="detail-value">{{.Price}}</span></div>
    </div>
    <p><strong>Action Required:</strong></p>
    <ul>
      <li>Review your inventory levels</li>
      <li>Restock the product to avoid going out of stock</li>
      <li>Update stock quantities in your vendor panel</li>
    </ul>
    <div style="text-align: center;">
      <a href="{{.ActionURL}}" class="button">Update Inventory Now</a>
    </div>
    <p style="margin-top: 30px; font-size: 0.9em; color: #6b7280;">
      <strong>Note:</strong> Running out of stock may result in lost sales and reduced visibility in the marketplace.
      Keep your inventory updated to maintain customer satisfaction.
    </p>
  </div>
  <div class="footer">
    <p>This is an automated alert from AgriCorus Marketplace</p>
    <p>© {{.Year}} AgriCorus. All rights reserved.</p>
  </div>
</div>
</body>
</html>
`)),
	text: texttemplate.Must(texttemplate.New("low_stock_text").Parse(`Dear {{.VendorName}},

Your product inventory is running low and needs immediate restocking.

Product Name:    {{.ProductName}}
Category:        {{.Category}}
Current Stock:   {{.CurrentStock}} units
Alert Threshold: {{.Threshold}} units
Price per Unit:  {{.Price}}

Update your inventory: {{.ActionURL}}

This is an automated alert from AgriCorus Marketplace
`)),
}

var outOfStockTemplate = alertTemplate{
	subject: func(v alertView) string { return "🚨 URGENT: " + v.ProductName + " is Out of Stock" },
	html: htmltemplate.Must(htmltemplate.New("out_of_stock_html").Parse(`<!DOCTYPE html>
<html>
<head>
<style>` + sharedStyle + `
.header { background: linear-gradient(135deg, #dc2626 0%, #991b1b 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
.alert-box { background: #fee2e2; border-left: 4px solid #dc2626; padding: 15px; margin: 20px 0; border-radius: 4px; }
.button { display: inline-block; background: #dc2626; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; margin: 20px 0; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>🚨 OUT OF STOCK</h1>
    <p>Urgent Action Required</p>
  </div>
  <div class="content">
    <p>Dear {{.VendorName}},</p>
    <div class="alert-box">
      <strong>🚨 CRITICAL ALERT:</strong> Your product is now completely out of stock and unavailable for purchase!
    </div>
    <div class="product-details">
      <h2 style="margin-top: 0; color: #dc2626;">Product Details</h2>
      <div class="detail-row"><span class="detail-label">Product Name:</span><span class="detail-value">{{.ProductName}}</span></div>
      <div class="detail-row"><span class="detail-label">Category:</span><span class="detail-value">{{.Category}}</span></div>
      <div class="detail-row"><span class="detail-label">Price per Unit:</span><span class="detail-value">{{.Price}}</span></div>
      <div class="detail-row" style="border-bottom: none;"><span class="detail-label">Current Stock:</span><span style="color: #dc2626; font-weight: bold; font-size: 1.2em;">0 units (OUT OF STOCK)</span></div>
    </div>
    <p><strong>Immediate Actions Required:</strong></p>
    <ul>
      <li>🔴 Product is now hidden from marketplace</li>
      <li>📦 Restock immediately to resume sales</li>
      <li>💰 You are losing potential revenue</li>
      <li>📊 Update inventory as soon as stock arrives</li>
    </ul>
    <div style="text-align: center;">
      <a href="{{.ActionURL}}" class="button">Restock Now</a>
    </div>
    <p style="margin-top: 30px; font-size: 0.9em; color: #6b7280;">
      <strong>Impact:</strong> Out of stock products cannot be purchased by customers and may affect your seller rating.
      Please restock as soon as possible to maintain your marketplace presence.
    </p>
  </div>
  <div class="footer">
    <p>This is an automated critical alert from AgriCorus Marketplace</p>
    <p>© {{.Year}} AgriCorus. All rights reserved.</p>
  </div>
</div>
</body>
</html>
`)),
	text: texttemplate.Must(texttemplate.New("out_of_stock_text").Parse(`Dear {{.VendorName}},

CRITICAL ALERT: your product is now completely out of stock and unavailable for purchase!

Product Name:   {{.ProductName}}
Category:       {{.Category}}
Price per Unit: {{.Price}}
Current Stock:  0 units (OUT OF STOCK)

Restock now: {{.ActionURL}}

This is an automated critical alert from AgriCorus Marketplace
`)),
}
