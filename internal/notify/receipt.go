package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
)

// Receipt is the data shown on an order receipt.
type Receipt struct {
	Name    string
	Email   string
	Address string
	Order   models.PurchaseOrder
}

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<!DOCTYPE html>
<html>
<body>
<h2>Thank you for your order, {{.Name}}!</h2>
<p>Order <strong>{{.Order.ID}}</strong>, paid on {{.Order.AuthorizationDate}} with {{.Order.PaymentMethod}}{{if .Order.Last4}} ending in {{.Order.Last4}}{{end}}.</p>
<p>Delivery address: {{.Address}}</p>
<table>
<tr><th>Item</th><th>Price</th><th>Qty</th><th>Total</th></tr>
{{- range .Order.Items}}
<tr><td>{{.Name}}</td><td>{{money .Price}}</td><td>{{.Qtty}}</td><td>{{money .Total}}</td></tr>
{{- end}}
<tr><td colspan="3"><strong>Total</strong></td><td><strong>{{money .Order.Total}} {{.Order.Currency}}</strong></td></tr>
</table>
</body>
</html>
`))

// RenderReceipt renders r as an HTML document.
func RenderReceipt(r Receipt) (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.String(), nil
}

// ReceiptMessage renders r into a message addressed to the customer.
func ReceiptMessage(r Receipt) (Message, error) {
	html, err := RenderReceipt(r)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      r.Email,
		Subject: fmt.Sprintf("Your pizza order %s", r.Order.ID),
		HTML:    html,
	}, nil
}
