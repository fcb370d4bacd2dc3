package email

import (
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

// Each template defines "subject", "plainBody" and "htmlBody".

const orderConfirmationTemplate = `
{{define "subject"}}Order confirmed ({{.ShortID}}){{end}}

{{define "plainBody"}}Hi {{.CustomerName}},

Thank you for shopping with ShopWise. We have received your order {{.OrderID}}.

{{range .Items}}- {{.Name}} x{{.Quantity}}: {{money .Subtotal}}
{{end}}
Total: {{money .Total}}
Payment: {{.PaymentMethod}}
Ship to: {{.Address}}

The ShopWise team
{{end}}

{{define "htmlBody"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 22px;">Thank you for your order</h1>
	<p>Hi {{.CustomerName}}, we have received your order <strong style="font-family: monospace;">{{.OrderID}}</strong>.</p>
	<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
		<thead>
			<tr style="background: #f8f9fa;">
				<th style="padding: 8px; text-align: left;">Product</th>
				<th style="padding: 8px; text-align: center;">Qty</th>
				<th style="padding: 8px; text-align: right;">Price</th>
				<th style="padding: 8px; text-align: right;">Subtotal</th>
			</tr>
		</thead>
		<tbody>
		{{range .Items}}
			<tr>
				<td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Name}}</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">{{money .Price}}</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">{{money .Subtotal}}</td>
			</tr>
		{{end}}
		</tbody>
	</table>
	<p style="text-align: right; font-size: 18px;"><strong>Total: {{money .Total}}</strong></p>
	<p>Payment: {{.PaymentMethod}}<br>Ship to: {{.Address}}</p>
	<p style="font-size: 12px; color: #999;">This is an automated message from ShopWise.</p>
</body>
</html>
{{end}}
`

const statusUpdateTemplate = `
{{define "subject"}}Your order {{.ShortID}} is {{.Status}}{{end}}

{{define "plainBody"}}Hi {{.CustomerName}},

The status of your order {{.OrderID}} changed from {{.PreviousStatus}} to {{.Status}}.
{{if .TrackingNote}}
Note: {{.TrackingNote}}
{{end}}
The ShopWise team
{{end}}

{{define "htmlBody"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 22px;">Order update</h1>
	<p>Hi {{.CustomerName}}, the status of your order <strong style="font-family: monospace;">{{.OrderID}}</strong>
	changed from {{.PreviousStatus}} to <strong>{{.Status}}</strong>.</p>
	{{if .TrackingNote}}<p style="background: #f8f9fa; padding: 12px;">{{.TrackingNote}}</p>{{end}}
	<p style="font-size: 12px; color: #999;">This is an automated message from ShopWise.</p>
</body>
</html>
{{end}}
`

var funcs = template.FuncMap{"money": FormatMoney}

var (
	orderConfirmation = template.Must(template.New("order_confirmation").Funcs(funcs).Parse(orderConfirmationTemplate))
	statusUpdate      = template.Must(template.New("status_update").Funcs(funcs).Parse(statusUpdateTemplate))
)

// FormatMoney renders an amount in rupees with two decimals and Indian digit
// grouping, e.g. ₹1,23,456.50.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "₹" + groupIndian(whole) + "." + frac
}

// groupIndian places a comma after the last three digits and then after
// every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

// ShortID is the first eight characters of an order ID, used in subjects.
func ShortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}
