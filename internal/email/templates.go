package email

import (
	"fmt"
	"strings"
)

// OrderItem is a line item rendered in order emails.
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice float64
}

const (
	headerStyle = `background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; border-radius: 10px 10px 0 0;`
	bodyStyle   = `background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;`
	cellStyle   = `padding: 12px; border-bottom: 1px solid #eee;`
)

// BuildOrderConfirmationBody builds the HTML body for the payment
// confirmation email.
func BuildOrderConfirmationBody(orderNo string, total float64, items []OrderItem) string {
	var rows strings.Builder
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		rows.WriteString(fmt.Sprintf(
			`<tr>
				<td style="%[1]s">%[2]s</td>
				<td style="%[1]s text-align: center;">%[3]d</td>
				<td style="%[1]s text-align: right;">₹%[4]s</td>
				<td style="%[1]s text-align: right;">₹%[5]s</td>
			</tr>`,
			cellStyle, name, item.Quantity,
			formatAmount(item.UnitPrice),
			formatAmount(item.UnitPrice*float64(item.Quantity)),
		))
	}

	return wrap("Thank you for your order", fmt.Sprintf(`
		<p style="margin-top: 0;">Your payment has been received and your order is being prepared.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #667eea; padding-bottom: 10px;">Order summary</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Unit price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #667eea; margin-left: 10px;">₹%s</span>
		</div>`,
		orderNo, rows.String(), formatAmount(total)))
}

// BuildOrderCancelledBody builds the HTML body for the cancellation email.
// The refund line depends on how the cancellation resolved.
func BuildOrderCancelledBody(orderNo string, total float64, refunded bool) string {
	refundLine := "No payment was captured for this order, so there is nothing to refund."
	if refunded {
		refundLine = fmt.Sprintf("A refund of ₹%s has been initiated and should reach your account within 5-7 business days.", formatAmount(total))
	}
	return wrap("Your order has been cancelled", fmt.Sprintf(`
		<p style="margin-top: 0;">Order <strong style="font-family: monospace;">%s</strong> has been cancelled as requested.</p>
		<p>%s</p>`, orderNo, refundLine))
}

// BuildBidPlacedBody notifies purchasing staff that a supplier responded to
// an open ask.
func BuildBidPlacedBody(productName, supplierName string, price float64, quantity int) string {
	return wrap("New supplier bid received", fmt.Sprintf(`
		<p style="margin-top: 0;"><strong>%s</strong> placed a bid on your request for <strong>%s</strong>.</p>
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0;">Offer: ₹%s per unit, %d units (₹%s total)</p>
		</div>
		<p>Review it in the purchasing dashboard to accept or wait for further bids.</p>`,
		supplierName, productName,
		formatAmount(price), quantity, formatAmount(price*float64(quantity))))
}

// BuildBidAcceptedBody is the purchase-order confirmation sent to the winning
// supplier.
func BuildBidAcceptedBody(orderNo, productName string, price float64, quantity int, total float64) string {
	return wrap("Your bid has been accepted", fmt.Sprintf(`
		<p style="margin-top: 0;">Congratulations, your offer for <strong>%s</strong> was accepted.</p>
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Purchase order</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
			<p style="margin: 10px 0 0 0;">%d units at ₹%s, order total ₹%s</p>
		</div>
		<p>Please confirm the delivery date through the supplier portal.</p>`,
		productName, orderNo, quantity, formatAmount(price), formatAmount(total)))
}

func wrap(heading, inner string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="%s">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>

	<div style="%s">
		%s

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This is an automated message. If anything looks wrong, please contact support.
		</p>
	</div>
</body>
</html>`, headerStyle, heading, bodyStyle, inner)
}

// formatAmount renders a rupee amount with comma separators and two
// decimals.
func formatAmount(v float64) string {
	str := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(str, '.')
	whole, frac := str[:dot], str[dot:]

	neg := strings.HasPrefix(whole, "-")
	if neg {
		whole = whole[1:]
	}

	var result strings.Builder
	if neg {
		result.WriteString("-")
	}
	remainder := len(whole) % 3
	if remainder > 0 {
		result.WriteString(whole[:remainder])
		if len(whole) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(whole); i += 3 {
		result.WriteString(whole[i : i+3])
		if i+3 < len(whole) {
			result.WriteString(",")
		}
	}
	result.WriteString(frac)
	return result.String()
}
