package email

import (
	"context"
	"errors"
	"testing"

	"github.com/go-mail/mail/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDialer struct {
	failures int
	calls    int
	sent     []*mail.Message
}

func (f *fakeDialer) DialAndSend(m ...*mail.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	f.sent = append(f.sent, m...)
	return nil
}

func sampleConfirmation() OrderConfirmation {
	return OrderConfirmation{
		CustomerName: "Asha <admin>",
		OrderID:      "0f8fad5b-d9cb-469f-a165-70867728950e",
		Items: []Line{
			{Name: "Phone", Quantity: 2, Price: decimal.RequireFromString("199.99"), Subtotal: decimal.RequireFromString("399.98")},
		},
		Total:         decimal.RequireFromString("399.98"),
		PaymentMethod: "card",
		Address:       "1 Main St, Pune 411001",
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₹0.00"},
		{"5.5", "₹5.50"},
		{"999.99", "₹999.99"},
		{"1000", "₹1,000.00"},
		{"123456.5", "₹1,23,456.50"},
		{"12345678", "₹1,23,45,678.00"},
		{"-1500", "-₹1,500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0f8fad5b", ShortID("0f8fad5b-d9cb-469f"))
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestRender_OrderConfirmation(t *testing.T) {
	msg, err := Render("asha@example.com", orderConfirmation, sampleConfirmation())

	require.NoError(t, err)
	assert.Equal(t, "Order confirmed (0f8fad5b)", msg.Subject)
	assert.Contains(t, msg.Plain, "- Phone x2: ₹399.98")
	assert.Contains(t, msg.Plain, "Total: ₹399.98")
	assert.Contains(t, msg.HTML, "₹199.99")
	// html/template escapes customer supplied text
	assert.Contains(t, msg.HTML, "Asha &lt;admin&gt;")
	assert.NotContains(t, msg.HTML, "<admin>")
}

func TestRender_StatusUpdate(t *testing.T) {
	data := StatusUpdate{
		CustomerName:   "Asha",
		OrderID:        "0f8fad5b-d9cb",
		PreviousStatus: "processing",
		Status:         "shipped",
		TrackingNote:   "Courier AB123",
	}

	msg, err := Render("asha@example.com", statusUpdate, data)
	require.NoError(t, err)
	assert.Equal(t, "Your order 0f8fad5b is shipped", msg.Subject)
	assert.Contains(t, msg.Plain, "from processing to shipped")
	assert.Contains(t, msg.Plain, "Note: Courier AB123")

	data.TrackingNote = ""
	msg, err = Render("asha@example.com", statusUpdate, data)
	require.NoError(t, err)
	assert.NotContains(t, msg.Plain, "Note:")
}

func TestService_SendRetries(t *testing.T) {
	dialer := &fakeDialer{failures: 2}
	svc := NewServiceWithDialer(dialer, "ShopWise <noreply@shopwise.example>")

	err := svc.SendOrderConfirmation(context.Background(), "asha@example.com", sampleConfirmation())

	require.NoError(t, err)
	assert.Equal(t, 3, dialer.calls)
	require.Len(t, dialer.sent, 1)
	assert.Equal(t, []string{"asha@example.com"}, dialer.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"ShopWise <noreply@shopwise.example>"}, dialer.sent[0].GetHeader("From"))
}

func TestService_SendGivesUp(t *testing.T) {
	dialer := &fakeDialer{failures: 10}
	svc := NewServiceWithDialer(dialer, "noreply@shopwise.example")

	err := svc.SendStatusUpdate(context.Background(), "asha@example.com", StatusUpdate{OrderID: "o-1", Status: "shipped"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, sendAttempts, dialer.calls)
}
