package telegram

import (
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 512

// upiURI returns the payment URI encoded in the QR code
func upiURI(upiID, payee string) string {
	q := url.Values{}
	q.Set("pa", upiID)
	if payee != "" {
		q.Set("pn", payee)
	}
	return "upi://pay?" + q.Encode()
}

// paymentQR renders the UPI payment QR as PNG
func paymentQR(upiID, payee string) ([]byte, error) {
	return qrcode.Encode(upiURI(upiID, payee), qrcode.Medium, qrSize)
}
