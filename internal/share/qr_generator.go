// Package share renders QR codes that open an event in the front end.
package share

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const defaultQRSize = 256

type QRGenerator struct {
	baseURL string
	size    int
}

// NewQRGenerator links to baseURL, the public address of the front end.
func NewQRGenerator(baseURL string) *QRGenerator {
	return &QRGenerator{baseURL: strings.TrimRight(baseURL, "/"), size: defaultQRSize}
}

func (q *QRGenerator) EventURL(eventID int64) string {
	return fmt.Sprintf("%s/event/%d", q.baseURL, eventID)
}

// EventQR returns a PNG QR code for the event's page.
func (q *QRGenerator) EventQR(eventID int64) ([]byte, error) {
	png, err := qrcode.Encode(q.EventURL(eventID), qrcode.Medium, q.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr for event %d: %w", eventID, err)
	}
	return png, nil
}
