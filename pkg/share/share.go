// Package share builds distribution artifacts for a published form: the
// public filling link and a QR code image encoding it.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length in pixels of generated QR images.
const DefaultQRSize = 256

// Link builds the public filling URL for one form version.
func Link(baseURL, formID string, formNo int) (string, error) {
	if baseURL == "" {
		return "", errors.New("share: base url is required")
	}
	if formID == "" {
		return "", errors.New("share: form id is required")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("share: parse base url: %w", err)
	}
	u = u.JoinPath("fill", formID)

	query := u.Query()
	query.Set("formNo", strconv.Itoa(formNo))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// QRPNG encodes the form's filling link as a PNG image. A size of zero uses
// DefaultQRSize.
func QRPNG(baseURL, formID string, formNo, size int) ([]byte, error) {
	link, err := Link(baseURL, formID, formNo)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("share: encode qr: %w", err)
	}
	return png, nil
}

// WriteQRFile encodes the filling link and writes the PNG to disk.
func WriteQRFile(baseURL, formID string, formNo, size int, path string) error {
	link, err := Link(baseURL, formID, formNo)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	if err := qrcode.WriteFile(link, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("share: write qr file: %w", err)
	}
	return nil
}
