package totp

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

const defaultQRCodeSize = 256

// ProvisioningQRCode renders a provisioning URI as a PNG QR code.
// Non-positive sizes fall back to 256 pixels.
func ProvisioningQRCode(uri string, size int) ([]byte, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, ErrEmptyProvisioningURI
	}
	if size <= 0 {
		size = defaultQRCodeSize
	}
	png, err := skipqrcode.Encode(uri, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return png, nil
}

// ProvisioningQRCodeDataURI returns the QR code as a data:image/png;base64 URI.
func ProvisioningQRCodeDataURI(uri string, size int) (string, error) {
	png, err := ProvisioningQRCode(uri, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
