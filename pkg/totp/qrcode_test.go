package totp_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/dmitrymomot/vaultcore/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioningQRCode(t *testing.T) {
	t.Parallel()
	uri, err := totp.BuildProvisioningURI("JBSWY3DPEHPK3PXP", "vault", "Ledgy")
	require.NoError(t, err)

	t.Run("default size", func(t *testing.T) {
		t.Parallel()
		data, err := totp.ProvisioningQRCode(uri, 0)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 256, img.Bounds().Dx())
	})

	t.Run("custom size", func(t *testing.T) {
		t.Parallel()
		data, err := totp.ProvisioningQRCode(uri, 128)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 128, img.Bounds().Dx())
	})

	t.Run("empty uri", func(t *testing.T) {
		t.Parallel()
		_, err := totp.ProvisioningQRCode("  ", 0)
		assert.ErrorIs(t, err, totp.ErrEmptyProvisioningURI)
	})

	t.Run("data uri", func(t *testing.T) {
		t.Parallel()
		dataURI, err := totp.ProvisioningQRCodeDataURI(uri, 0)
		require.NoError(t, err)
		encoded, ok := strings.CutPrefix(dataURI, "data:image/png;base64,")
		require.True(t, ok)
		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(raw))
		assert.NoError(t, err)
	})
}
