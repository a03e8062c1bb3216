package totp_test

import (
	"testing"

	"github.com/dmitrymomot/vaultcore/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProvisioningURI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		secret  string
		account string
		issuer  string
		want    string
		wantErr error
	}{
		{
			name:    "basic URI",
			secret:  "JBSWY3DPEHPK3PXP",
			account: "alice@example.com",
			issuer:  "Ledgy",
			want:    "otpauth://totp/Ledgy:alice%40example.com?secret=JBSWY3DPEHPK3PXP&issuer=Ledgy&algorithm=SHA1&digits=6&period=30",
		},
		{
			name:    "special characters",
			secret:  "JBSWY3DPEHPK3PXP",
			account: "test+user@example.com",
			issuer:  "Test & App",
			want:    "otpauth://totp/Test%20%26%20App:test%2Buser%40example.com?secret=JBSWY3DPEHPK3PXP&issuer=Test%20%26%20App&algorithm=SHA1&digits=6&period=30",
		},
		{
			name:    "unreserved characters kept",
			secret:  "JBSWY3DPEHPK3PXP",
			account: "a-b_c.d!e~f*g'h(i)",
			issuer:  "Ledgy",
			want:    "otpauth://totp/Ledgy:a-b_c.d!e~f*g'h(i)?secret=JBSWY3DPEHPK3PXP&issuer=Ledgy&algorithm=SHA1&digits=6&period=30",
		},
		{
			name:    "unicode account",
			secret:  "JBSWY3DPEHPK3PXP",
			account: "Zoë",
			issuer:  "Ledgy",
			want:    "otpauth://totp/Ledgy:Zo%C3%AB?secret=JBSWY3DPEHPK3PXP&issuer=Ledgy&algorithm=SHA1&digits=6&period=30",
		},
		{
			name:    "default issuer",
			secret:  "JBSWY3DPEHPK3PXP",
			account: "bob",
			want:    "otpauth://totp/Ledgy:bob?secret=JBSWY3DPEHPK3PXP&issuer=Ledgy&algorithm=SHA1&digits=6&period=30",
		},
		{
			name:    "missing secret",
			account: "bob",
			wantErr: totp.ErrMissingSecret,
		},
		{
			name:    "lowercase secret rejected",
			secret:  "jbswy3dpehpk3pxp",
			account: "bob",
			wantErr: totp.ErrInvalidSecret,
		},
		{
			name:    "missing account",
			secret:  "JBSWY3DPEHPK3PXP",
			account: " ",
			wantErr: totp.ErrMissingAccountName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.BuildProvisioningURI(tt.secret, tt.account, tt.issuer)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
