package reporting

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	t.Run("connection reset by peer", func(t *testing.T) {
		t.Parallel()

		err := `Server error: Get "https://api.festivo.app/tenants/deadbeef8315465d9d44cfc238c64f71": read tcp [dead:beef:feb1:d745::c001]:64079->[dead:beef::6811:112a]:443: read: connection reset by peer`
		want := `Server error: Get "https://api.festivo.app/tenants/<uuid>": read tcp <host>-><host>: read: connection reset by peer`
		require.Equal(t, want, sanitizeError(err))
	})
	t.Run("context deadline", func(t *testing.T) {
		t.Parallel()

		err := `Server error: Get "https://api.festivo.app/tenants/deadbeef810845ca8424cf7ba5929a3e": context deadline exceeded (Client.Timeout exceeded while awaiting headers)`
		want := `Server error: Get "https://api.festivo.app/tenants/<uuid>": context deadline exceeded (Client.Timeout exceeded while awaiting headers)`
		require.Equal(t, want, sanitizeError(err))
	})
	t.Run("misc ipv6", func(t *testing.T) {
		t.Parallel()

		ips := []string{
			`1:2:3:4:5:6:7:8`,
			`1::`,
			`1:2:3:4:5:6:7::`,
			`1::8`,
			`1:2:3:4:5:6::8`,
			`1:2:3:4:5:6::8`,
			`1::7:8`,
			`1:2:3:4:5::7:8`,
			`1:2:3:4:5::8`,
			`1::6:7:8`,
			`1:2:3:4::6:7:8`,
			`1:2:3:4::8`,
			`1::5:6:7:8`,
			`1:2:3::5:6:7:8`,
			`1:2:3::8`,
			`1::4:5:6:7:8`,
			`1:2::4:5:6:7:8`,
			`1:2::8`,
			`1::3:4:5:6:7:8`,
			`1::3:4:5:6:7:8`,
			`1::8`,
			`::2:3:4:5:6:7:8`,
			`::8`,
			`::`,
		}
		for _, ip := range ips {
			t.Run(ip, func(t *testing.T) {
				t.Parallel()

				require.Equal(t, "<host>", sanitizeError(fmt.Sprintf("[%s]:1234", ip)))
			})
		}
	})
	t.Run("tenant ids", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			error string
			want  string
		}{
			{
				// Dashed spelling
				error: `failed to send request: Get "https://api.festivo.app/tenants/deadbeef-8108-45ca-8424-cf7ba5929a3e/guests": failed`,
				want:  `failed to send request: Get "https://api.festivo.app/tenants/<uuid>/guests": failed`,
			},
			{
				// Undashed spelling
				error: `failed to send request: Get "https://api.festivo.app/tenants/deadbeef810845ca8424cf7ba5929a3e/vendors": failed`,
				want:  `failed to send request: Get "https://api.festivo.app/tenants/<uuid>/vendors": failed`,
			},
			{
				// Multiple occurrences
				error: `invalid tenant deadbeef-8108-45ca-8424-cf7ba5929a3e, expected deadbeef-0000-45ca-8424-cf7ba5929a3e`,
				want:  `invalid tenant <uuid>, expected <uuid>`,
			},
			{
				// No match
				error: `failed to send request: Get "https://api.festivo.app/tenants/not-a-tenant-id/guests": failed`,
				want:  `failed to send request: Get "https://api.festivo.app/tenants/not-a-tenant-id/guests": failed`,
			},
		}
		for _, tc := range cases {
			t.Run(tc.error, func(t *testing.T) {
				t.Parallel()

				require.Equal(t, tc.want, sanitizeError(tc.error))
			})
		}
	})
}
