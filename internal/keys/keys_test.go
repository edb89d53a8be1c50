package keys_test

import (
	"strings"
	"testing"

	"github.com/festivo/backstop/internal/keys"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTenantID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
		invalid  bool
	}{
		{
			name:     "regular dashed uuid",
			input:    "01234567-89ab-cdef-0123-456789abcdef",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:     "all caps dashed uuid",
			input:    "01234567-89AB-CDEF-0123-456789ABCDEF",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:     "mixed case dashed uuid",
			input:    "01234567-89ab-cdef-0123-456789ABCDEF",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:     "stripped uuid",
			input:    "0123456789abcdef0123456789abcdef",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:     "all caps stripped uuid",
			input:    "0123456789ABCDEF0123456789ABCDEF",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:    "invalid character",
			input:   "0123456789abcdef0123456789abcdeg",
			invalid: true,
		},
		{
			name:    "too short",
			input:   "0123456789abcdef",
			invalid: true,
		},
		{
			name:    "empty",
			input:   "",
			invalid: true,
		},
		{
			name:    "not a uuid at all",
			input:   "tenant-1",
			invalid: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			normalized, err := keys.NormalizeTenantID(c.input)
			if c.invalid {
				require.Error(t, err)
				require.Empty(t, normalized)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.expected, normalized)
		})
	}
}

func TestNormalizeTenantIDIsDeterministic(t *testing.T) {
	t.Parallel()

	spellings := []string{
		"01234567-89ab-cdef-0123-456789abcdef",
		"01234567-89AB-CDEF-0123-456789ABCDEF",
		"0123456789abcdef0123456789abcdef",
	}

	first, err := keys.NormalizeTenantID(spellings[0])
	require.NoError(t, err)

	for _, spelling := range spellings[1:] {
		normalized, err := keys.NormalizeTenantID(spelling)
		require.NoError(t, err)
		require.Equal(t, first, normalized)
	}
}

func TestForQuery(t *testing.T) {
	t.Parallel()

	tenant := "01234567-89ab-cdef-0123-456789abcdef"

	key := keys.ForQuery(tenant, "guests", "rsvp=pending")
	require.Equal(t, tenant+"/guests/rsvp=pending", key)

	t.Run("key is covered by its prefixes", func(t *testing.T) {
		t.Parallel()

		require.True(t, strings.HasPrefix(key, keys.TenantPrefix(tenant)))
		require.True(t, strings.HasPrefix(key, keys.ResourcePrefix(tenant, "guests")))
	})

	t.Run("other resource prefix does not cover the key", func(t *testing.T) {
		t.Parallel()

		require.False(t, strings.HasPrefix(key, keys.ResourcePrefix(tenant, "vendors")))
	})

	t.Run("distinct queries yield distinct keys", func(t *testing.T) {
		t.Parallel()

		other := keys.ForQuery(tenant, "guests", "rsvp=accepted")
		require.NotEqual(t, key, other)
	})
}

func TestTenantPrefixIsolation(t *testing.T) {
	t.Parallel()

	tenantA := "01234567-89ab-cdef-0123-456789abcdef"
	tenantB := "98765432-10fe-dcba-9876-543210fedcba"

	keyA := keys.ForQuery(tenantA, "guests", "all")
	require.False(t, strings.HasPrefix(keyA, keys.TenantPrefix(tenantB)))
}

func TestQueryQualifier(t *testing.T) {
	t.Parallel()

	t.Run("empty params", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, "all", keys.QueryQualifier(nil))
		require.Equal(t, "all", keys.QueryQualifier(map[string]string{}))
	})

	t.Run("params are sorted", func(t *testing.T) {
		t.Parallel()

		qualifier := keys.QueryQualifier(map[string]string{
			"sort":     "name",
			"rsvp":     "pending",
			"category": "florist",
		})
		require.Equal(t, "category=florist&rsvp=pending&sort=name", qualifier)
	})

	t.Run("equal param sets always agree", func(t *testing.T) {
		t.Parallel()

		for range 100 {
			first := keys.QueryQualifier(map[string]string{"a": "1", "b": "2", "c": "3"})
			second := keys.QueryQualifier(map[string]string{"c": "3", "b": "2", "a": "1"})
			require.Equal(t, first, second)
		}
	})

	t.Run("distinct param sets disagree", func(t *testing.T) {
		t.Parallel()

		require.NotEqual(t,
			keys.QueryQualifier(map[string]string{"rsvp": "pending"}),
			keys.QueryQualifier(map[string]string{"rsvp": "accepted"}),
		)
	})
}
