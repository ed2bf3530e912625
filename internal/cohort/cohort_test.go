package cohort

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey_Canonicalizes(t *testing.T) {
	key, err := NewKey(" basic ", "1.1")
	require.NoError(t, err)

	assert.Equal(t, "Basic", key.Type)
	assert.Equal(t, "1.1", key.Number)
	assert.Equal(t, Partition("schedule_basic_1_1"), key.Partition())
	assert.Equal(t, "Basic 1.1", key.Name())
}

func TestNewKey_RejectsMalformed(t *testing.T) {
	cases := []struct{ typ, number string }{
		{"", "1"},
		{"Basic2", "1"},
		{"Basic", ""},
		{"Basic", "1_1"},
		{"Basic", "1..1"},
		{"Basic", "a.1"},
		{"Ba sic", "1"},
		{"Basic", "1; DROP TABLE x"},
	}
	for _, tc := range cases {
		_, err := NewKey(tc.typ, tc.number)
		assert.Truef(t, errors.Is(err, ErrInvalidKey), "NewKey(%q, %q) should fail", tc.typ, tc.number)
	}
}

func TestPartition_IsInjective(t *testing.T) {
	keys := [][2]string{
		{"Basic", "1.1"},
		{"Basic", "11"},
		{"Basic", "1.11"},
		{"Basic", "11.1"},
		{"Advanced", "1.1"},
		{"Basic", "01.1"},
	}
	seen := map[Partition]string{}
	for _, k := range keys {
		key, err := NewKey(k[0], k[1])
		require.NoError(t, err)
		p := key.Partition()
		if prev, dup := seen[p]; dup {
			t.Fatalf("partition %s produced by both %s and %s", p, prev, key.Name())
		}
		seen[p] = key.Name()
	}
}

func TestParsePartition_RoundTrip(t *testing.T) {
	key, err := NewKey("ADVANCED", "2.10")
	require.NoError(t, err)

	parsed, ok := ParsePartition(string(key.Partition()))
	require.True(t, ok)
	assert.Equal(t, key, parsed)

	assert.Equal(t, Partition("schedule_advanced_2_10"), key.Partition())
}

func TestDisplayName_FallsBackToHumanized(t *testing.T) {
	name, _, ok := DisplayName("schedule_basic_3")
	assert.True(t, ok)
	assert.Equal(t, "Basic 3", name)

	name, _, ok = DisplayName("schedule_foo-bar")
	assert.False(t, ok)
	assert.Equal(t, "Schedule Foo Bar", name)

	_, ok = ParsePartition("legacy_table")
	assert.False(t, ok)
}
