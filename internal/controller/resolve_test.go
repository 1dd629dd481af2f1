package controller

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hash104 = "0x24a9edbfa7082accfceabf6a92d7160086f346d622f28741bf1c651c412c9ab"
	hash106 = "0x59e4405accdf565112fe5bf9058b51ab0b0e63665d280b816f9fe4119554b77"
)

func TestPadHash(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0x0", "0x" + strings.Repeat("0", 64)},
		{"0x1", "0x" + strings.Repeat("0", 63) + "1"},
		{"0xABC", "0x" + strings.Repeat("0", 61) + "abc"},
		{"abc", "0x" + strings.Repeat("0", 61) + "abc"},
		{"0X" + strings.Repeat("f", 64), "0x" + strings.Repeat("f", 64)},
		{"  0x1 ", "0x" + strings.Repeat("0", 63) + "1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, PadHash(tt.input))
		})
	}
}

func TestResolveOutsideExecutionVersion_NormalizationIdempotent(t *testing.T) {
	for _, v := range Versions {
		t.Run(v.Version, func(t *testing.T) {
			plain := ResolveOutsideExecutionVersion(v.Hash)
			upperPadded := ResolveOutsideExecutionVersion(strings.ToUpper(PadHash(v.Hash)))
			assert.Equal(t, plain, upperPadded)
			assert.Equal(t, v.OutsideExecutionVersion, plain)
		})
	}
}

func TestResolveOutsideExecutionVersion_Fallback(t *testing.T) {
	assert.Equal(t, OutsideExecutionV3, ResolveOutsideExecutionVersion(""))
	assert.Equal(t, OutsideExecutionV3, ResolveOutsideExecutionVersion("0xdeadbeef"))
	assert.Equal(t, OutsideExecutionV2, ResolveOutsideExecutionVersion("", OutsideExecutionV2))
	assert.Equal(t, OutsideExecutionV2, ResolveOutsideExecutionVersion("0xdeadbeef", OutsideExecutionV2))
	// a known hash ignores the fallback
	assert.Equal(t, OutsideExecutionV3, ResolveOutsideExecutionVersion(hash106, OutsideExecutionV2))
}

func TestResolveOutsideExecutionVersion_Scenario(t *testing.T) {
	assert.Equal(t, OutsideExecutionV3, ResolveOutsideExecutionVersion(hash106))
	assert.Equal(t, OutsideExecutionV3, ResolveOutsideExecutionVersion("0x0"))

	// 1.0.4 resolves to V2, distinct from the default
	assert.Equal(t, OutsideExecutionV2, ResolveOutsideExecutionVersion(hash104))
	assert.NotEqual(t, DefaultOutsideExecutionVersion, ResolveOutsideExecutionVersion(hash104))

	// leading zero padding and upper case still match
	padded := "0x0" + strings.ToUpper(strings.TrimPrefix(hash104, "0x"))
	assert.Equal(t, OutsideExecutionV2, ResolveOutsideExecutionVersion(padded))
}

func TestLookupByHash(t *testing.T) {
	info, ok := LookupByHash(hash106)
	require.True(t, ok)
	assert.Equal(t, "1.0.6", info.Version)

	_, ok = LookupByHash("")
	assert.False(t, ok)
	_, ok = LookupByHash("0xdeadbeef")
	assert.False(t, ok)
}

func TestLookupByVersion(t *testing.T) {
	info, ok := LookupByVersion("1.0.4")
	require.True(t, ok)
	assert.Equal(t, hash104, info.Hash)

	_, ok = LookupByVersion("9.9.9")
	assert.False(t, ok)
}

func TestLatestAndUpgradeAvailable(t *testing.T) {
	latest := Latest()
	assert.Equal(t, Versions[len(Versions)-1].Version, latest.Version)

	assert.True(t, UpgradeAvailable(hash104))
	assert.False(t, UpgradeAvailable(latest.Hash))
	assert.False(t, UpgradeAvailable("0xdeadbeef"))
	assert.False(t, UpgradeAvailable(""))
}

func TestEntrypoint(t *testing.T) {
	assert.Equal(t, "execute_from_outside_v2", OutsideExecutionV2.Entrypoint())
	assert.Equal(t, "execute_from_outside_v3", OutsideExecutionV3.Entrypoint())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Versions))

	tests := []struct {
		name     string
		versions []VersionInfo
	}{
		{
			name: "duplicate hash after padding",
			versions: []VersionInfo{
				{Version: "1.0.0", Hash: "0x1", OutsideExecutionVersion: OutsideExecutionV2},
				{Version: "1.0.1", Hash: "0x0001", OutsideExecutionVersion: OutsideExecutionV3},
			},
		},
		{
			name: "out of order",
			versions: []VersionInfo{
				{Version: "1.0.1", Hash: "0x1", OutsideExecutionVersion: OutsideExecutionV2},
				{Version: "1.0.0", Hash: "0x2", OutsideExecutionVersion: OutsideExecutionV3},
			},
		},
		{
			name: "bad semver",
			versions: []VersionInfo{
				{Version: "latest", Hash: "0x1", OutsideExecutionVersion: OutsideExecutionV2},
			},
		},
		{
			name: "non hex hash",
			versions: []VersionInfo{
				{Version: "1.0.0", Hash: "0xzz", OutsideExecutionVersion: OutsideExecutionV2},
			},
		},
		{
			name: "unknown outside execution version",
			versions: []VersionInfo{
				{Version: "1.0.0", Hash: "0x1", OutsideExecutionVersion: "1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.versions))
		})
	}
}

func TestIsFelt(t *testing.T) {
	assert.True(t, IsFelt("0x1"))
	assert.True(t, IsFelt("abc"))
	assert.True(t, IsFelt(hash106))
	assert.True(t, IsFelt("0X"+strings.Repeat("F", 64)))
	assert.False(t, IsFelt(""))
	assert.False(t, IsFelt("0x"))
	assert.False(t, IsFelt("0xzz"))
	assert.False(t, IsFelt("0x"+strings.Repeat("1", 65)))
}
