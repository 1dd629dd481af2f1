package controller

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// hashWidth is the number of hex digits in a padded felt.
const hashWidth = 64

// PadHash returns hash in canonical form: "0x" followed by 64 lower-case
// hex digits. Hashes that differ only in case or leading-zero padding
// pad to the same string.
func PadHash(hash string) string {
	h := strings.ToLower(strings.TrimSpace(hash))
	h = strings.TrimPrefix(h, "0x")
	if len(h) < hashWidth {
		h = strings.Repeat("0", hashWidth-len(h)) + h
	}
	return "0x" + h
}

// ResolveOutsideExecutionVersion returns the outside execution version
// of the controller class deployed at classHash. An empty or unknown
// class hash resolves to fallback, or to DefaultOutsideExecutionVersion
// when no fallback is given.
func ResolveOutsideExecutionVersion(classHash string, fallback ...OutsideExecutionVersion) OutsideExecutionVersion {
	def := DefaultOutsideExecutionVersion
	if len(fallback) > 0 && fallback[0] != "" {
		def = fallback[0]
	}
	info, ok := LookupByHash(classHash)
	if !ok {
		return def
	}
	return info.OutsideExecutionVersion
}

// LookupByHash finds the first table entry whose padded hash matches.
func LookupByHash(classHash string) (VersionInfo, bool) {
	if strings.TrimSpace(classHash) == "" {
		return VersionInfo{}, false
	}
	want := PadHash(classHash)
	for _, v := range Versions {
		if PadHash(v.Hash) == want {
			return v, true
		}
	}
	return VersionInfo{}, false
}

func LookupByVersion(version string) (VersionInfo, bool) {
	for _, v := range Versions {
		if v.Version == version {
			return v, true
		}
	}
	return VersionInfo{}, false
}

// Latest returns the entry with the highest semantic version.
func Latest() VersionInfo {
	var (
		latest  VersionInfo
		highest *semver.Version
	)
	for _, v := range Versions {
		sv, err := semver.NewVersion(v.Version)
		if err != nil {
			continue
		}
		if highest == nil || sv.GreaterThan(highest) {
			highest = sv
			latest = v
		}
	}
	return latest
}

// UpgradeAvailable reports whether classHash is a known controller class
// older than Latest. Unknown hashes never report an upgrade.
func UpgradeAvailable(classHash string) bool {
	current, ok := LookupByHash(classHash)
	if !ok {
		return false
	}
	cur, err := semver.NewVersion(current.Version)
	if err != nil {
		return false
	}
	latest, err := semver.NewVersion(Latest().Version)
	if err != nil {
		return false
	}
	return cur.LessThan(latest)
}

// Validate checks a version table: every version parses as semver
// and is greater than the one before it, every hash is hex, and no two
// entries share a padded hash.
func Validate(versions []VersionInfo) error {
	seen := make(map[string]string, len(versions))
	var prev *semver.Version
	for _, v := range versions {
		sv, err := semver.NewVersion(v.Version)
		if err != nil {
			return fmt.Errorf("version %q: %w", v.Version, err)
		}
		if prev != nil && !sv.GreaterThan(prev) {
			return fmt.Errorf("version %s is not newer than %s", sv, prev)
		}
		prev = sv

		if !IsFelt(v.Hash) {
			return fmt.Errorf("version %s: invalid class hash %q", v.Version, v.Hash)
		}

		switch v.OutsideExecutionVersion {
		case OutsideExecutionV2, OutsideExecutionV3:
		default:
			return fmt.Errorf("version %s: unknown outside execution version %q", v.Version, v.OutsideExecutionVersion)
		}

		key := PadHash(v.Hash)
		if other, dup := seen[key]; dup {
			return fmt.Errorf("versions %s and %s share class hash %s", other, v.Version, key)
		}
		seen[key] = v.Version
	}
	return nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

// IsFelt reports whether s is a hex field element no wider than 64
// digits, with or without the 0x prefix.
func IsFelt(s string) bool {
	h := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	return len(h) <= hashWidth && isHex(h)
}
