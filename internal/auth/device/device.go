// Package device derives human-readable labels and stable fingerprints from
// User-Agent strings. Labels let a user recognize which device resumed a
// transfer ("Chrome on Mac OS X"); fingerprints detect a session token
// replayed from a different device.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// Service computes device fingerprints. When disabled it returns empty
// fingerprints so callers can treat binding as best-effort.
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ParseUserAgent returns a short display name like "Chrome on Mac OS X".
func ParseUserAgent(uaString string) string {
	if uaString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(uaString)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	where := ua.OSInfo().Name
	if ua.Mobile() && ua.Platform() != "" {
		where = ua.Platform()
	}
	if where == "" {
		where = "Unknown OS"
	}

	return strings.TrimSpace(browser + " on " + where)
}

// ComputeFingerprint hashes the stable parts of a User-Agent: browser name,
// major version and OS. Minor/patch version bumps (auto-updates) keep the
// fingerprint stable; a major version or OS change rolls it.
func (s *Service) ComputeFingerprint(uaString string) string {
	if !s.enabled {
		return ""
	}

	ua := useragent.New(uaString)
	browser, version := ua.Browser()
	major := version
	if i := strings.IndexByte(version, '.'); i >= 0 {
		major = version[:i]
	}

	normalized := browser + "/" + major + " " + ua.OSInfo().FullName
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether the presented fingerprint matches the
// stored one, and whether the mismatch counts as drift.
func (s *Service) CompareFingerprints(stored, presented string) (matched bool, drift bool) {
	if stored == presented {
		return true, false
	}
	return false, true
}
