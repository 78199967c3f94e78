// Package social provides publishers for external social-media platforms.
// Each publisher handles rate limiting, typed error classification and retry
// internally, mirroring one platform API. Content formatting is pure and
// lives alongside so platform length limits stay next to the senders that
// enforce them.
package social

import "github.com/lyyw205/stock-news/internal/domain/entity"

// PlatformSpec describes the publishing constraints of one platform.
type PlatformSpec struct {
	// MaxLength is the content limit in characters (Unicode runes).
	MaxLength int

	// SupportsEdit reports whether published content can be re-dispatched
	// after the underlying article changed. Twitter posts are immutable.
	SupportsEdit bool
}

var platformSpecs = map[entity.Platform]PlatformSpec{
	entity.PlatformTelegram: {MaxLength: 4096, SupportsEdit: true},
	entity.PlatformTwitter:  {MaxLength: 280, SupportsEdit: false},
	entity.PlatformThreads:  {MaxLength: 500, SupportsEdit: true},
	entity.PlatformToss:     {MaxLength: 1000, SupportsEdit: true},
}

// SpecFor returns the publishing constraints for a platform.
// Unknown platforms get a conservative spec so a misconfigured dispatch
// degrades to short content instead of panicking.
func SpecFor(p entity.Platform) PlatformSpec {
	if spec, ok := platformSpecs[p]; ok {
		return spec
	}
	return PlatformSpec{MaxLength: 280, SupportsEdit: false}
}

// Result is the outcome of one successful platform delivery.
type Result struct {
	// Response is the raw platform response payload, kept for audit logs.
	Response string
}
