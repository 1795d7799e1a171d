package providers

import "time"

// Policy is the per-provider token staleness rule, measured against the
// account's last update timestamp.
type Policy struct {
	MaxAge      time.Duration
	Refreshable bool
}

// PolicyFor returns the staleness policy for a provider. Facebook and
// Instagram tokens are long-lived (~60 days) but proactively renewed daily;
// Google tokens expire hourly; LinkedIn tokens last ~60 days and are renewed
// weekly; Twitter and Mastodon tokens are re-checked daily but cannot be
// force-refreshed.
func PolicyFor(provider string) Policy {
	switch provider {
	case ProviderFacebook, ProviderInstagram:
		return Policy{MaxAge: 24 * time.Hour, Refreshable: true}
	case ProviderGoogle:
		return Policy{MaxAge: 50 * time.Minute, Refreshable: true}
	case ProviderLinkedIn:
		return Policy{MaxAge: 7 * 24 * time.Hour, Refreshable: true}
	case ProviderTwitter, ProviderMastodon:
		return Policy{MaxAge: 24 * time.Hour, Refreshable: false}
	default:
		return Policy{MaxAge: 24 * time.Hour, Refreshable: false}
	}
}

func (p Policy) Stale(updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) > p.MaxAge
}
