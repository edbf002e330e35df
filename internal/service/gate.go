package service

import (
	"strings"

	"estate-core/internal/model"
)

// DenyReason is a stable code explaining why a listing may not be created
type DenyReason string

const (
	DenyNotAgentOrDeveloper DenyReason = "not-agent-or-developer"
	DenyNoSubscription      DenyReason = "no-subscription"
	DenyLimitReached        DenyReason = "limit-reached"
)

// Message is the user-facing text for a denial
func (r DenyReason) Message() string {
	switch r {
	case DenyNotAgentOrDeveloper:
		return "Only agents and developers can publish listings"
	case DenyNoSubscription:
		return "An active subscription is required to publish listings"
	case DenyLimitReached:
		return "You have reached your plan's listing limit"
	default:
		return "You are not allowed to publish listings"
	}
}

// tierLimits is the number of active listings each plan allows
var tierLimits = map[string]int{
	"bronze": 10,
	"silver": 25,
	"gold":   35,
}

// TierLimit returns the active-listing allowance for a tier; unknown tiers get 0
func TierLimit(tier string) int {
	return tierLimits[strings.ToLower(strings.TrimSpace(tier))]
}

// Decision is the outcome of AuthorizeCreate
type Decision struct {
	Allowed bool       `json:"allowed"`
	Reason  DenyReason `json:"reason,omitempty"`
	Limit   int        `json:"limit"`
	Current int        `json:"current"`
}

// AuthorizeCreate decides whether owner may publish another active listing.
// The caller supplies the current active count; this function does no I/O.
func AuthorizeCreate(owner model.Owner, currentActiveListingCount int) Decision {
	d := Decision{Current: currentActiveListingCount}

	if owner.Role != model.RoleAgent && owner.Role != model.RoleDeveloper {
		d.Reason = DenyNotAgentOrDeveloper
		return d
	}
	if owner.SubscriptionStatus != model.SubscriptionActive {
		d.Reason = DenyNoSubscription
		return d
	}

	d.Limit = TierLimit(owner.Tier())
	if currentActiveListingCount >= d.Limit {
		d.Reason = DenyLimitReached
		return d
	}

	d.Allowed = true
	return d
}
