package model

// Role of an account on the marketplace
type Role string

const (
	RoleAgent     Role = "agent"
	RoleDeveloper Role = "developer"
	RoleSeeker    Role = "seeker"
	RoleAdmin     Role = "admin"
)

// SubscriptionStatus of an owner account. Empty means no subscription on record.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Owner is the acting account for a request. It is resolved by the transport
// layer and passed explicitly into every service call.
type Owner struct {
	ID                 int64              `json:"id"`
	Role               Role               `json:"role"`
	SubscriptionTier   *string            `json:"subscription_tier,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status,omitempty"`
}

// Tier returns the subscription tier or "" when none is set
func (o Owner) Tier() string {
	if o.SubscriptionTier == nil {
		return ""
	}
	return *o.SubscriptionTier
}

// IsAdmin reports whether the owner may act on any listing
func (o Owner) IsAdmin() bool {
	return o.Role == RoleAdmin
}

// CanManage reports whether the owner may edit or see the inactive listing l
func (o Owner) CanManage(l *Listing) bool {
	return l != nil && (o.IsAdmin() || l.OwnerID == o.ID)
}
