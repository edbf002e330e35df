package service

import (
	"testing"

	"estate-core/internal/model"
)

func tier(name string) *string { return &name }

func TestAuthorizeCreate(t *testing.T) {
	tests := []struct {
		name        string
		owner       model.Owner
		current     int
		wantAllowed bool
		wantReason  DenyReason
		wantLimit   int
	}{
		{
			name:        "bronze under limit",
			owner:       model.Owner{Role: model.RoleAgent, SubscriptionTier: tier("bronze"), SubscriptionStatus: model.SubscriptionActive},
			current:     9,
			wantAllowed: true,
			wantLimit:   10,
		},
		{
			name:       "bronze at limit",
			owner:      model.Owner{Role: model.RoleAgent, SubscriptionTier: tier("bronze"), SubscriptionStatus: model.SubscriptionActive},
			current:    10,
			wantReason: DenyLimitReached,
			wantLimit:  10,
		},
		{
			name:        "silver developer",
			owner:       model.Owner{Role: model.RoleDeveloper, SubscriptionTier: tier("silver"), SubscriptionStatus: model.SubscriptionActive},
			current:     24,
			wantAllowed: true,
			wantLimit:   25,
		},
		{
			name:       "gold over limit",
			owner:      model.Owner{Role: model.RoleAgent, SubscriptionTier: tier("Gold"), SubscriptionStatus: model.SubscriptionActive},
			current:    40,
			wantReason: DenyLimitReached,
			wantLimit:  35,
		},
		{
			name:       "seeker",
			owner:      model.Owner{Role: model.RoleSeeker, SubscriptionTier: tier("gold"), SubscriptionStatus: model.SubscriptionActive},
			wantReason: DenyNotAgentOrDeveloper,
		},
		{
			name:       "admin is not a publisher",
			owner:      model.Owner{Role: model.RoleAdmin},
			wantReason: DenyNotAgentOrDeveloper,
		},
		{
			name:       "inactive subscription",
			owner:      model.Owner{Role: model.RoleAgent, SubscriptionTier: tier("gold"), SubscriptionStatus: model.SubscriptionInactive},
			wantReason: DenyNoSubscription,
		},
		{
			name:       "no subscription on record",
			owner:      model.Owner{Role: model.RoleDeveloper},
			wantReason: DenyNoSubscription,
		},
		{
			name:       "unknown tier has no allowance",
			owner:      model.Owner{Role: model.RoleAgent, SubscriptionTier: tier("platinum"), SubscriptionStatus: model.SubscriptionActive},
			wantReason: DenyLimitReached,
		},
		{
			name:       "missing tier has no allowance",
			owner:      model.Owner{Role: model.RoleAgent, SubscriptionStatus: model.SubscriptionActive},
			wantReason: DenyLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := AuthorizeCreate(tt.owner, tt.current)
			if d.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.wantAllowed)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.wantReason)
			}
			if d.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", d.Limit, tt.wantLimit)
			}
			if d.Current != tt.current {
				t.Errorf("Current = %d, want %d", d.Current, tt.current)
			}
		})
	}
}

func TestTierLimit(t *testing.T) {
	tests := map[string]int{"bronze": 10, "silver": 25, "gold": 35, " GOLD ": 35, "": 0, "free": 0}
	for name, want := range tests {
		if got := TierLimit(name); got != want {
			t.Errorf("TierLimit(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestDenyReasonMessage(t *testing.T) {
	for _, r := range []DenyReason{DenyNotAgentOrDeveloper, DenyNoSubscription, DenyLimitReached} {
		if r.Message() == "" {
			t.Errorf("%q has no message", r)
		}
	}
	if DenyLimitReached.Message() != "You have reached your plan's listing limit" {
		t.Errorf("unexpected message %q", DenyLimitReached.Message())
	}
}
