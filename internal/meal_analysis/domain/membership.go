package domain

import (
	"fmt"
	"strings"
)

// Membership is the account class that controls the daily analysis quota.
type Membership string

const (
	MembershipFree  Membership = "FREE"
	MembershipTier1 Membership = "TIER1"
	MembershipTier2 Membership = "TIER2"
	MembershipTier3 Membership = "TIER3"
)

// LimitUnlimited is the daily limit of a tier without a cap.
const LimitUnlimited = -1

var dailyLimits = map[Membership]int{
	MembershipFree:  3,
	MembershipTier1: 5,
	MembershipTier2: 5,
	MembershipTier3: 30,
}

// DailyLimit returns the number of analyses allowed per calendar day.
// Unknown tiers fall back to the FREE limit.
func (m Membership) DailyLimit() int {
	if limit, ok := dailyLimits[m]; ok {
		return limit
	}
	return dailyLimits[MembershipFree]
}

// Unlimited reports whether the tier bypasses the quota check.
func (m Membership) Unlimited() bool {
	return m.DailyLimit() < 0
}

func (m Membership) Valid() bool {
	_, ok := dailyLimits[m]
	return ok
}

// ParseMembership parses a stored tier name, case-insensitively.
func ParseMembership(s string) (Membership, error) {
	m := Membership(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMembership, s)
	}
	return m, nil
}
