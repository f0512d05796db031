// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package permissions implements the capability bitmask model for Cinara.

Every user carries a single integer mask; every named capability is one bit.
Authorization anywhere in the system reduces to bitwise containment checks
against that mask, which keeps the model a total pure function with no I/O
and no failure paths.

Architecture:

  - Permission: An int64 bitmask of named capability bits.
  - Containment: Has/Check are the strict primitives (no implied grants).
  - Composition: Allows and Evaluate layer the business rules (admin override,
    coarse-implies-fine, parent-implies-children, owner lock) on top.

Bit values are append-only: they are persisted in users.account and must never
be renumbered.
*/
package permissions

// OwnerUserID is the fixed id of the immutable system owner. The owner's
// effective grants can never be edited, and only the owner may toggle the
// admin bit for anyone.
const OwnerUserID int64 = 1

// # Capability Bits

// Permission is a capability bitmask. Each named constant is a single bit.
type Permission int64

const (
	// PermissionNone grants nothing.
	PermissionNone Permission = 0

	// PermissionAdmin bypasses every other capability check.
	PermissionAdmin Permission = 1 << 1

	// PermissionManageSettings allows changing server-wide settings.
	PermissionManageSettings Permission = 1 << 2

	// PermissionManageUsers allows editing other users' profiles and grants.
	PermissionManageUsers Permission = 1 << 3

	// PermissionManageRequests allows approving and declining media requests.
	PermissionManageRequests Permission = 1 << 4

	// PermissionRequest allows submitting new media requests.
	PermissionRequest Permission = 1 << 5

	// PermissionVote allows voting on pending requests.
	PermissionVote Permission = 1 << 6

	// Auto-approve family: requests from these users skip moderation.
	PermissionAutoApprove      Permission = 1 << 7
	PermissionAutoApproveMovie Permission = 1 << 8
	PermissionAutoApproveTV    Permission = 1 << 9

	// 4K request family, gated by the movie/series 4K feature flags.
	PermissionRequest4K      Permission = 1 << 10
	PermissionRequest4KMovie Permission = 1 << 11
	PermissionRequest4KTV    Permission = 1 << 12

	// PermissionRequestAdvanced exposes advanced request options.
	PermissionRequestAdvanced Permission = 1 << 13

	// PermissionRequestView allows viewing other users' requests.
	PermissionRequestView Permission = 1 << 14

	PermissionAutoApprove4K      Permission = 1 << 15
	PermissionAutoApprove4KMovie Permission = 1 << 16
	PermissionAutoApprove4KTV    Permission = 1 << 17

	PermissionRequestMovie Permission = 1 << 18
	PermissionRequestTV    Permission = 1 << 19

	// PermissionManageIssues allows resolving, reopening, and deleting issues.
	PermissionManageIssues Permission = 1 << 20

	// PermissionViewIssues allows viewing issues reported by other users.
	PermissionViewIssues Permission = 1 << 21

	// PermissionCreateIssues allows reporting new issues against media items.
	PermissionCreateIssues Permission = 1 << 22
)

// Default is the mask granted to newly registered members.
const Default = PermissionRequest | PermissionRequestMovie | PermissionRequestTV |
	PermissionVote | PermissionCreateIssues

// autoApproveFamily lists the bits implied by [PermissionManageRequests] when
// rendering capability options (the coarse capability covers the finer ones).
var autoApproveFamily = []Permission{
	PermissionAutoApprove,
	PermissionAutoApproveMovie,
	PermissionAutoApproveTV,
	PermissionAutoApprove4K,
	PermissionAutoApprove4KMovie,
	PermissionAutoApprove4KTV,
}

// # Check Modes

// CheckMode selects how a list of required masks is combined.
type CheckMode int

const (
	// CheckAll requires every mask in the list to be contained (AND).
	CheckAll CheckMode = iota

	// CheckAny requires at least one mask in the list to be contained (OR).
	CheckAny
)

// # Containment Primitives

// Has reports strict mask containment: every bit set in required is also set
// in p. It applies no implied grants — the admin bit does not satisfy other
// capabilities here.
func (p Permission) Has(required Permission) bool {
	return p&required == required
}

// Check evaluates a list of required masks against the granted mask under the
// given mode. An empty list is trivially satisfied.
func Check(granted Permission, required []Permission, mode CheckMode) bool {
	if mode == CheckAny {
		for _, mask := range required {
			if granted.Has(mask) {
				return true
			}
		}
		return len(required) == 0
	}

	for _, mask := range required {
		if !granted.Has(mask) {
			return false
		}
	}
	return true
}

// # Composition

// Allows reports whether the granted mask satisfies all required masks once
// the admin override is applied: a granted admin bit satisfies any
// requirement. This is the check authorization guards should use.
func Allows(granted Permission, required ...Permission) bool {
	if granted.Has(PermissionAdmin) {
		return true
	}
	return Check(granted, required, CheckAll)
}

// AllowsAny reports whether the granted mask satisfies at least one of the
// required masks, with the same admin override as [Allows].
func AllowsAny(granted Permission, required ...Permission) bool {
	if granted.Has(PermissionAdmin) {
		return true
	}
	return Check(granted, required, CheckAny)
}

// Toggle flips a single capability bit: the bit is added when absent and
// removed when present. Unrelated bits are never touched.
func Toggle(mask, permission Permission) Permission {
	if mask.Has(permission) {
		return mask &^ permission
	}
	return mask | permission
}
