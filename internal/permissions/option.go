// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permissions

// # Capability Descriptors

// Requirement is a group of capabilities that must be satisfied (combined
// with the given mode) before the option it belongs to may be granted.
type Requirement struct {
	Permissions []Permission `json:"permissions"`
	Mode        CheckMode    `json:"mode"`
}

// Option is a named, described capability node. Options form a tree: granting
// a parent auto-grants its children. The tree is plain data — UI collaborators
// render it, and [Evaluate] decides each node's state.
type Option struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Permission  Permission    `json:"permission"`
	Children    []Option      `json:"children,omitempty"`
	Requires    []Requirement `json:"requires,omitempty"`
}

// Features holds the feature flags that gate 4K capabilities.
type Features struct {
	Movie4K  bool
	Series4K bool
}

// State is the evaluated presentation state of one capability option.
type State struct {
	// Checked reports whether the capability is effectively granted.
	Checked bool `json:"checked"`

	// Disabled reports whether the option may not be toggled by the actor.
	Disabled bool `json:"disabled"`
}

// EvaluateInput carries everything [Evaluate] needs to decide one option.
type EvaluateInput struct {
	// ActingUserID is the user performing the edit.
	ActingUserID int64

	// TargetUserID is the user whose grants are being shown or edited.
	TargetUserID int64

	// Granted is the target user's current permission mask.
	Granted Permission

	// Parent is the option's parent node, if any.
	Parent *Option

	// Features gates the 4K capability family.
	Features Features
}

// Evaluate decides the checked/disabled state of a capability option for an
// acting/target user pair.
//
// Rules, in precedence order:
//
//  1. The owner's grants are immutable: every option is force-checked and
//     locked when the target is the owner.
//  2. A granted admin bit force-checks and locks every other option.
//  3. ManageRequests force-checks and locks the auto-approve family.
//  4. A granted parent force-checks and locks its children.
//  5. Only the owner may toggle the admin bit for anyone.
//  6. Unmet requirement groups or a disabled 4K feature flag force-UNcheck
//     and lock the option, overriding rules 1-4. An admin-granted mask
//     satisfies any requirement group, but never a disabled feature flag.
func Evaluate(option Option, in EvaluateInput) State {
	checked := in.Granted.Has(option.Permission)
	disabled := false

	if in.TargetUserID == OwnerUserID ||
		(option.Permission != PermissionAdmin && in.Granted.Has(PermissionAdmin)) ||
		(isAutoApprove(option.Permission) && in.Granted.Has(PermissionManageRequests)) ||
		(in.Parent != nil && in.Parent.Permission != PermissionNone && in.Granted.Has(in.Parent.Permission)) {
		checked = true
		disabled = true
	}

	if option.Permission == PermissionAdmin && in.ActingUserID != OwnerUserID {
		disabled = true
	}

	if !requirementsMet(option.Requires, in.Granted) || featureLocked(option.Permission, in.Features) {
		checked = false
		disabled = true
	}

	return State{Checked: checked, Disabled: disabled}
}

// isAutoApprove reports whether p belongs to the auto-approve family.
func isAutoApprove(p Permission) bool {
	for _, member := range autoApproveFamily {
		if p == member {
			return true
		}
	}
	return false
}

// requirementsMet reports whether every requirement group is satisfied
// against the granted mask. The admin override applies here exactly as in
// [Allows]: an admin-granted mask satisfies any requirement group. Feature
// flags are NOT bypassed this way — they gate deployment capability, not
// authorization.
func requirementsMet(requires []Requirement, granted Permission) bool {
	if granted.Has(PermissionAdmin) {
		return true
	}
	for _, requirement := range requires {
		if !Check(granted, requirement.Permissions, requirement.Mode) {
			return false
		}
	}
	return true
}

// featureLocked reports whether p is gated by a 4K feature flag that is off.
// The combined 4K capabilities need both flags independently enabled.
func featureLocked(p Permission, features Features) bool {
	switch p {
	case PermissionRequest4K, PermissionAutoApprove4K:
		return !features.Movie4K || !features.Series4K
	case PermissionRequest4KMovie, PermissionAutoApprove4KMovie:
		return !features.Movie4K
	case PermissionRequest4KTV, PermissionAutoApprove4KTV:
		return !features.Series4K
	}
	return false
}

// # Default Option Tree

// DefaultOptions returns the capability tree rendered by permission editors.
// The tree is immutable data; callers must not modify the returned slice.
func DefaultOptions() []Option {
	return []Option{
		{
			ID:          "admin",
			Name:        "Admin",
			Description: "Full administrator access. Bypasses all other permission checks.",
			Permission:  PermissionAdmin,
		},
		{
			ID:          "manage-users",
			Name:        "Manage Users",
			Description: "Grant permission to manage other users and their capabilities.",
			Permission:  PermissionManageUsers,
		},
		{
			ID:          "manage-issues",
			Name:        "Manage Issues",
			Description: "Grant permission to resolve, reopen, and comment on all reported issues.",
			Permission:  PermissionManageIssues,
		},
		{
			ID:          "view-issues",
			Name:        "View Issues",
			Description: "Grant permission to view issues reported by other users.",
			Permission:  PermissionViewIssues,
		},
		{
			ID:          "create-issues",
			Name:        "Report Issues",
			Description: "Grant permission to report issues against media items.",
			Permission:  PermissionCreateIssues,
		},
		{
			ID:          "manage-requests",
			Name:        "Manage Requests",
			Description: "Grant permission to approve or decline media requests.",
			Permission:  PermissionManageRequests,
			Children: []Option{
				{
					ID:          "request-advanced",
					Name:        "Advanced Requests",
					Description: "Grant permission to use advanced request options.",
					Permission:  PermissionRequestAdvanced,
				},
				{
					ID:          "request-view",
					Name:        "View Requests",
					Description: "Grant permission to view requests made by other users.",
					Permission:  PermissionRequestView,
				},
			},
		},
		{
			ID:          "request",
			Name:        "Request",
			Description: "Grant permission to submit media requests.",
			Permission:  PermissionRequest,
			Children: []Option{
				{
					ID:          "request-movies",
					Name:        "Request Movies",
					Description: "Grant permission to submit movie requests.",
					Permission:  PermissionRequestMovie,
				},
				{
					ID:          "request-tv",
					Name:        "Request Series",
					Description: "Grant permission to submit series requests.",
					Permission:  PermissionRequestTV,
				},
			},
		},
		{
			ID:          "request-4k",
			Name:        "Request 4K",
			Description: "Grant permission to submit 4K media requests.",
			Permission:  PermissionRequest4K,
			Children: []Option{
				{
					ID:          "request-4k-movies",
					Name:        "Request 4K Movies",
					Description: "Grant permission to submit 4K movie requests.",
					Permission:  PermissionRequest4KMovie,
				},
				{
					ID:          "request-4k-tv",
					Name:        "Request 4K Series",
					Description: "Grant permission to submit 4K series requests.",
					Permission:  PermissionRequest4KTV,
				},
			},
		},
		{
			ID:          "auto-approve",
			Name:        "Auto-Approve",
			Description: "Grant automatic approval for all non-4K requests.",
			Permission:  PermissionAutoApprove,
			Requires:    []Requirement{{Permissions: []Permission{PermissionRequest}}},
			Children: []Option{
				{
					ID:          "auto-approve-movies",
					Name:        "Auto-Approve Movies",
					Description: "Grant automatic approval for non-4K movie requests.",
					Permission:  PermissionAutoApproveMovie,
					Requires:    []Requirement{{Permissions: []Permission{PermissionRequestMovie}}},
				},
				{
					ID:          "auto-approve-tv",
					Name:        "Auto-Approve Series",
					Description: "Grant automatic approval for non-4K series requests.",
					Permission:  PermissionAutoApproveTV,
					Requires:    []Requirement{{Permissions: []Permission{PermissionRequestTV}}},
				},
			},
		},
		{
			ID:          "auto-approve-4k",
			Name:        "Auto-Approve 4K",
			Description: "Grant automatic approval for all 4K requests.",
			Permission:  PermissionAutoApprove4K,
			Requires:    []Requirement{{Permissions: []Permission{PermissionRequest4K}}},
			Children: []Option{
				{
					ID:          "auto-approve-4k-movies",
					Name:        "Auto-Approve 4K Movies",
					Description: "Grant automatic approval for 4K movie requests.",
					Permission:  PermissionAutoApprove4KMovie,
					Requires:    []Requirement{{Permissions: []Permission{PermissionRequest4KMovie}}},
				},
				{
					ID:          "auto-approve-4k-tv",
					Name:        "Auto-Approve 4K Series",
					Description: "Grant automatic approval for 4K series requests.",
					Permission:  PermissionAutoApprove4KTV,
					Requires:    []Requirement{{Permissions: []Permission{PermissionRequest4KTV}}},
				},
			},
		},
	}
}
