// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permissions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cinara/internal/permissions"
)

// allFeatures enables both 4K flags so feature gating stays out of the way
// unless a test exercises it explicitly.
var allFeatures = permissions.Features{Movie4K: true, Series4K: true}

func findOption(t *testing.T, id string) permissions.Option {
	t.Helper()
	var walk func(options []permissions.Option) *permissions.Option
	walk = func(options []permissions.Option) *permissions.Option {
		for i := range options {
			if options[i].ID == id {
				return &options[i]
			}
			if found := walk(options[i].Children); found != nil {
				return found
			}
		}
		return nil
	}
	option := walk(permissions.DefaultOptions())
	require.NotNil(t, option, "option %q not in default tree", id)
	return *option
}

/*
TestEvaluate_OwnerIsImmutable: every option is locked when the target is the
owner, and force-checked wherever requirement groups allow. An admin-granted
mask satisfies every requirement group, so the whole tree is checked; a bare
mask leaves requirement-bearing nodes (the auto-approve family) unchecked —
requirement groups outrank the owner force-check.
*/
func TestEvaluate_OwnerIsImmutable(t *testing.T) {
	masks := []permissions.Permission{
		permissions.PermissionNone,
		permissions.PermissionCreateIssues,
		permissions.PermissionAdmin,
	}

	var assertAll func(options []permissions.Option, granted permissions.Permission, parent *permissions.Option)
	assertAll = func(options []permissions.Option, granted permissions.Permission, parent *permissions.Option) {
		for i := range options {
			option := options[i]
			state := permissions.Evaluate(option, permissions.EvaluateInput{
				ActingUserID: 42,
				TargetUserID: permissions.OwnerUserID,
				Granted:      granted,
				Parent:       parent,
				Features:     allFeatures,
			})

			// None of the bare masks satisfies a requirement group, so
			// only the admin mask checks requirement-bearing nodes.
			wantChecked := len(option.Requires) == 0 || granted.Has(permissions.PermissionAdmin)
			assert.Equal(t, wantChecked, state.Checked,
				"option %q checked state for owner under mask %d", option.ID, granted)
			assert.True(t, state.Disabled, "option %q should be locked for owner", option.ID)
			assertAll(option.Children, granted, &option)
		}
	}

	for _, granted := range masks {
		assertAll(permissions.DefaultOptions(), granted, nil)
	}
}

/*
TestEvaluate_AdminImpliesEverything: rule 2 force-checks all non-admin
options when the target holds the admin bit.
*/
func TestEvaluate_AdminImpliesEverything(t *testing.T) {
	state := permissions.Evaluate(findOption(t, "manage-issues"), permissions.EvaluateInput{
		ActingUserID: 42,
		TargetUserID: 7,
		Granted:      permissions.PermissionAdmin,
		Features:     allFeatures,
	})
	assert.True(t, state.Checked)
	assert.True(t, state.Disabled)

	// The admin option itself is not self-implied; it stays toggleable in
	// principle but remains locked for any actor other than the owner.
	adminState := permissions.Evaluate(findOption(t, "admin"), permissions.EvaluateInput{
		ActingUserID: 42,
		TargetUserID: 7,
		Granted:      permissions.PermissionAdmin,
		Features:     allFeatures,
	})
	assert.True(t, adminState.Checked)
	assert.True(t, adminState.Disabled)

	ownerActing := permissions.Evaluate(findOption(t, "admin"), permissions.EvaluateInput{
		ActingUserID: permissions.OwnerUserID,
		TargetUserID: 7,
		Granted:      permissions.PermissionAdmin,
		Features:     allFeatures,
	})
	assert.True(t, ownerActing.Checked)
	assert.False(t, ownerActing.Disabled, "owner may toggle the admin bit")
}

/*
TestEvaluate_ManageRequestsImpliesAutoApprove: rule 3, the coarse capability
locks the finer auto-approve family.
*/
func TestEvaluate_ManageRequestsImpliesAutoApprove(t *testing.T) {
	granted := permissions.PermissionManageRequests | permissions.PermissionRequest |
		permissions.PermissionRequestMovie | permissions.PermissionRequestTV |
		permissions.PermissionRequest4K

	for _, id := range []string{"auto-approve", "auto-approve-movies", "auto-approve-tv", "auto-approve-4k"} {
		state := permissions.Evaluate(findOption(t, id), permissions.EvaluateInput{
			ActingUserID: 42,
			TargetUserID: 7,
			Granted:      granted,
			Features:     allFeatures,
		})
		assert.True(t, state.Checked, "option %q", id)
		assert.True(t, state.Disabled, "option %q", id)
	}
}

/*
TestEvaluate_ParentImpliesChildren: rule 4 force-checks a child once its
parent is granted.
*/
func TestEvaluate_ParentImpliesChildren(t *testing.T) {
	parent := findOption(t, "request")
	state := permissions.Evaluate(findOption(t, "request-movies"), permissions.EvaluateInput{
		ActingUserID: 42,
		TargetUserID: 7,
		Granted:      permissions.PermissionRequest,
		Parent:       &parent,
		Features:     allFeatures,
	})
	assert.True(t, state.Checked)
	assert.True(t, state.Disabled)
}

/*
TestEvaluate_FeatureFlagOverridesForcedGrants: rule 6 takes precedence over
rules 1-4 — a feature-locked capability can never be force-granted, not even
by the admin override.
*/
func TestEvaluate_FeatureFlagOverridesForcedGrants(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		features permissions.Features
	}{
		{"combined_4k_needs_both_flags", "request-4k", permissions.Features{Movie4K: true, Series4K: false}},
		{"movie_4k_needs_movie_flag", "request-4k-movies", permissions.Features{Movie4K: false, Series4K: true}},
		{"tv_4k_needs_series_flag", "request-4k-tv", permissions.Features{Movie4K: true, Series4K: false}},
		{"auto_approve_4k_needs_both_flags", "auto-approve-4k", permissions.Features{Movie4K: false, Series4K: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := permissions.Evaluate(findOption(t, tt.id), permissions.EvaluateInput{
				ActingUserID: 42,
				TargetUserID: 7,
				Granted:      permissions.PermissionAdmin,
				Features:     tt.features,
			})
			assert.False(t, state.Checked)
			assert.True(t, state.Disabled)
		})
	}
}

/*
TestEvaluate_RequirementGroups: unmet requirement groups force-uncheck and
lock the option even when the bit itself is granted.
*/
func TestEvaluate_RequirementGroups(t *testing.T) {
	// auto-approve requires the request capability.
	unmet := permissions.Evaluate(findOption(t, "auto-approve"), permissions.EvaluateInput{
		ActingUserID: 42,
		TargetUserID: 7,
		Granted:      permissions.PermissionAutoApprove,
		Features:     allFeatures,
	})
	assert.False(t, unmet.Checked)
	assert.True(t, unmet.Disabled)

	met := permissions.Evaluate(findOption(t, "auto-approve"), permissions.EvaluateInput{
		ActingUserID: 42,
		TargetUserID: 7,
		Granted:      permissions.PermissionAutoApprove | permissions.PermissionRequest,
		Features:     allFeatures,
	})
	assert.True(t, met.Checked)
	assert.False(t, met.Disabled)

	// The admin override satisfies requirement groups the same way it
	// satisfies authorization checks.
	admin := permissions.Evaluate(findOption(t, "auto-approve"), permissions.EvaluateInput{
		ActingUserID: 42,
		TargetUserID: 7,
		Granted:      permissions.PermissionAdmin,
		Features:     allFeatures,
	})
	assert.True(t, admin.Checked)
	assert.True(t, admin.Disabled)
}
