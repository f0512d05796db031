// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permissions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cinara/internal/permissions"
)

/*
TestPermission_Has verifies strict mask containment without implied grants.
*/
func TestPermission_Has(t *testing.T) {
	tests := []struct {
		name     string
		granted  permissions.Permission
		required permissions.Permission
		want     bool
	}{
		{"exact_bit", permissions.PermissionCreateIssues, permissions.PermissionCreateIssues, true},
		{"superset", permissions.PermissionCreateIssues | permissions.PermissionViewIssues, permissions.PermissionViewIssues, true},
		{"missing_bit", permissions.PermissionCreateIssues, permissions.PermissionManageIssues, false},
		{"combined_required_partial", permissions.PermissionCreateIssues, permissions.PermissionCreateIssues | permissions.PermissionViewIssues, false},
		{"admin_is_not_implied_by_primitive", permissions.PermissionAdmin, permissions.PermissionManageIssues, false},
		{"none_always_contained", permissions.PermissionNone, permissions.PermissionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.granted.Has(tt.required))
		})
	}
}

/*
TestCheck covers the AND/OR list forms of the containment contract.
*/
func TestCheck(t *testing.T) {
	granted := permissions.PermissionRequest | permissions.PermissionRequestMovie

	tests := []struct {
		name     string
		required []permissions.Permission
		mode     permissions.CheckMode
		want     bool
	}{
		{"all_satisfied", []permissions.Permission{permissions.PermissionRequest, permissions.PermissionRequestMovie}, permissions.CheckAll, true},
		{"all_one_missing", []permissions.Permission{permissions.PermissionRequest, permissions.PermissionRequestTV}, permissions.CheckAll, false},
		{"any_one_present", []permissions.Permission{permissions.PermissionRequestTV, permissions.PermissionRequestMovie}, permissions.CheckAny, true},
		{"any_none_present", []permissions.Permission{permissions.PermissionRequestTV, permissions.PermissionRequest4K}, permissions.CheckAny, false},
		{"empty_list_all", nil, permissions.CheckAll, true},
		{"empty_list_any", nil, permissions.CheckAny, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, permissions.Check(granted, tt.required, tt.mode))
		})
	}
}

/*
TestAllows_AdminOverride verifies that a granted admin bit satisfies every
other capability under the composed check.
*/
func TestAllows_AdminOverride(t *testing.T) {
	granted := permissions.PermissionAdmin

	every := []permissions.Permission{
		permissions.PermissionManageUsers,
		permissions.PermissionManageRequests,
		permissions.PermissionManageIssues,
		permissions.PermissionViewIssues,
		permissions.PermissionCreateIssues,
		permissions.PermissionRequest4K,
		permissions.PermissionAutoApprove4KTV,
	}

	for _, capability := range every {
		assert.True(t, permissions.Allows(granted, capability))
	}

	// Without the admin bit the same mask grants nothing.
	assert.False(t, permissions.Allows(permissions.PermissionNone, permissions.PermissionManageUsers))
}

/*
TestToggle_RoundTrip verifies that toggling a bit twice restores the mask and
never touches unrelated bits.
*/
func TestToggle_RoundTrip(t *testing.T) {
	original := permissions.PermissionRequest | permissions.PermissionCreateIssues

	once := permissions.Toggle(original, permissions.PermissionManageIssues)
	assert.True(t, once.Has(permissions.PermissionManageIssues))
	assert.True(t, once.Has(permissions.PermissionRequest))
	assert.True(t, once.Has(permissions.PermissionCreateIssues))

	twice := permissions.Toggle(once, permissions.PermissionManageIssues)
	assert.Equal(t, original, twice)

	// Toggling a granted bit removes only that bit.
	removed := permissions.Toggle(original, permissions.PermissionRequest)
	assert.False(t, removed.Has(permissions.PermissionRequest))
	assert.True(t, removed.Has(permissions.PermissionCreateIssues))
}

/*
TestPermission_BitsAreUnique guards the append-only invariant: every named
capability is a distinct power of two.
*/
func TestPermission_BitsAreUnique(t *testing.T) {
	bits := []permissions.Permission{
		permissions.PermissionAdmin,
		permissions.PermissionManageSettings,
		permissions.PermissionManageUsers,
		permissions.PermissionManageRequests,
		permissions.PermissionRequest,
		permissions.PermissionVote,
		permissions.PermissionAutoApprove,
		permissions.PermissionAutoApproveMovie,
		permissions.PermissionAutoApproveTV,
		permissions.PermissionRequest4K,
		permissions.PermissionRequest4KMovie,
		permissions.PermissionRequest4KTV,
		permissions.PermissionRequestAdvanced,
		permissions.PermissionRequestView,
		permissions.PermissionAutoApprove4K,
		permissions.PermissionAutoApprove4KMovie,
		permissions.PermissionAutoApprove4KTV,
		permissions.PermissionRequestMovie,
		permissions.PermissionRequestTV,
		permissions.PermissionManageIssues,
		permissions.PermissionViewIssues,
		permissions.PermissionCreateIssues,
	}

	seen := map[permissions.Permission]bool{}
	for _, bit := range bits {
		require.NotZero(t, bit)
		require.Zero(t, bit&(bit-1), "capability %b is not a power of two", bit)
		require.False(t, seen[bit], "capability %b assigned twice", bit)
		seen[bit] = true
	}
}
