// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/platform/apperr"
	"github.com/taibuivan/cinara/internal/users/account"
	"github.com/taibuivan/cinara/internal/users/auth"
	"github.com/taibuivan/cinara/pkg/pointer"
)

// # Test Doubles

type fakeAccountRepository struct {
	users       map[int64]*auth.User
	updatedMask *permissions.Permission
	softDeleted []int64
}

func newFakeAccountRepository(users ...*auth.User) *fakeAccountRepository {
	repo := &fakeAccountRepository{users: map[int64]*auth.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeAccountRepository) FindByID(_ context.Context, id int64) (*auth.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	copied := *user
	return &copied, nil
}

func (r *fakeAccountRepository) List(_ context.Context, _, _ int) ([]*auth.User, int, error) {
	var out []*auth.User
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, len(out), nil
}

func (r *fakeAccountRepository) Update(_ context.Context, user *auth.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeAccountRepository) UpdatePermissions(_ context.Context, userID int64, mask permissions.Permission) error {
	r.updatedMask = &mask
	r.users[userID].Permissions = mask
	return nil
}

func (r *fakeAccountRepository) SoftDelete(_ context.Context, id int64) error {
	r.softDeleted = append(r.softDeleted, id)
	delete(r.users, id)
	return nil
}

type fakeSessionRepository struct {
	revokedAll []int64
	revoked    []string
}

func (r *fakeSessionRepository) FindActiveByUserID(_ context.Context, _ int64) ([]account.SessionInfo, error) {
	return nil, nil
}

func (r *fakeSessionRepository) Revoke(_ context.Context, _ int64, sessionID string) error {
	r.revoked = append(r.revoked, sessionID)
	return nil
}

func (r *fakeSessionRepository) RevokeOthers(_ context.Context, _ int64, _ string) error {
	return nil
}

func (r *fakeSessionRepository) RevokeAll(_ context.Context, userID int64) error {
	r.revokedAll = append(r.revokedAll, userID)
	return nil
}

func newTestService(accountRepo *fakeAccountRepository, sessionRepo *fakeSessionRepository) *account.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return account.NewService(accountRepo, sessionRepo, permissions.Features{}, logger)
}

func requireForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FORBIDDEN", ae.Code)
}

// # Fixtures

func ownerAccount() *auth.User {
	return &auth.User{ID: permissions.OwnerUserID, Username: "owner", Permissions: permissions.PermissionAdmin}
}

func adminAccount(id int64) *auth.User {
	return &auth.User{ID: id, Username: "admin", Permissions: permissions.PermissionAdmin}
}

func memberAccount(id int64) *auth.User {
	return &auth.User{ID: id, Username: "member", Permissions: permissions.Default}
}

/*
TestService_UpdateProfile verifies partial profile updates: only the fields
provided change, the rest carry over.
*/
func TestService_UpdateProfile(t *testing.T) {
	user := memberAccount(5)
	user.DisplayName = "Old Name"
	user.AvatarURL = "https://cdn.example.org/old.png"

	accountRepo := newFakeAccountRepository(user)
	service := newTestService(accountRepo, &fakeSessionRepository{})

	updated, err := service.UpdateProfile(context.Background(), 5, account.UpdateProfileInput{
		DisplayName: pointer.To("New Name"),
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.DisplayName)
	assert.Equal(t, "https://cdn.example.org/old.png", updated.AvatarURL, "untouched fields carry over")
}

/*
TestService_DeleteAccount verifies that deletion revokes every session and
that the owner account is permanent.
*/
func TestService_DeleteAccount(t *testing.T) {
	t.Run("member_deletion_revokes_sessions", func(t *testing.T) {
		accountRepo := newFakeAccountRepository(ownerAccount(), memberAccount(5))
		sessionRepo := &fakeSessionRepository{}
		service := newTestService(accountRepo, sessionRepo)

		err := service.DeleteAccount(context.Background(), 5)
		require.NoError(t, err)

		assert.Equal(t, []int64{5}, accountRepo.softDeleted)
		assert.Equal(t, []int64{5}, sessionRepo.revokedAll)
	})

	t.Run("owner_is_permanent", func(t *testing.T) {
		accountRepo := newFakeAccountRepository(ownerAccount())
		service := newTestService(accountRepo, &fakeSessionRepository{})

		err := service.DeleteAccount(context.Background(), permissions.OwnerUserID)
		requireForbidden(t, err)
		assert.Empty(t, accountRepo.softDeleted)
	})
}

/*
TestService_UpdatePermissions exercises the grant-editing constraints: the
owner's mask is immutable, the admin bit is owner-only, and administrators
may only be edited by the owner.
*/
func TestService_UpdatePermissions(t *testing.T) {
	t.Run("admin_edits_member", func(t *testing.T) {
		accountRepo := newFakeAccountRepository(ownerAccount(), adminAccount(2), memberAccount(5))
		service := newTestService(accountRepo, &fakeSessionRepository{})

		mask := permissions.Default | permissions.PermissionManageIssues
		updated, err := service.UpdatePermissions(context.Background(), 2, 5, mask)
		require.NoError(t, err)

		assert.Equal(t, mask, updated.Permissions)
		require.NotNil(t, accountRepo.updatedMask)
		assert.Equal(t, mask, *accountRepo.updatedMask)
	})

	t.Run("owner_mask_is_immutable", func(t *testing.T) {
		accountRepo := newFakeAccountRepository(ownerAccount(), adminAccount(2))
		service := newTestService(accountRepo, &fakeSessionRepository{})

		_, err := service.UpdatePermissions(context.Background(), 2, permissions.OwnerUserID, permissions.Default)
		requireForbidden(t, err)
		assert.Nil(t, accountRepo.updatedMask)
	})

	t.Run("admin_bit_grant_is_owner_only", func(t *testing.T) {
		accountRepo := newFakeAccountRepository(ownerAccount(), adminAccount(2), memberAccount(5))
		service := newTestService(accountRepo, &fakeSessionRepository{})

		_, err := service.UpdatePermissions(context.Background(), 2, 5, permissions.PermissionAdmin)
		requireForbidden(t, err)
	})

	t.Run("owner_grants_admin_bit", func(t *testing.T) {
		accountRepo := newFakeAccountRepository(ownerAccount(), memberAccount(5))
		service := newTestService(accountRepo, &fakeSessionRepository{})

		updated, err := service.UpdatePermissions(context.Background(), permissions.OwnerUserID, 5, permissions.PermissionAdmin)
		require.NoError(t, err)
		assert.True(t, updated.Permissions.Has(permissions.PermissionAdmin))
	})

	t.Run("admin_target_is_owner_only", func(t *testing.T) {
		accountRepo := newFakeAccountRepository(ownerAccount(), adminAccount(2), adminAccount(3))
		service := newTestService(accountRepo, &fakeSessionRepository{})

		// Keeping the admin bit set dodges the admin-change guard; the
		// admin-target guard must still refuse.
		_, err := service.UpdatePermissions(context.Background(), 2, 3, permissions.PermissionAdmin|permissions.PermissionManageUsers)
		requireForbidden(t, err)
	})
}

/*
TestService_PermissionOptions checks the evaluated capability tree for a
plain member viewed by an administrator.
*/
func TestService_PermissionOptions(t *testing.T) {
	accountRepo := newFakeAccountRepository(ownerAccount(), adminAccount(2), memberAccount(5))
	service := newTestService(accountRepo, &fakeSessionRepository{})

	tree, err := service.PermissionOptions(context.Background(), 2, 5)
	require.NoError(t, err)
	require.NotEmpty(t, tree)

	byID := map[string]account.PermissionOption{}
	var index func(nodes []account.PermissionOption)
	index = func(nodes []account.PermissionOption) {
		for _, node := range nodes {
			byID[node.ID] = node
			index(node.Children)
		}
	}
	index(tree)

	admin, ok := byID["admin"]
	require.True(t, ok)
	assert.False(t, admin.Checked)
	assert.True(t, admin.Disabled, "a non-owner cannot toggle the admin bit")

	manageIssues, ok := byID["manage-issues"]
	require.True(t, ok)
	assert.False(t, manageIssues.Checked)
	assert.False(t, manageIssues.Disabled)

	createIssues, ok := byID["create-issues"]
	require.True(t, ok)
	assert.True(t, createIssues.Checked, "members report issues by default")
	assert.False(t, createIssues.Disabled)
}

/*
TestService_PermissionOptions_Owner verifies that the owner's tree renders
locked, force-checked except where a feature flag or unmet requirement
forces a node off.
*/
func TestService_PermissionOptions_Owner(t *testing.T) {
	accountRepo := newFakeAccountRepository(ownerAccount(), adminAccount(2))
	service := newTestService(accountRepo, &fakeSessionRepository{})

	tree, err := service.PermissionOptions(context.Background(), 2, permissions.OwnerUserID)
	require.NoError(t, err)
	require.NotEmpty(t, tree)

	byID := map[string]account.PermissionOption{}
	for _, node := range tree {
		byID[node.ID] = node
	}

	for _, id := range []string{"admin", "manage-users", "manage-issues", "request"} {
		node, ok := byID[id]
		require.True(t, ok)
		assert.True(t, node.Checked, "owner node %q must be checked", id)
		assert.True(t, node.Disabled, "owner node %q must be locked", id)
	}

	// 4K stays off while both feature flags are disabled, even for the owner
	fourK, ok := byID["request-4k"]
	require.True(t, ok)
	assert.False(t, fourK.Checked)
	assert.True(t, fourK.Disabled)
}
