package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasslabs/canvass/internal/models"
)

func TestCollaboratorAddListRemove(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.AddUser(&models.User{ID: "u2", Email: "b@example.com", TenantID: "t1"}))
	sv := seedSurvey(t, newTestSurveyService(store), "t1")
	svc := NewCollaboratorService(store)

	c, err := svc.Add("t1", sv.ID, "b@example.com", "VIEWER", "admin")
	require.NoError(t, err)
	assert.Equal(t, "viewer", c.Role)

	list, err := svc.List("t1", sv.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u2", list[0].UserID)

	require.NoError(t, svc.Remove("t1", sv.ID, "u2", "admin"))
	list, err = svc.List("t1", sv.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Both mutations leave an audit trail.
	var actions []string
	for _, a := range store.audits {
		actions = append(actions, a.Action)
	}
	assert.Contains(t, actions, "collab.add")
	assert.Contains(t, actions, "collab.remove")
}

func TestCollaboratorUnknownRoleDefaultsToEditor(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.AddUser(&models.User{ID: "u2", Email: "b@example.com", TenantID: "t1"}))
	sv := seedSurvey(t, newTestSurveyService(store), "t1")

	c, err := NewCollaboratorService(store).Add("t1", sv.ID, "b@example.com", "owner", "admin")
	require.NoError(t, err)
	assert.Equal(t, "editor", c.Role)
}

func TestCollaboratorCrossTenantRejected(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.AddUser(&models.User{ID: "u9", Email: "x@example.com", TenantID: "t2"}))
	sv := seedSurvey(t, newTestSurveyService(store), "t1")
	svc := NewCollaboratorService(store)

	// User from another tenant cannot be granted access.
	_, err := svc.Add("t1", sv.ID, "x@example.com", "editor", "admin")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorInvalid, se.Code)

	// And another tenant cannot manage this survey at all.
	_, err = svc.List("t2", sv.ID)
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorForbidden, se.Code)
}

func TestCollaboratorRemoveMissing(t *testing.T) {
	store := newFakeStore()
	sv := seedSurvey(t, newTestSurveyService(store), "t1")

	err := NewCollaboratorService(store).Remove("t1", sv.ID, "ghost", "admin")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, se.Code)
}
