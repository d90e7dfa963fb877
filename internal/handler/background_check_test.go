package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nonprofit-backend/internal/middleware"
	"nonprofit-backend/internal/model"
	"nonprofit-backend/internal/service"
)

func newCheckTestApp(db *gorm.DB, user *model.User) *fiber.App {
	app := newTestApp(db, user)

	orgMW := middleware.NewOrgMiddleware(service.NewMemberService(db))
	requireMember := orgMW.RequireMembership()

	checkHandler := NewBackgroundCheckHandler(db)
	app.Post("/api/orgs/:orgId/background-checks", requireMember, checkHandler.CreateCheck)
	app.Get("/api/orgs/:orgId/background-checks", requireMember, checkHandler.GetChecks)
	app.Put("/api/orgs/:orgId/background-checks/:checkId", requireMember, checkHandler.UpdateCheck)
	app.Delete("/api/orgs/:orgId/background-checks/:checkId", requireMember, checkHandler.DeleteCheck)

	return app
}

func TestBackgroundCheckLifecycle(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	app := newCheckTestApp(db, user)

	path := orgPath(org.ID, "/background-checks")

	resp := doRequest(t, app, http.MethodPost, path,
		fiber.Map{"person_name": "Jane Candidate", "check_type": "CRIMINAL"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var check model.BackgroundCheck
	require.NoError(t, db.Where("org_id = ?", org.ID).First(&check).Error)
	assert.Equal(t, model.CheckStatusPending.String(), check.Status)
	assert.Nil(t, check.CompletedAt)

	// CLEAR 확정 시 완료/만료 시각이 기록된다
	resp = doRequest(t, app, http.MethodPut, fmt.Sprintf("%s/%d", path, check.ID),
		fiber.Map{"status": "CLEAR"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&check, check.ID).Error)
	assert.Equal(t, model.CheckStatusClear.String(), check.Status)
	require.NotNil(t, check.CompletedAt)
	require.NotNil(t, check.ExpiresAt)
	assert.True(t, check.ExpiresAt.After(time.Now().Add(364*24*time.Hour)))
}

func TestCreateCheck_Validation(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	app := newCheckTestApp(db, user)

	path := orgPath(org.ID, "/background-checks")

	resp := doRequest(t, app, http.MethodPost, path,
		fiber.Map{"person_name": "", "check_type": "CRIMINAL"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, path,
		fiber.Map{"person_name": "Jane", "check_type": "POLYGRAPH"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetChecks_ExpiresStaleClearResults(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	app := newCheckTestApp(db, user)

	past := time.Now().Add(-24 * time.Hour)
	completed := past.Add(-checkValidity)
	stale := &model.BackgroundCheck{
		OrgID:       org.ID,
		PersonName:  "Old Volunteer",
		CheckType:   "REFERENCE",
		Status:      model.CheckStatusClear.String(),
		RequestedBy: user.ID,
		CompletedAt: &completed,
		ExpiresAt:   &past,
	}
	require.NoError(t, db.Create(stale).Error)

	resp := doRequest(t, app, http.MethodGet, orgPath(org.ID, "/background-checks"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 목록 조회가 만료 상태를 DB에도 반영한다
	var check model.BackgroundCheck
	require.NoError(t, db.First(&check, stale.ID).Error)
	assert.Equal(t, model.CheckStatusExpired.String(), check.Status)
}
