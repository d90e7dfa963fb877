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

	"nonprofit-backend/internal/model"
)

func minutesPath(orgID, meetingID int64, suffix string) string {
	return orgPath(orgID, fmt.Sprintf("/meetings/%d/minutes%s", meetingID, suffix))
}

func loadMinutes(t *testing.T, db *gorm.DB, meetingID int64) model.Minutes {
	t.Helper()

	var minutes model.Minutes
	require.NoError(t, db.Where("meeting_id = ?", meetingID).First(&minutes).Error)
	return minutes
}

func TestSaveMinutes_CreatesDraft(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	app := newTestApp(db, user)

	resp := doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, ""),
		fiber.Map{"content": "first draft"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	minutes := loadMinutes(t, db, meeting.ID)
	assert.Equal(t, "first draft", minutes.Content)
	assert.Equal(t, model.MinutesStatusDraft.String(), minutes.Status)
	assert.Nil(t, minutes.ApprovedAt)

	// 두 번째 저장은 같은 레코드를 갱신한다
	resp = doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, ""),
		fiber.Map{"content": "second draft"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&model.Minutes{}).Where("meeting_id = ?", meeting.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "second draft", loadMinutes(t, db, meeting.ID).Content)
}

func TestSaveMinutes_UnchangedContentIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	app := newTestApp(db, user)

	resp := doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, ""),
		fiber.Map{"content": "same content"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	before := loadMinutes(t, db, meeting.ID)
	time.Sleep(10 * time.Millisecond)

	resp = doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, ""),
		fiber.Map{"content": "same content"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	after := loadMinutes(t, db, meeting.ID)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt), "no-op save must not touch updated_at")

	// 내용이 바뀌면 갱신된다
	resp = doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, ""),
		fiber.Map{"content": "changed content"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	changed := loadMinutes(t, db, meeting.ID)
	assert.True(t, changed.UpdatedAt.After(before.UpdatedAt))
}

func TestAutoSaveMinutes(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	app := newTestApp(db, user)

	resp := doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, "/autosave"),
		fiber.Map{"content": "autosaved"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	success, data := decodeEnvelope(t, resp)
	assert.True(t, success)
	assert.Equal(t, model.MinutesStatusDraft.String(), data["status"])

	minutes := loadMinutes(t, db, meeting.ID)
	assert.Equal(t, "autosaved", minutes.Content)
}

func TestApproveMinutes(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	app := newTestApp(db, user)

	// 회의록이 없으면 404
	resp := doRequest(t, app, http.MethodPost, minutesPath(org.ID, meeting.ID, "/approve"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, ""),
		fiber.Map{"content": "final draft"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, minutesPath(org.ID, meeting.ID, "/approve"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	minutes := loadMinutes(t, db, meeting.ID)
	assert.Equal(t, model.MinutesStatusApproved.String(), minutes.Status)
	require.NotNil(t, minutes.ApprovedAt)
	require.NotNil(t, minutes.ApprovedBy)
	assert.Equal(t, user.ID, *minutes.ApprovedBy)

	// 재승인은 거부
	resp = doRequest(t, app, http.MethodPost, minutesPath(org.ID, meeting.ID, "/approve"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSaveMinutes_ApprovedContentFrozen(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	app := newTestApp(db, user)

	resp := doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, ""),
		fiber.Map{"content": "final draft"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, minutesPath(org.ID, meeting.ID, "/approve"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 승인 후 저장/자동 저장 모두 409
	resp = doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, ""),
		fiber.Map{"content": "tampered"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPut, minutesPath(org.ID, meeting.ID, "/autosave"),
		fiber.Map{"content": "tampered"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	assert.Equal(t, "final draft", loadMinutes(t, db, meeting.ID).Content)
}
