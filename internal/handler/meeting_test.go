package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nonprofit-backend/internal/model"
)

func TestCreateMeeting(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	app := newTestApp(db, user)

	scheduledAt := time.Now().Add(48 * time.Hour).Format(timeFormat)
	resp := doRequest(t, app, http.MethodPost, orgPath(org.ID, "/meetings"), fiber.Map{
		"title":        "Q3 Board Meeting",
		"type":         "BOARD",
		"scheduled_at": scheduledAt,
		"location":     "HQ Conference Room",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	success, data := decodeEnvelope(t, resp)
	assert.True(t, success)
	assert.Equal(t, "Q3 Board Meeting", data["title"])
	assert.Equal(t, model.MeetingStatusScheduled.String(), data["status"])

	var meeting model.Meeting
	require.NoError(t, db.Where("org_id = ?", org.ID).First(&meeting).Error)
	assert.Equal(t, user.ID, meeting.CreatorID)
}

func TestCreateMeeting_Validation(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	app := newTestApp(db, user)

	scheduledAt := time.Now().Add(48 * time.Hour).Format(timeFormat)

	cases := []struct {
		name string
		body fiber.Map
	}{
		{"missing title", fiber.Map{"type": "BOARD", "scheduled_at": scheduledAt}},
		{"unknown type", fiber.Map{"title": "m", "type": "STANDUP", "scheduled_at": scheduledAt}},
		{"bad date", fiber.Map{"title": "m", "type": "BOARD", "scheduled_at": "next tuesday"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodPost, orgPath(org.ID, "/meetings"), tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetMeetings_ExcludesArchivedByDefault(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	app := newTestApp(db, user)

	active := createTestMeeting(t, db, org, user)
	archived := createTestMeeting(t, db, org, user)
	require.NoError(t, db.Model(archived).Update("status", model.MeetingStatusArchived.String()).Error)

	resp := doRequest(t, app, http.MethodGet, orgPath(org.ID, "/meetings"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := decodeEnvelope(t, resp)
	assert.Equal(t, float64(1), data["total"])

	raw, err := json.Marshal(data["meetings"])
	require.NoError(t, err)
	var meetings []MeetingResponse
	require.NoError(t, json.Unmarshal(raw, &meetings))
	require.Len(t, meetings, 1)
	assert.Equal(t, active.ID, meetings[0].ID)

	// 명시적 상태 필터로는 보인다
	resp = doRequest(t, app, http.MethodGet, orgPath(org.ID, "/meetings?status=ARCHIVED"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, data = decodeEnvelope(t, resp)
	assert.Equal(t, float64(1), data["total"])
}

func TestArchiveMeetings_Bulk(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	app := newTestApp(db, user)

	m1 := createTestMeeting(t, db, org, user)
	m2 := createTestMeeting(t, db, org, user)

	// 다른 단체의 회의는 건드리지 못한다
	otherOwner := &model.User{Email: "other@example.com", Nickname: "other"}
	require.NoError(t, db.Create(otherOwner).Error)
	otherOrg := &model.Organization{Name: "Other Org", OwnerID: otherOwner.ID}
	require.NoError(t, db.Create(otherOrg).Error)
	foreign := createTestMeeting(t, db, otherOrg, otherOwner)

	resp := doRequest(t, app, http.MethodPost, orgPath(org.ID, "/meetings/archive"),
		fiber.Map{"ids": []int64{m1.ID, m2.ID, foreign.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := decodeEnvelope(t, resp)
	assert.Equal(t, float64(2), data["affected"])

	var status string
	require.NoError(t, db.Model(&model.Meeting{}).Where("id = ?", m1.ID).Select("status").Scan(&status).Error)
	assert.Equal(t, model.MeetingStatusArchived.String(), status)

	require.NoError(t, db.Model(&model.Meeting{}).Where("id = ?", foreign.ID).Select("status").Scan(&status).Error)
	assert.Equal(t, model.MeetingStatusScheduled.String(), status)
}

func TestDeleteMeetings_DetachesPromotedTasks(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	app := newTestApp(db, user)

	meeting := createTestMeeting(t, db, org, user)
	items := createAgendaItems(t, db, meeting.ID, "Follow up with auditor")

	// 안건에서 승격된 업무는 회의를 참조
	resp := doRequest(t, app, http.MethodPost, orgPath(org.ID, "/tasks"),
		fiber.Map{"agenda_item_id": items[0].ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, orgPath(org.ID, "/meetings/delete"),
		fiber.Map{"ids": []int64{meeting.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&model.Meeting{}).Where("id = ?", meeting.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// 업무는 살아남되 회의/안건 연결만 끊어진다
	var task model.Task
	require.NoError(t, db.Where("org_id = ?", org.ID).First(&task).Error)
	assert.Equal(t, "Follow up with auditor", task.Title)
	assert.Nil(t, task.MeetingID)
	assert.Nil(t, task.AgendaItemID)
}

func TestDeleteMeetings_CascadesAgendaAndMinutes(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	app := newTestApp(db, user)

	meeting := createTestMeeting(t, db, org, user)
	createAgendaItems(t, db, meeting.ID, "A", "B")
	require.NoError(t, db.Create(&model.Minutes{
		MeetingID: meeting.ID,
		Content:   "draft",
		Status:    model.MinutesStatusDraft.String(),
	}).Error)

	resp := doRequest(t, app, http.MethodPost, orgPath(org.ID, "/meetings/delete"),
		fiber.Map{"ids": []int64{meeting.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&model.Meeting{}).Where("id = ?", meeting.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&model.AgendaItem{}).Where("meeting_id = ?", meeting.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&model.Minutes{}).Where("meeting_id = ?", meeting.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}
