package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nonprofit-backend/internal/model"
)

func createAgendaItems(t *testing.T, db *gorm.DB, meetingID int64, titles ...string) []model.AgendaItem {
	t.Helper()

	items := make([]model.AgendaItem, 0, len(titles))
	for i, title := range titles {
		item := model.AgendaItem{
			MeetingID: meetingID,
			Title:     title,
			ItemType:  model.AgendaItemDiscussion.String(),
			SortOrder: i + 1,
		}
		require.NoError(t, db.Create(&item).Error)
		items = append(items, item)
	}
	return items
}

func loadSortedItems(t *testing.T, db *gorm.DB, meetingID int64) []model.AgendaItem {
	t.Helper()

	var items []model.AgendaItem
	require.NoError(t, db.Where("meeting_id = ?", meetingID).Order("sort_order ASC").Find(&items).Error)
	return items
}

func TestCreateAgendaItem_AppendsToEnd(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	app := newTestApp(db, user)

	path := orgPath(org.ID, fmt.Sprintf("/meetings/%d/agenda", meeting.ID))

	for i, title := range []string{"Opening", "Budget Review", "Closing"} {
		resp := doRequest(t, app, http.MethodPost, path, fiber.Map{"title": title})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		success, data := decodeEnvelope(t, resp)
		assert.True(t, success)
		assert.Equal(t, float64(i+1), data["sort_order"])
	}

	items := loadSortedItems(t, db, meeting.ID)
	require.Len(t, items, 3)
	assert.Equal(t, "Opening", items[0].Title)
	assert.Equal(t, "Closing", items[2].Title)
}

func TestCreateAgendaItem_ArchivedMeetingRejected(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	require.NoError(t, db.Model(meeting).Update("status", model.MeetingStatusArchived.String()).Error)
	app := newTestApp(db, user)

	path := orgPath(org.ID, fmt.Sprintf("/meetings/%d/agenda", meeting.ID))
	resp := doRequest(t, app, http.MethodPost, path, fiber.Map{"title": "Too late"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReorderAgenda(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	items := createAgendaItems(t, db, meeting.ID, "A", "B", "C")
	app := newTestApp(db, user)

	path := orgPath(org.ID, fmt.Sprintf("/meetings/%d/agenda/reorder", meeting.ID))

	// C, A, B 순서로 재배치
	resp := doRequest(t, app, http.MethodPut, path, fiber.Map{
		"item_ids": []int64{items[2].ID, items[0].ID, items[1].ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sorted := loadSortedItems(t, db, meeting.ID)
	require.Len(t, sorted, 3)
	assert.Equal(t, "C", sorted[0].Title)
	assert.Equal(t, "A", sorted[1].Title)
	assert.Equal(t, "B", sorted[2].Title)

	// sort_order는 항상 1..n
	for i, item := range sorted {
		assert.Equal(t, i+1, item.SortOrder)
	}
}

func TestReorderAgenda_RejectsNonPermutation(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	items := createAgendaItems(t, db, meeting.ID, "A", "B", "C")
	app := newTestApp(db, user)

	path := orgPath(org.ID, fmt.Sprintf("/meetings/%d/agenda/reorder", meeting.ID))

	cases := []struct {
		name string
		ids  []int64
	}{
		{"missing item", []int64{items[0].ID, items[1].ID}},
		{"duplicate item", []int64{items[0].ID, items[0].ID, items[1].ID}},
		{"unknown item", []int64{items[0].ID, items[1].ID, 99999}},
		{"empty list", []int64{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodPut, path, fiber.Map{"item_ids": tc.ids})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	// 거부된 요청은 기존 순서를 건드리지 않는다
	sorted := loadSortedItems(t, db, meeting.ID)
	require.Len(t, sorted, 3)
	assert.Equal(t, "A", sorted[0].Title)
	assert.Equal(t, "C", sorted[2].Title)
}

func TestDeleteAgendaItem_CompactsOrder(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	meeting := createTestMeeting(t, db, org, user)
	items := createAgendaItems(t, db, meeting.ID, "A", "B", "C", "D")
	app := newTestApp(db, user)

	// 가운데(B) 삭제
	path := orgPath(org.ID, fmt.Sprintf("/meetings/%d/agenda/%d", meeting.ID, items[1].ID))
	resp := doRequest(t, app, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sorted := loadSortedItems(t, db, meeting.ID)
	require.Len(t, sorted, 3)
	for i, item := range sorted {
		assert.Equal(t, i+1, item.SortOrder)
	}
	assert.Equal(t, "A", sorted[0].Title)
	assert.Equal(t, "C", sorted[1].Title)
	assert.Equal(t, "D", sorted[2].Title)
}
