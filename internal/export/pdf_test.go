package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nonprofit-backend/internal/model"
)

func sampleMeeting() *model.Meeting {
	location := "HQ Conference Room"
	return &model.Meeting{
		ID:          7,
		OrgID:       3,
		Title:       "Annual General Meeting",
		Type:        model.MeetingTypeAnnual.String(),
		Status:      model.MeetingStatusScheduled.String(),
		ScheduledAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Location:    &location,
	}
}

func TestAgendaPDF(t *testing.T) {
	presenter := "Chair"
	minutes := 15
	items := []model.AgendaItem{
		{Title: "Opening Remarks", ItemType: "PRESENTATION", SortOrder: 1, Presenter: &presenter, TimeAllocated: &minutes},
		{Title: "Budget Vote", ItemType: "VOTE", SortOrder: 2},
	}

	data, err := AgendaPDF(sampleMeeting(), items)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestMinutesPDF(t *testing.T) {
	now := time.Now()
	approver := int64(1)
	minutes := &model.Minutes{
		MeetingID:  7,
		Content:    "The board approved the 2026 budget.\nNext meeting in April.",
		Status:     model.MinutesStatusApproved.String(),
		ApprovedAt: &now,
		ApprovedBy: &approver,
	}

	data, err := MinutesPDF(sampleMeeting(), minutes)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey(3, 7, "agenda")
	assert.Contains(t, key, "orgs/3/exports/meeting-7-agenda-")
	assert.Contains(t, key, ".pdf")
}
