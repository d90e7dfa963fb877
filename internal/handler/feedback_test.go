package handler

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nonprofit-backend/internal/model"
)

func TestSubmitFeedback(t *testing.T) {
	db := setupTestDB(t)
	user, _ := createOwnerAndOrg(t, db)

	app := newTestApp(db, user)
	feedbackHandler := NewFeedbackHandler(db)
	app.Post("/api/feedback", feedbackHandler.SubmitFeedback)
	app.Get("/api/feedback", feedbackHandler.GetFeedbacks)

	resp := doRequest(t, app, http.MethodPost, "/api/feedback", fiber.Map{
		"feedback_type": "BUG",
		"subject":       "Broken agenda reorder",
		"message":       "Dragging an item to the top does nothing",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var feedback model.Feedback
	require.NoError(t, db.First(&feedback).Error)
	assert.Equal(t, "BUG", feedback.FeedbackType)
	require.NotNil(t, feedback.UserID)
	assert.Equal(t, user.ID, *feedback.UserID)

	// 유형/필수 값 검증
	resp = doRequest(t, app, http.MethodPost, "/api/feedback", fiber.Map{
		"feedback_type": "RANT",
		"subject":       "s",
		"message":       "m",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/feedback", fiber.Map{
		"feedback_type": "GENERAL",
		"subject":       "",
		"message":       "m",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/feedback?type=BUG", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, data := decodeEnvelope(t, resp)
	assert.Equal(t, float64(1), data["total"])
}
