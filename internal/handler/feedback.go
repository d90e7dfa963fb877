package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/model"
)

// FeedbackHandler 베타 피드백 핸들러
type FeedbackHandler struct {
	db *gorm.DB
}

// NewFeedbackHandler FeedbackHandler 생성
func NewFeedbackHandler(db *gorm.DB) *FeedbackHandler {
	return &FeedbackHandler{db: db}
}

// SubmitFeedbackRequest 피드백 제출 요청
type SubmitFeedbackRequest struct {
	FeedbackType  string  `json:"feedback_type"` // BUG, FEATURE, GENERAL
	Category      *string `json:"category"`
	Subject       string  `json:"subject"`
	Message       string  `json:"message"`
	ScreenshotURL *string `json:"screenshot_url"`
}

var feedbackTypes = map[string]bool{
	"BUG":     true,
	"FEATURE": true,
	"GENERAL": true,
}

// SubmitFeedback 피드백 제출
func (h *FeedbackHandler) SubmitFeedback(c *fiber.Ctx) error {
	claims := mustClaims(c)

	var req SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Subject = sanitizeString(req.Subject)
	req.Message = sanitizeString(req.Message)
	if req.Subject == "" || req.Message == "" {
		return fail(c, fiber.StatusBadRequest, "subject and message are required")
	}
	if !feedbackTypes[req.FeedbackType] {
		return fail(c, fiber.StatusBadRequest, "invalid feedback type")
	}

	userAgent := c.Get("User-Agent")
	feedback := model.Feedback{
		UserID:        &claims.UserID,
		FeedbackType:  req.FeedbackType,
		Category:      req.Category,
		Subject:       req.Subject,
		Message:       req.Message,
		ScreenshotURL: req.ScreenshotURL,
	}
	if userAgent != "" {
		feedback.UserAgent = &userAgent
	}

	if err := h.db.Create(&feedback).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to submit feedback")
	}

	return created(c, fiber.Map{"id": feedback.ID})
}

// GetFeedbacks 피드백 목록 (운영 확인용)
func (h *FeedbackHandler) GetFeedbacks(c *fiber.Ctx) error {
	query := h.db.Order("id DESC").Limit(100)
	if fType := c.Query("type"); fType != "" {
		if !feedbackTypes[fType] {
			return fail(c, fiber.StatusBadRequest, "invalid feedback type")
		}
		query = query.Where("feedback_type = ?", fType)
	}

	var feedbacks []model.Feedback
	if err := query.Find(&feedbacks).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get feedbacks")
	}

	return ok(c, fiber.Map{"feedbacks": feedbacks, "total": len(feedbacks)})
}
