package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/export"
	"nonprofit-backend/internal/model"
	"nonprofit-backend/internal/storage"
)

// ExportHandler 회의 자료 PDF 내보내기 핸들러
type ExportHandler struct {
	db *gorm.DB
	s3 *storage.S3Service
}

// NewExportHandler ExportHandler 생성
func NewExportHandler(db *gorm.DB, s3 *storage.S3Service) *ExportHandler {
	return &ExportHandler{db: db, s3: s3}
}

// ExportAgenda 안건 PDF 내보내기
func (h *ExportHandler) ExportAgenda(c *fiber.Ctx) error {
	meeting, errResp := h.loadMeeting(c)
	if errResp != nil {
		return errResp
	}

	var items []model.AgendaItem
	if err := h.db.Where("meeting_id = ?", meeting.ID).Order("sort_order ASC").Find(&items).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to load agenda items")
	}
	if len(items) == 0 {
		return fail(c, fiber.StatusBadRequest, "meeting has no agenda items")
	}

	data, err := export.AgendaPDF(meeting, items)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to render pdf")
	}

	return h.uploadAndRespond(c, meeting, "agenda", data)
}

// ExportMinutes 회의록 PDF 내보내기
func (h *ExportHandler) ExportMinutes(c *fiber.Ctx) error {
	meeting, errResp := h.loadMeeting(c)
	if errResp != nil {
		return errResp
	}

	var minutes model.Minutes
	if err := h.db.Where("meeting_id = ?", meeting.ID).First(&minutes).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "minutes not found")
	}

	data, err := export.MinutesPDF(meeting, &minutes)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to render pdf")
	}

	return h.uploadAndRespond(c, meeting, "minutes", data)
}

func (h *ExportHandler) loadMeeting(c *fiber.Ctx) (*model.Meeting, error) {
	orgID := orgIDFromLocals(c)

	meetingID, err := c.ParamsInt("meetingId")
	if err != nil {
		return nil, fail(c, fiber.StatusBadRequest, "invalid meeting id")
	}

	var meeting model.Meeting
	if err := h.db.Where("id = ? AND org_id = ?", meetingID, orgID).First(&meeting).Error; err != nil {
		return nil, fail(c, fiber.StatusNotFound, "meeting not found")
	}

	return &meeting, nil
}

func (h *ExportHandler) uploadAndRespond(c *fiber.Ctx, meeting *model.Meeting, kind string, data []byte) error {
	key := export.ObjectKey(meeting.OrgID, meeting.ID, kind)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.s3.UploadBytes(ctx, key, data, "application/pdf"); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to upload pdf")
	}

	url, err := h.s3.GetFileURL(key)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to generate download url")
	}

	return ok(c, fiber.Map{
		"url":  url,
		"key":  key,
		"size": len(data),
	})
}
