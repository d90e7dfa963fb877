package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/model"
)

// MinutesHandler 회의록 핸들러
type MinutesHandler struct {
	db *gorm.DB
}

// NewMinutesHandler MinutesHandler 생성
func NewMinutesHandler(db *gorm.DB) *MinutesHandler {
	return &MinutesHandler{db: db}
}

// SaveMinutesRequest 회의록 저장 요청
type SaveMinutesRequest struct {
	Content string `json:"content"`
}

// GetMinutes 회의록 조회
func (h *MinutesHandler) GetMinutes(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	meetingID, err := c.ParamsInt("meetingId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid meeting id")
	}

	var meeting model.Meeting
	if err := h.db.Where("id = ? AND org_id = ?", meetingID, orgID).First(&meeting).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "meeting not found")
	}

	var minutes model.Minutes
	if err := h.db.Where("meeting_id = ?", meeting.ID).First(&minutes).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "minutes not found")
	}

	return ok(c, minutes)
}

// SaveMinutes 회의록 저장 (없으면 초안 생성, 승인 후에는 수정 불가)
func (h *MinutesHandler) SaveMinutes(c *fiber.Ctx) error {
	return h.save(c, false)
}

// AutoSaveMinutes 자동 저장 (저장과 동일하되 중복 생성/상태 변경 없음)
func (h *MinutesHandler) AutoSaveMinutes(c *fiber.Ctx) error {
	return h.save(c, true)
}

func (h *MinutesHandler) save(c *fiber.Ctx, autosave bool) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	meetingID, err := c.ParamsInt("meetingId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid meeting id")
	}

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionEditMinutes)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check permission")
	}
	if !hasPermission {
		return fail(c, fiber.StatusForbidden, "you do not have permission to edit minutes")
	}

	var req SaveMinutesRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var meeting model.Meeting
	if err := h.db.Where("id = ? AND org_id = ?", meetingID, orgID).First(&meeting).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "meeting not found")
	}

	var minutes model.Minutes
	var conflict bool

	// 회의당 회의록은 1건. 동시 저장이 겹쳐도 중복 생성되지 않도록 트랜잭션 안에서 조회/생성
	err = h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("meeting_id = ?", meeting.ID).First(&minutes)
		if result.Error == gorm.ErrRecordNotFound {
			minutes = model.Minutes{
				MeetingID: meeting.ID,
				Content:   req.Content,
				Status:    model.MinutesStatusDraft.String(),
			}
			return tx.Create(&minutes).Error
		}
		if result.Error != nil {
			return result.Error
		}

		// 승인된 회의록은 내용 동결
		if minutes.Status == model.MinutesStatusApproved.String() {
			conflict = true
			return nil
		}

		// 내용이 같으면 저장하지 않음 (수정 시각도 유지)
		if minutes.Content == req.Content {
			return nil
		}

		minutes.Content = req.Content
		return tx.Save(&minutes).Error
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to save minutes")
	}
	if conflict {
		return fail(c, fiber.StatusConflict, "approved minutes cannot be modified")
	}

	if autosave {
		return ok(c, fiber.Map{
			"id":         minutes.ID,
			"status":     minutes.Status,
			"updated_at": minutes.UpdatedAt.Format(timeFormat),
		})
	}
	return ok(c, minutes)
}

// ApproveMinutes 회의록 승인 (초안 → 승인, 되돌릴 수 없음)
func (h *MinutesHandler) ApproveMinutes(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	meetingID, err := c.ParamsInt("meetingId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid meeting id")
	}

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionApproveMinutes)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check permission")
	}
	if !hasPermission {
		return fail(c, fiber.StatusForbidden, "you do not have permission to approve minutes")
	}

	var meeting model.Meeting
	if err := h.db.Where("id = ? AND org_id = ?", meetingID, orgID).First(&meeting).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "meeting not found")
	}

	var minutes model.Minutes
	var alreadyApproved bool

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meeting.ID).First(&minutes).Error; err != nil {
			return err
		}

		// 이미 승인된 회의록 재승인은 거부
		if minutes.Status == model.MinutesStatusApproved.String() {
			alreadyApproved = true
			return nil
		}

		now := time.Now()
		minutes.Status = model.MinutesStatusApproved.String()
		minutes.ApprovedAt = &now
		minutes.ApprovedBy = &claims.UserID
		return tx.Save(&minutes).Error
	})
	if err == gorm.ErrRecordNotFound {
		return fail(c, fiber.StatusNotFound, "minutes not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to approve minutes")
	}
	if alreadyApproved {
		return fail(c, fiber.StatusConflict, "minutes are already approved")
	}

	// 단체 멤버 전체에게 승인 알림 (실패해도 승인은 유지)
	NotifyMinutesApproved(h.db, claims.UserID, orgID, &meeting)

	return ok(c, minutes)
}
