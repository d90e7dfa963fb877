package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/model"
)

// BackgroundCheckHandler 신원 조회 핸들러
type BackgroundCheckHandler struct {
	db *gorm.DB
}

// NewBackgroundCheckHandler BackgroundCheckHandler 생성
func NewBackgroundCheckHandler(db *gorm.DB) *BackgroundCheckHandler {
	return &BackgroundCheckHandler{db: db}
}

// CreateCheckRequest 신원 조회 요청
type CreateCheckRequest struct {
	PersonName string  `json:"person_name"`
	Email      *string `json:"email"`
	CheckType  string  `json:"check_type"` // CRIMINAL, CREDIT, REFERENCE
	Notes      *string `json:"notes"`
}

// UpdateCheckRequest 신원 조회 상태 갱신 요청
type UpdateCheckRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

var checkTypes = map[string]bool{
	"CRIMINAL":  true,
	"CREDIT":    true,
	"REFERENCE": true,
}

// 완료된 조회의 유효 기간
const checkValidity = 365 * 24 * time.Hour

// CreateCheck 신원 조회 요청 생성
func (h *BackgroundCheckHandler) CreateCheck(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	if err := h.requireManageMembers(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage members")
	}

	var req CreateCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.PersonName = sanitizeString(req.PersonName)
	if req.PersonName == "" {
		return fail(c, fiber.StatusBadRequest, "person_name is required")
	}
	if !checkTypes[req.CheckType] {
		return fail(c, fiber.StatusBadRequest, "invalid check type")
	}

	check := model.BackgroundCheck{
		OrgID:       orgID,
		PersonName:  req.PersonName,
		Email:       req.Email,
		CheckType:   req.CheckType,
		Status:      model.CheckStatusPending.String(),
		RequestedBy: claims.UserID,
		Notes:       req.Notes,
	}
	if err := h.db.Create(&check).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create background check")
	}

	return created(c, check)
}

// GetChecks 신원 조회 목록 (만료된 건은 EXPIRED로 표시)
func (h *BackgroundCheckHandler) GetChecks(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	if err := h.requireManageMembers(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage members")
	}

	query := h.db.Where("org_id = ?", orgID)
	if status := c.Query("status"); status != "" {
		if !model.CheckStatus(status).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid status filter")
		}
		query = query.Where("status = ?", status)
	}

	var checks []model.BackgroundCheck
	if err := query.Order("requested_at DESC").Find(&checks).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get background checks")
	}

	// 유효 기간이 지난 완료 건은 만료 처리
	now := time.Now()
	for i := range checks {
		if checks[i].Status == model.CheckStatusClear.String() &&
			checks[i].ExpiresAt != nil && checks[i].ExpiresAt.Before(now) {
			checks[i].Status = model.CheckStatusExpired.String()
			h.db.Model(&model.BackgroundCheck{}).
				Where("id = ?", checks[i].ID).
				Update("status", model.CheckStatusExpired.String())
		}
	}

	return ok(c, fiber.Map{"checks": checks, "total": len(checks)})
}

// UpdateCheck 신원 조회 상태 갱신
func (h *BackgroundCheckHandler) UpdateCheck(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	checkID, err := c.ParamsInt("checkId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid check id")
	}

	if err := h.requireManageMembers(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage members")
	}

	var req UpdateCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !model.CheckStatus(req.Status).Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid check status")
	}

	var check model.BackgroundCheck
	if err := h.db.Where("id = ? AND org_id = ?", checkID, orgID).First(&check).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "background check not found")
	}

	check.Status = req.Status
	if req.Notes != nil {
		check.Notes = req.Notes
	}

	// 결과 확정 시 완료/만료 시각 기록
	if req.Status == model.CheckStatusClear.String() || req.Status == model.CheckStatusFlagged.String() {
		now := time.Now()
		expires := now.Add(checkValidity)
		check.CompletedAt = &now
		check.ExpiresAt = &expires
	}

	if err := h.db.Save(&check).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update background check")
	}

	return ok(c, check)
}

// DeleteCheck 신원 조회 기록 삭제
func (h *BackgroundCheckHandler) DeleteCheck(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	checkID, err := c.ParamsInt("checkId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid check id")
	}

	if err := h.requireManageMembers(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage members")
	}

	result := h.db.Where("id = ? AND org_id = ?", checkID, orgID).Delete(&model.BackgroundCheck{})
	if result.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to delete background check")
	}
	if result.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "background check not found")
	}

	return ok(c, fiber.Map{"message": "background check deleted"})
}

func (h *BackgroundCheckHandler) requireManageMembers(orgID, userID int64) error {
	hasPermission, err := auth.CheckPermission(h.db, orgID, userID, model.PermissionManageMembers)
	if err != nil || !hasPermission {
		return fiber.ErrForbidden
	}
	return nil
}
