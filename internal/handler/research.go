package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/model"
)

// ResearchHandler 기부자 자산 조사 핸들러
type ResearchHandler struct {
	db *gorm.DB
}

// NewResearchHandler ResearchHandler 생성
func NewResearchHandler(db *gorm.DB) *ResearchHandler {
	return &ResearchHandler{db: db}
}

// SaveResearchRequest 조사 기록 저장 요청
type SaveResearchRequest struct {
	DonorName      string  `json:"donor_name"`
	CapacityRating *string `json:"capacity_rating"` // LOW, MEDIUM, HIGH, MAJOR
	Source         *string `json:"source"`
	Summary        *string `json:"summary"`
}

var capacityRatings = map[string]bool{
	"LOW":    true,
	"MEDIUM": true,
	"HIGH":   true,
	"MAJOR":  true,
}

// CreateRecord 조사 기록 생성
func (h *ResearchHandler) CreateRecord(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	if err := h.requireAdmin(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "wealth research requires admin permission")
	}

	var req SaveResearchRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.DonorName = sanitizeString(req.DonorName)
	if req.DonorName == "" {
		return fail(c, fiber.StatusBadRequest, "donor_name is required")
	}
	if req.CapacityRating != nil && !capacityRatings[*req.CapacityRating] {
		return fail(c, fiber.StatusBadRequest, "invalid capacity rating")
	}

	record := model.ResearchRecord{
		OrgID:          orgID,
		DonorName:      req.DonorName,
		CapacityRating: req.CapacityRating,
		Source:         req.Source,
		Summary:        req.Summary,
		ResearchedBy:   claims.UserID,
	}
	if err := h.db.Create(&record).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create research record")
	}

	return created(c, record)
}

// GetRecords 조사 기록 목록
func (h *ResearchHandler) GetRecords(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	if err := h.requireAdmin(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "wealth research requires admin permission")
	}

	query := h.db.Where("org_id = ?", orgID)
	if rating := c.Query("rating"); rating != "" {
		if !capacityRatings[rating] {
			return fail(c, fiber.StatusBadRequest, "invalid capacity rating")
		}
		query = query.Where("capacity_rating = ?", rating)
	}
	if search := sanitizeString(c.Query("search")); search != "" {
		query = query.Where("donor_name ILIKE ?", "%"+search+"%")
	}

	var records []model.ResearchRecord
	if err := query.Order("updated_at DESC").Find(&records).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get research records")
	}

	return ok(c, fiber.Map{"records": records, "total": len(records)})
}

// UpdateRecord 조사 기록 수정
func (h *ResearchHandler) UpdateRecord(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	recordID, err := c.ParamsInt("recordId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid record id")
	}

	if err := h.requireAdmin(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "wealth research requires admin permission")
	}

	var req SaveResearchRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var record model.ResearchRecord
	if err := h.db.Where("id = ? AND org_id = ?", recordID, orgID).First(&record).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "research record not found")
	}

	if name := sanitizeString(req.DonorName); name != "" {
		record.DonorName = name
	}
	if req.CapacityRating != nil {
		if !capacityRatings[*req.CapacityRating] {
			return fail(c, fiber.StatusBadRequest, "invalid capacity rating")
		}
		record.CapacityRating = req.CapacityRating
	}
	if req.Source != nil {
		record.Source = req.Source
	}
	if req.Summary != nil {
		record.Summary = req.Summary
	}

	if err := h.db.Save(&record).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update research record")
	}

	return ok(c, record)
}

// DeleteRecord 조사 기록 삭제
func (h *ResearchHandler) DeleteRecord(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	recordID, err := c.ParamsInt("recordId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid record id")
	}

	if err := h.requireAdmin(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "wealth research requires admin permission")
	}

	result := h.db.Where("id = ? AND org_id = ?", recordID, orgID).Delete(&model.ResearchRecord{})
	if result.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to delete research record")
	}
	if result.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "research record not found")
	}

	return ok(c, fiber.Map{"message": "research record deleted"})
}

func (h *ResearchHandler) requireAdmin(orgID, userID int64) error {
	hasPermission, err := auth.CheckPermission(h.db, orgID, userID, model.PermissionAdmin)
	if err != nil || !hasPermission {
		return fiber.ErrForbidden
	}
	return nil
}
