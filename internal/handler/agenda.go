package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/model"
)

// AgendaHandler 안건 핸들러
type AgendaHandler struct {
	db *gorm.DB
}

// NewAgendaHandler AgendaHandler 생성
func NewAgendaHandler(db *gorm.DB) *AgendaHandler {
	return &AgendaHandler{db: db}
}

// CreateAgendaItemRequest 안건 생성 요청
type CreateAgendaItemRequest struct {
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	ItemType      string  `json:"item_type"`
	TimeAllocated *int    `json:"time_allocated"`
	Presenter     *string `json:"presenter"`
}

// UpdateAgendaItemRequest 안건 수정 요청
type UpdateAgendaItemRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	ItemType      *string `json:"item_type"`
	TimeAllocated *int    `json:"time_allocated"`
	Presenter     *string `json:"presenter"`
}

// ReorderAgendaRequest 안건 재정렬 요청 (전체 ID 순열)
type ReorderAgendaRequest struct {
	ItemIDs []int64 `json:"item_ids"`
}

// CreateAgendaItem 안건 생성 (맨 뒤에 추가)
func (h *AgendaHandler) CreateAgendaItem(c *fiber.Ctx) error {
	meeting, status, msg := h.loadEditableMeeting(c)
	if status != 0 {
		return fail(c, status, msg)
	}

	var req CreateAgendaItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = sanitizeString(req.Title)
	if req.Title == "" {
		return fail(c, fiber.StatusBadRequest, "title is required")
	}
	if req.ItemType == "" {
		req.ItemType = model.AgendaItemDiscussion.String()
	}
	if !model.AgendaItemType(req.ItemType).Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid item type")
	}
	if req.TimeAllocated != nil && *req.TimeAllocated <= 0 {
		return fail(c, fiber.StatusBadRequest, "time_allocated must be positive")
	}

	var item model.AgendaItem
	err := h.db.Transaction(func(tx *gorm.DB) error {
		// 다음 순번 계산 (빈틈 없는 1..n)
		var maxOrder int
		if err := tx.Model(&model.AgendaItem{}).
			Where("meeting_id = ?", meeting.ID).
			Select("COALESCE(MAX(sort_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}

		item = model.AgendaItem{
			MeetingID:     meeting.ID,
			Title:         req.Title,
			Description:   req.Description,
			ItemType:      req.ItemType,
			TimeAllocated: req.TimeAllocated,
			Presenter:     req.Presenter,
			SortOrder:     maxOrder + 1,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create agenda item")
	}

	return created(c, item)
}

// GetAgendaItems 안건 목록 (순번 순)
func (h *AgendaHandler) GetAgendaItems(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	meetingID, err := c.ParamsInt("meetingId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid meeting id")
	}

	var meeting model.Meeting
	if err := h.db.Where("id = ? AND org_id = ?", meetingID, orgID).First(&meeting).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "meeting not found")
	}

	var items []model.AgendaItem
	if err := h.db.Where("meeting_id = ?", meeting.ID).Order("sort_order ASC").Find(&items).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get agenda items")
	}

	return ok(c, fiber.Map{"items": items, "total": len(items)})
}

// UpdateAgendaItem 안건 수정 (순번은 재정렬 API로만 변경)
func (h *AgendaHandler) UpdateAgendaItem(c *fiber.Ctx) error {
	meeting, status, msg := h.loadEditableMeeting(c)
	if status != 0 {
		return fail(c, status, msg)
	}

	itemID, err := c.ParamsInt("itemId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid item id")
	}

	var req UpdateAgendaItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var item model.AgendaItem
	if err := h.db.Where("id = ? AND meeting_id = ?", itemID, meeting.ID).First(&item).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "agenda item not found")
	}

	if req.Title != nil {
		title := sanitizeString(*req.Title)
		if title == "" {
			return fail(c, fiber.StatusBadRequest, "title cannot be empty")
		}
		item.Title = title
	}
	if req.ItemType != nil {
		if !model.AgendaItemType(*req.ItemType).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid item type")
		}
		item.ItemType = *req.ItemType
	}
	if req.TimeAllocated != nil {
		if *req.TimeAllocated <= 0 {
			return fail(c, fiber.StatusBadRequest, "time_allocated must be positive")
		}
		item.TimeAllocated = req.TimeAllocated
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Presenter != nil {
		item.Presenter = req.Presenter
	}

	if err := h.db.Save(&item).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update agenda item")
	}

	return ok(c, item)
}

// DeleteAgendaItem 안건 삭제 (남은 안건 순번 재압축)
func (h *AgendaHandler) DeleteAgendaItem(c *fiber.Ctx) error {
	meeting, status, msg := h.loadEditableMeeting(c)
	if status != 0 {
		return fail(c, status, msg)
	}

	itemID, err := c.ParamsInt("itemId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid item id")
	}

	var item model.AgendaItem
	if err := h.db.Where("id = ? AND meeting_id = ?", itemID, meeting.ID).First(&item).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "agenda item not found")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}

		// 삭제 후에도 순번은 빈틈 없이 유지
		var remaining []model.AgendaItem
		if err := tx.Where("meeting_id = ?", meeting.ID).Order("sort_order ASC").Find(&remaining).Error; err != nil {
			return err
		}
		for i := range remaining {
			if remaining[i].SortOrder != i+1 {
				if err := tx.Model(&model.AgendaItem{}).
					Where("id = ?", remaining[i].ID).
					Update("sort_order", i+1).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to delete agenda item")
	}

	return ok(c, fiber.Map{"message": "agenda item deleted"})
}

// ReorderAgenda 안건 재정렬 (기존 안건 ID 전체의 순열만 허용)
func (h *AgendaHandler) ReorderAgenda(c *fiber.Ctx) error {
	meeting, status, msg := h.loadEditableMeeting(c)
	if status != 0 {
		return fail(c, status, msg)
	}

	var req ReorderAgendaRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.ItemIDs) == 0 {
		return fail(c, fiber.StatusBadRequest, "item_ids is required")
	}

	var items []model.AgendaItem
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meeting.ID).Find(&items).Error; err != nil {
			return err
		}

		// 개수 일치 + 중복 없음 + 전부 이 회의 소속이어야 함
		if len(req.ItemIDs) != len(items) {
			return errNotPermutation
		}
		existing := make(map[int64]bool, len(items))
		for _, item := range items {
			existing[item.ID] = true
		}
		seen := make(map[int64]bool, len(req.ItemIDs))
		for _, id := range req.ItemIDs {
			if !existing[id] || seen[id] {
				return errNotPermutation
			}
			seen[id] = true
		}

		// 요청 순서대로 1..n 부여
		for pos, id := range req.ItemIDs {
			if err := tx.Model(&model.AgendaItem{}).
				Where("id = ?", id).
				Update("sort_order", pos+1).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err == errNotPermutation {
		return fail(c, fiber.StatusBadRequest, "item_ids must be a permutation of the meeting's agenda items")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to reorder agenda")
	}

	var reordered []model.AgendaItem
	h.db.Where("meeting_id = ?", meeting.ID).Order("sort_order ASC").Find(&reordered)
	return ok(c, fiber.Map{"items": reordered})
}

var errNotPermutation = fiber.NewError(fiber.StatusBadRequest, "not a permutation")

// loadEditableMeeting 권한 + 회의 상태(보관 전) 확인
func (h *AgendaHandler) loadEditableMeeting(c *fiber.Ctx) (*model.Meeting, int, string) {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	meetingID, err := c.ParamsInt("meetingId")
	if err != nil {
		return nil, fiber.StatusBadRequest, "invalid meeting id"
	}

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionManageMeetings)
	if err != nil {
		return nil, fiber.StatusInternalServerError, "failed to check permission"
	}
	if !hasPermission {
		return nil, fiber.StatusForbidden, "you do not have permission to manage meetings"
	}

	var meeting model.Meeting
	if err := h.db.Where("id = ? AND org_id = ?", meetingID, orgID).First(&meeting).Error; err != nil {
		return nil, fiber.StatusNotFound, "meeting not found"
	}
	if meeting.Status == model.MeetingStatusArchived.String() {
		return nil, fiber.StatusConflict, "archived meeting cannot be modified"
	}

	return &meeting, 0, ""
}
