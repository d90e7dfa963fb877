package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/model"
)

// MeetingHandler 회의 핸들러
type MeetingHandler struct {
	db *gorm.DB
}

// NewMeetingHandler MeetingHandler 생성
func NewMeetingHandler(db *gorm.DB) *MeetingHandler {
	return &MeetingHandler{db: db}
}

// CreateMeetingRequest 회의 생성 요청
type CreateMeetingRequest struct {
	Title       string  `json:"title"`
	Type        string  `json:"type"` // BOARD, COMMITTEE, SPECIAL, ANNUAL
	ScheduledAt string  `json:"scheduled_at"`
	Location    *string `json:"location"`
	VirtualURL  *string `json:"virtual_url"`
	Description *string `json:"description"`
}

// UpdateMeetingRequest 회의 수정 요청
type UpdateMeetingRequest struct {
	Title       *string `json:"title"`
	Type        *string `json:"type"`
	Status      *string `json:"status"`
	ScheduledAt *string `json:"scheduled_at"`
	Location    *string `json:"location"`
	VirtualURL  *string `json:"virtual_url"`
	Description *string `json:"description"`
}

// BulkMeetingRequest 회의 일괄 처리 요청
type BulkMeetingRequest struct {
	IDs []int64 `json:"ids"`
}

// MeetingResponse 회의 응답
type MeetingResponse struct {
	ID          int64              `json:"id"`
	OrgID       int64              `json:"org_id"`
	Title       string             `json:"title"`
	Type        string             `json:"type"`
	Status      string             `json:"status"`
	StatusBadge string             `json:"status_badge"`
	ScheduledAt string             `json:"scheduled_at"`
	Location    *string            `json:"location,omitempty"`
	VirtualURL  *string            `json:"virtual_url,omitempty"`
	Description *string            `json:"description,omitempty"`
	Creator     UserResponse       `json:"creator"`
	AgendaItems []model.AgendaItem `json:"agenda_items,omitempty"`
	HasMinutes  bool               `json:"has_minutes"`
	CreatedAt   string             `json:"created_at"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// GetMeetings 회의 목록 (필터 + 페이지네이션)
func (h *MeetingHandler) GetMeetings(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	query := h.db.Where("org_id = ?", orgID)

	// 상태 필터 (기본: ARCHIVED 제외)
	if status := c.Query("status"); status != "" {
		if !model.MeetingStatus(status).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid status filter")
		}
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status != ?", model.MeetingStatusArchived.String())
	}

	if mType := c.Query("type"); mType != "" {
		if !model.MeetingType(mType).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid type filter")
		}
		query = query.Where("type = ?", mType)
	}

	if search := sanitizeString(c.Query("search")); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(timeFormat, from)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid from date")
		}
		query = query.Where("scheduled_at >= ?", t)
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(timeFormat, to)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid to date")
		}
		query = query.Where("scheduled_at <= ?", t)
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	query.Model(&model.Meeting{}).Count(&total)

	var meetings []model.Meeting
	err := query.
		Preload("Creator").
		Preload("Minutes").
		Order("scheduled_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&meetings).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get meetings")
	}

	responses := make([]MeetingResponse, len(meetings))
	for i := range meetings {
		responses[i] = h.toMeetingResponse(&meetings[i])
	}

	return ok(c, fiber.Map{
		"meetings": responses,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// CreateMeeting 회의 생성
func (h *MeetingHandler) CreateMeeting(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionManageMeetings)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check permission")
	}
	if !hasPermission {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage meetings")
	}

	var req CreateMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = sanitizeString(req.Title)
	if req.Title == "" {
		return fail(c, fiber.StatusBadRequest, "title is required")
	}
	if len(req.Title) > 200 {
		return fail(c, fiber.StatusBadRequest, "title must be at most 200 characters")
	}
	if !model.MeetingType(req.Type).Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid meeting type")
	}

	scheduledAt, err := time.Parse(timeFormat, req.ScheduledAt)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid scheduled_at format")
	}

	meeting := model.Meeting{
		OrgID:       orgID,
		CreatorID:   claims.UserID,
		Title:       req.Title,
		Type:        req.Type,
		Status:      model.MeetingStatusScheduled.String(),
		ScheduledAt: scheduledAt,
		Location:    req.Location,
		VirtualURL:  req.VirtualURL,
		Description: req.Description,
	}

	if err := h.db.Create(&meeting).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create meeting")
	}

	h.db.Preload("Creator").First(&meeting, meeting.ID)
	return created(c, h.toMeetingResponse(&meeting))
}

// GetMeeting 회의 상세 (안건 + 회의록 포함)
func (h *MeetingHandler) GetMeeting(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	meetingID, err := c.ParamsInt("meetingId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid meeting id")
	}

	var meeting model.Meeting
	err = h.db.
		Where("id = ? AND org_id = ?", meetingID, orgID).
		Preload("Creator").
		Preload("AgendaItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Minutes").
		First(&meeting).Error
	if err != nil {
		return fail(c, fiber.StatusNotFound, "meeting not found")
	}

	resp := h.toMeetingResponse(&meeting)
	resp.AgendaItems = meeting.AgendaItems

	return ok(c, fiber.Map{
		"meeting": resp,
		"minutes": meeting.Minutes,
	})
}

// UpdateMeeting 회의 수정
func (h *MeetingHandler) UpdateMeeting(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	meetingID, err := c.ParamsInt("meetingId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid meeting id")
	}

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionManageMeetings)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check permission")
	}
	if !hasPermission {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage meetings")
	}

	var req UpdateMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var meeting model.Meeting
	if err := h.db.Where("id = ? AND org_id = ?", meetingID, orgID).First(&meeting).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "meeting not found")
	}

	if req.Title != nil {
		title := sanitizeString(*req.Title)
		if title == "" || len(title) > 200 {
			return fail(c, fiber.StatusBadRequest, "title must be between 1 and 200 characters")
		}
		meeting.Title = title
	}
	if req.Type != nil {
		if !model.MeetingType(*req.Type).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid meeting type")
		}
		meeting.Type = *req.Type
	}
	if req.Status != nil {
		if !model.MeetingStatus(*req.Status).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid meeting status")
		}
		meeting.Status = *req.Status
	}
	if req.ScheduledAt != nil {
		scheduledAt, err := time.Parse(timeFormat, *req.ScheduledAt)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid scheduled_at format")
		}
		meeting.ScheduledAt = scheduledAt
	}
	if req.Location != nil {
		meeting.Location = req.Location
	}
	if req.VirtualURL != nil {
		meeting.VirtualURL = req.VirtualURL
	}
	if req.Description != nil {
		meeting.Description = req.Description
	}

	if err := h.db.Save(&meeting).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update meeting")
	}

	h.db.Preload("Creator").First(&meeting, meeting.ID)
	return ok(c, h.toMeetingResponse(&meeting))
}

// ArchiveMeetings 회의 일괄 보관
func (h *MeetingHandler) ArchiveMeetings(c *fiber.Ctx) error {
	return h.bulkUpdate(c, func(tx *gorm.DB, ids []int64, orgID int64) (int64, error) {
		result := tx.Model(&model.Meeting{}).
			Where("id IN ? AND org_id = ?", ids, orgID).
			Update("status", model.MeetingStatusArchived.String())
		return result.RowsAffected, result.Error
	})
}

// DeleteMeetings 회의 일괄 삭제 (안건/회의록 포함)
func (h *MeetingHandler) DeleteMeetings(c *fiber.Ctx) error {
	return h.bulkUpdate(c, func(tx *gorm.DB, ids []int64, orgID int64) (int64, error) {
		// 단체 소속 회의만 삭제 대상
		var ownedIDs []int64
		if err := tx.Model(&model.Meeting{}).
			Where("id IN ? AND org_id = ?", ids, orgID).
			Pluck("id", &ownedIDs).Error; err != nil {
			return 0, err
		}
		if len(ownedIDs) == 0 {
			return 0, nil
		}

		// 안건에서 승격된 업무는 삭제하지 않고 연결만 해제
		if err := tx.Model(&model.Task{}).
			Where("meeting_id IN ?", ownedIDs).
			Updates(map[string]interface{}{"meeting_id": nil, "agenda_item_id": nil}).Error; err != nil {
			return 0, err
		}
		if err := tx.Where("meeting_id IN ?", ownedIDs).Delete(&model.AgendaItem{}).Error; err != nil {
			return 0, err
		}
		if err := tx.Where("meeting_id IN ?", ownedIDs).Delete(&model.Minutes{}).Error; err != nil {
			return 0, err
		}
		result := tx.Where("id IN ?", ownedIDs).Delete(&model.Meeting{})
		return result.RowsAffected, result.Error
	})
}

func (h *MeetingHandler) bulkUpdate(c *fiber.Ctx, apply func(tx *gorm.DB, ids []int64, orgID int64) (int64, error)) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionManageMeetings)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check permission")
	}
	if !hasPermission {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage meetings")
	}

	var req BulkMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return fail(c, fiber.StatusBadRequest, "ids is required")
	}

	var affected int64
	err = h.db.Transaction(func(tx *gorm.DB) error {
		affected, err = apply(tx, req.IDs, orgID)
		return err
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to process meetings")
	}

	return ok(c, fiber.Map{"affected": affected})
}

func (h *MeetingHandler) toMeetingResponse(m *model.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:          m.ID,
		OrgID:       m.OrgID,
		Title:       m.Title,
		Type:        m.Type,
		Status:      m.Status,
		StatusBadge: model.MeetingStatus(m.Status).BadgeClass(),
		ScheduledAt: m.ScheduledAt.Format(timeFormat),
		Location:    m.Location,
		VirtualURL:  m.VirtualURL,
		Description: m.Description,
		Creator:     toUserResponse(&m.Creator),
		HasMinutes:  m.Minutes != nil,
		CreatedAt:   m.CreatedAt.Format(timeFormat),
	}
}
