package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/model"
)

// TaskHandler 업무 핸들러
type TaskHandler struct {
	db *gorm.DB
}

// NewTaskHandler TaskHandler 생성
func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{db: db}
}

// CreateTaskRequest 업무 생성 요청
type CreateTaskRequest struct {
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	AgendaItemID *int64  `json:"agenda_item_id"`
	AssignedTo   *int64  `json:"assigned_to"`
	DueDate      *string `json:"due_date"`
	Priority     string  `json:"priority"`
}

// UpdateTaskRequest 업무 수정 요청
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *int64  `json:"assigned_to"`
	DueDate     *string `json:"due_date"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// CreateCommentRequest 코멘트 작성 요청
type CreateCommentRequest struct {
	Comment string `json:"comment"`
}

// TaskResponse 업무 응답
type TaskResponse struct {
	ID            int64         `json:"id"`
	OrgID         int64         `json:"org_id"`
	MeetingID     *int64        `json:"meeting_id,omitempty"`
	AgendaItemID  *int64        `json:"agenda_item_id,omitempty"`
	Title         string        `json:"title"`
	Description   *string       `json:"description,omitempty"`
	Assignee      *UserResponse `json:"assignee,omitempty"`
	DueDate       *string       `json:"due_date,omitempty"`
	Priority      string        `json:"priority"`
	Status        string        `json:"status"`
	StatusBadge   string        `json:"status_badge"`
	CommentCount  int           `json:"comment_count"`
	CreatedBy     int64         `json:"created_by"`
	CreatedAt     string        `json:"created_at"`
}

// CreateTask 업무 생성 (안건에서 승격 가능)
func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionManageTasks)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check permission")
	}
	if !hasPermission {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage tasks")
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = sanitizeString(req.Title)

	task := model.Task{
		OrgID:     orgID,
		Status:    model.TaskStatusTodo.String(),
		Priority:  model.TaskPriorityMedium.String(),
		CreatedBy: claims.UserID,
	}

	// 안건에서 승격: 회의/안건 연결 + 제목 기본값 상속
	if req.AgendaItemID != nil {
		var item model.AgendaItem
		err := h.db.
			Joins("JOIN meetings ON meetings.id = agenda_items.meeting_id").
			Where("agenda_items.id = ? AND meetings.org_id = ?", *req.AgendaItemID, orgID).
			First(&item).Error
		if err != nil {
			return fail(c, fiber.StatusNotFound, "agenda item not found")
		}

		task.AgendaItemID = &item.ID
		task.MeetingID = &item.MeetingID
		if req.Title == "" {
			task.Title = item.Title
		}
		if req.Description == nil {
			task.Description = item.Description
		}
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if task.Title == "" {
		return fail(c, fiber.StatusBadRequest, "title is required")
	}
	if req.Description != nil {
		task.Description = req.Description
	}

	if req.Priority != "" {
		if !model.TaskPriority(req.Priority).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid priority")
		}
		task.Priority = req.Priority
	}

	if req.DueDate != nil {
		due, err := time.Parse(timeFormat, *req.DueDate)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid due_date format")
		}
		task.DueDate = &due
	}

	// 담당자는 단체 멤버여야 함
	if req.AssignedTo != nil {
		var count int64
		h.db.Model(&model.OrgMember{}).
			Where("org_id = ? AND user_id = ? AND status = ?", orgID, *req.AssignedTo, model.MemberStatusActive.String()).
			Count(&count)
		if count == 0 {
			return fail(c, fiber.StatusBadRequest, "assignee is not an active member")
		}
		task.AssignedTo = req.AssignedTo
	}

	if err := h.db.Create(&task).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create task")
	}

	// 담당자 알림 (실패해도 생성은 유지)
	if task.AssignedTo != nil && *task.AssignedTo != claims.UserID {
		NotifyTaskAssigned(h.db, claims.UserID, *task.AssignedTo, &task)
	}

	h.db.Preload("Assignee").First(&task, task.ID)
	return created(c, h.toTaskResponse(&task))
}

// GetTasks 업무 목록 (필터)
func (h *TaskHandler) GetTasks(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	query := h.db.Where("org_id = ?", orgID)

	if status := c.Query("status"); status != "" {
		if !model.TaskStatus(status).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid status filter")
		}
		query = query.Where("status = ?", status)
	}
	if assignedTo := c.QueryInt("assigned_to", 0); assignedTo > 0 {
		query = query.Where("assigned_to = ?", assignedTo)
	}
	if meetingID := c.QueryInt("meeting_id", 0); meetingID > 0 {
		query = query.Where("meeting_id = ?", meetingID)
	}

	var tasks []model.Task
	err := query.
		Preload("Assignee").
		Preload("Comments").
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get tasks")
	}

	responses := make([]TaskResponse, len(tasks))
	for i := range tasks {
		responses[i] = h.toTaskResponse(&tasks[i])
	}

	return ok(c, fiber.Map{"tasks": responses, "total": len(responses)})
}

// GetTask 업무 상세 (코멘트 포함)
func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid task id")
	}

	var task model.Task
	err = h.db.
		Where("id = ? AND org_id = ?", taskID, orgID).
		Preload("Assignee").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.Author").
		First(&task).Error
	if err != nil {
		return fail(c, fiber.StatusNotFound, "task not found")
	}

	return ok(c, fiber.Map{
		"task":     h.toTaskResponse(&task),
		"comments": task.Comments,
	})
}

// UpdateTask 업무 수정 (알 수 없는 상태 값은 거부)
func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid task id")
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var task model.Task
	if err := h.db.Where("id = ? AND org_id = ?", taskID, orgID).First(&task).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "task not found")
	}

	// 담당자 본인은 상태 변경 가능, 그 외 수정은 권한 필요
	isAssignee := task.AssignedTo != nil && *task.AssignedTo == claims.UserID
	statusOnly := req.Status != nil && req.Title == nil && req.Description == nil &&
		req.AssignedTo == nil && req.DueDate == nil && req.Priority == nil

	if !(isAssignee && statusOnly) {
		hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionManageTasks)
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, "failed to check permission")
		}
		if !hasPermission {
			return fail(c, fiber.StatusForbidden, "you do not have permission to manage tasks")
		}
	}

	previousAssignee := task.AssignedTo

	if req.Title != nil {
		title := sanitizeString(*req.Title)
		if title == "" {
			return fail(c, fiber.StatusBadRequest, "title cannot be empty")
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Status != nil {
		if !model.TaskStatus(*req.Status).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid task status")
		}
		task.Status = *req.Status
	}
	if req.Priority != nil {
		if !model.TaskPriority(*req.Priority).Valid() {
			return fail(c, fiber.StatusBadRequest, "invalid priority")
		}
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		due, err := time.Parse(timeFormat, *req.DueDate)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid due_date format")
		}
		task.DueDate = &due
	}
	if req.AssignedTo != nil {
		var count int64
		h.db.Model(&model.OrgMember{}).
			Where("org_id = ? AND user_id = ? AND status = ?", orgID, *req.AssignedTo, model.MemberStatusActive.String()).
			Count(&count)
		if count == 0 {
			return fail(c, fiber.StatusBadRequest, "assignee is not an active member")
		}
		task.AssignedTo = req.AssignedTo
	}

	if err := h.db.Save(&task).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update task")
	}

	// 새 담당자 알림
	if task.AssignedTo != nil && *task.AssignedTo != claims.UserID &&
		(previousAssignee == nil || *previousAssignee != *task.AssignedTo) {
		NotifyTaskAssigned(h.db, claims.UserID, *task.AssignedTo, &task)
	}

	h.db.Preload("Assignee").First(&task, task.ID)
	return ok(c, h.toTaskResponse(&task))
}

// DeleteTask 업무 삭제 (코멘트 포함)
func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid task id")
	}

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionManageTasks)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check permission")
	}
	if !hasPermission {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage tasks")
	}

	var task model.Task
	if err := h.db.Where("id = ? AND org_id = ?", taskID, orgID).First(&task).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "task not found")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&model.TaskComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&task).Error
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to delete task")
	}

	return ok(c, fiber.Map{"message": "task deleted"})
}

// CreateComment 코멘트 작성
func (h *TaskHandler) CreateComment(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid task id")
	}

	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Comment = sanitizeString(req.Comment)
	if req.Comment == "" {
		return fail(c, fiber.StatusBadRequest, "comment is required")
	}

	var task model.Task
	if err := h.db.Where("id = ? AND org_id = ?", taskID, orgID).First(&task).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "task not found")
	}

	comment := model.TaskComment{
		TaskID:   task.ID,
		AuthorID: claims.UserID,
		Comment:  req.Comment,
	}
	if err := h.db.Create(&comment).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create comment")
	}

	h.db.Preload("Author").First(&comment, comment.ID)
	return created(c, comment)
}

func (h *TaskHandler) toTaskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:           t.ID,
		OrgID:        t.OrgID,
		MeetingID:    t.MeetingID,
		AgendaItemID: t.AgendaItemID,
		Title:        t.Title,
		Description:  t.Description,
		Priority:     t.Priority,
		Status:       t.Status,
		StatusBadge:  model.TaskStatus(t.Status).BadgeClass(),
		CommentCount: len(t.Comments),
		CreatedBy:    t.CreatedBy,
		CreatedAt:    t.CreatedAt.Format(timeFormat),
	}
	if t.Assignee != nil {
		assignee := toUserResponse(t.Assignee)
		resp.Assignee = &assignee
	}
	if t.DueDate != nil {
		due := t.DueDate.Format(timeFormat)
		resp.DueDate = &due
	}
	return resp
}
