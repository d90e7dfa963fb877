package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/model"
)

// NotificationHandler 알림 핸들러
type NotificationHandler struct {
	db *gorm.DB
}

// NewNotificationHandler NotificationHandler 생성
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// NotificationResponse 알림 응답
type NotificationResponse struct {
	ID          int64         `json:"id"`
	Type        string        `json:"type"`
	Content     string        `json:"content"`
	IsRead      bool          `json:"is_read"`
	RelatedType *string       `json:"related_type,omitempty"`
	RelatedID   *int64        `json:"related_id,omitempty"`
	CreatedAt   string        `json:"created_at"`
	Sender      *UserResponse `json:"sender,omitempty"`
}

// GetMyNotifications 내 알림 목록 조회 (미읽음만)
func (h *NotificationHandler) GetMyNotifications(c *fiber.Ctx) error {
	claims := mustClaims(c)

	var notifications []model.Notification
	err := h.db.
		Where("receiver_id = ? AND is_read = ?", claims.UserID, false).
		Preload("Sender").
		Order("created_at DESC").
		Limit(50).
		Find(&notifications).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get notifications")
	}

	responses := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = h.toNotificationResponse(&n)
	}

	return ok(c, fiber.Map{"notifications": responses, "total": len(responses)})
}

// MarkAsRead 알림 읽음 처리
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	claims := mustClaims(c)
	notificationID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid notification id")
	}

	result := h.db.Model(&model.Notification{}).
		Where("id = ? AND receiver_id = ?", notificationID, claims.UserID).
		Update("is_read", true)
	if result.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to mark notification as read")
	}
	if result.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "notification not found")
	}

	return ok(c, fiber.Map{"message": "notification marked as read"})
}

// MarkAllAsRead 내 알림 전체 읽음 처리
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	claims := mustClaims(c)

	result := h.db.Model(&model.Notification{}).
		Where("receiver_id = ? AND is_read = ?", claims.UserID, false).
		Update("is_read", true)
	if result.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to mark notifications as read")
	}

	return ok(c, fiber.Map{"updated": result.RowsAffected})
}

// 헬퍼: 알림 생성 + 웹소켓 푸시 (다른 핸들러에서 사용)
func CreateNotification(db *gorm.DB, receiverID int64, senderID *int64, notificationType, content string, relatedType *string, relatedID *int64) error {
	notification := model.Notification{
		ReceiverID:  receiverID,
		SenderID:    senderID,
		Type:        notificationType,
		Content:     content,
		RelatedType: relatedType,
		RelatedID:   relatedID,
	}
	if err := db.Create(&notification).Error; err != nil {
		return err
	}

	GetNotificationWSHandler().SendToUser(receiverID, NotificationPayload{
		ID:      notification.ID,
		Type:    notification.Type,
		Content: notification.Content,
	})
	return nil
}

// 헬퍼: 단체 초대 알림 생성
func CreateOrgInviteNotification(db *gorm.DB, inviterID, inviteeID, orgID int64, orgName, inviterName string) error {
	content := fmt.Sprintf("%s님이 %s 단체에 초대했습니다.", inviterName, orgName)
	relatedType := "ORGANIZATION"
	return CreateNotification(db, inviteeID, &inviterID, model.NotificationTypeOrgInvite.String(), content, &relatedType, &orgID)
}

// 헬퍼: 업무 배정 알림 생성
func NotifyTaskAssigned(db *gorm.DB, assignerID, assigneeID int64, task *model.Task) error {
	content := fmt.Sprintf("새 업무가 배정되었습니다: %s", task.Title)
	relatedType := "TASK"
	return CreateNotification(db, assigneeID, &assignerID, model.NotificationTypeTaskAssigned.String(), content, &relatedType, &task.ID)
}

// 헬퍼: 회의록 승인 알림 (승인자 제외 전체 멤버)
func NotifyMinutesApproved(db *gorm.DB, approverID, orgID int64, meeting *model.Meeting) {
	var memberIDs []int64
	db.Model(&model.OrgMember{}).
		Where("org_id = ? AND status = ? AND user_id != ?", orgID, model.MemberStatusActive.String(), approverID).
		Pluck("user_id", &memberIDs)

	content := fmt.Sprintf("%s 회의록이 승인되었습니다.", meeting.Title)
	relatedType := "MEETING"
	for _, memberID := range memberIDs {
		CreateNotification(db, memberID, &approverID, model.NotificationTypeMinutesApproved.String(), content, &relatedType, &meeting.ID)
	}
}

func (h *NotificationHandler) toNotificationResponse(n *model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:          n.ID,
		Type:        n.Type,
		Content:     n.Content,
		IsRead:      n.IsRead,
		RelatedType: n.RelatedType,
		RelatedID:   n.RelatedID,
		CreatedAt:   n.CreatedAt.Format(timeFormat),
	}

	if n.Sender != nil && n.Sender.ID != 0 {
		sender := toUserResponse(n.Sender)
		resp.Sender = &sender
	}

	return resp
}
