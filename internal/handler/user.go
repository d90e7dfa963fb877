package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/model"
)

// UserHandler 사용자 핸들러
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler UserHandler 생성
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// UpdateProfileRequest 프로필 수정 요청
type UpdateProfileRequest struct {
	Nickname   *string `json:"nickname"`
	ProfileImg *string `json:"profile_img"`
}

// UpdateProfile 내 프로필 수정
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	claims := mustClaims(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var user model.User
	if err := h.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "user not found")
	}

	if req.Nickname != nil {
		nickname := sanitizeString(*req.Nickname)
		if nickname == "" {
			return fail(c, fiber.StatusBadRequest, "nickname cannot be empty")
		}
		user.Nickname = nickname
	}
	if req.ProfileImg != nil {
		user.ProfileImg = req.ProfileImg
	}

	if err := h.db.Save(&user).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update profile")
	}

	return ok(c, toUserResponse(&user))
}

// SearchUsers 이메일/닉네임으로 사용자 검색 (초대용)
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	query := sanitizeString(c.Query("q"))
	if len(query) < 2 {
		return fail(c, fiber.StatusBadRequest, "query must be at least 2 characters")
	}

	var users []model.User
	err := h.db.
		Where("email ILIKE ? OR nickname ILIKE ?", "%"+query+"%", "%"+query+"%").
		Limit(20).
		Find(&users).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to search users")
	}

	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = toUserResponse(&users[i])
	}

	return ok(c, fiber.Map{"users": responses, "total": len(responses)})
}
