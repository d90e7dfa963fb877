package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/model"
)

// RoleHandler 역할 핸들러
type RoleHandler struct {
	db *gorm.DB
}

// NewRoleHandler RoleHandler 생성
func NewRoleHandler(db *gorm.DB) *RoleHandler {
	return &RoleHandler{db: db}
}

// CreateRoleRequest 역할 생성 요청
type CreateRoleRequest struct {
	Name        string   `json:"name"`
	Color       *string  `json:"color,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// UpdateRoleRequest 역할 수정 요청
type UpdateRoleRequest struct {
	Name        string   `json:"name"`
	Color       *string  `json:"color,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// GetRoles 역할 목록 조회 (권한 포함)
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	var roles []model.Role
	if err := h.db.Preload("Permissions").Where("org_id = ?", orgID).Order("id asc").Find(&roles).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get roles")
	}

	return ok(c, fiber.Map{
		"roles":           roles,
		"all_permissions": model.AllPermissionCodes,
	})
}

// CreateRole 역할 생성
func (h *RoleHandler) CreateRole(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	if err := h.requireManageRoles(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage roles")
	}

	var req CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = sanitizeString(req.Name)
	if req.Name == "" {
		return fail(c, fiber.StatusBadRequest, "role name is required")
	}
	if err := validatePermissionCodes(req.Permissions); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	role := model.Role{
		OrgID:     orgID,
		Name:      req.Name,
		Color:     req.Color,
		IsDefault: false,
	}

	// 트랜잭션으로 역할 및 권한 생성
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err
		}

		if len(req.Permissions) > 0 {
			var permissions []model.RolePermission
			for _, code := range req.Permissions {
				permissions = append(permissions, model.RolePermission{
					RoleID:         role.ID,
					PermissionCode: code,
				})
			}
			if err := tx.Create(&permissions).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create role")
	}

	h.db.Preload("Permissions").First(&role, role.ID)
	return created(c, role)
}

// UpdateRole 역할 수정 (권한 목록 전체 교체)
func (h *RoleHandler) UpdateRole(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	roleID, err := c.ParamsInt("roleId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid role id")
	}

	if err := h.requireManageRoles(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage roles")
	}

	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validatePermissionCodes(req.Permissions); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	var role model.Role
	if err := h.db.Where("id = ? AND org_id = ?", roleID, orgID).First(&role).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "role not found")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if req.Name != "" {
			role.Name = sanitizeString(req.Name)
		}
		if req.Color != nil {
			role.Color = req.Color
		}
		if err := tx.Save(&role).Error; err != nil {
			return err
		}

		// 기존 권한 전체 삭제 후 재생성
		if err := tx.Where("role_id = ?", role.ID).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		if len(req.Permissions) > 0 {
			var permissions []model.RolePermission
			for _, code := range req.Permissions {
				permissions = append(permissions, model.RolePermission{
					RoleID:         role.ID,
					PermissionCode: code,
				})
			}
			if err := tx.Create(&permissions).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update role")
	}

	h.db.Preload("Permissions").First(&role, role.ID)
	return ok(c, role)
}

// DeleteRole 역할 삭제 (배정된 멤버는 역할 해제)
func (h *RoleHandler) DeleteRole(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	roleID, err := c.ParamsInt("roleId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid role id")
	}

	if err := h.requireManageRoles(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage roles")
	}

	var role model.Role
	if err := h.db.Where("id = ? AND org_id = ?", roleID, orgID).First(&role).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "role not found")
	}
	if role.IsDefault {
		return fail(c, fiber.StatusBadRequest, "default role cannot be deleted")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.OrgMember{}).
			Where("role_id = ?", role.ID).
			Update("role_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&role).Error
	})

	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to delete role")
	}

	return ok(c, fiber.Map{"message": "role deleted"})
}

func (h *RoleHandler) requireManageRoles(orgID, userID int64) error {
	hasPermission, err := auth.CheckPermission(h.db, orgID, userID, model.PermissionManageRoles)
	if err != nil || !hasPermission {
		return fiber.ErrForbidden
	}
	return nil
}

func validatePermissionCodes(codes []string) error {
	for _, code := range codes {
		known := false
		for _, valid := range model.AllPermissionCodes {
			if code == valid {
				known = true
				break
			}
		}
		if !known {
			return fiber.NewError(fiber.StatusBadRequest, "unknown permission code: "+code)
		}
	}
	return nil
}
