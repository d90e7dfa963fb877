package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/model"
)

// OrganizationHandler 단체 핸들러
type OrganizationHandler struct {
	db *gorm.DB
}

// NewOrganizationHandler OrganizationHandler 생성
func NewOrganizationHandler(db *gorm.DB) *OrganizationHandler {
	return &OrganizationHandler{db: db}
}

// CreateOrganizationRequest 단체 생성 요청
type CreateOrganizationRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// UpdateOrganizationRequest 단체 수정 요청
type UpdateOrganizationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// InviteMemberRequest 멤버 초대 요청
type InviteMemberRequest struct {
	Email  string `json:"email"`
	RoleID *int64 `json:"role_id"`
}

// OrganizationResponse 단체 응답
type OrganizationResponse struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	OwnerID     int64        `json:"owner_id"`
	Owner       UserResponse `json:"owner"`
	MemberCount int          `json:"member_count"`
	CreatedAt   string       `json:"created_at"`
}

// MemberResponse 멤버 응답
type MemberResponse struct {
	ID       int64        `json:"id"`
	User     UserResponse `json:"user"`
	Role     *model.Role  `json:"role,omitempty"`
	Status   string       `json:"status"`
	JoinedAt string       `json:"joined_at"`
}

// 기본 역할 구성 (단체 생성 시 시드)
var defaultRoles = []struct {
	Name        string
	Color       string
	IsDefault   bool
	Permissions []string
}{
	{"Administrator", "#d9534f", false, []string{model.PermissionAdmin}},
	{"Board Chair", "#0275d8", false, []string{
		model.PermissionManageMeetings, model.PermissionApproveMinutes,
		model.PermissionManageDocuments, model.PermissionManageTasks,
	}},
	{"Secretary", "#5bc0de", false, []string{
		model.PermissionManageMeetings, model.PermissionEditMinutes, model.PermissionManageDocuments,
	}},
	{"Board Member", "#5cb85c", true, nil},
}

// CreateOrganization 단체 생성 (기본 역할 시드 포함)
func (h *OrganizationHandler) CreateOrganization(c *fiber.Ctx) error {
	claims := mustClaims(c)

	var req CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = sanitizeString(req.Name)
	if len(req.Name) < 2 || len(req.Name) > 100 {
		return fail(c, fiber.StatusBadRequest, "organization name must be between 2 and 100 characters")
	}

	var org model.Organization

	// 트랜잭션으로 단체 + 소유자 멤버십 + 기본 역할 생성
	err := h.db.Transaction(func(tx *gorm.DB) error {
		org = model.Organization{
			Name:        req.Name,
			Description: req.Description,
			OwnerID:     claims.UserID,
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		ownerMember := model.OrgMember{
			OrgID:  org.ID,
			UserID: claims.UserID,
			Status: model.MemberStatusActive.String(),
		}
		if err := tx.Create(&ownerMember).Error; err != nil {
			return err
		}

		for _, def := range defaultRoles {
			color := def.Color
			role := model.Role{
				OrgID:     org.ID,
				Name:      def.Name,
				Color:     &color,
				IsDefault: def.IsDefault,
			}
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
			for _, code := range def.Permissions {
				perm := model.RolePermission{RoleID: role.ID, PermissionCode: code}
				if err := tx.Create(&perm).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})

	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create organization")
	}

	h.db.Preload("Owner").First(&org, org.ID)
	return created(c, h.toOrgResponse(&org))
}

// GetMyOrganizations 내 단체 목록
func (h *OrganizationHandler) GetMyOrganizations(c *fiber.Ctx) error {
	claims := mustClaims(c)

	var orgs []model.Organization
	err := h.db.
		Joins("JOIN org_members ON org_members.org_id = organizations.id").
		Where("org_members.user_id = ? AND org_members.status = ?", claims.UserID, model.MemberStatusActive.String()).
		Preload("Owner").
		Order("organizations.id DESC").
		Find(&orgs).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get organizations")
	}

	responses := make([]OrganizationResponse, len(orgs))
	for i := range orgs {
		responses[i] = h.toOrgResponse(&orgs[i])
	}

	return ok(c, fiber.Map{"organizations": responses, "total": len(responses)})
}

// GetOrganization 단체 상세
func (h *OrganizationHandler) GetOrganization(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	var org model.Organization
	if err := h.db.Preload("Owner").First(&org, orgID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "organization not found")
	}

	return ok(c, h.toOrgResponse(&org))
}

// UpdateOrganization 단체 수정 (소유자 전용)
func (h *OrganizationHandler) UpdateOrganization(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	var req UpdateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var org model.Organization
	if err := h.db.First(&org, orgID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "organization not found")
	}

	if req.Name != nil {
		name := sanitizeString(*req.Name)
		if len(name) < 2 || len(name) > 100 {
			return fail(c, fiber.StatusBadRequest, "organization name must be between 2 and 100 characters")
		}
		org.Name = name
	}
	if req.Description != nil {
		org.Description = req.Description
	}

	if err := h.db.Save(&org).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update organization")
	}

	h.db.Preload("Owner").First(&org, org.ID)
	return ok(c, h.toOrgResponse(&org))
}

// DeleteOrganization 단체 삭제 (소유자 전용)
func (h *OrganizationHandler) DeleteOrganization(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	// 단체에 속한 모든 레코드를 자식부터 지운다 (FK 제약 순서)
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM task_comments WHERE task_id IN (SELECT id FROM tasks WHERE org_id = ?)", orgID,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM agenda_items WHERE meeting_id IN (SELECT id FROM meetings WHERE org_id = ?)", orgID,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM minutes WHERE meeting_id IN (SELECT id FROM meetings WHERE org_id = ?)", orgID,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.Meeting{}).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM share_access_logs WHERE share_id IN "+
				"(SELECT document_shares.id FROM document_shares "+
				"JOIN documents ON documents.id = document_shares.document_id WHERE documents.org_id = ?)", orgID,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM document_shares WHERE document_id IN (SELECT id FROM documents WHERE org_id = ?)", orgID,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.BackgroundCheck{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.ResearchRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.OrgMember{}).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM role_permissions WHERE role_id IN (SELECT id FROM roles WHERE org_id = ?)", orgID,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.Role{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Organization{}, orgID).Error
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to delete organization")
	}

	return ok(c, fiber.Map{"message": "organization deleted"})
}

// InviteMember 멤버 초대 (PENDING 멤버십 + 알림)
func (h *OrganizationHandler) InviteMember(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	var req InviteMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return fail(c, fiber.StatusBadRequest, "email is required")
	}

	var invitee model.User
	if err := h.db.Where("email = ?", req.Email).First(&invitee).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "user not found")
	}

	// 이미 멤버인지 확인
	var existing int64
	h.db.Model(&model.OrgMember{}).
		Where("org_id = ? AND user_id = ?", orgID, invitee.ID).
		Count(&existing)
	if existing > 0 {
		return fail(c, fiber.StatusConflict, "user is already a member or invited")
	}

	member := model.OrgMember{
		OrgID:  orgID,
		UserID: invitee.ID,
		RoleID: req.RoleID,
		Status: model.MemberStatusPending.String(),
	}
	if err := h.db.Create(&member).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to invite member")
	}

	// 초대 알림 (실패해도 초대는 유지)
	var org model.Organization
	var inviter model.User
	h.db.First(&org, orgID)
	h.db.First(&inviter, claims.UserID)
	CreateOrgInviteNotification(h.db, claims.UserID, invitee.ID, org.ID, org.Name, inviter.Nickname)

	return created(c, fiber.Map{"member_id": member.ID, "status": member.Status})
}

// AcceptInvite 초대 수락 (PENDING → ACTIVE)
func (h *OrganizationHandler) AcceptInvite(c *fiber.Ctx) error {
	claims := mustClaims(c)

	orgID, err := c.ParamsInt("orgId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid organization id")
	}

	var member model.OrgMember
	err = h.db.
		Where("org_id = ? AND user_id = ? AND status = ?", orgID, claims.UserID, model.MemberStatusPending.String()).
		First(&member).Error
	if err != nil {
		return fail(c, fiber.StatusNotFound, "invitation not found")
	}

	member.Status = model.MemberStatusActive.String()
	if err := h.db.Save(&member).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to accept invitation")
	}

	return ok(c, fiber.Map{"member_id": member.ID, "status": member.Status})
}

// GetMembers 멤버 목록
func (h *OrganizationHandler) GetMembers(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	var members []model.OrgMember
	err := h.db.
		Where("org_id = ?", orgID).
		Preload("User").
		Preload("Role").
		Preload("Role.Permissions").
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get members")
	}

	responses := make([]MemberResponse, len(members))
	for i, m := range members {
		responses[i] = MemberResponse{
			ID:       m.ID,
			User:     toUserResponse(&m.User),
			Role:     m.Role,
			Status:   m.Status,
			JoinedAt: m.JoinedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	return ok(c, fiber.Map{"members": responses, "total": len(responses)})
}

// UpdateMemberRoleRequest 멤버 역할 변경 요청
type UpdateMemberRoleRequest struct {
	RoleID *int64 `json:"role_id"`
}

// UpdateMemberRole 멤버 역할 변경
func (h *OrganizationHandler) UpdateMemberRole(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	memberID, err := c.ParamsInt("memberId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid member id")
	}

	var req UpdateMemberRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var member model.OrgMember
	if err := h.db.Where("id = ? AND org_id = ?", memberID, orgID).First(&member).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "member not found")
	}

	// 역할은 같은 단체 소속이어야 함
	if req.RoleID != nil {
		var role model.Role
		if err := h.db.Where("id = ? AND org_id = ?", *req.RoleID, orgID).First(&role).Error; err != nil {
			return fail(c, fiber.StatusBadRequest, "role does not belong to this organization")
		}
	}

	member.RoleID = req.RoleID
	if err := h.db.Save(&member).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update member role")
	}

	return ok(c, fiber.Map{"member_id": member.ID, "role_id": member.RoleID})
}

// RemoveMember 멤버 제거 (소유자 본인은 제거 불가)
func (h *OrganizationHandler) RemoveMember(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	memberID, err := c.ParamsInt("memberId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid member id")
	}

	var member model.OrgMember
	if err := h.db.Where("id = ? AND org_id = ?", memberID, orgID).First(&member).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "member not found")
	}

	var org model.Organization
	if err := h.db.First(&org, orgID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "organization not found")
	}
	if member.UserID == org.OwnerID {
		return fail(c, fiber.StatusBadRequest, "cannot remove the organization owner")
	}

	if err := h.db.Delete(&member).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to remove member")
	}

	return ok(c, fiber.Map{"message": "member removed"})
}

// LeaveOrganization 단체 탈퇴 (소유자는 탈퇴 불가)
func (h *OrganizationHandler) LeaveOrganization(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	var org model.Organization
	if err := h.db.First(&org, orgID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "organization not found")
	}
	if org.OwnerID == claims.UserID {
		return fail(c, fiber.StatusBadRequest, "owner cannot leave the organization")
	}

	result := h.db.
		Where("org_id = ? AND user_id = ?", orgID, claims.UserID).
		Delete(&model.OrgMember{})
	if result.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to leave organization")
	}
	if result.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "membership not found")
	}

	return ok(c, fiber.Map{"message": "left organization"})
}

func (h *OrganizationHandler) toOrgResponse(org *model.Organization) OrganizationResponse {
	var memberCount int64
	h.db.Model(&model.OrgMember{}).
		Where("org_id = ? AND status = ?", org.ID, model.MemberStatusActive.String()).
		Count(&memberCount)

	return OrganizationResponse{
		ID:          org.ID,
		Name:        org.Name,
		Description: org.Description,
		OwnerID:     org.OwnerID,
		Owner:       toUserResponse(&org.Owner),
		MemberCount: int(memberCount),
		CreatedAt:   org.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
