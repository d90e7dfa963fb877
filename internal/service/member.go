package service

import (
	"nonprofit-backend/internal/model"

	"gorm.io/gorm"
)

// MemberService 멤버십/권한 관련 비즈니스 로직
type MemberService struct {
	db *gorm.DB
}

// NewMemberService MemberService 생성
func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// IsOrgMember 단체 멤버 여부 확인
func (s *MemberService) IsOrgMember(orgID, userID int64) bool {
	var count int64
	s.db.Model(&model.OrgMember{}).
		Where("org_id = ? AND user_id = ? AND status = ?", orgID, userID, model.MemberStatusActive.String()).
		Count(&count)
	return count > 0
}

// IsOrgOwner 단체 소유자 여부 확인
func (s *MemberService) IsOrgOwner(orgID, userID int64) bool {
	var ownerID int64
	s.db.Table("organizations").Where("id = ?", orgID).Select("owner_id").Scan(&ownerID)
	return ownerID == userID
}

// IsOrgMemberOrOwner 멤버 또는 소유자 여부 확인
func (s *MemberService) IsOrgMemberOrOwner(orgID, userID int64) bool {
	return s.IsOrgMember(orgID, userID) || s.IsOrgOwner(orgID, userID)
}

// HasPermission 특정 권한 보유 여부 확인
func (s *MemberService) HasPermission(orgID, userID int64, permissionCode string) bool {
	// 소유자는 모든 권한 보유
	if s.IsOrgOwner(orgID, userID) {
		return true
	}

	// 멤버의 역할 권한 확인 (ADMIN은 전체 허용)
	var count int64
	s.db.Table("org_members om").
		Joins("JOIN role_permissions rp ON om.role_id = rp.role_id").
		Where("om.org_id = ? AND om.user_id = ? AND om.status = ? AND rp.permission_code IN ?",
			orgID, userID, model.MemberStatusActive.String(), []string{permissionCode, model.PermissionAdmin}).
		Count(&count)

	return count > 0
}

// GetMemberRole 멤버의 역할 조회
func (s *MemberService) GetMemberRole(orgID, userID int64) (*model.Role, error) {
	var member model.OrgMember
	err := s.db.Preload("Role").
		Where("org_id = ? AND user_id = ? AND status = ?", orgID, userID, model.MemberStatusActive.String()).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return member.Role, nil
}
