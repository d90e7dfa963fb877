package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/model"
	"nonprofit-backend/internal/storage"
)

// DocumentHandler 문서 핸들러
type DocumentHandler struct {
	db *gorm.DB
	s3 *storage.S3Service
}

// NewDocumentHandler DocumentHandler 생성
func NewDocumentHandler(db *gorm.DB, s3 *storage.S3Service) *DocumentHandler {
	return &DocumentHandler{db: db, s3: s3}
}

// PresignUploadRequest 업로드 URL 발급 요청
type PresignUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// ConfirmUploadRequest 업로드 완료 확인 요청
type ConfirmUploadRequest struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	FileType    *string `json:"file_type"`
	FileSize    *int64  `json:"file_size"`
	IsPublic    bool    `json:"is_public"`
}

// UpdateDocumentRequest 문서 메타데이터 수정 요청
type UpdateDocumentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

// PresignUpload 업로드용 presigned URL 발급
func (h *DocumentHandler) PresignUpload(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	if err := h.requireManageDocuments(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage documents")
	}

	var req PresignUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.FileName == "" || req.ContentType == "" {
		return fail(c, fiber.StatusBadRequest, "file_name and content_type are required")
	}

	upload, err := h.s3.GenerateUploadURL(orgID, req.FileName, req.ContentType)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to generate upload url")
	}

	return ok(c, upload)
}

// ConfirmUpload 업로드 완료 후 문서 레코드 생성
func (h *DocumentHandler) ConfirmUpload(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	if err := h.requireManageDocuments(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage documents")
	}

	var req ConfirmUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = sanitizeString(req.Name)
	if req.Key == "" || req.Name == "" {
		return fail(c, fiber.StatusBadRequest, "key and name are required")
	}

	fileURL := h.s3.GetPublicURL(req.Key)
	document := model.Document{
		OrgID:       orgID,
		UploaderID:  &claims.UserID,
		Name:        req.Name,
		Description: req.Description,
		FileType:    req.FileType,
		FileSize:    req.FileSize,
		FileURL:     &fileURL,
		S3Key:       &req.Key,
		IsPublic:    req.IsPublic,
	}
	if err := h.db.Create(&document).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create document")
	}

	return created(c, document)
}

// GetDocuments 문서 목록
func (h *DocumentHandler) GetDocuments(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	query := h.db.Where("org_id = ?", orgID)
	if search := sanitizeString(c.Query("search")); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var documents []model.Document
	err := query.
		Preload("Uploader").
		Order("created_at DESC").
		Find(&documents).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get documents")
	}

	return ok(c, fiber.Map{"documents": documents, "total": len(documents)})
}

// GetDocument 문서 상세 (공유 목록 포함)
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	documentID, err := c.ParamsInt("documentId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid document id")
	}

	var document model.Document
	err = h.db.
		Where("id = ? AND org_id = ?", documentID, orgID).
		Preload("Uploader").
		Preload("Shares").
		First(&document).Error
	if err != nil {
		return fail(c, fiber.StatusNotFound, "document not found")
	}

	return ok(c, document)
}

// GetDownloadURL 문서 다운로드 URL 발급 (멤버용)
func (h *DocumentHandler) GetDownloadURL(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	documentID, err := c.ParamsInt("documentId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid document id")
	}

	var document model.Document
	if err := h.db.Where("id = ? AND org_id = ?", documentID, orgID).First(&document).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "document not found")
	}
	if document.S3Key == nil {
		return fail(c, fiber.StatusNotFound, "document file is missing")
	}

	url, err := h.s3.GetFileURL(*document.S3Key)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to generate download url")
	}

	return ok(c, fiber.Map{"url": url})
}

// UpdateDocument 문서 메타데이터 수정
func (h *DocumentHandler) UpdateDocument(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	documentID, err := c.ParamsInt("documentId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid document id")
	}

	if err := h.requireManageDocuments(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage documents")
	}

	var req UpdateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var document model.Document
	if err := h.db.Where("id = ? AND org_id = ?", documentID, orgID).First(&document).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "document not found")
	}

	if req.Name != nil {
		name := sanitizeString(*req.Name)
		if name == "" {
			return fail(c, fiber.StatusBadRequest, "name cannot be empty")
		}
		document.Name = name
	}
	if req.Description != nil {
		document.Description = req.Description
	}
	if req.IsPublic != nil {
		document.IsPublic = *req.IsPublic
	}

	if err := h.db.Save(&document).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update document")
	}

	return ok(c, document)
}

// DeleteDocument 문서 삭제 (공유/접근 기록 포함, S3 객체까지)
func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	documentID, err := c.ParamsInt("documentId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid document id")
	}

	if err := h.requireManageDocuments(orgID, claims.UserID); err != nil {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage documents")
	}

	var document model.Document
	if err := h.db.Where("id = ? AND org_id = ?", documentID, orgID).First(&document).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "document not found")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM share_access_logs WHERE share_id IN (SELECT id FROM document_shares WHERE document_id = ?)",
			document.ID,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", document.ID).Delete(&model.DocumentShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&document).Error
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to delete document")
	}

	// S3 삭제 실패는 로그만 남김
	if document.S3Key != nil {
		if err := h.s3.DeleteFile(*document.S3Key); err != nil {
			log.Printf("⚠️ S3 객체 삭제 실패: key=%s, err=%v", *document.S3Key, err)
		}
	}

	return ok(c, fiber.Map{"message": "document deleted"})
}

// GetPortalDocuments 공개 포털 문서 목록 (인증 불필요)
func (h *DocumentHandler) GetPortalDocuments(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("orgId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid organization id")
	}

	var org model.Organization
	if err := h.db.First(&org, orgID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "organization not found")
	}

	var documents []model.Document
	err = h.db.
		Where("org_id = ? AND is_public = ?", orgID, true).
		Order("created_at DESC").
		Find(&documents).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get documents")
	}

	// 포털에는 메타데이터만 노출
	type portalDocument struct {
		ID        int64   `json:"id"`
		Name      string  `json:"name"`
		FileType  *string `json:"file_type,omitempty"`
		FileSize  *int64  `json:"file_size,omitempty"`
		CreatedAt string  `json:"created_at"`
	}
	responses := make([]portalDocument, len(documents))
	for i, d := range documents {
		responses[i] = portalDocument{
			ID:        d.ID,
			Name:      d.Name,
			FileType:  d.FileType,
			FileSize:  d.FileSize,
			CreatedAt: d.CreatedAt.Format(timeFormat),
		}
	}

	return ok(c, fiber.Map{
		"organization": org.Name,
		"documents":    responses,
		"total":        len(responses),
	})
}

// GetPortalDownloadURL 공개 문서 다운로드 (인증 불필요)
func (h *DocumentHandler) GetPortalDownloadURL(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("orgId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid organization id")
	}
	documentID, err := c.ParamsInt("documentId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid document id")
	}

	var document model.Document
	err = h.db.
		Where("id = ? AND org_id = ? AND is_public = ?", documentID, orgID, true).
		First(&document).Error
	if err != nil {
		return fail(c, fiber.StatusNotFound, "document not found")
	}
	if document.S3Key == nil {
		return fail(c, fiber.StatusNotFound, "document file is missing")
	}

	url, err := h.s3.GetFileURL(*document.S3Key)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to generate download url")
	}

	return ok(c, fiber.Map{"url": url})
}

func (h *DocumentHandler) requireManageDocuments(orgID, userID int64) error {
	hasPermission, err := auth.CheckPermission(h.db, orgID, userID, model.PermissionManageDocuments)
	if err != nil || !hasPermission {
		return fiber.ErrForbidden
	}
	return nil
}
