package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"nonprofit-backend/internal/access"
	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/cache"
	"nonprofit-backend/internal/config"
	"nonprofit-backend/internal/model"
	"nonprofit-backend/internal/storage"
)

// ShareHandler 문서 공유/접근 게이트 핸들러
type ShareHandler struct {
	db    *gorm.DB
	redis *cache.RedisClient
	s3    *storage.S3Service
	cfg   config.ShareConfig
}

// NewShareHandler ShareHandler 생성
func NewShareHandler(db *gorm.DB, redis *cache.RedisClient, s3 *storage.S3Service, cfg config.ShareConfig) *ShareHandler {
	return &ShareHandler{db: db, redis: redis, s3: s3, cfg: cfg}
}

// CreateShareRequest 공유 생성 요청
type CreateShareRequest struct {
	Password      *string `json:"password"`
	RequireEmail  bool    `json:"require_email"`
	RequireTos    bool    `json:"require_tos"`
	AllowDownload *bool   `json:"allow_download"`
	AllowPrint    *bool   `json:"allow_print"`
	MaxDownloads  *int    `json:"max_downloads"`
	WatermarkText *string `json:"watermark_text"`
}

// GateSubmitRequest 게이트 제출 요청 (한 번에 전부 제출)
type GateSubmitRequest struct {
	Password    string `json:"password"`
	Email       string `json:"email"`
	TosAccepted bool   `json:"tos_accepted"`
}

// ShareResponse 공유 응답 (관리자용)
type ShareResponse struct {
	ID            int64   `json:"id"`
	DocumentID    int64   `json:"document_id"`
	Token         string  `json:"token"`
	HasPassword   bool    `json:"has_password"`
	RequireEmail  bool    `json:"require_email"`
	RequireTos    bool    `json:"require_tos"`
	AllowDownload bool    `json:"allow_download"`
	AllowPrint    bool    `json:"allow_print"`
	MaxDownloads  *int    `json:"max_downloads,omitempty"`
	DownloadCount int     `json:"download_count"`
	WatermarkText *string `json:"watermark_text,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// CreateShare 공유 링크 생성
func (h *ShareHandler) CreateShare(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	documentID, err := c.ParamsInt("documentId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid document id")
	}

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionManageDocuments)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check permission")
	}
	if !hasPermission {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage documents")
	}

	var document model.Document
	if err := h.db.Where("id = ? AND org_id = ?", documentID, orgID).First(&document).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "document not found")
	}

	var req CreateShareRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.MaxDownloads != nil && *req.MaxDownloads < 1 {
		return fail(c, fiber.StatusBadRequest, "max_downloads must be at least 1")
	}

	share := model.DocumentShare{
		DocumentID:    document.ID,
		Token:         uuid.New().String(),
		RequireEmail:  req.RequireEmail,
		RequireTos:    req.RequireTos,
		AllowDownload: true,
		AllowPrint:    true,
		MaxDownloads:  req.MaxDownloads,
		WatermarkText: req.WatermarkText,
		CreatedBy:     claims.UserID,
	}
	if req.AllowDownload != nil {
		share.AllowDownload = *req.AllowDownload
	}
	if req.AllowPrint != nil {
		share.AllowPrint = *req.AllowPrint
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, "failed to hash password")
		}
		hashStr := string(hash)
		share.PasswordHash = &hashStr
	}

	if err := h.db.Create(&share).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create share")
	}

	return created(c, h.toShareResponse(&share))
}

// GetShares 문서의 공유 목록
func (h *ShareHandler) GetShares(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	documentID, err := c.ParamsInt("documentId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid document id")
	}

	var document model.Document
	if err := h.db.Where("id = ? AND org_id = ?", documentID, orgID).First(&document).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "document not found")
	}

	var shares []model.DocumentShare
	if err := h.db.Where("document_id = ?", document.ID).Order("id DESC").Find(&shares).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get shares")
	}

	responses := make([]ShareResponse, len(shares))
	for i := range shares {
		responses[i] = h.toShareResponse(&shares[i])
	}

	return ok(c, fiber.Map{"shares": responses, "total": len(responses)})
}

// GetAccessLogs 공유 접근 기록 조회
func (h *ShareHandler) GetAccessLogs(c *fiber.Ctx) error {
	orgID := orgIDFromLocals(c)

	shareID, err := c.ParamsInt("shareId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid share id")
	}

	var share model.DocumentShare
	err = h.db.
		Joins("JOIN documents ON documents.id = document_shares.document_id").
		Where("document_shares.id = ? AND documents.org_id = ?", shareID, orgID).
		First(&share).Error
	if err != nil {
		return fail(c, fiber.StatusNotFound, "share not found")
	}

	var logs []model.ShareAccessLog
	if err := h.db.Where("share_id = ?", share.ID).Order("created_at DESC").Limit(200).Find(&logs).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get access logs")
	}

	return ok(c, fiber.Map{"logs": logs, "total": len(logs)})
}

// RevokeShare 공유 철회
func (h *ShareHandler) RevokeShare(c *fiber.Ctx) error {
	claims := mustClaims(c)
	orgID := orgIDFromLocals(c)

	shareID, err := c.ParamsInt("shareId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid share id")
	}

	hasPermission, err := auth.CheckPermission(h.db, orgID, claims.UserID, model.PermissionManageDocuments)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check permission")
	}
	if !hasPermission {
		return fail(c, fiber.StatusForbidden, "you do not have permission to manage documents")
	}

	var share model.DocumentShare
	err = h.db.
		Joins("JOIN documents ON documents.id = document_shares.document_id").
		Where("document_shares.id = ? AND documents.org_id = ?", shareID, orgID).
		First(&share).Error
	if err != nil {
		return fail(c, fiber.StatusNotFound, "share not found")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("share_id = ?", share.ID).Delete(&model.ShareAccessLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&share).Error
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to revoke share")
	}

	return ok(c, fiber.Map{"message": "share revoked"})
}

// GetGateInfo 게이트 정보 (방문자용, 인증 불필요)
func (h *ShareHandler) GetGateInfo(c *fiber.Ctx) error {
	share, document, err := h.loadShareByToken(c.Params("token"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "share not found")
	}

	return ok(c, fiber.Map{
		"document_name":    document.Name,
		"file_type":        document.FileType,
		"require_password": share.PasswordHash != nil,
		"require_email":    share.RequireEmail,
		"require_tos":      share.RequireTos,
	})
}

// SubmitGate 게이트 제출 (비밀번호 → 이메일 → 약관 순서로 검사)
func (h *ShareHandler) SubmitGate(c *fiber.Ctx) error {
	share, document, err := h.loadShareByToken(c.Params("token"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "share not found")
	}

	var req GateSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	sub := access.Submission{
		Password:    req.Password,
		Email:       req.Email,
		TosAccepted: req.TosAccepted,
	}

	if err := access.Evaluate(share, sub); err != nil {
		h.logAccess(share.ID, req.Email, false, access.DenyReason(err))
		return fail(c, fiber.StatusForbidden, err.Error())
	}

	// 게이트 통과: 열람 세션 발급
	grant := &cache.ShareGrant{
		ShareID:    share.ID,
		DocumentID: document.ID,
		Email:      req.Email,
		Download:   share.AllowDownload,
		Print:      share.AllowPrint,
	}
	if share.WatermarkText != nil {
		grant.WatermarkText = *share.WatermarkText
	}
	if share.MaxDownloads != nil {
		remaining := *share.MaxDownloads - share.DownloadCount
		if remaining < 0 {
			remaining = 0
		}
		grant.DownloadsRemaining = &remaining
	}

	grantToken := uuid.New().String()
	ctx, cancel := context5s()
	defer cancel()
	if err := h.redis.SaveGrant(ctx, grantToken, grant, h.cfg.GrantTTL); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create viewer session")
	}

	h.logAccess(share.ID, req.Email, true, "")

	return ok(c, fiber.Map{
		"grant_token":    grantToken,
		"allow_download": share.AllowDownload,
		"allow_print":    share.AllowPrint,
		"watermark_text": share.WatermarkText,
		"expires_in":     int(h.cfg.GrantTTL.Seconds()),
	})
}

// ViewDocument 문서 열람 (다운로드 한도와 무관하게 허용)
func (h *ShareHandler) ViewDocument(c *fiber.Ctx) error {
	share, document, err := h.loadShareByToken(c.Params("token"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "share not found")
	}

	if _, errResp := h.requireGrant(c, share.ID); errResp != nil {
		return errResp
	}

	if document.S3Key == nil {
		return fail(c, fiber.StatusNotFound, "document file is missing")
	}

	url, err := h.s3.GetFileURL(*document.S3Key)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to generate view url")
	}

	return ok(c, fiber.Map{
		"url":            url,
		"watermark_text": share.WatermarkText,
		"allow_print":    share.AllowPrint,
	})
}

// DownloadDocument 문서 다운로드 (공유 단위로 직렬화, 한도 초과 시 410)
func (h *ShareHandler) DownloadDocument(c *fiber.Ctx) error {
	share, document, err := h.loadShareByToken(c.Params("token"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "share not found")
	}

	grant, errResp := h.requireGrant(c, share.ID)
	if errResp != nil {
		return errResp
	}

	if !share.AllowDownload {
		return fail(c, fiber.StatusForbidden, "download is not allowed for this share")
	}
	if document.S3Key == nil {
		return fail(c, fiber.StatusNotFound, "document file is missing")
	}

	// 같은 공유에 대한 동시 다운로드는 Redis 락으로 직렬화
	ctx, cancel := context5s()
	defer cancel()

	locked, err := h.redis.AcquireShareLock(ctx, share.ID, h.cfg.LockTTL)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to acquire download lock")
	}
	if !locked {
		return fail(c, fiber.StatusConflict, "another download is in progress, try again")
	}
	defer h.redis.ReleaseShareLock(ctx, share.ID)

	limitExceeded, err := h.recordDownload(share.ID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to record download")
	}
	if limitExceeded {
		h.logAccess(share.ID, grant.Email, false, access.DenyReason(access.ErrDownloadLimitExceeded))
		return fail(c, fiber.StatusGone, "download limit exceeded")
	}

	// 세션의 잔여 횟수도 갱신
	if grant.DownloadsRemaining != nil && *grant.DownloadsRemaining > 0 {
		remaining := *grant.DownloadsRemaining - 1
		grant.DownloadsRemaining = &remaining
		h.redis.UpdateGrant(ctx, c.Query("grant"), grant)
	}

	url, err := h.s3.GetFileURL(*document.S3Key)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to generate download url")
	}

	return ok(c, fiber.Map{
		"url":                 url,
		"downloads_remaining": grant.DownloadsRemaining,
	})
}

// recordDownload 한도 내에서만 다운로드 횟수 증가 (조건부 갱신이라 경쟁 시에도 한도를 넘지 않음)
func (h *ShareHandler) recordDownload(shareID int64) (limitExceeded bool, err error) {
	result := h.db.Model(&model.DocumentShare{}).
		Where("id = ? AND (max_downloads IS NULL OR download_count < max_downloads)", shareID).
		Update("download_count", gorm.Expr("download_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 0, nil
}

func (h *ShareHandler) loadShareByToken(token string) (*model.DocumentShare, *model.Document, error) {
	var share model.DocumentShare
	if err := h.db.Where("token = ?", token).First(&share).Error; err != nil {
		return nil, nil, err
	}

	var document model.Document
	if err := h.db.First(&document, share.DocumentID).Error; err != nil {
		return nil, nil, err
	}

	return &share, &document, nil
}

// requireGrant 게이트 통과 세션 확인
func (h *ShareHandler) requireGrant(c *fiber.Ctx, shareID int64) (*cache.ShareGrant, error) {
	grantToken := c.Query("grant")
	if grantToken == "" {
		return nil, fail(c, fiber.StatusUnauthorized, "grant token is required")
	}

	ctx, cancel := context5s()
	defer cancel()

	grant, err := h.redis.GetGrant(ctx, grantToken)
	if err == cache.ErrGrantNotFound {
		return nil, fail(c, fiber.StatusUnauthorized, "viewer session expired, pass the gate again")
	}
	if err != nil {
		return nil, fail(c, fiber.StatusInternalServerError, "failed to check viewer session")
	}

	// 다른 공유의 세션은 거부
	if grant.ShareID != shareID {
		return nil, fail(c, fiber.StatusUnauthorized, "grant does not match this share")
	}

	return grant, nil
}

func (h *ShareHandler) logAccess(shareID int64, email string, granted bool, denyReason string) {
	entry := model.ShareAccessLog{
		ShareID: shareID,
		Granted: granted,
	}
	if email != "" {
		entry.Email = &email
	}
	if denyReason != "" {
		entry.DenyReason = &denyReason
	}
	h.db.Create(&entry)
}

func (h *ShareHandler) toShareResponse(s *model.DocumentShare) ShareResponse {
	return ShareResponse{
		ID:            s.ID,
		DocumentID:    s.DocumentID,
		Token:         s.Token,
		HasPassword:   s.PasswordHash != nil,
		RequireEmail:  s.RequireEmail,
		RequireTos:    s.RequireTos,
		AllowDownload: s.AllowDownload,
		AllowPrint:    s.AllowPrint,
		MaxDownloads:  s.MaxDownloads,
		DownloadCount: s.DownloadCount,
		WatermarkText: s.WatermarkText,
		CreatedAt:     s.CreatedAt.Format(timeFormat),
	}
}

func context5s() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
