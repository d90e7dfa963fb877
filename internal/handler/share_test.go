package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nonprofit-backend/internal/access"
	"nonprofit-backend/internal/config"
	"nonprofit-backend/internal/middleware"
	"nonprofit-backend/internal/model"
	"nonprofit-backend/internal/service"
)

// 공유 테스트용 앱 (게이트 경로는 Redis 없이도 거부/조회까지 검증 가능)
func newShareTestApp(db *gorm.DB, user *model.User) *fiber.App {
	app := newTestApp(db, user)

	shareHandler := NewShareHandler(db, nil, nil, config.ShareConfig{})

	orgMW := middleware.NewOrgMiddleware(service.NewMemberService(db))
	requireMember := orgMW.RequireMembership()

	orgGroup := app.Group("/api/orgs")
	orgGroup.Post("/:orgId/documents/:documentId/shares", requireMember, shareHandler.CreateShare)
	orgGroup.Get("/:orgId/documents/:documentId/shares", requireMember, shareHandler.GetShares)
	orgGroup.Get("/:orgId/shares/:shareId/logs", requireMember, shareHandler.GetAccessLogs)
	orgGroup.Delete("/:orgId/shares/:shareId", requireMember, shareHandler.RevokeShare)

	app.Get("/share/:token", shareHandler.GetGateInfo)
	app.Post("/share/:token/access", shareHandler.SubmitGate)

	return app
}

func createTestDocument(t *testing.T, db *gorm.DB, orgID int64) *model.Document {
	t.Helper()

	fileType := "application/pdf"
	document := &model.Document{
		OrgID:    orgID,
		Name:     "bylaws.pdf",
		FileType: &fileType,
	}
	require.NoError(t, db.Create(document).Error)
	return document
}

func TestCreateShare(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	document := createTestDocument(t, db, org.ID)
	app := newShareTestApp(db, user)

	path := orgPath(org.ID, fmt.Sprintf("/documents/%d/shares", document.ID))

	resp := doRequest(t, app, http.MethodPost, path, fiber.Map{
		"password":      "secret123",
		"require_email": true,
		"max_downloads": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	success, data := decodeEnvelope(t, resp)
	assert.True(t, success)
	assert.Equal(t, true, data["has_password"])
	assert.Equal(t, true, data["require_email"])
	assert.Equal(t, float64(3), data["max_downloads"])
	assert.NotEmpty(t, data["token"])

	// 평문 비밀번호는 저장되지 않는다
	var share model.DocumentShare
	require.NoError(t, db.Where("document_id = ?", document.ID).First(&share).Error)
	require.NotNil(t, share.PasswordHash)
	assert.NotEqual(t, "secret123", *share.PasswordHash)
}

func TestCreateShare_Validation(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	document := createTestDocument(t, db, org.ID)
	app := newShareTestApp(db, user)

	path := orgPath(org.ID, fmt.Sprintf("/documents/%d/shares", document.ID))

	resp := doRequest(t, app, http.MethodPost, path, fiber.Map{"max_downloads": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 다른 단체 문서에는 공유를 만들 수 없다
	resp = doRequest(t, app, http.MethodPost, orgPath(org.ID, "/documents/99999/shares"), fiber.Map{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetGateInfo(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	document := createTestDocument(t, db, org.ID)
	app := newShareTestApp(db, user)

	hash := "$2a$10$abcdefghijklmnopqrstuvwx"
	share := &model.DocumentShare{
		DocumentID:   document.ID,
		Token:        "gate-token-1",
		PasswordHash: &hash,
		RequireTos:   true,
		CreatedBy:    user.ID,
	}
	require.NoError(t, db.Create(share).Error)

	resp := doRequest(t, app, http.MethodGet, "/share/gate-token-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := decodeEnvelope(t, resp)
	assert.Equal(t, "bylaws.pdf", data["document_name"])
	assert.Equal(t, true, data["require_password"])
	assert.Equal(t, false, data["require_email"])
	assert.Equal(t, true, data["require_tos"])

	resp = doRequest(t, app, http.MethodGet, "/share/no-such-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitGate_DenialIsLogged(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	document := createTestDocument(t, db, org.ID)
	app := newShareTestApp(db, user)

	share := &model.DocumentShare{
		DocumentID:   document.ID,
		Token:        "gate-token-2",
		RequireEmail: true,
		RequireTos:   true,
		CreatedBy:    user.ID,
	}
	require.NoError(t, db.Create(share).Error)

	// 이메일이 틀리면 약관 검사까지 가지 않는다
	resp := doRequest(t, app, http.MethodPost, "/share/gate-token-2/access",
		fiber.Map{"email": "not-an-email", "tos_accepted": false})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var logs []model.ShareAccessLog
	require.NoError(t, db.Where("share_id = ?", share.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Granted)
	require.NotNil(t, logs[0].DenyReason)
	assert.Equal(t, "INVALID_EMAIL", *logs[0].DenyReason)

	resp = doRequest(t, app, http.MethodPost, "/share/gate-token-2/access",
		fiber.Map{"email": "visitor@example.com", "tos_accepted": false})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.NoError(t, db.Where("share_id = ?", share.ID).Order("id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	require.NotNil(t, logs[1].DenyReason)
	assert.Equal(t, "TOS_NOT_ACCEPTED", *logs[1].DenyReason)
}

func TestRecordDownload_EnforcesLimit(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	document := createTestDocument(t, db, org.ID)

	limit := 1
	share := &model.DocumentShare{
		DocumentID:   document.ID,
		Token:        "download-limit-token",
		MaxDownloads: &limit,
		CreatedBy:    user.ID,
	}
	require.NoError(t, db.Create(share).Error)

	h := NewShareHandler(db, nil, nil, config.ShareConfig{})

	// 첫 다운로드는 허용
	exceeded, err := h.recordDownload(share.ID)
	require.NoError(t, err)
	assert.False(t, exceeded)

	// 두 번째는 한도 초과, 카운트는 그대로
	exceeded, err = h.recordDownload(share.ID)
	require.NoError(t, err)
	assert.True(t, exceeded)

	var current model.DocumentShare
	require.NoError(t, db.First(&current, share.ID).Error)
	assert.Equal(t, 1, current.DownloadCount)

	// 한도가 소진돼도 게이트(열람)는 통과한다
	assert.NoError(t, access.Evaluate(&current, access.Submission{}))
	assert.ErrorIs(t, access.CanDownload(&current), access.ErrDownloadLimitExceeded)
}

func TestRecordDownload_UnlimitedShare(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	document := createTestDocument(t, db, org.ID)

	share := &model.DocumentShare{
		DocumentID: document.ID,
		Token:      "unlimited-token",
		CreatedBy:  user.ID,
	}
	require.NoError(t, db.Create(share).Error)

	h := NewShareHandler(db, nil, nil, config.ShareConfig{})
	for i := 0; i < 3; i++ {
		exceeded, err := h.recordDownload(share.ID)
		require.NoError(t, err)
		assert.False(t, exceeded)
	}

	var current model.DocumentShare
	require.NoError(t, db.First(&current, share.ID).Error)
	assert.Equal(t, 3, current.DownloadCount)
}

func TestRevokeShare_CascadesLogs(t *testing.T) {
	db := setupTestDB(t)
	user, org := createOwnerAndOrg(t, db)
	document := createTestDocument(t, db, org.ID)
	app := newShareTestApp(db, user)

	share := &model.DocumentShare{
		DocumentID: document.ID,
		Token:      "gate-token-3",
		CreatedBy:  user.ID,
	}
	require.NoError(t, db.Create(share).Error)
	require.NoError(t, db.Create(&model.ShareAccessLog{ShareID: share.ID, Granted: true}).Error)

	resp := doRequest(t, app, http.MethodDelete, orgPath(org.ID, fmt.Sprintf("/shares/%d", share.ID)), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&model.DocumentShare{}).Where("id = ?", share.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&model.ShareAccessLog{}).Where("share_id = ?", share.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}
