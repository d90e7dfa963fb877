package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"nonprofit-backend/internal/model"
)

func hashPassword(t *testing.T, plain string) *string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	require.NoError(t, err)
	s := string(hash)
	return &s
}

func TestEvaluate_NoChecksConfigured(t *testing.T) {
	share := &model.DocumentShare{}

	err := Evaluate(share, Submission{})
	assert.NoError(t, err)
}

func TestEvaluate_Password(t *testing.T) {
	share := &model.DocumentShare{PasswordHash: hashPassword(t, "secret123")}

	assert.ErrorIs(t, Evaluate(share, Submission{Password: "wrong"}), ErrWrongPassword)
	assert.ErrorIs(t, Evaluate(share, Submission{Password: ""}), ErrWrongPassword)
	assert.NoError(t, Evaluate(share, Submission{Password: "secret123"}))
}

func TestEvaluate_Email(t *testing.T) {
	share := &model.DocumentShare{RequireEmail: true}

	assert.ErrorIs(t, Evaluate(share, Submission{Email: ""}), ErrInvalidEmail)
	assert.ErrorIs(t, Evaluate(share, Submission{Email: "not-an-email"}), ErrInvalidEmail)
	assert.ErrorIs(t, Evaluate(share, Submission{Email: "@example.com"}), ErrInvalidEmail)
	assert.ErrorIs(t, Evaluate(share, Submission{Email: "user@"}), ErrInvalidEmail)
	assert.ErrorIs(t, Evaluate(share, Submission{Email: "user@nodot"}), ErrInvalidEmail)
	assert.NoError(t, Evaluate(share, Submission{Email: "user@example.com"}))
}

func TestEvaluate_Tos(t *testing.T) {
	share := &model.DocumentShare{RequireTos: true}

	assert.ErrorIs(t, Evaluate(share, Submission{}), ErrTosNotAccepted)
	assert.NoError(t, Evaluate(share, Submission{TosAccepted: true}))
}

// 비밀번호 → 이메일 → 약관 순서로 첫 실패가 반환되어야 한다
func TestEvaluate_FixedOrder(t *testing.T) {
	share := &model.DocumentShare{
		PasswordHash: hashPassword(t, "secret123"),
		RequireEmail: true,
		RequireTos:   true,
	}

	// 전부 틀리면 비밀번호 실패가 먼저
	err := Evaluate(share, Submission{Password: "wrong", Email: "bad", TosAccepted: false})
	assert.ErrorIs(t, err, ErrWrongPassword)

	// 비밀번호만 맞으면 이메일 실패
	err = Evaluate(share, Submission{Password: "secret123", Email: "bad", TosAccepted: false})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	// 비밀번호와 이메일이 맞으면 약관 실패
	err = Evaluate(share, Submission{Password: "secret123", Email: "user@example.com", TosAccepted: false})
	assert.ErrorIs(t, err, ErrTosNotAccepted)

	// 전부 통과
	err = Evaluate(share, Submission{Password: "secret123", Email: "user@example.com", TosAccepted: true})
	assert.NoError(t, err)
}

func TestCanDownload(t *testing.T) {
	// 제한 없음
	assert.NoError(t, CanDownload(&model.DocumentShare{DownloadCount: 100}))

	limit := 3
	assert.NoError(t, CanDownload(&model.DocumentShare{MaxDownloads: &limit, DownloadCount: 2}))
	assert.ErrorIs(t, CanDownload(&model.DocumentShare{MaxDownloads: &limit, DownloadCount: 3}), ErrDownloadLimitExceeded)
	assert.ErrorIs(t, CanDownload(&model.DocumentShare{MaxDownloads: &limit, DownloadCount: 5}), ErrDownloadLimitExceeded)
}

func TestDenyReason(t *testing.T) {
	assert.Equal(t, "WRONG_PASSWORD", DenyReason(ErrWrongPassword))
	assert.Equal(t, "INVALID_EMAIL", DenyReason(ErrInvalidEmail))
	assert.Equal(t, "TOS_NOT_ACCEPTED", DenyReason(ErrTosNotAccepted))
	assert.Equal(t, "DOWNLOAD_LIMIT_EXCEEDED", DenyReason(ErrDownloadLimitExceeded))
	assert.Equal(t, "UNKNOWN", DenyReason(assert.AnError))
}
