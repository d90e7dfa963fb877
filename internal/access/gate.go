package access

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"nonprofit-backend/internal/model"
)

// 게이트 거부 사유
var (
	ErrWrongPassword         = errors.New("wrong password")
	ErrInvalidEmail          = errors.New("invalid email")
	ErrTosNotAccepted        = errors.New("terms not accepted")
	ErrDownloadLimitExceeded = errors.New("download limit exceeded")
)

// Submission 방문자가 게이트에 한 번에 제출하는 값
type Submission struct {
	Password    string
	Email       string
	TosAccepted bool
}

// Evaluate 공유 설정에 켜진 검사만 고정 순서(비밀번호 → 이메일 → 약관)로 수행
// 첫 실패에서 해당 거부 사유를 반환하고, 모두 통과하면 nil
func Evaluate(share *model.DocumentShare, sub Submission) error {
	if share.PasswordHash != nil && *share.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(*share.PasswordHash), []byte(sub.Password)); err != nil {
			return ErrWrongPassword
		}
	}

	if share.RequireEmail {
		if !isValidEmail(sub.Email) {
			return ErrInvalidEmail
		}
	}

	if share.RequireTos {
		if !sub.TosAccepted {
			return ErrTosNotAccepted
		}
	}

	return nil
}

// CanDownload 다운로드 허용 여부 확인 (열람과 별개로 검사)
func CanDownload(share *model.DocumentShare) error {
	if share.MaxDownloads != nil && share.DownloadCount >= *share.MaxDownloads {
		return ErrDownloadLimitExceeded
	}
	return nil
}

// DenyReason 거부 사유를 로그용 코드로 변환
func DenyReason(err error) string {
	switch {
	case errors.Is(err, ErrWrongPassword):
		return "WRONG_PASSWORD"
	case errors.Is(err, ErrInvalidEmail):
		return "INVALID_EMAIL"
	case errors.Is(err, ErrTosNotAccepted):
		return "TOS_NOT_ACCEPTED"
	case errors.Is(err, ErrDownloadLimitExceeded):
		return "DOWNLOAD_LIMIT_EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.Contains(domain, "@") {
		return false
	}
	return true
}
