package auth

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

var (
	ErrInvalidGoogleToken = errors.New("invalid google id token")
)

// GoogleUserInfo Google 사용자 정보
type GoogleUserInfo struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleAuthenticator Google OAuth 검증기
type GoogleAuthenticator struct {
	clientID string
}

// NewGoogleAuthenticator GoogleAuthenticator 생성
func NewGoogleAuthenticator(clientID string) *GoogleAuthenticator {
	return &GoogleAuthenticator{
		clientID: clientID,
	}
}

// VerifyIDToken Google ID Token 검증
func (g *GoogleAuthenticator) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	payload, err := idtoken.Validate(ctx, idToken, g.clientID)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}
	return userInfoFromPayload(payload)
}

// userInfoFromPayload 검증된 페이로드에서 사용자 정보 추출
// 이메일은 확인된 상태여야 하고 클레임에 반드시 존재해야 한다
func userInfoFromPayload(payload *idtoken.Payload) (*GoogleUserInfo, error) {
	emailVerified, _ := payload.Claims["email_verified"].(bool)
	if !emailVerified {
		return nil, errors.New("email not verified")
	}

	email := getStringClaim(payload.Claims, "email")
	if email == "" {
		return nil, errors.New("email claim missing")
	}

	return &GoogleUserInfo{
		ID:            payload.Subject,
		Email:         email,
		EmailVerified: emailVerified,
		Name:          getStringClaim(payload.Claims, "name"),
		Picture:       getStringClaim(payload.Claims, "picture"),
	}, nil
}

func getStringClaim(claims map[string]interface{}, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}
