package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func googlePayload(claims map[string]interface{}) *idtoken.Payload {
	return &idtoken.Payload{
		Issuer:  "https://accounts.google.com",
		Subject: "google-sub-123",
		Claims:  claims,
	}
}

func TestUserInfoFromPayload(t *testing.T) {
	info, err := userInfoFromPayload(googlePayload(map[string]interface{}{
		"email":          "user@example.com",
		"email_verified": true,
		"name":           "User Name",
		"picture":        "https://example.com/p.jpg",
	}))
	require.NoError(t, err)
	assert.Equal(t, "google-sub-123", info.ID)
	assert.Equal(t, "user@example.com", info.Email)
	assert.Equal(t, "User Name", info.Name)
	assert.Equal(t, "https://example.com/p.jpg", info.Picture)
}

func TestUserInfoFromPayload_UnverifiedEmail(t *testing.T) {
	_, err := userInfoFromPayload(googlePayload(map[string]interface{}{
		"email":          "user@example.com",
		"email_verified": false,
	}))
	assert.Error(t, err)

	// 클레임 자체가 없어도 미확인으로 처리
	_, err = userInfoFromPayload(googlePayload(map[string]interface{}{
		"email": "user@example.com",
	}))
	assert.Error(t, err)
}

func TestUserInfoFromPayload_MissingEmail(t *testing.T) {
	// 이메일 클레임이 빠져도 패닉 없이 에러 반환
	_, err := userInfoFromPayload(googlePayload(map[string]interface{}{
		"email_verified": true,
	}))
	assert.Error(t, err)

	// 문자열이 아닌 이메일 클레임도 동일
	_, err = userInfoFromPayload(googlePayload(map[string]interface{}{
		"email":          12345,
		"email_verified": true,
	}))
	assert.Error(t, err)

	// 선택 클레임(name, picture)은 없어도 된다
	info, err := userInfoFromPayload(googlePayload(map[string]interface{}{
		"email":          "user@example.com",
		"email_verified": true,
	}))
	require.NoError(t, err)
	assert.Empty(t, info.Name)
	assert.Empty(t, info.Picture)
}
