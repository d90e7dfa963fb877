package handler

import (
	"html"
	"strings"

	"github.com/gofiber/fiber/v2"

	"nonprofit-backend/internal/auth"
)

// sanitizeString 사용자 입력 문자열 정리 (공백 제거 + HTML 이스케이프)
func sanitizeString(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// mustClaims 인증 미들웨어 이후의 클레임 조회 (미들웨어가 보장)
func mustClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := auth.GetClaimsFromContext(c)
	return claims
}

// orgIDFromLocals 조직 미들웨어가 저장한 조직 ID 조회
func orgIDFromLocals(c *fiber.Ctx) int64 {
	orgID, _ := c.Locals("orgID").(int64)
	return orgID
}
