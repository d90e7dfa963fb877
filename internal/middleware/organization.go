package middleware

import (
	"strconv"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// OrgMiddleware 단체 권한 미들웨어
type OrgMiddleware struct {
	memberService *service.MemberService
}

// NewOrgMiddleware OrgMiddleware 생성
func NewOrgMiddleware(memberService *service.MemberService) *OrgMiddleware {
	return &OrgMiddleware{memberService: memberService}
}

// getOrgIDFromContext URL에서 단체 ID 추출
func getOrgIDFromContext(c *fiber.Ctx) (int64, error) {
	// 우선순위: :orgId > :id
	idStr := c.Params("orgId")
	if idStr == "" {
		idStr = c.Params("id")
	}
	if idStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "organization ID is required")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// RequireMembership 단체 멤버 필수
func (m *OrgMiddleware) RequireMembership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := auth.GetClaimsFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"data":    fiber.Map{"message": "unauthorized"},
			})
		}

		orgID, err := getOrgIDFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"data":    fiber.Map{"message": "invalid organization ID"},
			})
		}

		if !m.memberService.IsOrgMemberOrOwner(orgID, claims.UserID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"data":    fiber.Map{"message": "not an organization member"},
			})
		}

		// 단체 ID를 컨텍스트에 저장
		c.Locals("orgID", orgID)
		return c.Next()
	}
}

// RequireOwnership 단체 소유자 필수
func (m *OrgMiddleware) RequireOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := auth.GetClaimsFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"data":    fiber.Map{"message": "unauthorized"},
			})
		}

		orgID, err := getOrgIDFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"data":    fiber.Map{"message": "invalid organization ID"},
			})
		}

		if !m.memberService.IsOrgOwner(orgID, claims.UserID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"data":    fiber.Map{"message": "organization owner only"},
			})
		}

		c.Locals("orgID", orgID)
		return c.Next()
	}
}
