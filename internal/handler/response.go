package handler

import "github.com/gofiber/fiber/v2"

// ok 성공 응답 반환
func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// created 생성 성공 응답 반환
func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// fail 실패 응답 반환 (상태 코드 + 메시지)
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"data":    fiber.Map{"message": message},
	})
}
