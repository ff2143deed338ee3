package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JwtMiddleware authenticates API callers and resolves the tenant every
// downstream query is scoped to. Tokens carry tenant_id and actor_id claims.
func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid claims"})
	}

	tenantStr, _ := claims["tenant_id"].(string)
	tenantId, err := uuid.Parse(tenantStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing tenant"})
	}

	ctx.Locals("tenant_id", tenantId)
	if actorStr, ok := claims["actor_id"].(string); ok {
		if actorId, err := uuid.Parse(actorStr); err == nil {
			ctx.Locals("actor_id", actorId)
		}
	}
	return ctx.Next()
}

// TenantFromCtx returns the tenant resolved by JwtMiddleware.
func TenantFromCtx(ctx *fiber.Ctx) (uuid.UUID, error) {
	tenantId, ok := ctx.Locals("tenant_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "missing tenant")
	}
	return tenantId, nil
}
