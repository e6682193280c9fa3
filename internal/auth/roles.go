package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
	"github.com/bytevantagees-gif/janasamparka-engine/pkg/util"
)

// RequireRole ensures the actor carries one of the allowed roles. With
// no arguments it only requires authentication. Fine-grained edge
// capabilities stay inside the engine; these guards are a coarse outer
// gate.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return util.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		for _, role := range allowed {
			if actor.HasRole(role) {
				return c.Next()
			}
		}
		return util.NewForbidden("insufficient role", "")
	}
}
