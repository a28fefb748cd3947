package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// HeaderActorID carries the pre-authenticated caller identity. The gateway in
// front of this service owns authentication; we only resolve the user.
const HeaderActorID = "X-Actor-ID"

const actorLocalsKey = "actor"

// ActorMiddleware resolves the acting user from the actor header and stores
// it in request locals. Unknown or inactive users are rejected.
func ActorMiddleware(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID := c.Get(HeaderActorID)
		if actorID == "" {
			return apperrors.NewUnauthorized("actor header required")
		}
		user, err := store.Users().GetByID(c.UserContext(), actorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("unknown actor")
			}
			return apperrors.MapError(err)
		}
		if !user.Active {
			return apperrors.NewForbidden("actor deactivated")
		}
		c.Locals(actorLocalsKey, user)
		return c.Next()
	}
}

// ActorFromContext returns the resolved acting user, if any.
func ActorFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(actorLocalsKey).(*domain.User)
	return user, ok && user != nil
}

// RequireStaff rejects requests whose actor is not an agent or admin.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("actor required")
		}
		if !actor.Role.IsStaff() {
			return apperrors.NewForbidden("staff role required")
		}
		return c.Next()
	}
}
