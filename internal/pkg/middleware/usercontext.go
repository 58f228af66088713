package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RohanKhanna/TubeTalk/internal/pkg/session"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session into a request-scoped
// UserContext so handlers only read Locals. A missing or broken session
// yields an anonymous context instead of an error.
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{})
		return c.Next()
	}

	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{})
		return c.Next()
	}

	username, _ := sess.Get(usercontext.KeyUsername).(string)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)
	plan, _ := sess.Get(usercontext.KeyUserPlan).(string)
	if plan == "" {
		plan = "free"
	}

	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
		Plan:       plan,
	})

	return c.Next()
}
