package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/app/repository"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/session"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/usercontext"
)

// Session keys shared by the auth handlers and the user context middleware.
const (
	AUTH_KEY      = usercontext.AuthKey
	USER_ID       = usercontext.KeyUserID
	USER_NAME     = usercontext.KeyUsername
	USER_IS_ADMIN = usercontext.KeyIsAdmin
	USER_PLAN     = usercontext.KeyUserPlan
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// loadCurrentUser fetches the authenticated user and applies the lazy daily
// attempt reset before the caller reads the counter. Returns nil plus a
// written response on failure.
func loadCurrentUser(c *fiber.Ctx) (*models.User, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusUnauthorized, "unauthorized", "account no longer exists")
		}
		log.Printf("Error loading user %d: %v", userCtx.UserID, err)
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	if user.ApplyDailyReset(time.Now()) {
		if err := repo.Update(user); err != nil {
			log.Printf("Error persisting daily reset for user %d: %v", user.ID, err)
			return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update user")
		}
	}

	return user, nil
}

// storeUserSession writes the logged-in user's identity into the session.
func storeUserSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_IS_ADMIN, user.IsAdmin())
	sess.Set(USER_PLAN, user.Plan)
	return sess.Save()
}

func parsePagination(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}

func userResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"id":                 user.ID,
		"username":           user.Name,
		"email":              user.Email,
		"plan":               user.Plan,
		"attempts_remaining": user.AttemptsRemaining,
		"is_admin":           user.IsAdmin(),
		"created_at":         user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
