package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/app/repository"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/session"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates a new account on the free plan and logs it in.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Username), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if existing, err := repo.GetByEmail(user.Email); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "An account with this email already exists")
	}
	if existing, err := repo.GetByName(user.Name); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "This username is already taken")
	}

	if err := repo.Create(user); err != nil {
		log.Printf("Error creating user %s: %v", user.Email, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create account")
	}

	if err := storeUserSession(c, user); err != nil {
		log.Printf("Error saving session for new user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to start session")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": userResponse(user),
	})
}

// HandleAuthLogin verifies credentials and starts a session.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Email and password are required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same answer as a wrong password so accounts cannot be probed.
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid email or password")
		}
		log.Printf("Error loading user by email: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Login failed")
	}

	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid email or password")
	}

	if err := storeUserSession(c, user); err != nil {
		log.Printf("Error saving session for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to start session")
	}

	return c.JSON(fiber.Map{
		"user": userResponse(user),
	})
}

// HandleAuthLogout destroys the current session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Printf("Error destroying session: %v", err)
		}
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// HandleGetMe returns the authenticated user's account, with the daily
// attempt reset applied on read.
func HandleGetMe(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}
	return c.JSON(fiber.Map{
		"user": userResponse(user),
	})
}
