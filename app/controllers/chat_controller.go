package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/app/repository"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/gemini"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/metrics"
)

type chatRequest struct {
	Question string `json:"question"`
}

// historyLimit caps how many prior turns are replayed into the model prompt.
const historyLimit = 40

// HandleChat answers a question about a collection's transcript and appends
// the exchange to the chat history. Spends one attempt on success.
func HandleChat(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Question is required")
	}

	collection, errResp := loadOwnedCollection(c, user.ID)
	if collection == nil {
		return errResp
	}

	if !user.CanConsumeAttempt() {
		return jsonError(c, fiber.StatusTooManyRequests, "quota_exhausted", "No attempts remaining, upgrade your plan or try again tomorrow")
	}

	factory := repository.GetGlobalFactory()
	previous, err := factory.GetMessageRepository().GetByCollectionID(collection.ID, historyLimit)
	if err != nil {
		log.Printf("Error loading chat history for collection %d: %v", collection.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load chat history")
	}
	history := make([]gemini.ChatTurn, 0, len(previous))
	for _, msg := range previous {
		history = append(history, gemini.ChatTurn{Role: msg.Role, Text: msg.Content})
	}

	client := gemini.NewClientFromEnv()
	answer, err := client.Chat(c.Context(), collection.Transcript, history, question)
	if err != nil {
		log.Printf("Error generating answer for collection %d: %v", collection.ID, err)
		return jsonError(c, fiber.StatusBadGateway, "upstream_error", "Failed to generate an answer")
	}

	exchange := []models.Message{
		{CollectionID: collection.ID, UserID: user.ID, Role: models.MessageRoleUser, Content: question},
		{CollectionID: collection.ID, UserID: user.ID, Role: models.MessageRoleAssistant, Content: answer},
	}
	if err := factory.GetMessageRepository().CreateBatch(exchange); err != nil {
		log.Printf("Error saving chat exchange for collection %d: %v", collection.ID, err)
	}

	user.ConsumeAttempt()
	if err := factory.GetUserRepository().Update(user); err != nil {
		log.Printf("Error consuming attempt for user %d: %v", user.ID, err)
	}
	metrics.AttemptConsumed(user.Plan)

	return c.JSON(fiber.Map{
		"answer":             answer,
		"attempts_remaining": user.AttemptsRemaining,
	})
}
