package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/app/repository"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/metrics"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/transcript"
)

type createCollectionRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// HandleCreateCollection fetches a video transcript and stores it as a new
// collection. Spends one attempt on success.
func HandleCreateCollection(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}

	var req createCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	videoID, err := transcript.ExtractVideoID(req.URL)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_url", "Please provide a valid YouTube video URL")
	}

	if !user.CanConsumeAttempt() {
		return jsonError(c, fiber.StatusTooManyRequests, "quota_exhausted", "No attempts remaining, upgrade your plan or try again tomorrow")
	}

	client := transcript.NewClientFromEnv()
	items, err := client.Fetch(c.Context(), videoID)
	if err != nil {
		if errors.Is(err, transcript.ErrNotAvailable) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "No transcript is available for this video")
		}
		log.Printf("Error fetching transcript for video %s: %v", videoID, err)
		return jsonError(c, fiber.StatusBadGateway, "upstream_error", "Failed to fetch the transcript")
	}

	collection := &models.Collection{
		UUID:       uuid.New().String(),
		UserID:     user.ID,
		YoutubeURL: strings.TrimSpace(req.URL),
		VideoID:    videoID,
		Title:      strings.TrimSpace(req.Title),
		Transcript: items,
	}
	factory := repository.GetGlobalFactory()
	if err := factory.GetCollectionRepository().Create(collection); err != nil {
		log.Printf("Error creating collection for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save the transcript")
	}

	user.ConsumeAttempt()
	if err := factory.GetUserRepository().Update(user); err != nil {
		log.Printf("Error consuming attempt for user %d: %v", user.ID, err)
	}
	metrics.AttemptConsumed(user.Plan)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"collection":         collectionResponse(collection, false),
		"attempts_remaining": user.AttemptsRemaining,
	})
}

// HandleListCollections returns the caller's collections, newest first.
func HandleListCollections(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}

	offset, limit := parsePagination(c)
	collections, err := repository.GetGlobalFactory().GetCollectionRepository().GetByUserID(user.ID, offset, limit)
	if err != nil {
		log.Printf("Error listing collections for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load collections")
	}

	out := make([]fiber.Map, 0, len(collections))
	for i := range collections {
		out = append(out, collectionResponse(&collections[i], false))
	}
	return c.JSON(fiber.Map{"collections": out})
}

// HandleGetCollection returns one collection with its transcript and chat
// history. Only the owner may read it.
func HandleGetCollection(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}

	collection, errResp := loadOwnedCollection(c, user.ID)
	if collection == nil {
		return errResp
	}

	messages, err := repository.GetGlobalFactory().GetMessageRepository().GetByCollectionID(collection.ID, 200)
	if err != nil {
		log.Printf("Error loading messages for collection %d: %v", collection.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load chat history")
	}

	return c.JSON(fiber.Map{
		"collection": collectionResponse(collection, true),
		"messages":   messages,
	})
}

// loadOwnedCollection resolves the :uuid route param to a collection owned by
// the caller. Foreign collections answer 404, not 403, so ownership cannot be
// probed.
func loadOwnedCollection(c *fiber.Ctx, userID uint) (*models.Collection, error) {
	id := strings.TrimSpace(c.Params("uuid"))
	if id == "" {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "Collection id is required")
	}

	collection, err := repository.GetGlobalFactory().GetCollectionRepository().GetByUUID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Collection not found")
		}
		log.Printf("Error loading collection %s: %v", id, err)
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load collection")
	}
	if collection.UserID != userID {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Collection not found")
	}
	return collection, nil
}

func collectionResponse(collection *models.Collection, withTranscript bool) fiber.Map {
	resp := fiber.Map{
		"uuid":        collection.UUID,
		"youtube_url": collection.YoutubeURL,
		"video_id":    collection.VideoID,
		"title":       collection.Title,
		"created_at":  collection.CreatedAt,
	}
	if withTranscript {
		resp["transcript"] = collection.Transcript
	}
	return resp
}
