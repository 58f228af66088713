package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/RohanKhanna/TubeTalk/app/repository"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/statistics"
)

// HandleAdminStats returns the dashboard numbers: cached headline counts plus
// plan distribution, monthly revenue, and the recent daily collection curve.
func HandleAdminStats(c *fiber.Ctx) error {
	statistics.UpdateCacheIfNeeded()
	stats := statistics.GetStatistics()

	factory := repository.GetGlobalFactory()
	planCounts, err := factory.GetUserRepository().CountByPlan()
	if err != nil {
		log.Printf("Error loading plan distribution: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load statistics")
	}
	revenue, err := factory.GetPaymentRepository().MonthlyRevenue()
	if err != nil {
		log.Printf("Error loading monthly revenue: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load statistics")
	}

	end := time.Now()
	start := end.AddDate(0, 0, -30)
	daily, err := factory.GetCollectionRepository().DailyCounts(start, end)
	if err != nil {
		log.Printf("Error loading daily collection counts: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load statistics")
	}

	return c.JSON(fiber.Map{
		"totals": fiber.Map{
			"users":              stats.TotalUsers,
			"collections":        stats.TotalCollections,
			"collections_today":  stats.TodayCollections,
			"completed_payments": stats.CompletedPayments,
		},
		"plans":             planCounts,
		"monthly_revenue":   revenue,
		"daily_collections": daily,
	})
}

// HandleAdminListUsers returns a paginated user listing.
func HandleAdminListUsers(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	factory := repository.GetGlobalFactory()

	users, err := factory.GetUserRepository().List(offset, limit)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load users")
	}
	total, err := factory.GetUserRepository().Count()
	if err != nil {
		log.Printf("Error counting users: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load users")
	}

	out := make([]fiber.Map, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"users": out, "total": total})
}

// HandleAdminListPayments returns a paginated view of the payment ledger.
func HandleAdminListPayments(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	factory := repository.GetGlobalFactory()

	payments, err := factory.GetPaymentRepository().List(offset, limit)
	if err != nil {
		log.Printf("Error listing payments: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}
	total, err := factory.GetPaymentRepository().Count()
	if err != nil {
		log.Printf("Error counting payments: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}

	return c.JSON(fiber.Map{"payments": payments, "total": total})
}

// HandleAdminListCollections returns a paginated listing of all collections.
func HandleAdminListCollections(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	factory := repository.GetGlobalFactory()

	collections, err := factory.GetCollectionRepository().List(offset, limit)
	if err != nil {
		log.Printf("Error listing collections: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load collections")
	}
	total, err := factory.GetCollectionRepository().Count()
	if err != nil {
		log.Printf("Error counting collections: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load collections")
	}

	out := make([]fiber.Map, 0, len(collections))
	for i := range collections {
		item := collectionResponse(&collections[i], false)
		item["user_id"] = collections[i].UserID
		out = append(out, item)
	}
	return c.JSON(fiber.Map{"collections": out, "total": total})
}
