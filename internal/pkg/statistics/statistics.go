package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/cache"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/database"
)

const (
	CacheKeyUsersTotal        = "statistics:users:total"
	CacheKeyCollectionsTotal  = "statistics:collections:total"
	CacheKeyCollectionsDaily  = "statistics:collections:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyPaymentsCompleted = "statistics:payments:completed"
	CacheExpiration           = 30 * time.Minute
)

// StatisticsData holds the headline numbers for the admin dashboard.
type StatisticsData struct {
	TotalUsers        int
	TotalCollections  int
	TodayCollections  int
	CompletedPayments int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the refresh interval has elapsed.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached statistics when they are stale.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// UpdateStatisticsCache recomputes all statistics and stores them in the cache.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting users: %v", err)
		return err
	}

	var totalCollections int64
	if err := db.Model(&models.Collection{}).Count(&totalCollections).Error; err != nil {
		log.Printf("Error counting collections: %v", err)
		return err
	}

	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	var todayCollections int64
	if err := db.Model(&models.Collection{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayCollections).Error; err != nil {
		log.Printf("Error counting today's collections: %v", err)
		return err
	}

	var completedPayments int64
	if err := db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusCompleted).Count(&completedPayments).Error; err != nil {
		log.Printf("Error counting completed payments: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsersTotal, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyCollectionsTotal, strconv.FormatInt(totalCollections, 10), CacheExpiration); err != nil {
		return err
	}
	dailyKey := fmt.Sprintf(CacheKeyCollectionsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayCollections, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyPaymentsCompleted, strconv.FormatInt(completedPayments, 10), CacheExpiration); err != nil {
		return err
	}

	log.Printf("Statistics updated in cache: Users: %d, Collections: %d, Today: %d, Payments: %d",
		totalUsers, totalCollections, todayCollections, completedPayments)

	return nil
}

// GetStatistics returns the cached statistics, refreshing lazily on miss.
func GetStatistics() StatisticsData {
	return StatisticsData{
		TotalUsers:        getCachedCount(CacheKeyUsersTotal, countUsers),
		TotalCollections:  getCachedCount(CacheKeyCollectionsTotal, countCollections),
		TodayCollections:  getCachedCount(fmt.Sprintf(CacheKeyCollectionsDaily, time.Now().Format("2006-01-02")), countTodayCollections),
		CompletedPayments: getCachedCount(CacheKeyPaymentsCompleted, countCompletedPayments),
	}
}

func getCachedCount(key string, fallback func() int64) int {
	val, err := cache.Get(key)
	if err == nil {
		if count, convErr := strconv.Atoi(val); convErr == nil {
			return count
		}
	}

	count := fallback()
	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching statistic %s: %v", key, err)
	}
	return int(count)
}

func countUsers() int64 {
	var count int64
	if err := database.GetDB().Model(&models.User{}).Count(&count).Error; err != nil {
		log.Printf("Error counting users: %v", err)
	}
	return count
}

func countCollections() int64 {
	var count int64
	if err := database.GetDB().Model(&models.Collection{}).Count(&count).Error; err != nil {
		log.Printf("Error counting collections: %v", err)
	}
	return count
}

func countTodayCollections() int64 {
	todayStart, _ := time.Parse("2006-01-02", time.Now().Format("2006-01-02"))
	todayEnd := todayStart.Add(24 * time.Hour)

	var count int64
	if err := database.GetDB().Model(&models.Collection{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
		log.Printf("Error counting today's collections: %v", err)
	}
	return count
}

func countCompletedPayments() int64 {
	var count int64
	if err := database.GetDB().Model(&models.Payment{}).Where("status = ?", models.PaymentStatusCompleted).Count(&count).Error; err != nil {
		log.Printf("Error counting completed payments: %v", err)
	}
	return count
}
