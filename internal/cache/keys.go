package cache

import "fmt"

const (
	categoryProgressKeyPrefix = "progress:category:%d"
	rateLimitKeyPrefix        = "rl:%s:%s"
)

// CategoryProgressKey holds the countable suggestion total of a category.
func CategoryProgressKey(categoryID uint) string {
	return fmt.Sprintf(categoryProgressKeyPrefix, categoryID)
}

// RateLimitKey is the counter key for one caller of one resource.
func RateLimitKey(resource, id string) string {
	return fmt.Sprintf(rateLimitKeyPrefix, resource, id)
}
