// internal/app/store/storeutil/storeutil.go
package storeutil

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size used when the caller gives none.
const DefaultLimit = 10

// Paginate returns *options.FindOptions with skip/limit given a 1-based page.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page <= 0 {
		page = 1
	}
	return options.Find().SetLimit(limit).SetSkip((page - 1) * limit)
}

// PageCount is the number of pages needed for total items at limit per page.
func PageCount(total, limit int64) int64 {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ContainsFold matches documents whose field contains s, ignoring case.
// s is matched literally, never as a pattern.
func ContainsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
