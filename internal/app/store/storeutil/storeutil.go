// internal/app/store/storeutil/storeutil.go
package storeutil

import "go.mongodb.org/mongo-driver/mongo/options"

// Paginate returns *options.FindOptions with skip/limit given a 1-based page.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	sk := (page - 1) * limit
	return options.Find().SetLimit(limit).SetSkip(sk)
}

// PageCount returns how many pages of size limit hold total items.
// An empty result still has one page.
func PageCount(total, limit int64) int64 {
	if limit <= 0 {
		limit = 20
	}
	if total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}
