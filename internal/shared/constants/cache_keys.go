package constants

import (
	"fmt"
	"time"
)

// Redis cache keys and TTLs for Reservio.
// Pattern: reservio:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_MEDIUM = 12 * time.Hour // resource catalog data
	TTL_STATIC_SHORT  = 6 * time.Hour  // resource details

	TTL_DYNAMIC_MEDIUM = 10 * time.Minute // reservation listings
	TTL_DYNAMIC_SHORT  = 5 * time.Minute  // slot listings

	TTL_REALTIME_SHORT = 30 * time.Second // availability calendars
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "reservio"
)

// ================== RESOURCES MODULE ==================

const (
	CACHE_KEY_RESOURCE_DETAIL = CACHE_PREFIX + ":resources:detail:uuid:" // + resource-id
	CACHE_KEY_RESOURCE_SLOTS  = CACHE_PREFIX + ":resources:slots:uuid:"  // + resource-id
)

const (
	TTL_RESOURCE_DETAIL = TTL_STATIC_SHORT
	TTL_RESOURCE_SLOTS  = TTL_DYNAMIC_SHORT
)

// ================== AVAILABILITY MODULE ==================

const (
	CACHE_KEY_AVAILABILITY_SLOT  = CACHE_PREFIX + ":availability:slot:uuid:"      // + slot-id
	CACHE_KEY_AVAILABILITY_RANGE = CACHE_PREFIX + ":availability:range:resource:" // + resource-id:from:X:to:Y
)

// Availability is display-only: creation re-validates against the database,
// so the TTL bounds staleness on screens, not correctness.
const (
	TTL_AVAILABILITY = TTL_REALTIME_SHORT
)

// ================== RESERVATIONS MODULE ==================

const (
	CACHE_KEY_RESERVATION_DETAIL = CACHE_PREFIX + ":reservations:detail:uuid:" // + reservation-id
	CACHE_KEY_HOLDER_LIST        = CACHE_PREFIX + ":reservations:holder:"      // + holder-ref:page:X
)

const (
	TTL_RESERVATION_DETAIL = TTL_DYNAMIC_MEDIUM
)

// ================== CACHE INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_AVAILABILITY_ALL = CACHE_PREFIX + ":availability:*"
	PATTERN_INVALIDATE_AVAILABILITY     = CACHE_PREFIX + ":availability:*:" // + resource-or-slot-id + *
	PATTERN_INVALIDATE_RESOURCE         = CACHE_PREFIX + ":resources:*:uuid:" // + resource-id + *
)

// ================== HELPER FUNCTIONS ==================

func BuildSlotAvailabilityKey(slotID string) string {
	return CACHE_KEY_AVAILABILITY_SLOT + slotID
}

func BuildRangeAvailabilityKey(resourceID string, from, to time.Time) string {
	return CACHE_KEY_AVAILABILITY_RANGE + resourceID +
		":from:" + from.Format("2006-01-02") +
		":to:" + to.Format("2006-01-02")
}

func BuildResourceDetailKey(resourceID string) string {
	return CACHE_KEY_RESOURCE_DETAIL + resourceID
}

func BuildHolderListKey(holderRef string, page int) string {
	return CACHE_KEY_HOLDER_LIST + holderRef + ":page:" + fmt.Sprintf("%d", page)
}
