package profiles

import (
	"strconv"

	"influencer-hub-backend/internal/models"
)

// NoPlatform is reported for influencers without any platform stats.
const NoPlatform = "Not available"

// FormatFollowers renders a follower count the way profile cards show it:
// 1500 -> "1.5K", 2300000 -> "2.3M".
func FormatFollowers(n int64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// TopPlatform picks the platform with the most followers. Ties go to the
// alphabetically first platform name.
func TopPlatform(platforms map[string]models.PlatformStats) (string, int64) {
	name, best := NoPlatform, int64(0)
	for platform, stats := range platforms {
		if stats.Followers > best || (stats.Followers == best && best > 0 && platform < name) {
			name, best = platform, stats.Followers
		}
	}
	return name, best
}
