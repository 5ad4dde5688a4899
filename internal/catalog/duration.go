package catalog

import (
	"regexp"
	"strconv"
)

var (
	minutesPattern = regexp.MustCompile(`(?i)(\d+)\s*min`)
	seasonsPattern = regexp.MustCompile(`(?i)(\d+)\s*season`)
)

// ParseDuration extracts runtime minutes or season counts from the source
// duration strings ("90 min", "2 Seasons", "1 Season"). A zero value means
// the component was not present.
func ParseDuration(raw string) (minutes, seasons int) {
	if m := minutesPattern.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			minutes = v
		}
	}
	if m := seasonsPattern.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			seasons = v
		}
	}
	return minutes, seasons
}
