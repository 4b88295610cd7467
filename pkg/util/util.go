package util

import (
	"fmt"
	"math"
)

// FormatSectionTime converts seconds to the MM:SS form yt-dlp expects in
// --download-sections specs. Hours spill into minutes (yt-dlp accepts both).
func FormatSectionTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatSeconds renders seconds with millisecond precision for ffmpeg -ss/-t.
func FormatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds)
}
