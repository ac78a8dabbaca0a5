package youtubeprospector

import (
	"time"
)

const uploadDateLayout = "20060102"

// IsRecent reports whether an upload date (YYYYMMDD) falls within the last windowDays days.
// The boundary is inclusive. Anything that is not exactly eight digits forming a
// real calendar date is treated as not recent.
func IsRecent(uploadDate string, windowDays int) bool {
	return isRecentAt(uploadDate, windowDays, time.Now())
}

func isRecentAt(uploadDate string, windowDays int, now time.Time) bool {
	if !isEightDigits(uploadDate) {
		return false
	}

	uploaded, err := time.ParseInLocation(uploadDateLayout, uploadDate, now.Location())
	if err != nil {
		return false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := today.AddDate(0, 0, -windowDays)
	return !uploaded.Before(cutoff)
}

// FormatUploadDate renders YYYYMMDD as DD/MM/YYYY for display.
func FormatUploadDate(uploadDate string) string {
	if len(uploadDate) != 8 {
		return "Unknown date"
	}
	return uploadDate[6:8] + "/" + uploadDate[4:6] + "/" + uploadDate[0:4]
}

func isEightDigits(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
