package notify

import (
	"time"

	"github.com/flashbox/flashbox-api/internal/domain"
)

// NextFireTime computes the next instant at or after now when a reminder
// should fire for the given settings: the earliest enabled weekday whose
// notification time has not yet passed. Returns false when notifications
// are disabled or the settings are unusable (no enabled days).
//
// The function is pure: the same (settings, now) always yields the same
// result. Week boundaries roll over correctly - a Friday-evening call with
// only Monday enabled returns the following Monday.
func NextFireTime(settings *domain.SrsSettings, now time.Time) (time.Time, bool) {
	if settings == nil || !settings.NotificationEnabled || len(settings.NotificationDays) == 0 {
		return time.Time{}, false
	}
	if !settings.NotificationTime.Valid() {
		return time.Time{}, false
	}

	// Walk at most a full week of candidate days. Offset 0 is today, which
	// only qualifies while its slot is still ahead of (or exactly at) now.
	for offset := 0; offset <= 7; offset++ {
		day := now.AddDate(0, 0, offset)
		if !settings.NotifiesOn(day.Weekday()) {
			continue
		}
		fire := settings.NotificationTime.On(day)
		if !fire.Before(now) {
			return fire, true
		}
	}

	return time.Time{}, false
}
