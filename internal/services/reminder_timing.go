package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"bookwell/internal/models"
)

// DefaultUpcomingTimings are the hour offsets used when a tenant has not configured any
var DefaultUpcomingTimings = []float64{24, 2, 0.5}

// defaultTiming is the offset used for reminder types without their own default
const defaultTiming = 24.0

var timingLabelPattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([hm])\s*$`)

// ResolveTimings returns the hour offsets before the appointment at which reminders
// fire, farthest first. It never fails: bad configuration falls back to defaults.
func ResolveTimings(setting *models.ReminderSetting) []float64 {
	if setting == nil {
		return append([]float64(nil), DefaultUpcomingTimings...)
	}

	if hours := parseTimingOptions(setting.TimingOptions); len(hours) > 0 {
		return hours
	}

	if setting.HoursBefore != nil && validOffset(*setting.HoursBefore) {
		return []float64{*setting.HoursBefore}
	}

	if setting.ReminderType == models.ReminderTypeUpcoming {
		return append([]float64(nil), DefaultUpcomingTimings...)
	}
	return []float64{defaultTiming}
}

// parseTimingOptions accepts a JSON array of numbers, numeric strings or labels such
// as "24h" and "30m". Invalid entries are dropped and duplicates collapsed.
func parseTimingOptions(raw []byte) []float64 {
	if len(raw) == 0 {
		return nil
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		// some clients store the array as a JSON string
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil
		}
		if err := json.Unmarshal([]byte(encoded), &items); err != nil {
			return nil
		}
	}

	seen := make(map[float64]bool, len(items))
	hours := make([]float64, 0, len(items))
	for _, item := range items {
		h, ok := timingItemHours(item)
		if !ok || seen[h] {
			continue
		}
		seen[h] = true
		hours = append(hours, h)
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(hours)))
	return hours
}

func timingItemHours(item any) (float64, bool) {
	switch v := item.(type) {
	case float64:
		return v, validOffset(v)
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n, validOffset(n)
		}
		if d, ok := parseTimingLabel(v); ok {
			h := d.Hours()
			return h, validOffset(h)
		}
	}
	return 0, false
}

func validOffset(h float64) bool {
	return h >= 0 && !math.IsNaN(h) && !math.IsInf(h, 0)
}

// parseTimingLabel understands "<number>h" and "<number>m", case-insensitive
func parseTimingLabel(label string) (time.Duration, bool) {
	m := timingLabelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	unit := time.Hour
	if strings.EqualFold(m[2], "m") {
		unit = time.Minute
	}
	return time.Duration(n * float64(unit)), true
}

// CalculateSendAt subtracts the offset named by label from the appointment start.
// Unparseable labels schedule 24 hours ahead instead of failing.
func CalculateSendAt(start time.Time, label string) time.Time {
	d, ok := parseTimingLabel(label)
	if !ok {
		d = 24 * time.Hour
	}
	return start.Add(-d)
}

// SendAtForHours subtracts an hour offset from the appointment start
func SendAtForHours(start time.Time, hours float64) time.Time {
	return start.Add(-time.Duration(math.Round(hours * float64(time.Hour))))
}

// TimingLabelFromHours renders an offset for display: "24h", "2h", "30m"
func TimingLabelFromHours(hours float64) string {
	if hours >= 1 {
		return fmt.Sprintf("%dh", int64(math.Round(hours)))
	}
	return fmt.Sprintf("%dm", int64(math.Round(hours*60)))
}
