package matcher

import (
	"strings"
	"time"
)

// SeasonWindow is a month/day range. A window whose start falls after its
// end in the calendar wraps across New Year.
type SeasonWindow struct {
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
}

// Contains reports whether t's month and day fall inside the window, bounds
// included.
func (w SeasonWindow) Contains(t time.Time) bool {
	d := monthDay(t.Month(), t.Day())
	start := monthDay(w.StartMonth, w.StartDay)
	end := monthDay(w.EndMonth, w.EndDay)
	if start <= end {
		return d >= start && d <= end
	}
	return d >= start || d <= end
}

func monthDay(m time.Month, day int) int {
	return int(m)*100 + day
}

// Seasons is the fixed sport season table.
var Seasons = map[string]SeasonWindow{
	"BASKETBALL": {time.November, 1, time.March, 31},
	"FOOTBALL":   {time.August, 1, time.December, 15},
	"VOLLEYBALL": {time.August, 1, time.November, 30},
	"SOCCER":     {time.August, 1, time.November, 30},
	"BASEBALL":   {time.February, 15, time.June, 15},
	"SOFTBALL":   {time.February, 15, time.June, 15},
	"HOCKEY":     {time.November, 1, time.March, 15},
	"WRESTLING":  {time.November, 1, time.March, 1},
	"LACROSSE":   {time.March, 1, time.June, 15},
}

// InSeason reports whether sport is in season on t. Sports missing from the
// table are always in season.
func InSeason(sport string, t time.Time) bool {
	w, ok := Seasons[strings.ToUpper(sport)]
	if !ok {
		return true
	}
	return w.Contains(t)
}
