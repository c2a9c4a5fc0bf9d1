package form

import (
	"fmt"
	"sort"
	"strings"
)

// Weekday numbers a leave day the way the request file does: 1 is Monday,
// 7 is Sunday.
type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

// dayNames is indexed by Weekday, index 0 is unused.
var dayNames = [...]string{"", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六", "星期日"}

// dayTokens maps the single-character day markers used in the request file.
var dayTokens = map[string]Weekday{
	"一": Monday,
	"二": Tuesday,
	"三": Wednesday,
	"四": Thursday,
	"五": Friday,
	"六": Saturday,
	"日": Sunday,
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Name returns the display name (星期一 .. 星期日), or an empty string for
// values outside 1-7.
func (d Weekday) Name() string {
	if !d.Valid() {
		return ""
	}
	return dayNames[d]
}

// NeedsReason reports whether the form for this day carries a mandatory
// leave-reason field. Only the weekend forms do.
func (d Weekday) NeedsReason() bool {
	return d >= Saturday
}

// ParseDays parses the 、-separated day markers of the request file into a
// sorted set of weekdays. Unknown markers are an error, duplicates collapse.
func ParseDays(raw string) ([]Weekday, error) {
	seen := make(map[Weekday]bool)
	var days []Weekday
	for _, token := range strings.Split(raw, "、") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		day, ok := dayTokens[token]
		if !ok {
			return nil, fmt.Errorf("unknown day marker %q, expected one of 一、二、三、四、五、六、日", token)
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no leave days given")
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}
