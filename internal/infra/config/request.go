package config

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"leave_form_bot/internal/domain/form"
)

// minReasonLength is the form's own requirement for weekend leave reasons,
// counted in characters with whitespace removed.
const minReasonLength = 15

// Request is the operator's parsed leave request (data.txt).
type Request struct {
	Name           string
	Days           []form.Weekday
	ReasonSaturday string
	ReasonSunday   string
}

// LoadRequest reads the four-line request file: 姓名, 請假星期 (、-separated
// day markers), 星期六原因 and 星期日原因, in that order.
func LoadRequest(path string) (*Request, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file %s: %w", path, err)
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) < 4 {
		return nil, fmt.Errorf("request file %s needs at least 4 lines, got %d", path, len(lines))
	}

	name, err := lineValue(lines[0], "姓名:")
	if err != nil {
		return nil, fmt.Errorf("request file line 1: %w", err)
	}
	if name == "" {
		return nil, fmt.Errorf("request file line 1: 姓名 must not be empty")
	}

	daysRaw, err := lineValue(lines[1], "請假星期:")
	if err != nil {
		return nil, fmt.Errorf("request file line 2: %w", err)
	}
	days, err := form.ParseDays(daysRaw)
	if err != nil {
		return nil, fmt.Errorf("request file line 2: %w", err)
	}

	reasonSat, err := lineValue(lines[2], "星期六原因:")
	if err != nil {
		return nil, fmt.Errorf("request file line 3: %w", err)
	}

	reasonSun, err := lineValue(lines[3], "星期日原因:")
	if err != nil {
		return nil, fmt.Errorf("request file line 4: %w", err)
	}

	return &Request{
		Name:           name,
		Days:           days,
		ReasonSaturday: reasonSat,
		ReasonSunday:   reasonSun,
	}, nil
}

func lineValue(line, prefix string) (string, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("expected a line starting with %q, got %q", prefix, line)
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), nil
}

// Validate enforces the weekend rule: a selected Saturday or Sunday must
// carry a reason of at least 15 characters, whitespace excluded. Violations
// are configuration errors and abort the run before any network activity.
func (r *Request) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("姓名 must not be empty")
	}
	if len(r.Days) == 0 {
		return fmt.Errorf("at least one leave day must be selected")
	}
	if r.HasDay(form.Saturday) {
		if err := checkReason("星期六", r.ReasonSaturday); err != nil {
			return err
		}
	}
	if r.HasDay(form.Sunday) {
		if err := checkReason("星期日", r.ReasonSunday); err != nil {
			return err
		}
	}
	return nil
}

func checkReason(dayName, reason string) error {
	if reason == "" {
		return fmt.Errorf("%s is selected but no reason was given, need at least %d characters", dayName, minReasonLength)
	}
	if n := reasonLength(reason); n < minReasonLength {
		return fmt.Errorf("%s reason has %d characters excluding whitespace, need at least %d", dayName, n, minReasonLength)
	}
	return nil
}

// reasonLength counts the characters the form counts: everything except
// spaces, tabs and newlines.
func reasonLength(reason string) int {
	stripped := strings.NewReplacer(" ", "", "\t", "", "\n", "").Replace(reason)
	return utf8.RuneCountInString(stripped)
}

// HasDay reports whether the request selects the given day.
func (r *Request) HasDay(day form.Weekday) bool {
	for _, d := range r.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Reason returns the reason configured for the given day, empty for days
// that carry none.
func (r *Request) Reason(day form.Weekday) string {
	switch day {
	case form.Saturday:
		return r.ReasonSaturday
	case form.Sunday:
		return r.ReasonSunday
	}
	return ""
}

// Describe renders the request the way the operator confirms it on screen.
func (r *Request) Describe() string {
	var b strings.Builder
	divider := strings.Repeat("=", 60)

	b.WriteString("\n" + divider + "\n")
	b.WriteString("讀取到的設定內容\n")
	b.WriteString(divider + "\n\n")

	fmt.Fprintf(&b, "姓名：%s\n", r.Name)

	names := make([]string, 0, len(r.Days))
	for _, d := range r.Days {
		names = append(names, d.Name())
	}
	fmt.Fprintf(&b, "請假星期：%s\n", strings.Join(names, " 、 "))

	if r.HasDay(form.Saturday) {
		fmt.Fprintf(&b, "星期六原因：%s (%d 字)\n", r.ReasonSaturday, reasonLength(r.ReasonSaturday))
	}
	if r.HasDay(form.Sunday) {
		fmt.Fprintf(&b, "星期日原因：%s (%d 字)\n", r.ReasonSunday, reasonLength(r.ReasonSunday))
	}

	b.WriteString(divider)
	return b.String()
}
