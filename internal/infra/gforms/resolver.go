package gforms

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"leave_form_bot/internal/domain/form"

	"github.com/sirupsen/logrus"
)

var ErrDayOutOfRange = fmt.Errorf("day number must be between 1 and 7")
var ErrShortURLMissing = fmt.Errorf("no short URL configured for this day")
var ErrNoRedirect = fmt.Errorf("short URL response carries no Location header")

// ListResolver resolves a day's short URL from the per-mode URL list files.
// Line N of the list (blank lines skipped) belongs to day N.
type ListResolver struct {
	testFile string
	liveFile string
	client   *http.Client
	logger   *logrus.Entry
}

func NewListResolver(testFile, liveFile string, timeout time.Duration, logger *logrus.Entry) *ListResolver {
	return &ListResolver{
		testFile: testFile,
		liveFile: liveFile,
		client: &http.Client{
			Timeout: timeout,
			// The redirect target is the answer, not something to follow.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Resolve returns the full viewform URL for the given day. The day is range
// checked before any file or network access; a single GET is attempted, no
// retries.
func (r *ListResolver) Resolve(ctx context.Context, mode form.Mode, day form.Weekday) (string, error) {
	if !day.Valid() {
		return "", fmt.Errorf("%w: got %d", ErrDayOutOfRange, day)
	}

	path := r.liveFile
	if mode == form.ModeTest {
		path = r.testFile
	}

	shortURL, err := r.shortURLForDay(path, day)
	if err != nil {
		return "", err
	}

	log := r.logger.WithFields(logrus.Fields{"day": day.Name(), "short_url": shortURL})
	log.Info("Resolving short URL to the full form URL")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build short URL request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request short URL %s: %w", shortURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("short URL %s answered status %d", shortURL, resp.StatusCode)
	}

	formURL := resp.Header.Get("Location")
	if formURL == "" {
		return "", ErrNoRedirect
	}

	log.WithField("form_url", formURL).Info("Form URL resolved")
	return formURL, nil
}

func (r *ListResolver) shortURLForDay(path string, day form.Weekday) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read URL list %s: %w", path, err)
	}

	var urls []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}

	if int(day) > len(urls) {
		return "", fmt.Errorf("%w: %s lists %d URLs, day %d requested", ErrShortURLMissing, path, len(urls), day)
	}
	return urls[day-1], nil
}
