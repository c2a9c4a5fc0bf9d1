package gforms

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leave_form_bot/internal/domain/form"

	"github.com/sirupsen/logrus"
)

const (
	// Both markers must appear in the response body before a submission
	// counts as accepted. Google answers 200 for rejected and closed forms
	// too, so the status code alone proves nothing.
	successMarker       = "我們已經收到您回覆的表單。"
	submitAnotherMarker = "提交其他回應"

	// maxResponseBytes caps the confirmation page read.
	maxResponseBytes = 4 << 20
)

// FormSubmitter posts prepared descriptors. Every submission runs on its
// own client and transport so concurrent tasks never share a connection.
type FormSubmitter struct {
	timeout   time.Duration
	logger    *logrus.Entry
	newClient func() *http.Client
}

func NewFormSubmitter(timeout time.Duration, logger *logrus.Entry) *FormSubmitter {
	s := &FormSubmitter{timeout: timeout, logger: logger}
	s.newClient = func() *http.Client {
		return &http.Client{
			Timeout:   s.timeout,
			Transport: &http.Transport{},
		}
	}
	return s
}

// Submit posts one descriptor and classifies the response body. A failure is
// terminal for that day only: it is logged and folded into the outcome,
// never returned as an error.
func (s *FormSubmitter) Submit(ctx context.Context, d *form.Descriptor) form.Outcome {
	log := s.logger.WithField("day", d.Day.Name())
	log.Info("Submitting form")

	values := url.Values{}
	for key, val := range d.Payload {
		values.Set(key, val)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.ResponseURL, strings.NewReader(values.Encode()))
	if err != nil {
		log.WithError(err).Error("Failed to build submission request")
		return form.Outcome{Day: d.Day}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", d.Referer)
	req.Header.Set("User-Agent", userAgent)

	client := s.newClient()
	defer client.CloseIdleConnections()

	resp, err := client.Do(req)
	if err != nil {
		log.WithError(err).Error("Submission request failed")
		return form.Outcome{Day: d.Day}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		log.WithField("status", resp.StatusCode).Error("Submission answered an error status")
		return form.Outcome{Day: d.Day}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.WithError(err).Error("Failed to read submission response")
		return form.Outcome{Day: d.Day}
	}
	body := string(raw)

	if strings.Contains(body, successMarker) && strings.Contains(body, submitAnotherMarker) {
		log.Info("Submission accepted, confirmation page verified")
		return form.Outcome{Day: d.Day, Success: true}
	}

	log.WithFields(logrus.Fields{
		"status":              resp.StatusCode,
		"has_success_message": strings.Contains(body, successMarker),
		"has_submit_another":  strings.Contains(body, submitAnotherMarker),
	}).Error("Submission rejected: confirmation markers missing from response")
	return form.Outcome{Day: d.Day}
}
