// internal/app/preparer.go
package app

import (
	"context"
	"strings"

	"leave_form_bot/internal/domain/form"

	"github.com/sirupsen/logrus"
)

// PreparationService builds one submission descriptor per requested day:
// resolve the short URL, pull the anti-forgery token, discover the field
// entry IDs and assemble the payload. The steps run in order and the first
// failure marks the day as failed in preparation; other days are unaffected.
type PreparationService struct {
	resolver    form.Resolver
	inspector   form.Inspector
	leaveOption string
	logger      *logrus.Entry
}

func NewPreparationService(resolver form.Resolver, inspector form.Inspector, leaveOption string, logger *logrus.Entry) *PreparationService {
	return &PreparationService{
		resolver:    resolver,
		inspector:   inspector,
		leaveOption: leaveOption,
		logger:      logger,
	}
}

// Prepare assembles the descriptor for a single day. It never returns an
// error: failures come back as a descriptor in the PREP_FAILED state with
// the cause already logged.
func (s *PreparationService) Prepare(ctx context.Context, mode form.Mode, day form.Weekday, name, reason string) *form.Descriptor {
	log := s.logger.WithField("day", day.Name())
	log.Info("Preparing submission data")

	failed := &form.Descriptor{Day: day, Status: form.StatusPrepFailed}

	viewURL, err := s.resolver.Resolve(ctx, mode, day)
	if err != nil {
		log.WithError(err).Error("Failed to resolve the form URL")
		return failed
	}

	// The response endpoint is the view URL with one literal substitution,
	// not a URL-semantic operation.
	responseURL := strings.Replace(viewURL, "/viewform", "/formResponse", 1)

	token, err := s.inspector.Token(ctx, viewURL)
	if err != nil {
		log.WithError(err).Error("Failed to obtain the fbzx token")
		return failed
	}

	ids, err := s.inspector.Discover(ctx, viewURL, day.NeedsReason())
	if err != nil {
		log.WithError(err).Error("Failed to discover form field IDs")
		return failed
	}
	if ids.Name == "" || ids.Option == "" || (day.NeedsReason() && ids.Reason == "") {
		log.WithFields(logrus.Fields{
			"name_id":   ids.Name,
			"option_id": ids.Option,
			"reason_id": ids.Reason,
		}).Error("Required form fields are missing")
		return failed
	}

	payload := map[string]string{
		"fbzx":     token,
		ids.Name:   name,
		ids.Option: s.leaveOption,
	}
	if day.NeedsReason() && reason != "" {
		payload[ids.Reason] = reason
	}

	log.Info("Submission data prepared")
	return &form.Descriptor{
		Day:         day,
		ResponseURL: responseURL,
		Referer:     viewURL,
		Payload:     payload,
		Status:      form.StatusPrepared,
	}
}
