package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"leave_form_bot/internal/domain/form"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

const stubViewURL = "https://docs.google.com/forms/d/e/abc123/viewform?usp=sf_link"

// stubResolver and stubInspector record their calls under a mutex because
// the orchestrator prepares days concurrently.
type stubResolver struct {
	mu    sync.Mutex
	url   string
	errs  map[form.Weekday]error
	calls []form.Weekday
	modes []form.Mode
}

func (s *stubResolver) Resolve(ctx context.Context, mode form.Mode, day form.Weekday) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, day)
	s.modes = append(s.modes, mode)
	if err := s.errs[day]; err != nil {
		return "", err
	}
	return s.url, nil
}

type stubInspector struct {
	mu            sync.Mutex
	token         string
	tokenErr      error
	ids           form.FieldIDs
	discoverErr   error
	tokenCalls    int
	discoverCalls int
	needReasons   []bool
}

func (s *stubInspector) Token(ctx context.Context, formURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenCalls++
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	return s.token, nil
}

func (s *stubInspector) Discover(ctx context.Context, formURL string, needReason bool) (form.FieldIDs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoverCalls++
	s.needReasons = append(s.needReasons, needReason)
	if s.discoverErr != nil {
		return form.FieldIDs{}, s.discoverErr
	}
	return s.ids, nil
}

func workingStubs() (*stubResolver, *stubInspector) {
	resolver := &stubResolver{url: stubViewURL}
	inspector := &stubInspector{
		token: "-42",
		ids: form.FieldIDs{
			Name:   "entry.1",
			Option: "entry.2",
			Reason: "entry.3",
		},
	}
	return resolver, inspector
}

func TestPreparationServicePrepare(t *testing.T) {
	t.Run("weekday payload", func(t *testing.T) {
		resolver, inspector := workingStubs()
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		d := svc.Prepare(context.Background(), form.ModeTest, form.Wednesday, "王小明", "")
		require.Equal(t, form.StatusPrepared, d.Status)
		assert.Equal(t, form.Wednesday, d.Day)
		assert.Equal(t, "https://docs.google.com/forms/d/e/abc123/formResponse?usp=sf_link", d.ResponseURL)
		assert.Equal(t, stubViewURL, d.Referer)
		assert.Equal(t, map[string]string{
			"fbzx":    "-42",
			"entry.1": "王小明",
			"entry.2": "休假",
		}, d.Payload)
		assert.Equal(t, []bool{false}, inspector.needReasons)
	})

	t.Run("weekend payload carries the reason", func(t *testing.T) {
		resolver, inspector := workingStubs()
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		reason := strings.Repeat("理", 15)
		d := svc.Prepare(context.Background(), form.ModeTest, form.Saturday, "王小明", reason)
		require.Equal(t, form.StatusPrepared, d.Status)
		assert.Equal(t, reason, d.Payload["entry.3"])
		assert.Equal(t, []bool{true}, inspector.needReasons)
	})

	t.Run("weekend with an empty reason leaves the field out", func(t *testing.T) {
		resolver, inspector := workingStubs()
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		d := svc.Prepare(context.Background(), form.ModeTest, form.Sunday, "王小明", "")
		require.Equal(t, form.StatusPrepared, d.Status)
		assert.NotContains(t, d.Payload, "entry.3")
	})

	t.Run("resolver failure marks the day and stops early", func(t *testing.T) {
		resolver, inspector := workingStubs()
		resolver.errs = map[form.Weekday]error{form.Wednesday: fmt.Errorf("boom")}
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		d := svc.Prepare(context.Background(), form.ModeTest, form.Wednesday, "王小明", "")
		assert.Equal(t, form.StatusPrepFailed, d.Status)
		assert.Equal(t, form.Wednesday, d.Day)
		assert.Zero(t, inspector.tokenCalls)
		assert.Zero(t, inspector.discoverCalls)
	})

	t.Run("token failure short-circuits discovery", func(t *testing.T) {
		resolver, inspector := workingStubs()
		inspector.tokenErr = fmt.Errorf("no fbzx on page")
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		d := svc.Prepare(context.Background(), form.ModeTest, form.Wednesday, "王小明", "")
		assert.Equal(t, form.StatusPrepFailed, d.Status)
		assert.Zero(t, inspector.discoverCalls)
	})

	t.Run("discover failure marks the day", func(t *testing.T) {
		resolver, inspector := workingStubs()
		inspector.discoverErr = fmt.Errorf("no data blob")
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		d := svc.Prepare(context.Background(), form.ModeTest, form.Wednesday, "王小明", "")
		assert.Equal(t, form.StatusPrepFailed, d.Status)
	})

	t.Run("missing required field ids mark the day", func(t *testing.T) {
		resolver, inspector := workingStubs()
		inspector.ids = form.FieldIDs{Name: "entry.1"} // option missing
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		d := svc.Prepare(context.Background(), form.ModeTest, form.Wednesday, "王小明", "")
		assert.Equal(t, form.StatusPrepFailed, d.Status)
	})

	t.Run("weekend requires a reason id, weekdays do not", func(t *testing.T) {
		resolver, inspector := workingStubs()
		inspector.ids = form.FieldIDs{Name: "entry.1", Option: "entry.2"}
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		d := svc.Prepare(context.Background(), form.ModeTest, form.Saturday, "王小明", strings.Repeat("理", 15))
		assert.Equal(t, form.StatusPrepFailed, d.Status)

		d = svc.Prepare(context.Background(), form.ModeTest, form.Wednesday, "王小明", "")
		assert.Equal(t, form.StatusPrepared, d.Status)
	})

	t.Run("mode reaches the resolver", func(t *testing.T) {
		resolver, inspector := workingStubs()
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		svc.Prepare(context.Background(), form.ModeLive, form.Monday, "王小明", "")
		assert.Equal(t, []form.Mode{form.ModeLive}, resolver.modes)
	})

	t.Run("repeated preparation yields identical payloads", func(t *testing.T) {
		resolver, inspector := workingStubs()
		svc := NewPreparationService(resolver, inspector, "休假", testLogger())

		reason := strings.Repeat("理", 15)
		first := svc.Prepare(context.Background(), form.ModeLive, form.Saturday, "王小明", reason)
		second := svc.Prepare(context.Background(), form.ModeLive, form.Saturday, "王小明", reason)
		require.Equal(t, form.StatusPrepared, first.Status)
		assert.Equal(t, first.Payload, second.Payload)
		assert.Equal(t, first.ResponseURL, second.ResponseURL)
		assert.Equal(t, first.Referer, second.Referer)
	})
}
