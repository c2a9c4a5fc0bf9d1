package gforms

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

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

func writeURLList(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forms_url.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestListResolverResolve(t *testing.T) {
	t.Run("returns the redirect target without following it", func(t *testing.T) {
		var hops atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/short":
				w.Header().Set("Location", "http://"+r.Host+"/hop")
				w.WriteHeader(http.StatusFound)
			case "/hop":
				hops.Add(1)
			}
		}))
		defer ts.Close()

		list := writeURLList(t, "unused-day-1", "unused-day-2", ts.URL+"/short")
		r := NewListResolver(list, list, time.Second, testLogger())

		got, err := r.Resolve(context.Background(), form.ModeTest, form.Wednesday)
		require.NoError(t, err)
		assert.Equal(t, ts.URL+"/hop", got)
		assert.Equal(t, int32(0), hops.Load())
	})

	t.Run("day out of range touches neither file nor network", func(t *testing.T) {
		var hits atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer ts.Close()

		list := writeURLList(t, ts.URL)
		r := NewListResolver(list, list, time.Second, testLogger())

		for _, day := range []form.Weekday{0, 8, -1} {
			_, err := r.Resolve(context.Background(), form.ModeLive, day)
			assert.ErrorIs(t, err, ErrDayOutOfRange)
		}
		assert.Equal(t, int32(0), hits.Load())
	})

	t.Run("mode picks the matching list file", func(t *testing.T) {
		var testHits, liveHits atomic.Int32
		mk := func(hits *atomic.Int32) *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Header().Set("Location", "http://"+r.Host+"/viewform")
				w.WriteHeader(http.StatusFound)
			}))
		}
		testSrv := mk(&testHits)
		defer testSrv.Close()
		liveSrv := mk(&liveHits)
		defer liveSrv.Close()

		r := NewListResolver(writeURLList(t, testSrv.URL), writeURLList(t, liveSrv.URL), time.Second, testLogger())

		_, err := r.Resolve(context.Background(), form.ModeTest, form.Monday)
		require.NoError(t, err)
		assert.Equal(t, int32(1), testHits.Load())
		assert.Equal(t, int32(0), liveHits.Load())

		_, err = r.Resolve(context.Background(), form.ModeLive, form.Monday)
		require.NoError(t, err)
		assert.Equal(t, int32(1), liveHits.Load())
	})

	t.Run("blank lines do not count as days", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", "http://"+r.Host+"/viewform")
			w.WriteHeader(http.StatusFound)
		}))
		defer ts.Close()

		list := writeURLList(t, "", "   ", ts.URL, "")
		r := NewListResolver(list, list, time.Second, testLogger())

		_, err := r.Resolve(context.Background(), form.ModeTest, form.Monday)
		assert.NoError(t, err)

		_, err = r.Resolve(context.Background(), form.ModeTest, form.Tuesday)
		assert.ErrorIs(t, err, ErrShortURLMissing)
	})

	t.Run("day beyond the list", func(t *testing.T) {
		list := writeURLList(t, "http://localhost/day1")
		r := NewListResolver(list, list, time.Second, testLogger())

		_, err := r.Resolve(context.Background(), form.ModeTest, form.Sunday)
		assert.ErrorIs(t, err, ErrShortURLMissing)
	})

	t.Run("missing list file", func(t *testing.T) {
		r := NewListResolver(filepath.Join(t.TempDir(), "absent.txt"), "", time.Second, testLogger())
		_, err := r.Resolve(context.Background(), form.ModeTest, form.Monday)
		assert.Error(t, err)
	})

	t.Run("response without a location header", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer ts.Close()

		list := writeURLList(t, ts.URL)
		r := NewListResolver(list, list, time.Second, testLogger())

		_, err := r.Resolve(context.Background(), form.ModeTest, form.Monday)
		assert.ErrorIs(t, err, ErrNoRedirect)
	})

	t.Run("error status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		list := writeURLList(t, ts.URL)
		r := NewListResolver(list, list, time.Second, testLogger())

		_, err := r.Resolve(context.Background(), form.ModeTest, form.Monday)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("sends the expected user agent", func(t *testing.T) {
		gotUA := make(chan string, 1)
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA <- r.Header.Get("User-Agent")
			w.Header().Set("Location", "http://"+r.Host+"/viewform")
			w.WriteHeader(http.StatusFound)
		}))
		defer ts.Close()

		list := writeURLList(t, ts.URL)
		r := NewListResolver(list, list, time.Second, testLogger())

		_, err := r.Resolve(context.Background(), form.ModeTest, form.Monday)
		require.NoError(t, err)
		assert.Equal(t, userAgent, <-gotUA)
	})
}
