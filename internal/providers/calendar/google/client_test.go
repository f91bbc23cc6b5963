package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	bookingdomain "github.com/smallbiznis/hullbook/internal/booking/domain"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"github.com/smallbiznis/hullbook/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeGoogle(t *testing.T, events http.HandlerFunc) *httptest.Server {
	t.Helper()
	return newCountingGoogle(t, new(atomic.Int32), events)
}

func newCountingGoogle(t *testing.T, exchanges *atomic.Int32, events http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/calendars/primary/events", events)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListEventsParsesTimedAndAllDayEvents(t *testing.T) {
	var gotAuth string
	var gotQuery map[string][]string
	srv := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"nextPageToken": "page-2",
			"items": [
				{"id": "ev-1", "summary": "Hull wash", "start": {"dateTime": "2026-05-01T09:00:00Z"}, "end": {"dateTime": "2026-05-01T11:00:00Z"}},
				{"id": "ev-2", "summary": "Detailing", "start": {"date": "2026-05-02"}},
				{"id": "ev-3", "summary": "No start"}
			]
		}`))
	})

	client := New(Config{Endpoint: srv.URL + "/", TokenURL: srv.URL + "/token"})
	sess, err := client.Open(context.Background(),
		integrationdomain.Credentials{GoogleRefreshToken: "refresh", GoogleCalendarID: "primary"})
	require.NoError(t, err)
	page, err := sess.ListEvents(context.Background(), bookingdomain.EventQuery{
		CalendarID: "primary",
		TimeMin:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		TimeMax:    time.Date(2026, 5, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Equal(t, "true", gotQuery["singleEvents"][0])
	assert.Equal(t, "startTime", gotQuery["orderBy"][0])
	assert.Equal(t, "page-2", page.NextPageToken)
	assert.Equal(t, 1, page.Skipped)
	require.Len(t, page.Events, 2)
	assert.Equal(t, "ev-1", page.Events[0].ExternalID)
	assert.Equal(t, "Hull wash", page.Events[0].Title)
	require.NotNil(t, page.Events[0].EndAt)
	assert.Equal(t, 2*time.Hour, page.Events[0].EndAt.Sub(page.Events[0].StartAt))
	assert.Equal(t, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), page.Events[1].StartAt)
	assert.Nil(t, page.Events[1].EndAt)
}

func TestListEventsTranslatesAPIErrors(t *testing.T) {
	srv := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "Calendar access denied"}}`))
	})

	client := New(Config{Endpoint: srv.URL + "/", TokenURL: srv.URL + "/token"})
	sess, err := client.Open(context.Background(), integrationdomain.Credentials{GoogleRefreshToken: "refresh"})
	require.NoError(t, err)
	_, err = sess.ListEvents(context.Background(), bookingdomain.EventQuery{TimeMin: time.Now(), TimeMax: time.Now()})

	upErr, ok := upstream.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
	assert.Equal(t, "Calendar access denied", upErr.Detail)
}

func TestOpenRequiresRefreshToken(t *testing.T) {
	client := New(Config{})
	_, err := client.Open(context.Background(), integrationdomain.Credentials{})
	assert.ErrorIs(t, err, integrationdomain.ErrNotConfigured)
}

func TestSessionExchangesTokenOncePerSync(t *testing.T) {
	var exchanges atomic.Int32
	var pages atomic.Int32
	srv := newCountingGoogle(t, &exchanges, func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		w.Header().Set("Content-Type", "application/json")
		next := ""
		if r.URL.Query().Get("pageToken") == "" {
			next = "page-2"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"nextPageToken": next,
			"items": []map[string]any{
				{"id": "ev-" + r.URL.Query().Get("pageToken"), "start": map[string]string{"date": "2026-05-02"}},
			},
		})
	})

	client := New(Config{Endpoint: srv.URL + "/", TokenURL: srv.URL + "/token"})
	ctx := context.Background()
	sess, err := client.Open(ctx, integrationdomain.Credentials{GoogleRefreshToken: "refresh"})
	require.NoError(t, err)

	query := bookingdomain.EventQuery{TimeMin: time.Now(), TimeMax: time.Now().Add(time.Hour)}
	first, err := sess.ListEvents(ctx, query)
	require.NoError(t, err)
	require.Equal(t, "page-2", first.NextPageToken)

	query.PageToken = first.NextPageToken
	second, err := sess.ListEvents(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, second.NextPageToken)

	assert.EqualValues(t, 2, pages.Load())
	assert.EqualValues(t, 1, exchanges.Load())
}
