package teamleader

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, 2*time.Second, nil)
	c.SetRetryPolicy(2, func(int) time.Duration { return time.Millisecond })
	return c
}

func TestListTimeEntries(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/timeTracking.list", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":[{"id":"e1","user":{"id":"u1","type":"user"},"started_on":"2025-03-03","duration":3600,"invoiceable":true}]}`))
	})

	after := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	entries, err := c.ListTimeEntries(context.Background(), "tok", "u1", after, before)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3600), entries[0].Duration)
	assert.True(t, entries[0].Invoiceable)
	assert.Equal(t, "2025-03-03", entries[0].StartedOn)

	filter := got["filter"].(map[string]any)
	assert.Equal(t, "u1", filter["user_id"])
	assert.Equal(t, "2025-03-01T00:00:00Z", filter["started_after"])
	assert.Equal(t, "2025-03-11T00:00:00Z", filter["ended_before"])
	assert.Equal(t, float64(PageSize), got["page"].(map[string]any)["size"])
}

func TestListDaysOff_DateFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u1", body["id"])
		filter := body["filter"].(map[string]any)
		assert.Equal(t, "2025-03-02", filter["starts_after"])
		assert.Equal(t, "2025-03-08", filter["ends_before"])
		w.Write([]byte(`{"data":[{"id":"d1","leave_type":{"id":"lt"},"starts_at":"2025-03-05T08:00:00+01:00","ends_at":"2025-03-05T16:00:00+01:00","status":"approved"}]}`))
	})

	days, err := c.ListDaysOff(context.Background(), "tok", "u1",
		time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "lt", days[0].LeaveType.ID)
	assert.Equal(t, 8.0, days[0].Hours())
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":{"id":"u1","first_name":"Anna","teams":[{"id":"t1"}]}}`))
	})

	u, err := c.Me(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Anna", u.FirstName)
	assert.Equal(t, "t1", u.TeamID())
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoRequest_GivesUp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.ListTeams(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestDoRequest_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.UserInfo(context.Background(), "tok", "u1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDoRequest_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, nil)
	c.SetRetryPolicy(0, nil)
	_, err := c.ListActiveUsers(context.Background(), "tok")
	assert.Error(t, err)
}

func TestListTeams_Filter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Filter map[string][]string `json:"filter"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"t1", "t2"}, body.Filter["ids"])
		w.Write([]byte(`{"data":[{"id":"t1","name":"A","members":[{"id":"u1"}]},{"id":"t2","name":"B"}]}`))
	})

	teams, err := c.ListTeams(context.Background(), "tok", "t1", "t2")
	require.NoError(t, err)
	assert.Len(t, teams, 2)
	assert.Equal(t, "u1", teams[0].Members[0].ID)
}

func TestAllTeams_Cached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data":[{"id":"t1","name":"A"}]}`))
	})

	cache := NewTeamCache(time.Minute)
	for i := 0; i < 3; i++ {
		teams, err := c.AllTeams(context.Background(), "tok", cache)
		require.NoError(t, err)
		assert.Len(t, teams, 1)
	}
	assert.Equal(t, int32(1), calls.Load())

	cache.Invalidate()
	_, err := c.AllTeams(context.Background(), "tok", cache)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListContacts_Filter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "c1", body["filter"]["company_id"])
		w.Write([]byte(`{"data":[{"id":"p1","first_name":"Max","last_name":"Muster","birthdate":"1990-05-04"}]}`))
	})

	contacts, err := c.ListContacts(context.Background(), "tok", ContactFilter{CompanyID: "c1"})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "1990-05-04", contacts[0].Birthdate)
}

func TestTokenStore_RoundTrip(t *testing.T) {
	store := TokenStore{Path: filepath.Join(t.TempDir(), "nested", "token.json")}

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, tok)

	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "a", RefreshToken: "r"}))
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
}

func TestAuth_RefreshesExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh","refresh_token":"new-refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	store := TokenStore{Path: filepath.Join(t.TempDir(), "token.json")}
	require.NoError(t, store.Save(&oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "old-refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	auth := NewAuth("id", "secret", "http://localhost/callback", store, nil).
		WithEndpoint(oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams})

	got, err := auth.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	cached, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new-refresh", cached.RefreshToken)
}

func TestAuth_NotAuthenticated(t *testing.T) {
	auth := NewAuth("id", "secret", "", TokenStore{Path: filepath.Join(t.TempDir(), "none.json")}, nil)
	_, err := auth.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Contains(t, auth.AuthCodeURL("xyz"), "state=xyz")
}
