package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/mosaic/internal/models"
	"github.com/tOgg1/mosaic/internal/testutil"
)

func TestHTTPClientNavigate(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/base/api/v1/media/navigate", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key":"k2","taken_at":"2021-05-01T10:00:00Z","metadata":{"original_taken_at":"2021:05:01 09:59:59"},"content_ref":"c2"}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL+"/base/", HTTPOptions{Token: "s3cret"})
	require.NoError(t, err)
	defer c.Close()

	item, err := c.Navigate(context.Background(), models.NavRequest{Selector: models.SelectorNext, Key: "k1"})
	require.NoError(t, err)
	require.Equal(t, "k2", item.Key)
	require.Equal(t, "2021:05:01 09:59:59", item.Metadata.OriginalTakenAt)
	require.Equal(t, time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC), item.Resolve().Timestamp)
	require.Equal(t, "key=k1&selector=next", gotQuery)
	require.Equal(t, "Bearer s3cret", gotAuth)
}

func TestHTTPClientSendsTimestamp(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("timestamp")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, HTTPOptions{})
	require.NoError(t, err)

	ts := time.Date(2019, 2, 3, 4, 5, 6, 7, time.UTC)
	item, err := c.Navigate(context.Background(), models.NavRequest{Selector: models.SelectorFirst, Timestamp: ts})
	require.NoError(t, err)
	require.Nil(t, item)
	require.Equal(t, "2019-02-03T04:05:06.000000007Z", got)
}

func TestHTTPClientStatusHandling(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantNil bool
		wantErr int
	}{
		{name: "no content", status: http.StatusNoContent, wantNil: true},
		{name: "not found", status: http.StatusNotFound, body: "nothing", wantNil: true},
		{name: "empty body", status: http.StatusOK, wantNil: true},
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", wantErr: http.StatusBadGateway},
		{name: "unauthorized", status: http.StatusUnauthorized, body: "bad token", wantErr: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c, err := NewHTTPClient(srv.URL, HTTPOptions{})
			require.NoError(t, err)
			item, err := c.Navigate(context.Background(), models.NavRequest{Selector: models.SelectorLast})
			if tc.wantErr != 0 {
				require.True(t, IsStatus(err, tc.wantErr), "err = %v", err)
				require.Contains(t, err.Error(), tc.body)
				return
			}
			require.NoError(t, err)
			if tc.wantNil {
				require.Nil(t, item)
			}
		})
	}
}

func TestHTTPClientMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"key":`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, HTTPOptions{})
	require.NoError(t, err)
	_, err = c.Navigate(context.Background(), models.NavRequest{Selector: models.SelectorLast})
	require.ErrorContains(t, err, "decode item")
}

func TestHTTPClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, HTTPOptions{Timeout: time.Second})
	require.NoError(t, err)
	_, err = c.Navigate(context.Background(), models.NavRequest{Selector: models.SelectorLast})
	require.True(t, errors.Is(err, ErrUnavailable), "err = %v", err)
}

func TestHTTPClientRejectsInvalidRequests(t *testing.T) {
	c, err := NewHTTPClient("http://127.0.0.1:1", HTTPOptions{})
	require.NoError(t, err)
	_, err = c.Navigate(context.Background(), models.NavRequest{Selector: models.SelectorNext})
	require.ErrorContains(t, err, "reference key is required")

	_, err = NewHTTPClient("ftp://example.com", HTTPOptions{})
	require.Error(t, err)
}

func TestHTTPClientContentURL(t *testing.T) {
	c, err := NewHTTPClient("https://photos.example.com/root", HTTPOptions{})
	require.NoError(t, err)
	require.Equal(t, "https://photos.example.com/root/api/v1/media/abc%20def/thumbnail", c.ContentURL("abc def"))
	require.Empty(t, c.ContentURL(""))
}

func TestContentURLLooksThroughCache(t *testing.T) {
	c, err := NewHTTPClient("https://photos.example.com", HTTPOptions{})
	require.NoError(t, err)

	cached := NewCachingClient(c, 4)
	require.Equal(t, "https://photos.example.com/api/v1/media/x1/thumbnail", ContentURL(cached, "x1"))
	require.Equal(t, c.ContentURL("x1"), ContentURL(c, "x1"))
	require.Empty(t, ContentURL(nopCloser{testutil.NewNavigator()}, "x1"))
}
