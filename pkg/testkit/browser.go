package testkit

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/carby/pkg/response"
)

// Browser drives a handler the way a user would: it keeps cookies across
// requests and follows redirects.
type Browser struct {
	t      testing.TB
	Server *httptest.Server
	Client *http.Client
}

// Visit is one completed navigation.
type Visit struct {
	Status int
	Path   string // path of the final URL after redirects
	Page   response.Page
	Body   string
}

// NewBrowser serves handler on a test server for the duration of t.
func NewBrowser(t testing.TB, handler http.Handler) *Browser {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &Browser{t: t, Server: srv, Client: &http.Client{Jar: jar}}
}

// Get navigates to path.
func (b *Browser) Get(path string) Visit {
	b.t.Helper()
	resp, err := b.Client.Get(b.Server.URL + path)
	require.NoError(b.t, err)
	return b.read(resp)
}

// Submit posts a form to path.
func (b *Browser) Submit(path string, form url.Values) Visit {
	b.t.Helper()
	resp, err := b.Client.Post(b.Server.URL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	return b.read(resp)
}

func (b *Browser) read(resp *http.Response) Visit {
	b.t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)

	v := Visit{Status: resp.StatusCode, Path: resp.Request.URL.Path, Body: string(raw)}
	_ = json.Unmarshal(raw, &v.Page) // error bodies are not pages
	return v
}

// HasFlash reports whether the visit carried a flash of the given kind.
func (v Visit) HasFlash(kind string) bool {
	for _, f := range v.Page.Flashes {
		if f.Kind == kind {
			return true
		}
	}
	return false
}
