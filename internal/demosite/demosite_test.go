package demosite

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/internet-e2e/internal/config"
)

type testSite struct {
	server *Server
	ts     *httptest.Server
	client *http.Client
}

func newTestSite(t testing.TB, opts Options) *testSite {
	t.Helper()
	srv, err := New(opts)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testSite{server: srv, ts: ts, client: newClient(t)}
}

func newClient(t testing.TB) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (s *testSite) get(t require.TestingT, path string) (*http.Response, *goquery.Document) {
	resp, err := s.client.Get(s.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return resp, doc
}

func (s *testSite) login(t require.TestingT, username, password string) (*http.Response, *goquery.Document) {
	resp, err := s.client.PostForm(s.ts.URL+"/authenticate", url.Values{
		"username": {username},
		"password": {password},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return resp, doc
}

func flashText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).Text())
}

func TestHome(t *testing.T) {
	site := newTestSite(t, Options{})
	resp, doc := site.get(t, "/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "The Internet", doc.Find("title").Text())
	assert.Equal(t, "Welcome to the-internet", strings.TrimSpace(doc.Find("h1").Text()))

	links := map[string]string{}
	doc.Find("#content a").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		links[sel.Text()] = href
	})
	assert.Equal(t, "/add_remove_elements/", links["Add/Remove Elements"])
	assert.Equal(t, "/checkboxes", links["Checkboxes"])
	assert.Equal(t, "/dropdown", links["Dropdown"])
	assert.Equal(t, "/login", links["Form Authentication"])
}

func TestHome_UnknownPathIs404(t *testing.T) {
	site := newTestSite(t, Options{})
	resp, err := site.client.Get(site.ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoginForm(t *testing.T) {
	site := newTestSite(t, Options{})
	_, doc := site.get(t, "/login")

	assert.Equal(t, 1, doc.Find("input#username").Length())
	assert.Equal(t, 1, doc.Find("input#password[type=password]").Length())
	assert.Equal(t, "Login", strings.TrimSpace(doc.Find("form#login button[type=submit]").Text()))
	action, _ := doc.Find("form#login").Attr("action")
	assert.Equal(t, "/authenticate", action)
	assert.Zero(t, doc.Find("#flash").Length())
}

func TestAuthenticate_Valid(t *testing.T) {
	site := newTestSite(t, Options{})
	resp, doc := site.login(t, config.DefaultUsername, config.DefaultPassword)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/secure", resp.Request.URL.Path)
	assert.Contains(t, flashText(doc, "#flash.success"), MsgLoggedIn)
	assert.Contains(t, doc.Find(".subheader").Text(), "Welcome to the Secure Area")
	assert.Equal(t, "Logout", strings.TrimSpace(doc.Find(`a[href="/logout"]`).Text()))

	// The flash is shown once.
	_, doc = site.get(t, "/secure")
	assert.Zero(t, doc.Find("#flash").Length())
	assert.Equal(t, 1, doc.Find(`a[href="/checkboxes"]`).Length())
}

func TestAuthenticate_InvalidUsername(t *testing.T) {
	site := newTestSite(t, Options{LoginRPS: 1000, LoginBurst: 1000})
	rapid.Check(t, func(t *rapid.T) {
		username := rapid.StringMatching(`[a-z]{1,10}`).Filter(func(s string) bool {
			return s != config.DefaultUsername
		}).Draw(t, "username")

		resp, doc := site.login(t, username, config.DefaultPassword)
		assert.Equal(t, "/login", resp.Request.URL.Path)
		assert.Contains(t, flashText(doc, "#flash.error"), MsgInvalidUsername)
	})
}

func TestAuthenticate_InvalidPassword(t *testing.T) {
	site := newTestSite(t, Options{})
	resp, doc := site.login(t, config.DefaultUsername, "wrong")

	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, flashText(doc, "#flash.error"), MsgInvalidPassword)

	resp, _ = site.get(t, "/secure")
	assert.Equal(t, "/login", resp.Request.URL.Path, "still logged out")
}

func TestAuthenticate_CustomAccount(t *testing.T) {
	site := newTestSite(t, Options{Username: "alice", Password: "s3cret"})

	_, doc := site.login(t, config.DefaultUsername, config.DefaultPassword)
	assert.Contains(t, flashText(doc, "#flash.error"), MsgInvalidUsername)

	resp, _ := site.login(t, "alice", "s3cret")
	assert.Equal(t, "/secure", resp.Request.URL.Path)
}

func TestSecure_RequiresLogin(t *testing.T) {
	site := newTestSite(t, Options{})
	resp, doc := site.get(t, "/secure")

	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, flashText(doc, "#flash.error"), MsgLoginRequired)
}

func TestLogout(t *testing.T) {
	site := newTestSite(t, Options{})
	site.login(t, config.DefaultUsername, config.DefaultPassword)

	resp, doc := site.get(t, "/logout")
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, flashText(doc, "#flash.success"), MsgLoggedOut)

	resp, _ = site.get(t, "/secure")
	assert.Equal(t, "/login", resp.Request.URL.Path)
}

func TestSessionsAreIsolated(t *testing.T) {
	site := newTestSite(t, Options{})
	site.login(t, config.DefaultUsername, config.DefaultPassword)

	other := &testSite{server: site.server, ts: site.ts, client: newClient(t)}
	resp, _ := other.get(t, "/secure")
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Equal(t, 2, site.server.sessions.len())
}

func TestExamplePages(t *testing.T) {
	site := newTestSite(t, Options{})

	_, doc := site.get(t, "/add_remove_elements/")
	assert.Equal(t, "Add/Remove Elements", doc.Find("h3").Text())
	assert.Equal(t, "Add Element", doc.Find("button").First().Text())
	assert.Zero(t, doc.Find("#elements button").Length())

	_, doc = site.get(t, "/checkboxes")
	assert.Equal(t, "Checkboxes", doc.Find("h3").Text())
	boxes := doc.Find("#checkboxes input[type=checkbox]")
	require.Equal(t, 2, boxes.Length())
	_, firstChecked := boxes.Eq(0).Attr("checked")
	_, secondChecked := boxes.Eq(1).Attr("checked")
	assert.False(t, firstChecked)
	assert.True(t, secondChecked)

	_, doc = site.get(t, "/dropdown")
	assert.Equal(t, "Dropdown List", doc.Find("h3").Text())
	var values []string
	doc.Find("#dropdown option").Each(func(_ int, sel *goquery.Selection) {
		v, _ := sel.Attr("value")
		values = append(values, v)
	})
	assert.Equal(t, []string{"", "1", "2"}, values)
}

func TestHealthz(t *testing.T) {
	site := newTestSite(t, Options{})
	resp, err := site.client.Get(site.ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestAuthenticate_Throttled(t *testing.T) {
	site := newTestSite(t, Options{LoginRPS: 0.001, LoginBurst: 2})

	for i := 0; i < 2; i++ {
		resp, _ := site.login(t, "nobody", "x")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, err := site.client.PostForm(site.ts.URL+"/authenticate", url.Values{"username": {"nobody"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestRenderMarkdown_Sanitizes(t *testing.T) {
	out := string(renderMarkdown("# Title\n\n<script>alert(1)</script>\n\n[x](javascript:alert(1))"))
	assert.Contains(t, out, "Title</h1>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}
