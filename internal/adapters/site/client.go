package site

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/keeperbot/monzoo-keeper/internal/domain"
	"golang.org/x/net/publicsuffix"
)

const (
	loginPath = "/login.php"

	// A login redirect pointing here means the credentials were rejected.
	authFailureSentinel = "index.php?erreur="
)

// Document is a fetched page: raw markup plus the response metadata the
// orchestrator branches on.
type Document struct {
	Markup     string
	StatusCode int
	FinalURL   string
}

// Client performs authenticated requests against the site. It owns a cookie
// jar for the lifetime of one cycle; session cookies captured at login are
// replayed on every subsequent request and merged from every response. A
// fresh Client is created per cycle, so no session survives across cycles.
type Client struct {
	baseURL    string
	follow     *http.Client
	noRedirect *http.Client
}

func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		follow:  &http.Client{Jar: jar},
		noRedirect: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Login submits the credential form without following the redirect. The site
// answers a failed login with a redirect to its error page; any other
// redirect or 2xx counts as authenticated, with the session cookies left in
// the jar.
func (c *Client) Login(ctx context.Context, account, secret string) error {
	form := url.Values{}
	form.Set("pseudo", account)
	form.Set("passe", secret)

	target := c.baseURL + loginPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.noRedirect.Do(req)
	if err != nil {
		return &domain.TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if loc := resp.Header.Get("Location"); strings.Contains(loc, authFailureSentinel) {
		return &domain.AuthenticationError{Location: loc}
	}

	return nil
}

// FetchDocument GETs a site-relative path with the current session cookies.
// Non-2xx statuses are returned as a normal result; only network-level
// failures produce an error.
func (c *Client) FetchDocument(ctx context.Context, path string) (Document, error) {
	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request for %s: %w", target, err)
	}

	resp, err := c.follow.Do(req)
	if err != nil {
		return Document{}, &domain.TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, &domain.TransportError{URL: target, Err: err}
	}

	return Document{
		Markup:     string(body),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

// SubmitForm POSTs url-encoded fields to a site-relative path and returns
// the response status. The caller decides which statuses are fatal.
func (c *Client) SubmitForm(ctx context.Context, path string, fields url.Values) (int, error) {
	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(fields.Encode()))
	if err != nil {
		return 0, fmt.Errorf("build form request for %s: %w", target, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.follow.Do(req)
	if err != nil {
		return 0, &domain.TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
