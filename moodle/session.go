package moodle

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

const (
	// SessionCookieName is the cookie the platform keys sessions on.
	SessionCookieName = "MoodleSession"
	UserAgent         = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	ajaxPath = "/lib/ajax/service.php"
)

// Options configure a Session.
type Options struct {
	// Timeout of zero leaves requests without a client-side deadline.
	Timeout            time.Duration
	InsecureSkipVerify bool
	Logger             zerolog.Logger
}

// Session is the read-only context shared by every network operation: the
// base URL, the security key and an HTTP client carrying the session cookie.
type Session struct {
	BaseURL string
	SessKey string

	base   *url.URL
	client *http.Client
	logger zerolog.Logger
}

// NewSession builds a Session for an already authenticated cookie.
func NewSession(baseURL, sesskey, cookie string, opts Options) (*Session, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing base url %q", baseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie jar")
	}
	jar.SetCookies(base, []*http.Cookie{{Name: SessionCookieName, Value: cookie, Path: "/"}})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := &http.Client{
		Jar:       jar,
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			req.Header.Set("User-Agent", UserAgent)
			return nil
		},
	}

	return &Session{
		BaseURL: baseURL,
		SessKey: sesskey,
		base:    base,
		client:  client,
		logger:  opts.Logger,
	}, nil
}

// Logger returns the logger the session was built with.
func (s *Session) Logger() zerolog.Logger {
	return s.logger
}

// ResolveURL resolves ref against the base URL. Absolute refs are returned
// as they are, minus any fragment.
func (s *Session) ResolveURL(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", errors.Wrapf(err, "parsing url %q", ref)
	}
	resolved := s.base.ResolveReference(u)
	resolved.Fragment = ""
	return resolved.String(), nil
}

// Get performs an authenticated GET, following redirects. A non-2xx status
// is returned as an error and the body is closed. The caller closes the
// body of a successful response.
func (s *Session) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	target, err := s.ResolveURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "creating request for %s", target)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Referer", s.BaseURL+"/my/")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", target)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Errorf("GET %s: unexpected status %s", target, resp.Status)
	}
	return resp, nil
}

// callAjax invokes one web service method and returns the first element of
// the response array, undecoded.
func (s *Session) callAjax(ctx context.Context, method string, args interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal([]ajaxRequest{{Index: 0, MethodName: method, Args: args}})
	if err != nil {
		return nil, errors.Wrap(err, "encoding ajax payload")
	}

	endpoint := fmt.Sprintf("%s%s?sesskey=%s", s.BaseURL, ajaxPath, url.QueryEscape(s.SessKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "creating ajax request")
	}
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", s.BaseURL)
	req.Header.Set("Referer", s.BaseURL+"/my/")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "calling %s", method)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("calling %s: unexpected status %s", method, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s response", method)
	}

	var results []json.RawMessage
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, errors.Wrapf(err, "decoding %s response", method)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
