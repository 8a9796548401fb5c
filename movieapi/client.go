package movieapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"cinescope/errs"
	"cinescope/movie"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5

	maxBodySize = 512 * 1024
)

var ErrInvalidCredentials = errs.Errorf(errs.EUNAUTHORIZED, "invalid username or password")

type Options func(c *Client)

func WithHTTPClient(hc *http.Client) Options {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Options {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limiter.
func WithRateLimit(perSecond float64) Options {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithLogger(l *slog.Logger) Options {
	return func(c *Client) {
		c.logger = l
	}
}

// Client talks to the movie backend over HTTP. The backend authenticates with a
// session cookie, so one Client is one backend user.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[response]
	logger  *slog.Logger
}

type response struct {
	status   int
	location string
	body     []byte
}

type errorPayload struct {
	Error string `json:"error"`
}

type messagePayload struct {
	Message string `json:"message"`
}

func New(baseURL string, options ...Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid movie service url %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: u.String(),
		http:    &http.Client{Timeout: DefaultTimeout, Jar: jar},
		limiter: rate.NewLimiter(DefaultRateLimit, 1),
		logger:  slog.Default(),
	}
	for _, fn := range options {
		fn(c)
	}
	if c.http.Jar == nil {
		c.http.Jar = jar
	}

	c.cb = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "movie-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c, nil
}

// Login signs in with the backend's form login. The session cookie is kept in
// the client's jar for every later call.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrInvalidCredentials
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.do(ctx, http.MethodPost, "/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), false)
	if err != nil {
		return err
	}
	if resp.status/100 != 3 || !strings.HasSuffix(strings.TrimRight(resp.location, "/"), "/main") {
		return ErrInvalidCredentials
	}
	return nil
}

func (c *Client) Search(ctx context.Context, query string) (movie.SearchResult, error) {
	var result movie.SearchResult
	path := "/search?" + url.Values{"q": {query}}.Encode()
	if err := c.call(ctx, http.MethodGet, path, nil, &result); err != nil {
		return movie.SearchResult{}, err
	}
	return result, nil
}

func (c *Client) Recommendations(ctx context.Context, q movie.RecommendationQuery) (movie.RecommendationPage, error) {
	var page movie.RecommendationPage
	if err := c.call(ctx, http.MethodPost, "/get_recommendations", q, &page); err != nil {
		return movie.RecommendationPage{}, err
	}
	return page, nil
}

func (c *Client) AddFavorite(ctx context.Context, f movie.Favorite) (string, error) {
	return c.favorite(ctx, "/add_favorite", f)
}

func (c *Client) RemoveFavorite(ctx context.Context, f movie.Favorite) (string, error) {
	return c.favorite(ctx, "/remove_favorite", f)
}

func (c *Client) favorite(ctx context.Context, path string, f movie.Favorite) (string, error) {
	var payload messagePayload
	if err := c.call(ctx, http.MethodPost, path, f, &payload); err != nil {
		return "", err
	}
	if payload.Message == "" {
		return "", movie.ErrFavoriteFailure
	}
	return payload.Message, nil
}

// call sends in as JSON (when not nil) and decodes a 2xx body into out.
func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, contentType, body, true)
	if err != nil {
		return err
	}
	if resp.status < 200 || resp.status > 299 {
		return applicationError(resp)
	}

	var ep errorPayload
	if json.Unmarshal(resp.body, &ep) == nil && ep.Error != "" {
		return &errs.Error{Code: errs.EINTERNAL, Message: ep.Error}
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// do runs one request through the limiter and the circuit breaker. Transport
// failures and 5xx answers count against the breaker, 4xx answers do not.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, follow bool) (response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, err
		}
	}

	resp, err := c.cb.Execute(func() (response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return response{}, fmt.Errorf("create request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")

		hc := c.http
		if !follow {
			noRedirect := *c.http
			noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
			hc = &noRedirect
		}

		res, err := hc.Do(req)
		if err != nil {
			return response{}, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer res.Body.Close()

		b, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
		if err != nil {
			return response{}, fmt.Errorf("read %s response: %w", path, err)
		}

		r := response{status: res.StatusCode, location: res.Header.Get("Location"), body: b}
		if r.status >= http.StatusInternalServerError {
			return r, applicationError(r)
		}
		return r, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("movie service request rejected", "path", path, "error", err)
		}
		return response{}, err
	}
	return resp, nil
}

func applicationError(r response) error {
	var ep errorPayload
	msg := ""
	if json.Unmarshal(r.body, &ep) == nil {
		msg = ep.Error
	}
	if msg == "" {
		msg = http.StatusText(r.status)
	}
	return &errs.Error{Code: codeFor(r.status), Message: msg}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return errs.EINVALID
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.EUNAUTHORIZED
	case http.StatusNotFound:
		return errs.ENOTFOUND
	case http.StatusConflict:
		return errs.ECONFLICT
	case http.StatusNotImplemented:
		return errs.ENOTIMPLEMENTED
	default:
		return errs.EINTERNAL
	}
}
