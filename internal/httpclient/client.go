// Package httpclient wraps net/http with the three things the probe
// suite needs and does not want to think about per-call: rate limiting,
// a hard request budget, and turning every transport failure into a
// regular (if synthetic) response so probe logic never special-cases
// connection errors. Request/response construction below follows the
// shape of the teacher's own HTTPTool (net/http.Client, manual header
// copy, read-all body) rather than reaching for valyala/fasthttp — the
// teacher itself never imports fasthttp anywhere despite declaring it in
// go.mod, so there is no idiom to learn from it here (see DESIGN.md).
package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/ratelimit"
	"github.com/blackcoderx/apisentinel/internal/scanerrors"
)

// DefaultTimeout is the per-request timeout used unless overridden.
const DefaultTimeout = 12 * time.Second

// Client is a budgeted, rate-limited HTTP client bound to one base URL
// for the lifetime of a single job.
type Client struct {
	BaseURL string

	http    *http.Client
	limiter *ratelimit.Bucket

	mu     sync.Mutex
	budget int
	spent  int
}

// New builds a Client with the given token-bucket rate (tokens/sec) and
// total request budget for its owning job.
func New(baseURL string, rate float64, budget int) *Client {
	return &Client{
		BaseURL: baseURL,
		http: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		limiter: ratelimit.New(rate),
		budget:  budget,
	}
}

// Exhausted reports whether the client's request budget has been spent.
func (c *Client) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spent >= c.budget
}

// Spent returns how many requests this client has issued so far.
func (c *Client) Spent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spent
}

// Do issues one HTTP request. It blocks on the rate limiter, consumes one
// unit of request budget, and on transport failure returns a synthetic
// 599 response rather than an error — the only error this method itself
// returns is *scanerrors.RequestBudgetExhausted once the budget is spent.
func (c *Client) Do(req model.HTTPRequest) (model.HTTPResponse, error) {
	c.mu.Lock()
	if c.spent >= c.budget {
		c.mu.Unlock()
		return model.HTTPResponse{}, &scanerrors.RequestBudgetExhausted{Budget: c.budget}
	}
	c.spent++
	c.mu.Unlock()

	c.limiter.Take(1)

	start := time.Now()

	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = bytes.NewBufferString(req.Body)
	}

	httpReq, err := http.NewRequest(strings.ToUpper(req.Method), req.URL, bodyReader)
	if err != nil {
		return syntheticFailure(req.URL, err, start), nil
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return syntheticFailure(httpReq.URL.String(), err, start), nil
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return syntheticFailure(httpReq.URL.String(), err, start), nil
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k, v := range httpResp.Header {
		headers[k] = strings.Join(v, ", ")
	}

	return model.HTTPResponse{
		StatusCode: httpResp.StatusCode,
		Headers:    headers,
		Body:       string(bodyBytes),
		SizeBytes:  len(bodyBytes),
		ElapsedMs:  float64(time.Since(start).Microseconds()) / 1000.0,
	}, nil
}

// syntheticFailure coerces any transport-level error into the fixed
// 599 response shape the spec requires, wrapping the underlying cause in
// a TargetUnreachableError purely for logging context.
func syntheticFailure(url string, cause error, start time.Time) model.HTTPResponse {
	wrapped := &scanerrors.TargetUnreachableError{URL: url, Cause: cause}
	return model.HTTPResponse{
		StatusCode: 599,
		Headers:    map[string]string{},
		Body:       wrapped.Error(),
		SizeBytes:  len(wrapped.Error()),
		ElapsedMs:  float64(time.Since(start).Microseconds()) / 1000.0,
	}
}
