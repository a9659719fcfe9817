package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hamed0406/apicanary/internal/domain"
)

type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker returns a checker whose connections are never reused and
// whose redirects are reported rather than followed. No client timeout is
// set; callers bound the request through its context.
func NewHTTPChecker() *HTTPChecker {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DisableKeepAlives = true
	return &HTTPChecker{
		Client: &http.Client{
			Transport: tr,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *HTTPChecker) NewRequest(ctx context.Context, method string, t Target, header http.Header) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.URL(), nil)
	if err != nil {
		return nil, err
	}
	req.Host = t.HostHeader()
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// Do waits for the complete response, body included.
func (c *HTTPChecker) Do(req *http.Request) (domain.RawResponse, error) {
	resp, err := c.Client.Do(req)
	if err != nil {
		return domain.RawResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RawResponse{}, fmt.Errorf("read body: %w", err)
	}
	return domain.RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       string(body),
	}, nil
}
