package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/errors/v5"
)

// APIError is a non-2xx answer from the hosted backend.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("hosted api: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("hosted api: %d: %s", e.StatusCode, e.Message)
}

// errorBody covers the error shapes of the auth and REST endpoints.
type errorBody struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Code             any    `json:"code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

func codeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	return ""
}

type request struct {
	method string
	path   string
	query  url.Values
	bearer string
	header http.Header
	body   any
}

type transport struct {
	baseURL *url.URL
	apiKey  string
}

func newTransport(baseURL, apiKey string) (*transport, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "url.Parse()")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Newf("invalid base url %q", baseURL)
	}

	return &transport{baseURL: u, apiKey: apiKey}, nil
}

// do sends req with client and decodes a JSON answer into out when out is not nil.
func (t *transport) do(ctx context.Context, client *http.Client, req request, out any) error {
	u := *t.baseURL
	u.Path += req.path
	if req.query != nil {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return errors.Wrap(err, "json.Marshal()")
		}
		body = bytes.NewReader(b)
	}

	r, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return errors.Wrap(err, "http.NewRequestWithContext()")
	}
	for k, v := range req.header {
		r.Header[k] = v
	}
	r.Header.Set("apikey", t.apiKey)
	r.Header.Set("Accept", "application/json")
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.bearer != "" {
		r.Header.Set("Authorization", "Bearer "+req.bearer)
	}

	resp, err := client.Do(r)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.method, req.path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "io.ReadAll()")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "json.Unmarshal()")
	}

	return nil
}

func newAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var b errorBody
	if err := json.Unmarshal(data, &b); err != nil {
		return apiErr
	}

	switch {
	case b.ErrorCode != "":
		apiErr.Code = b.ErrorCode
	case b.Error != "":
		apiErr.Code = b.Error
	default:
		if s, ok := b.Code.(string); ok {
			apiErr.Code = s
		}
	}

	for _, m := range []string{b.Msg, b.Message, b.ErrorDescription} {
		if m != "" {
			apiErr.Message = m

			break
		}
	}

	return apiErr
}
