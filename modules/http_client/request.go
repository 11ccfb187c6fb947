// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package http_client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/timestr"
)

// Response is what request keywords return. Fields are reachable with the
// extended variable syntax, e.g. ${resp.status_code}.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       string
}

// JSON decodes the body.
func (r *Response) JSON() (any, error) {
	var v any
	if err := json.Unmarshal([]byte(r.Body), &v); err != nil {
		return nil, err
	}
	return normalizeJSON(v), nil
}

func (l *Library) keywords() []*library.Keyword {
	return []*library.Keyword{
		{
			Name: "GET",
			Args: []string{"url", "**headers"},
			Doc:  "Sends a GET request and returns the response.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				return l.do(ctx, http.MethodGet, literal.ToString(c.Arg(0)), nil, c.Named)
			},
		},
		{
			Name: "POST",
			Args: []string{"url", "body=None", "**headers"},
			Doc:  "Sends a POST request and returns the response. Lists and dictionaries are sent as JSON.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				return l.do(ctx, http.MethodPost, literal.ToString(c.Arg(0)), c.Arg(1), c.Named)
			},
		},
		{
			Name: "Request",
			Args: []string{"method", "url", "body=None", "**headers"},
			Doc:  "Sends a request with any method and returns the response.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				method := strings.ToUpper(literal.ToString(c.Arg(0)))
				return l.do(ctx, method, literal.ToString(c.Arg(1)), c.Arg(2), c.Named)
			},
		},
		{
			Name:  "Status Should Be",
			Args:  []string{"expected_status", "response=None", "msg=None"},
			Types: map[string]string{"expected_status": "int"},
			Doc:   "Fails if the status code of the response, by default the last one, is not the expected one.",
			Run:   l.statusShouldBe,
		},
		{
			Name: "Response Should Contain",
			Args: []string{"text", "response=None"},
			Doc:  "Fails if the body of the response, by default the last one, does not contain the text.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				resp, err := l.response(c.Arg(1))
				if err != nil {
					return nil, err
				}
				text := literal.ToString(c.Arg(0))
				if !strings.Contains(resp.Body, text) {
					return nil, kwerrors.Failf("Response body of %s %s does not contain %s.", resp.Method, resp.URL, literal.Repr(text))
				}
				return nil, nil
			},
		},
		{
			Name: "Get JSON",
			Args: []string{"response=None"},
			Doc:  "Decodes the body of the response, by default the last one, as JSON.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				resp, err := l.response(c.Arg(0))
				if err != nil {
					return nil, err
				}
				v, err := resp.JSON()
				if err != nil {
					return nil, kwerrors.Failf("Response body of %s %s is not JSON: %s", resp.Method, resp.URL, err)
				}
				return v, nil
			},
		},
		{
			Name:  "Set Request Timeout",
			Args:  []string{"timeout"},
			Types: map[string]string{"timeout": "timedelta"},
			Doc:   "Sets the timeout of requests made by this client and returns the previous one.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				old := l.setTimeout(c.Arg(0).(time.Duration))
				return timestr.Format(old), nil
			},
		},
	}
}

func (l *Library) do(ctx context.Context, method, url string, body any, headers map[string]any) (*Response, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request.", "method", method, "url", url)

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, kwerrors.Failf("Creating %s request to '%s' failed: %s", method, url, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, k := range literal.SortedKeys(headers) {
		req.Header.Set(k, literal.ToString(headers[k]))
	}

	l.mu.Lock()
	client := l.client
	l.mu.Unlock()
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		return nil, kwerrors.Failf("%s request to '%s' failed: %s", method, url, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, kwerrors.Failf("Reading response body failed: %s", err)
	}
	logger.Info("Received HTTP response.", "status", resp.Status, "bytes", len(bodyBytes))

	out := &Response{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    make(map[string]string, len(resp.Header)),
		Body:       string(bodyBytes),
	}
	for k := range resp.Header {
		out.Headers[k] = resp.Header.Get(k)
	}
	l.remember(out)
	return out, nil
}

// encodeBody turns a keyword argument into a request body. Strings are sent
// as-is, containers as JSON.
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		if b == "None" || b == "" {
			return nil, "", nil
		}
		return strings.NewReader(b), "", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", kwerrors.Failf("Encoding request body as JSON failed: %s", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func (l *Library) response(arg any) (*Response, error) {
	if resp, ok := arg.(*Response); ok {
		return resp, nil
	}
	if s, ok := arg.(string); ok && s != "None" && s != "" {
		return nil, kwerrors.Failf("Expected a response, got %s.", literal.Repr(arg))
	}
	resp := l.lastResponse()
	if resp == nil {
		return nil, kwerrors.Failf("No request has been made.")
	}
	return resp, nil
}

func (l *Library) statusShouldBe(_ context.Context, c library.Call) (any, error) {
	resp, err := l.response(c.Arg(1))
	if err != nil {
		return nil, err
	}
	expected := c.Arg(0).(int)
	if resp.StatusCode == expected {
		return nil, nil
	}
	if msg, ok := c.Arg(2).(string); ok && msg != "None" && msg != "" {
		return nil, kwerrors.Failf("%s", msg)
	}
	return nil, kwerrors.Failf("Url: %s Expected status: %d != %d", resp.URL, resp.StatusCode, expected)
}

// normalizeJSON turns float64 numbers without fraction into ints.
func normalizeJSON(v any) any {
	switch x := v.(type) {
	case float64:
		if x == float64(int(x)) {
			return int(x)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalizeJSON(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeJSON(x[k])
		}
		return x
	}
	return v
}

