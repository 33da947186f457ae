// Package gateway runs an http.Handler behind API Gateway proxy events.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Handle converts req into an *http.Request, serves it with h and converts
// the recorded response back.
func Handle(ctx context.Context, h http.Handler, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	r, err := NewRequest(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	w := newResponseWriter()
	h.ServeHTTP(w, r)
	return w.proxyResponse(), nil
}

// NewRequest builds the *http.Request described by a proxy event.
func NewRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 request body: %w", err)
		}
		body = decoded
	}

	u := url.URL{Path: req.Path, RawQuery: queryString(req).Encode()}
	r, err := http.NewRequestWithContext(ctx, req.HTTPMethod, u.RequestURI(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s %s: %w", req.HTTPMethod, req.Path, err)
	}

	for k, vs := range req.MultiValueHeaders {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	for k, v := range req.Headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	if host := r.Header.Get("Host"); host != "" {
		r.Host = host
	}
	if ip := req.RequestContext.Identity.SourceIP; ip != "" {
		r.RemoteAddr = ip
	}
	r.RequestURI = u.RequestURI()
	return r, nil
}

func queryString(req events.APIGatewayProxyRequest) url.Values {
	q := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := q[k]; !ok {
			q.Set(k, v)
		}
	}
	return q
}

type responseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: make(http.Header)}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.body.Write(p)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status != 0 {
		return
	}
	w.status = status
}

func (w *responseWriter) proxyResponse() events.APIGatewayProxyResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	if w.header.Get("Content-Type") == "" && w.body.Len() > 0 {
		w.header.Set("Content-Type", http.DetectContentType(w.body.Bytes()))
	}

	resp := events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           make(map[string]string, len(w.header)),
		MultiValueHeaders: make(map[string][]string, len(w.header)),
	}
	for k, vs := range w.header {
		if len(vs) > 0 {
			resp.Headers[k] = vs[0]
		}
		resp.MultiValueHeaders[k] = vs
	}

	if isText(w.header.Get("Content-Type")) {
		resp.Body = w.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}

func isText(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		mediaType == "application/xml",
		mediaType == "application/javascript",
		strings.HasSuffix(mediaType, "+json"):
		return true
	}
	return false
}
