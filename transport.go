package conduit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/klauspost/compress/gzip"
)

const defaultMaxSockets = 100

// Transport sends requests over keep-alive connection pools, one for plain
// HTTP and one for HTTPS, each capped at maxSockets connections per host.
// Requests beyond the cap wait inside net/http for a free connection.
type Transport struct {
	plain  *http.Client
	secure *http.Client
}

// NewTransport builds both pools.
func NewTransport(maxSockets int) *Transport {
	if maxSockets <= 0 {
		maxSockets = defaultMaxSockets
	}
	return &Transport{
		plain:  &http.Client{Transport: pooledTransport(maxSockets)},
		secure: &http.Client{Transport: pooledTransport(maxSockets)},
	}
}

func pooledTransport(maxSockets int) *http.Transport {
	t := cleanhttp.DefaultPooledTransport()
	t.MaxConnsPerHost = maxSockets
	t.MaxIdleConnsPerHost = maxSockets
	// decoding is driven by the response's Content-Encoding header below
	t.DisableCompression = true
	return t
}

func (t *Transport) clientFor(req *http.Request) *http.Client {
	if req.URL != nil && req.URL.Scheme == "https" {
		return t.secure
	}
	return t.plain
}

// Send performs the exchange and buffers the entire body before returning.
// Errors are returned raw; the caller classifies them.
func (t *Transport) Send(req *http.Request) (*Response, error) {
	resp, err := t.clientFor(req).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	return &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Data:    decodeData(body),
		Raw:     body,
	}, nil
}

// CloseIdleConnections releases idle sockets in both pools.
func (t *Transport) CloseIdleConnections() {
	t.plain.CloseIdleConnections()
	t.secure.CloseIdleConnections()
}

// readBody reads the response to completion, inflating it first when the
// server declared gzip content encoding.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return []byte{}, nil
			}
			return nil, err
		}
		defer zr.Close()
		r = zr
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeData returns the parsed JSON document, or the body text when it is
// not valid JSON.
func decodeData(body []byte) any {
	var parsed any
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &parsed); err == nil {
			return parsed
		}
	}
	return string(body)
}

// encodeBody serializes a request body to JSON.
func encodeBody(body any) ([]byte, error) {
	return json.Marshal(body)
}

func isTimeout(ctx context.Context, parent context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil
}
