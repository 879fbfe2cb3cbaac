package usecase_test

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

type recordedCall struct {
	Endpoint string
	Params   url.Values
}

// fakeProvider answers calls from canned bodies keyed by endpoint plus the
// encoded query, falling back to the bare endpoint.
type fakeProvider struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	handler func(endpoint string, params url.Values) ([]byte, error)
	calls   []recordedCall
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{bodies: map[string]string{}, errs: map[string]error{}}
}

func (p *fakeProvider) on(endpoint string, params url.Values, body string) *fakeProvider {
	p.bodies[fakeKey(endpoint, params)] = body
	return p
}

func (p *fakeProvider) fail(endpoint string, params url.Values, err error) *fakeProvider {
	p.errs[fakeKey(endpoint, params)] = err
	return p
}

func (p *fakeProvider) Call(_ context.Context, endpoint string, params url.Values) ([]byte, error) {
	p.mu.Lock()
	p.calls = append(p.calls, recordedCall{Endpoint: endpoint, Params: params})
	handler := p.handler
	p.mu.Unlock()

	if handler != nil {
		return handler(endpoint, params)
	}
	for _, key := range []string{fakeKey(endpoint, params), fakeKey(endpoint, withoutPaging(params)), endpoint} {
		if err, ok := p.errs[key]; ok {
			return nil, err
		}
		if body, ok := p.bodies[key]; ok {
			return []byte(body), nil
		}
	}
	return []byte(`[]`), nil
}

func (p *fakeProvider) CallCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(len(p.calls))
}

func (p *fakeProvider) callsTo(prefix string) []recordedCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]recordedCall, 0, len(p.calls))
	for _, call := range p.calls {
		if strings.HasPrefix(call.Endpoint, prefix) {
			out = append(out, call)
		}
	}
	return out
}

func fakeKey(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return fmt.Sprintf("%s?%s", endpoint, params.Encode())
}

func withoutPaging(params url.Values) url.Values {
	out := make(url.Values, len(params))
	for key, values := range params {
		out[key] = values
	}
	out.Del("limit")
	out.Del("offset")
	return out
}
