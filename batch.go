package conduit

import (
	"context"
	"fmt"
	"strings"
)

type batchResult struct {
	index int
	resp  *Response
	err   error
}

// All issues every request concurrently with the caller's ctx and returns the
// responses in input order. It returns as soon as any request fails; the
// remaining requests are not cancelled and run to completion in the
// background.
func (c *Client) All(ctx context.Context, requests []BatchRequest) ([]*Response, error) {
	responses := make([]*Response, len(requests))
	results := make(chan batchResult, len(requests))

	for i, r := range requests {
		go func() {
			resp, err := c.dispatch(ctx, r)
			results <- batchResult{index: i, resp: resp, err: err}
		}()
	}

	for range requests {
		res := <-results
		if res.err != nil {
			return nil, res.err
		}
		responses[res.index] = res.resp
	}
	return responses, nil
}

// Series issues the requests one after another, each starting only after the
// previous one completed. It stops at the first failure.
func (c *Client) Series(ctx context.Context, requests []BatchRequest) ([]*Response, error) {
	responses := make([]*Response, 0, len(requests))
	for _, r := range requests {
		resp, err := c.dispatch(ctx, r)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// dispatch routes r to the verb function for its method. Verbs without a body
// ignore r.Body.
func (c *Client) dispatch(ctx context.Context, r BatchRequest) (*Response, error) {
	switch strings.ToUpper(r.Method) {
	case MethodGet:
		return c.Get(ctx, r.Endpoint, r.Headers, r.Params, r.Options)
	case MethodPost:
		return c.Post(ctx, r.Endpoint, r.Headers, r.Params, r.Body, r.Options)
	case MethodPut:
		return c.Put(ctx, r.Endpoint, r.Headers, r.Params, r.Body, r.Options)
	case MethodDelete:
		return c.Delete(ctx, r.Endpoint, r.Headers, r.Params, r.Options)
	case MethodPatch:
		return c.Patch(ctx, r.Endpoint, r.Headers, r.Params, r.Body, r.Options)
	case MethodHead:
		return c.Head(ctx, r.Endpoint, r.Headers, r.Params, r.Options)
	case MethodOptions:
		return c.Options(ctx, r.Endpoint, r.Headers, r.Params, r.Options)
	default:
		return nil, fmt.Errorf("unsupported batch method %q", r.Method)
	}
}
