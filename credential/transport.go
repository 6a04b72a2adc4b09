package credential

import (
	"context"
	"io"
	"net/http"
)

// Refresher is the token side of a credential cache, satisfied by *TokenCache.
type Refresher interface {
	GetInfo(ctx context.Context) (Credential, error)
	RefreshInfo(ctx context.Context, oldValue string) (Credential, error)
}

var _ Refresher = (*TokenCache)(nil)

// Transport attaches the access token to outbound platform calls and, when
// the platform rejects it, refreshes through the cache and retries once.
// Concurrent rejections of the same token cost a single fetch.
type Transport struct {
	Tokens Refresher
	Base   http.RoundTripper // nil => http.DefaultTransport
	// Param is the query parameter carrying the token; "" => "access_token".
	Param string
	// Rejected decides whether resp means the token was refused; nil => HTTP 401.
	// It must not consume resp.Body.
	Rejected func(resp *http.Response) bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	cred, err := t.Tokens.GetInfo(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := t.base().RoundTrip(t.authorize(req, req.Body, cred.Value))
	if err != nil || !t.rejected(resp) {
		return resp, err
	}

	body, ok := rewind(req)
	if !ok {
		return resp, nil
	}
	fresh, err := t.Tokens.RefreshInfo(ctx, cred.Value)
	if err != nil {
		drain(resp)
		return nil, err
	}
	drain(resp)
	return t.base().RoundTrip(t.authorize(req, body, fresh.Value))
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) rejected(resp *http.Response) bool {
	if t.Rejected != nil {
		return t.Rejected(resp)
	}
	return resp.StatusCode == http.StatusUnauthorized
}

// authorize clones req; a RoundTripper must not modify the caller's request.
func (t *Transport) authorize(req *http.Request, body io.ReadCloser, token string) *http.Request {
	out := req.Clone(req.Context())
	out.Body = body
	param := t.Param
	if param == "" {
		param = "access_token"
	}
	q := out.URL.Query()
	q.Set(param, token)
	out.URL.RawQuery = q.Encode()
	return out
}

// rewind returns a fresh body for a retry, or false if the request cannot be replayed.
func rewind(req *http.Request) (io.ReadCloser, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	b, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	return b, true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
