package dedup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/unkn0wn-root/mpsdk"
	"github.com/unkn0wn-root/mpsdk/codec"
	"github.com/unkn0wn-root/mpsdk/inflight"
	"github.com/unkn0wn-root/mpsdk/internal/util"
	"github.com/unkn0wn-root/mpsdk/respcache"
)

// DefaultMaxBody caps webhook bodies read into memory.
const DefaultMaxBody int64 = 1 << 20

// WebhookResponse is a captured reply of the wrapped handler.
type WebhookResponse struct {
	Status int         `msgpack:"s" json:"status" cbor:"1,keyasint"`
	Header http.Header `msgpack:"h" json:"header" cbor:"2,keyasint"`
	Body   []byte      `msgpack:"b" json:"body" cbor:"3,keyasint"`
}

type HandlerOptions struct {
	// KeyHeader names a header carrying a platform message id. When set and
	// present on a request its value is the key; otherwise the key is a digest
	// of method, path and body.
	KeyHeader string
	MaxBody   int64                         // 0 => DefaultMaxBody
	Codec     codec.Codec[WebhookResponse] // nil => codec.Msgpack

	Responses respcache.Cache
	Registry  inflight.Registry[string]
	Disabled  bool
	Period    time.Duration
	Logger    mpsdk.Logger
	Hooks     mpsdk.Hooks
}

// Handler is net/http middleware that answers redelivered webhooks with the
// reply captured the first time. Replies with a 5xx status are not retained,
// so the platform's retry reaches the wrapped handler again.
type Handler struct {
	next      http.Handler
	keyHeader string
	maxBody   int64
	coord     *Coordinator[*delivery, WebhookResponse]
	log       mpsdk.Logger
}

var _ http.Handler = (*Handler)(nil)

// delivery is one inbound webhook with its body already buffered.
type delivery struct {
	r    *http.Request
	body []byte
}

// failedReply carries a 5xx reply through the coordinator as an error so it is
// shared with joiners but never published.
type failedReply struct{ resp WebhookResponse }

func (e *failedReply) Error() string { return http.StatusText(e.resp.Status) }

func NewHandler(next http.Handler, opts HandlerOptions) (*Handler, error) {
	if next == nil {
		return nil, ErrNilHandler
	}
	h := &Handler{
		next:      next,
		keyHeader: opts.KeyHeader,
		maxBody:   util.Coalesce(opts.MaxBody, DefaultMaxBody),
		log:       util.Coalesce[mpsdk.Logger](opts.Logger, mpsdk.NopLogger{}),
	}
	cdc := opts.Codec
	if cdc == nil {
		cdc = codec.Msgpack[WebhookResponse]{}
	}
	coord, err := New(h.serve, Options[*delivery, WebhookResponse]{
		Key:       h.key,
		Codec:     cdc,
		Responses: opts.Responses,
		Registry:  opts.Registry,
		Disabled:  opts.Disabled,
		Period:    opts.Period,
		Logger:    opts.Logger,
		Hooks:     opts.Hooks,
	})
	if err != nil {
		return nil, err
	}
	h.coord = coord
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "cannot read request body", http.StatusBadRequest)
		return
	}

	resp, err := h.coord.Do(r.Context(), &delivery{r: r, body: body})
	if err != nil {
		var failed *failedReply
		switch {
		case errors.As(err, &failed):
			resp = failed.resp
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		default:
			h.log.Warn("webhook dedup failed", mpsdk.Fields{"path": r.URL.Path, "err": err})
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}
	writeReply(w, resp)
}

// Close releases the owned response cache.
func (h *Handler) Close(ctx context.Context) error { return h.coord.Close(ctx) }

func (h *Handler) key(d *delivery) (string, error) {
	if h.keyHeader != "" {
		if id := d.r.Header.Get(h.keyHeader); id != "" {
			return util.Digest("webhook-id", []byte(id)), nil
		}
	}
	return util.Digest("webhook", []byte(d.r.Method), []byte(d.r.URL.Path), d.body), nil
}

func (h *Handler) serve(ctx context.Context, d *delivery) (WebhookResponse, error) {
	r := d.r.Clone(ctx)
	r.Body = io.NopCloser(bytes.NewReader(d.body))
	r.ContentLength = int64(len(d.body))

	rec := &recorder{header: make(http.Header)}
	h.next.ServeHTTP(rec, r)

	resp := WebhookResponse{
		Status: rec.status,
		Header: rec.header,
		Body:   rec.body.Bytes(),
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	if resp.Status >= http.StatusInternalServerError {
		return WebhookResponse{}, &failedReply{resp: resp}
	}
	return resp, nil
}

func writeReply(w http.ResponseWriter, resp WebhookResponse) {
	dst := w.Header()
	for k, vs := range resp.Header {
		dst[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// recorder buffers what the wrapped handler writes.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(b)
}
