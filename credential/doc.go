// Package credential caches the bearer credentials outbound platform calls need:
// the long-lived access token and the short-lived API ticket.
//
// Each cache owns exactly one Credential. Reads are lock-free while the
// credential is valid. Refreshes run through a singleflight group keyed by the
// cache name and re-check the condition before fetching, so N concurrent
// callers on an expired cache cause one fetch and all observe its result (or
// its error). A panicking fetcher is reported as ErrFetchAborted.
//
// Token consumers can tell when the platform rejects a token; they report it
// through RefreshInfo(ctx, rejected). Only the first report carrying the value
// that is still installed triggers a fetch, later ones get the fresh value:
//
//	tok, _ := tokens.Token(ctx)
//	resp := call(tok)
//	if rejected(resp) {
//	    cred, err := tokens.RefreshInfo(ctx, tok)
//	    ...
//	}
//
// Construct caches explicitly at startup and inject them into API clients.
// There is no package-level state.
package credential
