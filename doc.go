// Package mpsdk is the caching and coordination core of a messaging-platform
// SDK: credentials that refresh themselves, and webhook handling that stays
// idempotent when the platform redelivers a message.
//
// Components:
//   - credential: access token and API ticket caches. Lock-free reads while
//     valid; one fetch per expiry no matter how many callers are waiting.
//   - respcache: responses already produced, kept for [Period, 2*Period].
//   - inflight: computations still running, keyed like respcache.
//   - dedup: composes respcache and inflight so a message is handled once.
//   - provider, codec: byte stores and serializers for multi-replica setups.
//
// This package holds only what the components share: Logger and Hooks.
//
// Keys:
//
//	cred:<ns>:<name>  - credentials shared through Redis (credential/redisstore)
//	resp:<ns>:<key>   - provider-backed responses (respcache.Provided)
//
// Typical webhook wiring:
//
//	h, _ := dedup.NewHandler(platformHandler, dedup.HandlerOptions{
//	    KeyHeader: "X-Message-Id",
//	    Logger:    zaplog.New(zl),
//	})
//	defer h.Close(ctx)
//	http.Handle("/callback", h)
package mpsdk
