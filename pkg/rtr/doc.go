/*
Package rtr implements the RTR client façade (spec §4.1): the single
point of contact between the orchestrator and the remote endpoint
agent's Real-Time Response channel.

# Responsibilities

  - Host discovery, cached in a bounded-TTL registry that coalesces
    concurrent lookups of the same hostname via golang.org/x/sync/singleflight.
  - Session lifecycle: init_session, init_batch, pulse, close.
  - Command dispatch and polling: run, status.
  - File listing and retrieval: list_files, fetch_file.
  - A tenant-scoped cloud-file cache so a tool payload is uploaded to
    RTR's put-file library once per tenant, not once per host.

# Retry policy

Every call goes through an *http.Client built by
hashicorp/go-retryablehttp with capped exponential backoff (attempts,
base and max from config.Retry; the library's default backoff doubles
on each retry, and config.Retry.Factor is not read). HTTP responses are classified by
classifyStatus into a TransientError (network failure, 429, 5xx —
retried) or a FatalError (401/403/404 and anything else — surfaced
immediately, per spec §7).

This package never talks to S3 or drives the collection state machine;
those live in pkg/objectstore and pkg/collector respectively.
*/
package rtr
