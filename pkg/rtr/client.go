package rtr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/cuemby/fnerd-orchestrator/pkg/config"
	"github.com/cuemby/fnerd-orchestrator/pkg/metrics"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// Client is the RTR client façade (spec §4.1). It is safe for
// concurrent use by every worker in the fan-out executor (spec §5:
// "the RTR façade is thread-safe and may be called from all workers
// concurrently").
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	registry *hostRegistry
	tenant   *tenantCache
}

// New builds a façade client. httpClient, when nil, is constructed
// from cfg.Retry via hashicorp/go-retryablehttp so every call inherits
// the capped exponential backoff policy from spec §4.3/§7.
func New(baseURL, token string, cfg config.Retry, httpClient *http.Client) *Client {
	if httpClient == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = cfg.MaxAttempts - 1 // RetryMax counts retries after the first attempt
		rc.RetryWaitMin = cfg.BaseBackoff
		rc.RetryWaitMax = cfg.MaxBackoff
		rc.Logger = nil
		rc.CheckRetry = retryablehttp.ErrorPropagatedRetryPolicy
		rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				metrics.RTRRetries.WithLabelValues(req.URL.Path).Inc()
			}
		}
		httpClient = rc.StandardClient()
	}
	return &Client{
		baseURL:  baseURL,
		token:    token,
		http:     httpClient,
		registry: newHostRegistry(5 * time.Minute),
		tenant:   newTenantCache(),
	}
}

func (c *Client) do(ctx context.Context, method, op, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rtr: %s: marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("rtr: %s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RTRRequestsTotal.WithLabelValues(op, "error").Inc()
		return &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if err := classifyStatus(op, resp.StatusCode, string(respBody)); err != nil {
		metrics.RTRRequestsTotal.WithLabelValues(op, "failure").Inc()
		return err
	}
	metrics.RTRRequestsTotal.WithLabelValues(op, "success").Inc()

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("rtr: %s: decode response: %w", op, err)
		}
	}
	return nil
}

// DiscoverHost resolves a hostname to an aid/cid/platform record,
// served from the bounded-TTL registry unless forceRefresh bypasses it.
func (c *Client) DiscoverHost(ctx context.Context, hostname string, forceRefresh bool) (types.Host, error) {
	return c.registry.resolve(ctx, hostname, forceRefresh, c.discoverHostUncached)
}

func (c *Client) discoverHostUncached(ctx context.Context, hostname string) (types.Host, error) {
	var queryResp struct {
		AIDs []string `json:"aids"`
	}
	if err := c.do(ctx, http.MethodPost, "discover_host.query", "/hosts/actions/query",
		map[string]string{"hostname": hostname}, &queryResp); err != nil {
		return types.Host{}, err
	}
	if len(queryResp.AIDs) == 0 {
		return types.Host{}, &FatalError{Op: "discover_host", Kind: types.KindNotFoundOffline, Err: fmt.Errorf("no host matched %q", hostname)}
	}

	var host types.Host
	if err := c.do(ctx, http.MethodPost, "discover_host.get", "/hosts/entities/get",
		map[string]string{"aid": queryResp.AIDs[0]}, &host); err != nil {
		return types.Host{}, err
	}
	if !host.Online {
		return types.Host{}, &FatalError{Op: "discover_host", Kind: types.KindNotFoundOffline, Err: fmt.Errorf("host %q is offline", hostname)}
	}
	return host, nil
}

// InitSession opens a single-host RTR session.
func (c *Client) InitSession(ctx context.Context, aid string) (types.Session, error) {
	var session types.Session
	err := c.do(ctx, http.MethodPost, "init_session", "/rtr/sessions/init",
		map[string]string{"aid": aid}, &session)
	return session, err
}

// InitBatch opens sessions across many hosts in one call.
func (c *Client) InitBatch(ctx context.Context, aids []string, hostsTimeout time.Duration) (types.BatchSession, error) {
	var batch types.BatchSession
	err := c.do(ctx, http.MethodPost, "init_batch", "/rtr/batch/init",
		map[string]interface{}{"aids": aids, "timeout_seconds": int(hostsTimeout.Seconds())}, &batch)
	return batch, err
}

// Pulse keeps a session alive past its idle timeout.
func (c *Client) Pulse(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "pulse", "/rtr/sessions/pulse",
		map[string]string{"session_id": sessionID}, nil)
}

// Run submits a command and returns its cloud_request_id for polling.
// Each submission carries a client-generated idempotency key so a
// retry of this same call (by go-retryablehttp's transport, or by a
// caller resubmitting after a timeout) never double-executes the
// command on the host.
func (c *Client) Run(ctx context.Context, req types.CommandRequest) (string, error) {
	path := "/rtr/commands/" + string(req.Privilege)
	var resp struct {
		CloudRequestID string `json:"cloud_request_id"`
	}
	err := c.do(ctx, http.MethodPost, "run", path, map[string]string{
		"session_id":      req.SessionID,
		"batch_id":        req.BatchID,
		"base_command":    req.BaseCommand,
		"command":         req.FullCommandString,
		"idempotency_key": uuid.NewString(),
	}, &resp)
	return resp.CloudRequestID, err
}

// Status polls for a submitted command's terminal state.
func (c *Client) Status(ctx context.Context, cloudRequestID string) (types.CommandResult, error) {
	var result types.CommandResult
	err := c.do(ctx, http.MethodGet, "status", "/rtr/commands/status?cloud_request_id="+cloudRequestID, nil, &result)
	return result, err
}

// ListFiles lists files RTR has staged for a session.
func (c *Client) ListFiles(ctx context.Context, sessionID string) ([]types.RemoteArtifact, error) {
	var resp struct {
		Files []types.RemoteArtifact `json:"files"`
	}
	err := c.do(ctx, http.MethodGet, "list_files", "/rtr/sessions/files?session_id="+sessionID, nil, &resp)
	return resp.Files, err
}

// FetchFile streams a staged file's archive-wrapped bytes.
func (c *Client) FetchFile(ctx context.Context, sessionID, sha256 string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/rtr/sessions/file?session_id="+sessionID+"&sha256="+sha256, nil)
	if err != nil {
		return nil, fmt.Errorf("rtr: fetch_file: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransientError{Op: "fetch_file", Err: err}
	}
	if err := classifyStatus("fetch_file", resp.StatusCode, ""); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// Close tears down a session.
func (c *Client) Close(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "close", "/rtr/sessions/"+sessionID, nil, nil)
}

// PutTenantFile uploads a payload to the tenant-scoped cloud file
// library, skipping the call entirely if this (cid, filename) was
// already uploaded by an earlier DEPLOY in this process (spec §4.3
// step 2). A fatal put_denied evicts the cache entry so the next
// attempt retries instead of assuming the file is staged.
func (c *Client) PutTenantFile(ctx context.Context, cid, filename string, payload io.Reader) error {
	if c.tenant.alreadyUploaded(cid, filename) {
		return nil
	}
	body, err := io.ReadAll(payload)
	if err != nil {
		return fmt.Errorf("rtr: put_tenant_file: read payload: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "put_tenant_file", "/rtr/put-files",
		map[string]string{"cid": cid, "name": filename, "content": string(body)}, nil)
	if err != nil {
		var fatal *FatalError
		if errors.As(err, &fatal) {
			c.tenant.evict(cid, filename)
		}
		return err
	}
	c.tenant.markUploaded(cid, filename)
	return nil
}
