package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yashrajoria/order-saga-service/pkg/apperrors"
)

// gatewayTimeout bounds every outbound collaborator call so a slow service
// cannot stall a request indefinitely.
const gatewayTimeout = 10 * time.Second

// internalTokenHeader carries the shared secret for service-to-service trust.
const internalTokenHeader = "X-Internal-Token"

// gatewayClient is the shared plumbing for collaborator HTTP clients. Errors
// are classified three ways: transport failure or timeout becomes
// upstream_unavailable, a structured non-2xx rejection becomes
// upstream_rejected (404 on entity fetches becomes not_found), and success
// decodes into out. No retries are performed here; callers decide whether a
// failure is compensable.
type gatewayClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newGatewayClient(baseURL, token string) gatewayClient {
	return gatewayClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: gatewayTimeout,
		},
	}
}

// upstreamError decodes either {"error": "message"} or
// {"error": {"kind": ..., "message": ..., "details": ...}} bodies.
type upstreamError struct {
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

func (e *upstreamError) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Message)
	}
	type alias upstreamError
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = upstreamError(a)
	return nil
}

func (c gatewayClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(internalTokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return upstreamUnavailableError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classifyRejection(path, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return upstreamUnavailableError(path, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

func (c gatewayClient) classifyRejection(path string, resp *http.Response) error {
	var body struct {
		Error upstreamError `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("collaborator returned %d", resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNotFound {
		return notFoundError(msg)
	}
	// a collaborator's business conflict (e.g. insufficient stock at reserve
	// time) stays a conflict for our caller, not a gateway failure
	if body.Error.Kind == string(apperrors.KindConflict) {
		if len(body.Error.Details) > 0 {
			return apperrors.ConflictWithDetails(msg, body.Error.Details)
		}
		return apperrors.Conflict(msg)
	}
	return upstreamRejectedError(msg)
}

func upstreamUnavailableError(path string, err error) error {
	return apperrors.UpstreamUnavailable(fmt.Sprintf("collaborator call %s failed", path), err)
}

func upstreamRejectedError(msg string) error {
	return apperrors.UpstreamRejected(msg)
}

func notFoundError(msg string) error {
	return apperrors.NotFound(msg)
}
