package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient submits permission transactions to a ledger gateway over HTTP
// and blocks until the gateway reports finality. Every call is bounded by the
// configured timeout; an expired deadline surfaces as ErrTimeout rather than
// hanging the request, since finality latency is externally determined.
type HTTPClient struct {
	baseURL   string
	timeout   time.Duration
	senderKey string
	client    *http.Client
}

// NewHTTPClient creates a client for the gateway at baseURL. timeout bounds
// each individual call, including the wait for finality. senderKey is the
// credential the gateway submits transactions under; empty means the
// gateway is unauthenticated.
func NewHTTPClient(baseURL string, timeout time.Duration, senderKey string) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:   baseURL,
		timeout:   timeout,
		senderKey: senderKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.senderKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.senderKey)
	}
}

// txRequest is the JSON body for state-changing gateway calls.
type txRequest struct {
	Method    string `json:"method"`
	ContentID string `json:"contentId"`
	Caller    string `json:"caller"`
	Grantee   string `json:"grantee,omitempty"`
}

// txResponse is the gateway's reply once the transaction is final.
type txResponse struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
	TxID   string `json:"txId,omitempty"`
}

func (c *HTTPClient) Register(ctx context.Context, contentID, owner string) error {
	return c.submit(ctx, txRequest{Method: "register", ContentID: contentID, Caller: owner})
}

func (c *HTTPClient) Grant(ctx context.Context, contentID, caller, grantee string) error {
	return c.submit(ctx, txRequest{Method: "grant", ContentID: contentID, Caller: caller, Grantee: grantee})
}

func (c *HTTPClient) Revoke(ctx context.Context, contentID, caller, grantee string) error {
	return c.submit(ctx, txRequest{Method: "revoke", ContentID: contentID, Caller: caller, Grantee: grantee})
}

// submit posts a transaction and waits for the gateway to confirm finality.
func (c *HTTPClient) submit(ctx context.Context, tx txRequest) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tx", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out txResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("%w: decoding tx response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusOK && out.Status == "committed" {
		return nil
	}
	return mapRevert(out)
}

// mapRevert translates gateway revert codes into sentinel errors.
func mapRevert(out txResponse) error {
	switch out.Code {
	case "UNAUTHORIZED":
		return ErrUnauthorized
	case "NOT_GRANTED":
		return ErrNotGranted
	default:
		if out.Reason != "" {
			return fmt.Errorf("%w: %s", ErrRejected, out.Reason)
		}
		return ErrRejected
	}
}

// accessResponse is the reply to a canAccess query.
type accessResponse struct {
	Allowed bool `json:"allowed"`
}

func (c *HTTPClient) CanAccess(ctx context.Context, contentID, addr string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{"contentId": {contentID}, "address": {addr}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query/can-access?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return false, ErrTimeout
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: query returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var out accessResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: decoding query response: %v", ErrUnavailable, err)
	}
	return out.Allowed, nil
}

// allowListResponse is the reply to an allow-list query.
type allowListResponse struct {
	Addresses []string `json:"addresses"`
}

func (c *HTTPClient) AllowList(ctx context.Context, contentID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{"contentId": {contentID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query/allow-list?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: query returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var out allowListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding query response: %v", ErrUnavailable, err)
	}
	return out.Addresses, nil
}
