package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"marketmaker-bot/internal/domain"
)

const (
	HeaderKeyID     = "APCA-API-KEY-ID"
	HeaderSecretKey = "APCA-API-SECRET-KEY"

	maxErrorBody = 4 << 10
)

// Client performs one authenticated JSON round trip. Retrying is left to the
// caller so every call site picks its own policy.
type Client struct {
	HTTP      *http.Client
	KeyID     string
	SecretKey string
}

// DoJSON sends req and decodes a 2xx body into out (skipped when out is nil).
// Connection failures become *domain.TransportError and non-2xx responses
// *domain.RemoteError.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) error {
	req = req.WithContext(ctx)
	req.Header.Set("accept", "application/json")
	if c.KeyID != "" {
		req.Header.Set(HeaderKeyID, c.KeyID)
	}
	if c.SecretKey != "" {
		req.Header.Set(HeaderSecretKey, c.SecretKey)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
