package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	walletdto "github.com/numdraw/bet-platform/internal/settlement/wallet/dto"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Commit consumes the stake hold created when the bet was placed.
func (c *Client) Commit(ctx context.Context, userID, externalRef string) error {
	body, _ := json.Marshal(walletdto.CommitRequest{UserID: userID, ExternalRef: externalRef})
	return c.post(ctx, "/wallet/commit", body)
}

// Payout credits winnings. Idempotent per external ref on the wallet side.
func (c *Client) Payout(ctx context.Context, userID string, amount int64, externalRef string) error {
	body, _ := json.Marshal(walletdto.PayoutRequest{UserID: userID, Amount: amount, ExternalRef: externalRef})
	return c.post(ctx, "/wallet/payout", body)
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	return nil
}
