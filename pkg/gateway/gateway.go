package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mvx-swap/pkg/tx"
)

// Default proxy endpoints per network
var DefaultURLs = map[tx.Network]string{
	tx.Mainnet: "https://gateway.multiversx.com",
	tx.Devnet:  "https://devnet-gateway.multiversx.com",
	tx.Testnet: "https://testnet-gateway.multiversx.com",
}

// Client talks to a MultiversX proxy gateway
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// response is the envelope every gateway endpoint returns
type response struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

// TxStatus is the processing status reported for a transaction
type TxStatus string

const (
	TxPending  TxStatus = "pending"
	TxSuccess  TxStatus = "success"
	TxFail     TxStatus = "fail"
	TxInvalid  TxStatus = "invalid"
	TxExecuted TxStatus = "executed"
)

// Final reports whether the status will not change anymore
func (s TxStatus) Final() bool {
	switch s {
	case TxSuccess, TxFail, TxInvalid, TxExecuted:
		return true
	default:
		return false
	}
}

// NewClient creates a gateway client
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// GetNonce returns the next nonce of an account
func (c *Client) GetNonce(ctx context.Context, address string) (uint64, error) {
	var out struct {
		Nonce uint64 `json:"nonce"`
	}
	if err := c.call(ctx, http.MethodGet, "/address/"+url.PathEscape(address)+"/nonce", nil, &out); err != nil {
		return 0, fmt.Errorf("failed to get nonce: %w", err)
	}
	return out.Nonce, nil
}

// SendTransaction broadcasts a signed transaction and returns its hash
func (c *Client) SendTransaction(ctx context.Context, signed *tx.SignedTransaction) (string, error) {
	if signed == nil || signed.Signature == "" {
		return "", fmt.Errorf("transaction is not signed")
	}
	body, err := json.Marshal(&signed.Transaction)
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	var out struct {
		TxHash string `json:"txHash"`
	}
	if err := c.call(ctx, http.MethodPost, "/transaction/send", body, &out); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	if out.TxHash == "" {
		return "", fmt.Errorf("empty transaction hash returned")
	}

	c.log.Info("transaction sent", zap.String("tx_hash", out.TxHash), zap.Uint64("nonce", signed.Nonce))
	return out.TxHash, nil
}

// TransactionStatus returns the processing status of a transaction
func (c *Client) TransactionStatus(ctx context.Context, hash string) (TxStatus, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, http.MethodGet, "/transaction/"+url.PathEscape(hash)+"/status", nil, &out); err != nil {
		return "", fmt.Errorf("failed to get transaction status: %w", err)
	}
	return TxStatus(strings.ToLower(out.Status)), nil
}

func (c *Client) call(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env response
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || env.Error != "" {
		return fmt.Errorf("gateway error (status %d, code %s): %s", resp.StatusCode, env.Code, env.Error)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("gateway response has no data")
	}
	return json.Unmarshal(env.Data, out)
}
