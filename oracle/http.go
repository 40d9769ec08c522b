package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// ErrRejected is returned when the remote oracle refuses a probe as malformed.
// It is not retried.
var ErrRejected = errors.New("oracle: probe rejected")

// HTTP queries a remote oracle served by Server (or anything speaking the same JSON).
//
// A 200 answer means valid padding and 422 means invalid padding. 400 and 413 reject the probe.
// Everything else, network errors included, is a TransportError and is retried with
// exponential backoff.
type HTTP struct {
	base      string
	client    *http.Client
	limiter   *rate.Limiter
	retries   uint64
	interval  time.Duration
	blockSize int
}

type HTTPOption func(*HTTP)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = c
	}
}

// WithRateLimit caps the query rate. A non positive rps means unlimited.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(h *HTTP) {
		if rps <= 0 {
			h.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets how many times a transport failure is retried. Zero means a single attempt.
func WithRetries(n uint64, initialInterval time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.retries = n
		h.interval = initialInterval
	}
}

// WithRemoteBlockSize tells the client the block width of the remote cipher.
func WithRemoteBlockSize(n int) HTTPOption {
	return func(h *HTTP) {
		h.blockSize = n
	}
}

func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		base:     strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 5 * time.Second},
		limiter:  rate.NewLimiter(rate.Inf, 1),
		retries:  5,
		interval: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) BlockSize() int {
	return h.blockSize
}

func (h *HTTP) TryDecrypt(ctx context.Context, probe []byte) (bool, error) {
	body, err := json.Marshal(decryptRequest{Ciphertext: base64.StdEncoding.EncodeToString(probe)})
	if err != nil {
		return false, err
	}

	var valid bool
	err = h.retry(ctx, func() error {
		v, err := h.decrypt(ctx, body)
		if err != nil {
			return err
		}
		valid = v
		return nil
	})
	if err != nil {
		return false, err
	}
	return valid, nil
}

// Challenge fetches the ciphertext the remote oracle is guarding, and records its block size.
func (h *HTTP) Challenge(ctx context.Context) ([]byte, error) {
	var c challengeResponse
	err := h.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.base+"/challenge", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := h.client.Do(req)
		if err != nil {
			return h.transportErr(ctx, "challenge", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &TransportError{Op: "challenge", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}
		if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
			return backoff.Permanent(fmt.Errorf("oracle: challenge: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := base64.StdEncoding.DecodeString(c.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("oracle: challenge: %w", err)
	}
	h.blockSize = c.BlockSize
	return encrypted, nil
}

func (h *HTTP) decrypt(ctx context.Context, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+"/decrypt", bytes.NewReader(body))
	if err != nil {
		return false, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return false, h.transportErr(ctx, "decrypt", err)
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnprocessableEntity:
		return false, nil
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return false, backoff.Permanent(ErrRejected)
	default:
		return false, &TransportError{Op: "decrypt", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
}

func (h *HTTP) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.interval
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		if err := h.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		return op()
	}, backoff.WithContext(backoff.WithMaxRetries(b, h.retries), ctx))
}

// transportErr doesn't retry once the caller gave up.
func (h *HTTP) transportErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(ctx.Err())
	}
	return &TransportError{Op: op, Err: err}
}
