package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/keychain-connect/backend/internal/events"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body when a
// secret is configured. The body is RFC 8785 canonical JSON so receivers
// can re-canonicalize before verifying.
const SignatureHeader = "X-Keychain-Signature"

// Forwarder posts events to an HTTP endpoint.
type Forwarder struct {
	url     string
	secret  []byte
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewForwarder posts at most rps events per second. A non-positive rps
// disables the limit.
func NewForwarder(url, secret string, timeout time.Duration, rps int, log *zap.Logger) *Forwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Forwarder{
		url:     url,
		secret:  []byte(secret),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, max(rps, 1)),
		log:     log,
	}
}

func (f *Forwarder) Forward(ctx context.Context, event events.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	body, err := jcs.Transform(raw)
	if err != nil {
		return fmt.Errorf("canonicalize event: %w", err)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if len(f.secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(f.secret, body))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s event: %w", event.Type, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post %s event: status %d", event.Type, resp.StatusCode)
	}
	f.log.Debug("event forwarded", zap.String("type", event.Type), zap.String("controller_id", event.ControllerID))
	return nil
}

func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
