// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Delivery configuration constants
const (
	MaxAttempts    = 3                // Maximum number of delivery attempts
	RetryBackoff   = 5 * time.Second  // Delay between attempts
	RequestTimeout = 30 * time.Second // HTTP request timeout
	UserAgent      = "SweetShop/1.0"  // User-Agent header value
)

// httpClient is the shared HTTP client with appropriate timeouts.
var httpClient = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Sign computes the hex-encoded HMAC-SHA256 signature of a payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// processDelivery POSTs a payload to its endpoint, retrying a bounded number
// of times. Permanent failures are logged and dropped; there is no durable
// delivery ledger.
func (d *Dispatcher) processDelivery(ctx context.Context, delivery *QueuedDelivery) {
	var lastErr error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return
			case <-d.done:
				return
			case <-time.After(RetryBackoff):
			}
		}

		statusCode, err := d.attemptDelivery(ctx, delivery)
		if err == nil && statusCode >= 200 && statusCode < 300 {
			d.logger.Debug("webhook delivered",
				"delivery_uuid", delivery.UUID,
				"event", delivery.Event,
				"url", delivery.URL,
				"status", statusCode,
				"attempt", attempt)
			return
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("endpoint returned status %d", statusCode)
		}

		// 4xx responses other than 408/429 will not succeed on retry
		if err == nil && statusCode >= 400 && statusCode < 500 &&
			statusCode != http.StatusRequestTimeout && statusCode != http.StatusTooManyRequests {
			break
		}
	}

	d.logger.Warn("webhook delivery failed",
		"category", "system",
		"delivery_uuid", delivery.UUID,
		"event", delivery.Event,
		"url", delivery.URL,
		"error", lastErr)
}

// attemptDelivery performs a single signed HTTP POST.
func (d *Dispatcher) attemptDelivery(ctx context.Context, delivery *QueuedDelivery) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Sweetshop-Event", delivery.Event)
	req.Header.Set("X-Sweetshop-Delivery", delivery.UUID)
	if d.secret != "" {
		req.Header.Set("X-Sweetshop-Signature", "sha256="+Sign(delivery.Payload, d.secret))
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10*1024))

	return resp.StatusCode, nil
}
