// Package relay отправляет уведомления о бронированиях в комнаты сервиса сообщений.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrRelayUnavailable возвращается, когда сервис сообщений не принял уведомление после всех попыток.
var ErrRelayUnavailable = errors.New("messaging relay unavailable")

const (
	defaultAttempts = 4
	defaultBackoff  = 200 * time.Millisecond
	maxRetryAfter   = 10 * time.Second
)

// Event описывает уведомление, рассылаемое участникам комнаты.
type Event struct {
	Room    string `json:"room"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Client инкапсулирует HTTP-взаимодействие с сервисом сообщений.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint64
	backoff    time.Duration
}

// NewClient создаёт HTTP-клиент сервиса сообщений по указанному адресу.
func NewClient(baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
}

// BookingRoom возвращает имя комнаты бронирования.
func BookingRoom(bookingID int64) string {
	return "booking:" + strconv.FormatInt(bookingID, 10)
}

// Notify отправляет событие в комнату с экспоненциальной задержкой между попытками.
// Неподключённый клиент ничего не отправляет.
func (c *Client) Notify(ctx context.Context, ev Event) error {
	if c == nil || c.baseURL == "" {
		return nil
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	url := fmt.Sprintf("%s/api/rooms/%s/events", c.baseURL, ev.Room)

	// Retry-After от сервиса заменяет очередную экспоненциальную задержку.
	var retryAfter time.Duration
	base := retry.WithMaxRetries(c.attempts-1, retry.NewExponential(c.backoff))
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := base.Next()
		if stop {
			return 0, true
		}
		if retryAfter > 0 {
			next, retryAfter = retryAfter, 0
		}
		return next, false
	})

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		wait, err := c.send(ctx, url, body)
		retryAfter = wait
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrRelayUnavailable, err)
	}
	return nil
}

// send выполняет одну попытку доставки. Для 429 возвращает задержку из Retry-After.
func (c *Client) send(ctx context.Context, url string, body []byte) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, retry.RetryableError(fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		return wait, retry.RetryableError(fmt.Errorf("unexpected status: %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusInternalServerError:
		return 0, retry.RetryableError(fmt.Errorf("unexpected status: %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		return 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return 0, nil
}

func parseRetryAfter(v string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || seconds <= 0 {
		return 0
	}
	wait := time.Duration(seconds) * time.Second
	if wait > maxRetryAfter {
		wait = maxRetryAfter
	}
	return wait
}
