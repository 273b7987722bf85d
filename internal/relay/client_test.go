package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	c := NewClient(url)
	c.backoff = time.Millisecond
	return c
}

func TestNotify_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/rooms/booking:12/events" {
			t.Fatalf("path = %s, want /api/rooms/booking:12/events", r.URL.Path)
		}

		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Event != "booking.cancelled" {
			t.Fatalf("event = %q, want booking.cancelled", ev.Event)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := client.Notify(ctx, Event{Room: BookingRoom(12), Event: "booking.cancelled"})
	if err != nil {
		t.Fatalf("Notify error: %v", err)
	}
}

func TestNotify_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)

	if err := client.Notify(context.Background(), Event{Room: "booking:1", Event: "x"}); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestNotify_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)

	err := client.Notify(context.Background(), Event{Room: "booking:1", Event: "x"})
	if !errors.Is(err, ErrRelayUnavailable) {
		t.Fatalf("err = %v, want ErrRelayUnavailable", err)
	}
	if got := calls.Load(); got != defaultAttempts {
		t.Fatalf("calls = %d, want %d", got, defaultAttempts)
	}
}

func TestNotify_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)

	err := client.Notify(context.Background(), Event{Room: "booking:1", Event: "x"})
	if !errors.Is(err, ErrRelayUnavailable) {
		t.Fatalf("err = %v, want ErrRelayUnavailable", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestNotify_RetryAfterReplacesBackoff(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	client.backoff = 700 * time.Millisecond

	start := time.Now()
	if err := client.Notify(context.Background(), Event{Room: "booking:1", Event: "x"}); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	elapsed := time.Since(start)

	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
	if elapsed < time.Second {
		t.Fatalf("elapsed = %v, Retry-After of 1s was not honoured", elapsed)
	}
	if elapsed >= 1700*time.Millisecond {
		t.Fatalf("elapsed = %v, backoff was added on top of Retry-After", elapsed)
	}
}

func TestNotify_NotConfigured(t *testing.T) {
	var c *Client
	if err := c.Notify(context.Background(), Event{Room: "booking:1"}); err != nil {
		t.Fatalf("nil client must be a no-op, got %v", err)
	}
	if err := NewClient("").Notify(context.Background(), Event{Room: "booking:1"}); err != nil {
		t.Fatalf("empty address must be a no-op, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "", want: 0},
		{in: "abc", want: 0},
		{in: "2", want: 2 * time.Second},
		{in: "600", want: maxRetryAfter},
	}

	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Fatalf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
