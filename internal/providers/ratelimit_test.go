package providers

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestDoWithRetry_SucceedsAfterTransientErrors(t *testing.T) {
	attempts := 0
	resp, err := doWithRetry(context.Background(), func() (*http.Response, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection reset")
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if err != nil {
		t.Fatalf("doWithRetry returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d; want 200", resp.StatusCode)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d; want 3", attempts)
	}
}

func TestDoWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	_, err := doWithRetry(context.Background(), func() (*http.Response, error) {
		attempts++
		return nil, errors.New("persistent failure")
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if attempts != newBackoff().retries+1 {
		t.Errorf("attempts = %d; want %d", attempts, newBackoff().retries+1)
	}
}

func TestDoWithRetry_NonTransientStatusNotRetried(t *testing.T) {
	attempts := 0
	resp, err := doWithRetry(context.Background(), func() (*http.Response, error) {
		attempts++
		return &http.Response{StatusCode: http.StatusNotFound}, nil
	})
	if err != nil {
		t.Fatalf("doWithRetry returned error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d; want 404", resp.StatusCode)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d; want 1 (non-2xx status is not retried)", attempts)
	}
}
