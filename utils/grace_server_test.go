package utils

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestServerShutdownRunsHooks(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	srv := NewServer("127.0.0.1:0", handler, time.Second, time.Second)

	var hookCalls int
	srv.OnShutdown(func(ctx context.Context) error {
		hookCalls++
		return nil
	})
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()

	url := "http://" + srv.ListenerAddr().String() + "/"
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	srv.Shutdown()
	srv.Shutdown()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
	if hookCalls != 1 {
		t.Fatalf("expected hooks to run once, ran %d times", hookCalls)
	}
}
