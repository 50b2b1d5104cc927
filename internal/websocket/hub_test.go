package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func recv(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestHubRoutesDirectAndBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	alice := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	bob := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.register <- alice
	hub.register <- bob

	hub.SendTo(alice.UserID, []byte("for alice"))
	if got := string(recv(t, alice.Send)); got != "for alice" {
		t.Fatalf("alice got %q", got)
	}

	hub.Broadcast([]byte("everyone"))
	if got := string(recv(t, alice.Send)); got != "everyone" {
		t.Fatalf("alice got %q", got)
	}
	if got := string(recv(t, bob.Send)); got != "everyone" {
		t.Fatalf("bob got %q, direct message leaked?", got)
	}
}

func TestHubDropsUnregisteredClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	c := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}
	hub.register <- c
	hub.unregister <- c

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHubSendsReturnAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	cancel()
	<-hub.Done()

	sent := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Broadcast([]byte("late"))
			hub.SendTo(uuid.New(), []byte("late"))
		}
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("sends blocked after the hub stopped")
	}
}

func TestServeWsRejectsBadTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	auth := func(token string) (uuid.UUID, error) {
		return uuid.Nil, errors.New("bad token")
	}
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, auth) })

	for _, target := range []string{"/ws", "/ws?token=garbage"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", target, w.Code)
		}
	}
}
