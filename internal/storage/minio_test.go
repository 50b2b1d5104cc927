package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestObjectKey(t *testing.T) {
	k := ObjectKey("requests/42", "Floor Plan.PDF")
	if !strings.HasPrefix(k, "requests/42/") || !strings.HasSuffix(k, ".pdf") {
		t.Fatalf("key = %s", k)
	}
	if ObjectKey("p", "a.pdf") == ObjectKey("p", "a.pdf") {
		t.Fatal("keys must be unique per upload")
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("photo.PNG"); got != "image/png" {
		t.Errorf("png = %s", got)
	}
	if got := ContentType("blob"); got != "application/octet-stream" {
		t.Errorf("no extension = %s", got)
	}
}

func TestDisabledStore(t *testing.T) {
	s := Disabled()
	if _, err := s.Upload(context.Background(), "p", "a.txt", strings.NewReader("x"), 1); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v", err)
	}
}
