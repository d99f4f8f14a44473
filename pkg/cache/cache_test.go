package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	if len(h) != 64 {
		t.Errorf("Hash length = %d, want 64 hex chars", len(h))
	}
	if h != Hash([]byte("hello")) {
		t.Error("Hash not deterministic")
	}
	if h == Hash([]byte("hello!")) {
		t.Error("different inputs hashed equal")
	}
}

func TestDefaultKeyerPrefixes(t *testing.T) {
	k := NewDefaultKeyer()
	tests := []struct {
		name   string
		key    string
		prefix string
	}{
		{"description", k.DescriptionKey("abc"), "desc:"},
		{"layout", k.LayoutKey("abc", LayoutKeyOpts{}), "layout:"},
		{"report", k.ReportKey("abc", ReportKeyOpts{}), "report:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasPrefix(tt.key, tt.prefix) {
				t.Errorf("key %q missing prefix %q", tt.key, tt.prefix)
			}
			if len(tt.key) != len(tt.prefix)+64 {
				t.Errorf("key %q should carry a full sha256 hex digest", tt.key)
			}
		})
	}
}

func TestLayoutKeySensitivity(t *testing.T) {
	k := NewDefaultKeyer()
	base := LayoutKeyOpts{CanvasWidth: 1200, CanvasHeight: 630, BudgetMs: 500, MaxAttempts: 5}

	if k.LayoutKey("h1", base) != k.LayoutKey("h1", base) {
		t.Error("identical inputs produced different keys")
	}

	variants := []LayoutKeyOpts{
		{CanvasWidth: 800, CanvasHeight: 630, BudgetMs: 500, MaxAttempts: 5},
		{CanvasWidth: 1200, CanvasHeight: 600, BudgetMs: 500, MaxAttempts: 5},
		{CanvasWidth: 1200, CanvasHeight: 630, BudgetMs: 250, MaxAttempts: 5},
		{CanvasWidth: 1200, CanvasHeight: 630, BudgetMs: 500, MaxAttempts: 3},
	}
	ref := k.LayoutKey("h1", base)
	for i, v := range variants {
		if k.LayoutKey("h1", v) == ref {
			t.Errorf("variant %d did not change the key", i)
		}
	}
	if k.LayoutKey("h2", base) == ref {
		t.Error("description hash did not change the key")
	}
}

func TestReportKeySensitivity(t *testing.T) {
	k := NewDefaultKeyer()
	base := ReportKeyOpts{CanvasWidth: 1200, CanvasHeight: 630, MinFontSize: 14, Palette: []string{"#FFFFFF"}}
	ref := k.ReportKey("svg1", base)

	withPalette := base
	withPalette.Palette = []string{"#FFFFFF", "#000000"}
	if k.ReportKey("svg1", withPalette) == ref {
		t.Error("palette change did not change the key")
	}
	if k.ReportKey("svg2", base) == ref {
		t.Error("candidate hash did not change the key")
	}
	if k.ReportKey("svg1", base) != ref {
		t.Error("identical inputs produced different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "tenant:42:")

	got := scoped.LayoutKey("h", LayoutKeyOpts{CanvasWidth: 100})
	want := "tenant:42:" + inner.LayoutKey("h", LayoutKeyOpts{CanvasWidth: 100})
	if got != want {
		t.Errorf("scoped key = %q, want %q", got, want)
	}

	// A nil inner keyer falls back to the default.
	fallback := NewScopedKeyer(nil, "p:")
	if k := fallback.DescriptionKey("h"); !strings.HasPrefix(k, "p:desc:") {
		t.Errorf("fallback key = %q", k)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	_, found, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("null cache stored a value")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, found, _ := c.Get(ctx, "missing"); found {
		t.Error("unexpected hit on empty cache")
	}

	payload := []byte(`{"elements":[]}`)
	if err := c.Set(ctx, "layout:abc", payload, 0); err != nil {
		t.Fatal(err)
	}
	got, found, err := c.Get(ctx, "layout:abc")
	if err != nil || !found {
		t.Fatalf("Get = (%v, %v), want hit", found, err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "layout:abc"); found {
		t.Error("entry survived Delete")
	}
	// Deleting again is not an error.
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Error("expired entry still served")
	}

	// Zero TTL never expires.
	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "forever"); !found {
		t.Error("zero-TTL entry missing")
	}
}

func TestFileCacheKeyCharacters(t *testing.T) {
	// Keys contain colons; paths are hash-derived so any key is safe.
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := "report:" + strings.Repeat("ab/:*?", 10)
	if err := c.Set(ctx, key, []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, key); !found {
		t.Error("hostile key not retrievable")
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}

	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("wrapped error not retryable")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("Unwrap chain broken")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("message = %q, want %q", err.Error(), ErrNetwork.Error())
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error reported retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("success retried %d times", calls)
	}

	// Non-retryable errors return immediately.
	calls = 0
	plain := errors.New("fatal")
	if err := RetryWithBackoff(ctx, func() error {
		calls++
		return plain
	}); !errors.Is(err, plain) {
		t.Errorf("err = %v, want %v", err, plain)
	}
	if calls != 1 {
		t.Errorf("non-retryable error retried %d times", calls)
	}
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	// Same attempt/delay shape the redis backend uses.
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want recovery on the third attempt", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want the last network error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
