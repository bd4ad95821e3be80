package pprof

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "powerman/pkg/logx"
)

func TestRoutesRequireToken(t *testing.T) {
	t.Parallel()
	s := New(Config{}, func() any { return map[string]string{"active": "balanced"} }, logx.Nop())
	h := s.routes("/debug/pprof/", "sekret")

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "no token", target: "/status", want: http.StatusUnauthorized},
		{name: "wrong query token", target: "/status?token=nope", want: http.StatusUnauthorized},
		{name: "query token", target: "/status?token=sekret", want: http.StatusOK},
		{name: "bearer", target: "/healthz", header: "Bearer sekret", want: http.StatusOK},
		{name: "wrong bearer", target: "/healthz", header: "Bearer x", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("%s: code = %d, want %d", tt.target, rec.Code, tt.want)
			}
		})
	}
}

func TestStatusDocument(t *testing.T) {
	t.Parallel()
	s := New(Config{}, func() any { return map[string]int{"applied": 3} }, logx.Nop())
	rec := httptest.NewRecorder()
	s.routes("/debug/pprof/", "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	if got["applied"] != 3 {
		t.Fatalf("status = %v", got)
	}
}

func TestStartStop(t *testing.T) {
	s := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, nil, logx.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Start(ctx)

	var addr string
	for addr == "" {
		if ctx.Err() != nil {
			t.Fatal("server did not bind")
		}
		time.Sleep(10 * time.Millisecond)
		addr = s.Addr()
	}
	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}

	s.Stop(ctx)
	if s.Addr() != "" {
		t.Fatal("still bound after Stop")
	}
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()
	for addr, want := range map[string]bool{
		"127.0.0.1:6060": true,
		"localhost:1":    true,
		"[::1]:80":       true,
		":6060":          false,
		"0.0.0.0:6060":   false,
		"bogus":          false,
	} {
		if got := isLoopbackAddr(addr); got != want {
			t.Errorf("isLoopbackAddr(%q) = %v", addr, got)
		}
	}
}
