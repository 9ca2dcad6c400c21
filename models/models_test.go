package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want Price
	}{
		{"11.99", 1199},
		{"4", 400},
		{"0.50", 50},
		{"  7.5 ", 750},
		{"", 0},
		{"free", 0},
		{"-3.00", 0},
	}
	for _, tt := range tests {
		if got := ParsePrice(tt.in); got != tt.want {
			t.Errorf("ParsePrice(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPriceRendering(t *testing.T) {
	if s := Price(1199).String(); s != "11.99" {
		t.Errorf("String() = %q, want 11.99", s)
	}
	if s := Price(700).String(); s != "7.00" {
		t.Errorf("String() = %q, want 7.00", s)
	}

	b, err := json.Marshal(struct {
		P Price `json:"p"`
	}{P: 1199})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"p":11.99}` {
		t.Errorf("json = %s", b)
	}
}

func TestBuildResultInvariant(t *testing.T) {
	r := BuildResult("src_1", PlatformUberEats, []MenuItem{{Name: "Burger"}}, "")
	if !r.Success || r.ErrorMessage != "" {
		t.Errorf("non-empty result = %+v, want success with no error", r)
	}

	r = BuildResult("src_1", PlatformUberEats, nil, "")
	if r.Success {
		t.Error("empty result reported success")
	}
	if r.ErrorMessage == "" {
		t.Error("empty result missing error message")
	}
}

func TestStateTerminal(t *testing.T) {
	for state, want := range map[ScrapeState]bool{
		StatePending: false,
		StateRunning: false,
		StateSuccess: true,
		StateFailed:  true,
		StateTimeout: true,
	} {
		if got := state.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, got, want)
		}
	}
}

func TestTriggerRequestValidation(t *testing.T) {
	req := TriggerRequest{SourceType: " Competitor ", SourceID: "src_1", Platform: "UberEats", URL: "https://example.com"}
	req.Normalize()
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if req.Platform != PlatformUberEats {
		t.Errorf("platform = %q after normalize", req.Platform)
	}

	bad := TriggerRequest{SourceType: "competitor", SourceID: "src_1", Platform: "grubhub", URL: "https://example.com"}
	bad.Normalize()
	if err := bad.Validate(); err == nil {
		t.Error("unknown platform accepted")
	}
}

func TestCodeOfUnwrapsChains(t *testing.T) {
	inner := NewScrapeError(ErrCodeRateLimited, "too many requests", nil)
	wrapped := fmt.Errorf("scrape failed: %w", inner)

	if got := CodeOf(wrapped); got != ErrCodeRateLimited {
		t.Errorf("CodeOf(wrapped) = %q, want %q", got, ErrCodeRateLimited)
	}
	if got := CodeOf(errors.New("mystery")); got != ErrCodeInternal {
		t.Errorf("CodeOf(plain) = %q, want %q", got, ErrCodeInternal)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}
