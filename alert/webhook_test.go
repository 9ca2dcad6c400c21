package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/menuwatch/menuwatch/models"
)

func TestDeliverSignsBody(t *testing.T) {
	const secret = "topsecret"
	var gotSig string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Menuwatch-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	event := &Event{
		Type:      "job.completed",
		JobID:     "scrape_1_1700000000",
		Timestamp: time.Now().Unix(),
		Data:      models.JobSnapshot{JobID: "scrape_1_1700000000", State: "success"},
	}
	if err := NewNotifier(srv.URL, secret).Deliver(context.Background(), event); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}

	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("body not valid JSON: %v", err)
	}
	if decoded.Type != "job.completed" || decoded.JobID != event.JobID {
		t.Errorf("decoded event = %+v", decoded)
	}
}

func TestDeliverOmitsSignatureWithoutSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Menuwatch-Signature")
	}))
	defer srv.Close()

	if err := NewNotifier(srv.URL, "").Deliver(context.Background(), &Event{Type: "price.alert"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotSig != "" {
		t.Errorf("unexpected signature header %q", gotSig)
	}
}

func TestDeliverReportsEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewNotifier(srv.URL, "").Deliver(context.Background(), &Event{Type: "job.completed"}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestNotifierDisabledWithoutURL(t *testing.T) {
	// must not panic or spawn deliveries
	var n *Notifier
	n.JobCompleted(models.JobSnapshot{JobID: "x"})

	NewNotifier("", "").JobCompleted(models.JobSnapshot{JobID: "x"})
	NewNotifier("", "").PriceAlerts("x", nil)
}
