package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mboxlabs/mailctl/internal/client"
	"github.com/mboxlabs/mailctl/internal/session"
	"github.com/mboxlabs/mailctl/internal/testutil/testlog"
)

// fakeBackend routes on the op query parameter and speaks the envelope
// contract.
type fakeBackend struct {
	t       *testing.T
	handler map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{t: t, handler: map[string]http.HandlerFunc{}}
}

func (b *fakeBackend) on(op string, fn http.HandlerFunc) {
	b.handler[op] = fn
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	op := r.URL.Query().Get("op")
	fn, ok := b.handler[op]
	if !ok {
		b.t.Errorf("unexpected operation %q", op)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fn(w, r)
}

func newTestService(t *testing.T, backend http.Handler, store session.Store) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	cfg := client.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.MaxRetries = 0
	cfg.Backoff.InitialDelay = time.Millisecond
	cfg.AttemptTimeout = 2 * time.Second
	c, err := client.New(cfg, store)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return New(c), srv
}

func TestLoginStoresToken(t *testing.T) {
	testlog.Start(t)

	backend := newFakeBackend(t)
	backend.on("auth/login", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode login payload: %v", err)
		}
		if payload.Username != "admin" || payload.Password != "hunter2" {
			t.Errorf("unexpected credentials: %+v", payload)
		}
		w.Write([]byte(`{"kind":"success","message":"logged in","data":{"token":"sess-42"}}`))
	})

	store := session.NewMemoryStore()
	svc, _ := newTestService(t, backend, store)
	if err := svc.Login(context.Background(), "admin", "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok, held := store.Get(); !held || tok != "sess-42" {
		t.Fatalf("unexpected stored token: %q %v", tok, held)
	}
}

func TestLoginMissingToken(t *testing.T) {
	testlog.Start(t)

	backend := newFakeBackend(t)
	backend.on("auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"kind":"success","message":"ok","data":{}}`))
	})
	svc, _ := newTestService(t, backend, nil)
	if err := svc.Login(context.Background(), "admin", "pw"); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	testlog.Start(t)

	svc, _ := newTestService(t, newFakeBackend(t), nil)
	if err := svc.Login(context.Background(), " ", "pw"); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("expected ErrCredentialsRequired, got %v", err)
	}
	if err := svc.Login(context.Background(), "admin", ""); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("expected ErrCredentialsRequired, got %v", err)
	}
}

func TestLogoutClearsSessionEvenOnBackendFailure(t *testing.T) {
	testlog.Start(t)

	backend := newFakeBackend(t)
	backend.on("auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	store := session.NewMemoryStore()
	_ = store.Set("sess-42")
	svc, _ := newTestService(t, backend, store)

	err := svc.Logout(context.Background())
	if !errors.Is(err, client.ErrRetriesExhausted) {
		t.Fatalf("expected backend failure surfaced, got %v", err)
	}
	if _, held := store.Get(); held {
		t.Fatalf("local session must be cleared regardless of backend failure")
	}
}

func TestListMailboxes(t *testing.T) {
	testlog.Start(t)

	backend := newFakeBackend(t)
	backend.on("mailbox/all", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Write([]byte(`{"kind":"success","message":"ok","data":{"mailboxes":[
			{"address":"a@example.org","name":"Alice","quota_mb":1024,"used_mb":10,"messages":42,"active":true},
			{"address":"b@example.org","name":"Bob","quota_mb":2048,"used_mb":0,"messages":0,"active":false}
		]}}`))
	})

	svc, _ := newTestService(t, backend, nil)
	boxes, err := svc.ListMailboxes(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(boxes) != 2 {
		t.Fatalf("expected 2 mailboxes, got %d", len(boxes))
	}
	if boxes[0].Address != "a@example.org" || boxes[0].QuotaMB != 1024 || !boxes[0].Active {
		t.Fatalf("unexpected first mailbox: %+v", boxes[0])
	}
}

func TestCreateMailboxPayload(t *testing.T) {
	testlog.Start(t)

	backend := newFakeBackend(t)
	backend.on("mailbox/add", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		var params MailboxParams
		if err := json.Unmarshal(body, &params); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if params.Address != "c@example.org" || params.QuotaMB != 512 || !params.Active {
			t.Errorf("unexpected payload: %+v", params)
		}
		w.Write([]byte(`{"kind":"success","message":"mailbox added"}`))
	})

	svc, _ := newTestService(t, backend, nil)
	err := svc.CreateMailbox(context.Background(), MailboxParams{
		Address:  "c@example.org",
		Name:     "Carol",
		Password: "pw",
		QuotaMB:  512,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestMailboxValidation(t *testing.T) {
	testlog.Start(t)

	svc, _ := newTestService(t, newFakeBackend(t), nil)
	if _, err := svc.GetMailbox(context.Background(), " "); !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("expected ErrAddressRequired, got %v", err)
	}
	if err := svc.DeleteMailbox(context.Background(), ""); !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("expected ErrAddressRequired, got %v", err)
	}
}

func TestDeleteDomainOperationString(t *testing.T) {
	testlog.Start(t)

	backend := newFakeBackend(t)
	backend.on("domain/example.org", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		if body, _ := io.ReadAll(r.Body); len(body) != 0 {
			t.Errorf("delete must not send a body, got %q", body)
		}
		w.Write([]byte(`{"kind":"success","message":"domain removed"}`))
	})

	svc, _ := newTestService(t, backend, nil)
	if err := svc.DeleteDomain(context.Background(), "example.org"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestDomainApplicationErrorPropagates(t *testing.T) {
	testlog.Start(t)

	backend := newFakeBackend(t)
	backend.on("domain/add", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"kind":"error","message":["domain exists","description too long"]}`))
	})

	svc, _ := newTestService(t, backend, nil)
	err := svc.CreateDomain(context.Background(), DomainParams{Name: "example.org", Active: true})
	var ce *client.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *client.Error, got %v", err)
	}
	if ce.Kind != client.KindApplication {
		t.Fatalf("unexpected kind: %q", ce.Kind)
	}
	if len(ce.Messages) != 2 {
		t.Fatalf("expected both messages, got %+v", ce.Messages)
	}
}

func TestAnalyzeEmailMapping(t *testing.T) {
	testlog.Start(t)

	backend := newFakeBackend(t)
	backend.on("analysis/run", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Mailbox string `json:"mailbox"`
			EmailID string `json:"email_id"`
			Force   bool   `json:"force"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.Mailbox != "a@example.org" || payload.EmailID != "msg-9" || !payload.Force {
			t.Errorf("unexpected payload: %+v", payload)
		}
		w.Write([]byte(`{"kind":"success","message":"analyzed","data":{
			"email_id":"msg-9",
			"summary":"Invoice reminder from vendor",
			"categories":["finance","action-required"],
			"priority_score":8,
			"is_phishing":false,
			"phishing_score":0.12,
			"sensitive_data":true,
			"auto_reply_suggestion":"Thanks, payment is scheduled.",
			"processing_time":1.8
		}}`))
	})

	svc, _ := newTestService(t, backend, nil)
	res, err := svc.AnalyzeEmail(context.Background(), "a@example.org", "msg-9", true)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Summary != "Invoice reminder from vendor" {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
	if len(res.Categories) != 2 || res.PriorityScore != 8 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !res.SensitiveData || res.Phishing {
		t.Fatalf("unexpected flags: %+v", res)
	}
}

func TestAnalysisStatsAndHealth(t *testing.T) {
	testlog.Start(t)

	backend := newFakeBackend(t)
	backend.on("analysis/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"kind":"success","message":"ok","data":{"total_analyzed":120,"phishing_detected":4,"avg_processing_time":2.3}}`))
	})
	backend.on("analysis/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"kind":"warning","message":"cache degraded","data":{"status":"degraded","model":"llama3.2:3b","inference":"ok","database":"ok","cache":"error"}}`))
	})

	svc, _ := newTestService(t, backend, nil)
	stats, err := svc.AnalysisStatistics(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalAnalyzed != 120 || stats.PhishingDetected != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	// Warning envelopes are still successful calls.
	health, err := svc.AnalysisHealthCheck(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Status != "degraded" || health.Cache != "error" {
		t.Fatalf("unexpected health: %+v", health)
	}
}
