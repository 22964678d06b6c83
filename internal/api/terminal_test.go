package api

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("MarshalPrivateKey failed: %v", err)
	}
	return string(pem.EncodeToMemory(block))
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/applications/v1/terminal/register/" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("Registration must be unauthenticated")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "coco" {
			t.Errorf("Expected name coco, got %v", body["name"])
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"access_key_id": "new-id", "access_key_secret": "new-secret"}`))
	}))
	defer server.Close()

	svc := NewAppService("coco", server.URL)
	key, res, err := svc.Register(context.Background())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.StatusCode != http.StatusCreated {
		t.Errorf("Expected 201, got %d", res.StatusCode)
	}
	if key.ID != "new-id" || key.Secret != "new-secret" {
		t.Errorf("Unexpected access key: %+v", key)
	}
	if svc.Credential().Kind() != "keypair" {
		t.Errorf("Expected keypair credential bound after register, got %s", svc.Credential().Kind())
	}
}

func TestRegister_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error": "already registered"}`))
	}))
	defer server.Close()

	svc := NewAppService("coco", server.URL)
	key, res, err := svc.Register(context.Background())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if key != (AccessKey{}) {
		t.Errorf("Expected empty key on rejection, got %+v", key)
	}
	if res.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409, got %d", res.StatusCode)
	}
	if !svc.Credential().IsZero() {
		t.Error("No credential must be bound on rejection")
	}
}

func TestHeartbeat(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"alive", http.StatusCreated, true},
		{"rejected", http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			svc := NewAppService("coco", server.URL)
			cred, _ := NewKeyPair("id", "secret")
			svc.SetCredential(cred)
			ok, err := svc.Heartbeat(context.Background())
			if err != nil {
				t.Fatalf("Heartbeat failed: %v", err)
			}
			if ok != tt.want {
				t.Errorf("Heartbeat = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestSystemUserAuthInfo(t *testing.T) {
	keyPEM := testPrivateKeyPEM(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/assets/v1/system-user/3/auth-info/" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          3,
			"username":    "web",
			"password":    "hunter2",
			"private_key": keyPEM,
		})
	}))
	defer server.Close()

	svc := NewAppService("coco", server.URL)
	cred, _ := NewKeyPair("id", "secret")
	svc.SetCredential(cred)

	info, signer, err := svc.SystemUserAuthInfo(context.Background(), 3)
	if err != nil {
		t.Fatalf("SystemUserAuthInfo failed: %v", err)
	}
	if info.Password != "hunter2" || info.Username != "web" {
		t.Errorf("Unexpected auth info: %+v", info)
	}
	if signer == nil {
		t.Fatal("Expected parsed SSH signer")
	}
}

func TestSystemUserAuthInfo_BadKeyTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"username": "web", "password": "p", "private_key": "garbage"}`))
	}))
	defer server.Close()

	svc := NewAppService("coco", server.URL)
	cred, _ := NewKeyPair("id", "secret")
	svc.SetCredential(cred)

	info, signer, err := svc.SystemUserAuthInfo(context.Background(), 1)
	if err != nil {
		t.Fatalf("SystemUserAuthInfo failed: %v", err)
	}
	if info.Password != "p" {
		t.Errorf("Password must survive a bad key, got %q", info.Password)
	}
	if signer != nil {
		t.Error("Expected nil signer for unparseable key")
	}
}

func TestSendProxyLog(t *testing.T) {
	start := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["date_start"] != "2026-05-04 09:30:00" {
			t.Errorf("Expected formatted date_start, got %v", body["date_start"])
		}
		if body["was_failed"] != float64(0) {
			t.Errorf("Expected was_failed 0, got %v", body["was_failed"])
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 22}`))
	}))
	defer server.Close()

	svc := NewAppService("coco", server.URL)
	cred, _ := NewKeyPair("id", "secret")
	svc.SetCredential(cred)

	id, err := svc.SendProxyLog(context.Background(), ProxyLog{
		Username: "alice", Hostname: "web1", IP: "10.0.0.1",
		SystemUser: "web", LoginType: "ST", DateStart: start,
	})
	if err != nil {
		t.Fatalf("SendProxyLog failed: %v", err)
	}
	if id != 22 {
		t.Errorf("Expected proxy log id 22, got %d", id)
	}
}

func TestFinishProxyLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("Expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/api/audits/v1/proxy-log/22/" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["is_finished"] != float64(1) {
			t.Errorf("Expected is_finished 1, got %v", body["is_finished"])
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	svc := NewAppService("coco", server.URL)
	cred, _ := NewKeyPair("id", "secret")
	svc.SetCredential(cred)

	ok, err := svc.FinishProxyLog(context.Background(), 22, time.Now(), false)
	if err != nil {
		t.Fatalf("FinishProxyLog failed: %v", err)
	}
	if !ok {
		t.Error("Expected FinishProxyLog success")
	}
}

func TestSendCommandLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		decoded, err := base64.StdEncoding.DecodeString(body["output"].(string))
		if err != nil || string(decoded) != "total 0\n" {
			t.Errorf("Expected base64 output, got %v", body["output"])
		}
		if body["command"] != "ls" {
			t.Errorf("Expected command ls, got %v", body["command"])
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	svc := NewAppService("coco", server.URL)
	cred, _ := NewKeyPair("id", "secret")
	svc.SetCredential(cred)

	ok, err := svc.SendCommandLog(context.Background(), CommandLog{
		ProxyLogID: 22, CommandNo: 1, Command: "ls",
		Output: []byte("total 0\n"), Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("SendCommandLog failed: %v", err)
	}
	if !ok {
		t.Error("Expected SendCommandLog success")
	}
}

func TestCheckUserAuthentication(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-CSRFToken") != "csrf-1" {
			t.Errorf("Expected CSRF header, got %q", r.Header.Get("X-CSRFToken"))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id": 5, "username": "alice"}`))
	}))
	defer server.Close()

	svc := NewAppService("coco", server.URL)
	user, err := svc.CheckUserAuthentication(context.Background(), "", "sess-1", "csrf-1")
	if err != nil {
		t.Fatalf("CheckUserAuthentication failed: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Errorf("Unexpected user: %+v", user)
	}
}

func TestCheckUserAuthentication_InvalidCombination(t *testing.T) {
	svc := NewAppService("coco", "https://jms.example.com")
	if _, err := svc.CheckUserAuthentication(context.Background(), "", "", ""); err == nil {
		t.Fatal("Expected error for empty identity")
	}
}
