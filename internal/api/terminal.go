package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/yyqs2008/jms-sdk-go/internal/sshkey"
)

// datetimeLayout is the wire format the audit endpoints expect for
// timestamps.
const datetimeLayout = "2006-01-02 15:04:05"

// AccessKey is the service identity the backend issues at registration.
type AccessKey struct {
	ID     string `json:"access_key_id"`
	Secret string `json:"access_key_secret"`
}

// AppService is the terminal-proxy application's surface: registration,
// heartbeat, system-user secrets and audit log submission.
type AppService struct {
	*Client
}

// NewAppService creates the app-side service for an endpoint. Bind a keypair
// credential (or Register first) before authenticated calls.
func NewAppService(appName, endpoint string) *AppService {
	return &AppService{Client: New(endpoint, appName)}
}

// Register enrolls the terminal with the backend. On success the issued
// access key is bound to the client as a keypair credential and returned so
// the caller can persist it. Registration itself is unauthenticated.
func (s *AppService) Register(ctx context.Context) (AccessKey, Result, error) {
	res, err := s.Post(ctx, "terminal-register", &CallOptions{
		Body:   map[string]any{"name": s.AppName},
		NoAuth: true,
	})
	if err != nil {
		return AccessKey{}, res, err
	}
	if res.StatusCode != http.StatusCreated {
		slog.Warn("terminal registration rejected", "status", res.StatusCode, "error", res.Body.Get("error").Str())
		return AccessKey{}, res, nil
	}
	key := AccessKey{
		ID:     res.Body.Get("access_key_id").Str(),
		Secret: res.Body.Get("access_key_secret").Str(),
	}
	if cred, err := NewKeyPair(key.ID, key.Secret); err == nil {
		s.SetCredential(cred)
	}
	return key, res, nil
}

// Heartbeat reports liveness so the backend notices a terminal going away.
func (s *AppService) Heartbeat(ctx context.Context) (bool, error) {
	res, err := s.Post(ctx, "terminal-heartbeat", nil)
	if err != nil {
		return false, err
	}
	return res.StatusCode == http.StatusCreated, nil
}

// CheckAuth probes whether the bound credential is accepted by the backend.
func (s *AppService) CheckAuth(ctx context.Context) (bool, error) {
	return s.Heartbeat(ctx)
}

// SystemUserAuthInfo fetches the password and private key for a system
// user. The private key text, when present and parseable, is returned as an
// ssh.Signer alongside the raw auth info.
func (s *AppService) SystemUserAuthInfo(ctx context.Context, systemUserID int) (SystemUserAuthInfo, ssh.Signer, error) {
	res, err := s.Get(ctx, "system-user-auth-info", &CallOptions{PK: systemUserID})
	if err != nil {
		return SystemUserAuthInfo{}, nil, err
	}
	if res.StatusCode != http.StatusOK {
		slog.Warn("failed to get system user auth info", "system_user", systemUserID, "status", res.StatusCode)
		return SystemUserAuthInfo{}, nil, nil
	}
	var info SystemUserAuthInfo
	if err := res.Body.Decode(&info); err != nil {
		return SystemUserAuthInfo{}, nil, err
	}
	var signer ssh.Signer
	if info.PrivateKey != "" {
		signer, err = sshkey.ParsePrivateKey(info.PrivateKey)
		if err != nil {
			slog.Warn("system user private key does not parse", "system_user", systemUserID, "error", err)
			signer = nil
		}
	}
	return info, signer, nil
}

// ProxyLog describes one proxied session start.
type ProxyLog struct {
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Hostname   string    `json:"hostname"`
	IP         string    `json:"ip"`
	SystemUser string    `json:"system_user"`
	LoginType  string    `json:"login_type"` // "ST" ssh terminal, "WT" web terminal
	WasFailed  bool      `json:"-"`
	DateStart  time.Time `json:"-"`
}

func (p ProxyLog) payload() map[string]any {
	return map[string]any{
		"username":    p.Username,
		"name":        p.Name,
		"hostname":    p.Hostname,
		"ip":          p.IP,
		"system_user": p.SystemUser,
		"login_type":  p.LoginType,
		"was_failed":  boolToInt(p.WasFailed),
		"date_start":  p.DateStart.Format(datetimeLayout),
	}
}

// SendProxyLog reports a session start and returns the created log id,
// 0 when the backend rejected it.
func (s *AppService) SendProxyLog(ctx context.Context, log ProxyLog) (int, error) {
	res, err := s.Post(ctx, "send-proxy-log", &CallOptions{Body: log.payload()})
	if err != nil {
		return 0, err
	}
	if res.StatusCode != http.StatusCreated {
		slog.Warn("send proxy log failed", "status", res.StatusCode, "hostname", log.Hostname)
		return 0, nil
	}
	return res.Body.Get("id").Int(), nil
}

// FinishProxyLog reports the session identified by proxyLogID as finished.
func (s *AppService) FinishProxyLog(ctx context.Context, proxyLogID int, dateFinished time.Time, wasFailed bool) (bool, error) {
	res, err := s.Patch(ctx, "finish-proxy-log", &CallOptions{
		PK: proxyLogID,
		Body: map[string]any{
			"date_finished": dateFinished.Format(datetimeLayout),
			"was_failed":    boolToInt(wasFailed),
			"is_finished":   1,
		},
	})
	if err != nil {
		return false, err
	}
	if res.StatusCode != http.StatusOK {
		slog.Warn("finish proxy log failed", "proxy_log_id", proxyLogID, "status", res.StatusCode)
		return false, nil
	}
	return true, nil
}

// CommandLog is one executed command with its captured output.
type CommandLog struct {
	ProxyLogID int
	CommandNo  int
	Command    string
	Output     []byte
	Timestamp  time.Time
}

// SendCommandLog submits a command record for audit. Output is
// base64-encoded on the wire.
func (s *AppService) SendCommandLog(ctx context.Context, log CommandLog) (bool, error) {
	res, err := s.Post(ctx, "send-command-log", &CallOptions{
		Body: map[string]any{
			"proxy_log":  log.ProxyLogID,
			"command_no": log.CommandNo,
			"command":    log.Command,
			"output":     base64.StdEncoding.EncodeToString(log.Output),
			"datetime":   log.Timestamp.Format(datetimeLayout),
		},
	})
	if err != nil {
		return false, err
	}
	if res.StatusCode != http.StatusCreated {
		slog.Warn("create command log failed", "proxy_log_id", log.ProxyLogID, "status", res.StatusCode)
		return false, nil
	}
	return true, nil
}

// CheckUserAuthentication validates browser-session or token identity by
// asking the backend for the matching user profile. Returns nil when the
// identity is not accepted.
func (s *AppService) CheckUserAuthentication(ctx context.Context, token, sessionID, csrfToken string) (*User, error) {
	cred, err := NewCredential(token, sessionID, csrfToken, "", "")
	if err != nil {
		return nil, err
	}
	users := NewUserService(s.Endpoint)
	users.SetCredential(cred)
	user, ok, err := users.IsAuthenticated(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return user, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
