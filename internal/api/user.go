package api

import (
	"context"
	"log/slog"
	"net/http"
)

// UserService performs calls under a user's identity: login, profile and
// granted-asset listings.
type UserService struct {
	*Client
}

// NewUserService creates the user-side service for an endpoint.
func NewUserService(endpoint string) *UserService {
	return &UserService{Client: New(endpoint, "")}
}

// LoginRequest carries the user credentials presented at the terminal.
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password,omitempty"`
	PublicKey  string `json:"public_key,omitempty"`
	LoginType  string `json:"login_type"`  // "ST" or "WT"
	RemoteAddr string `json:"remote_addr"` // user address, not the app's
}

// Login authenticates the user against the backend. On success the issued
// token is bound to the client as a bearer credential and returned with the
// user profile. A rejected login returns ErrLoginFailed.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*User, string, error) {
	res, err := s.Post(ctx, "user-auth", &CallOptions{Body: req, NoAuth: true})
	if err != nil {
		return nil, "", err
	}
	if res.StatusCode != http.StatusOK {
		slog.Warn("user login rejected", "username", req.Username, "status", res.StatusCode)
		return nil, "", ErrLoginFailed
	}
	token := res.Body.Get("token").Str()
	var user User
	if err := res.Body.Get("user").Decode(&user); err != nil {
		return nil, "", err
	}
	if cred, err := NewBearerToken(token); err == nil {
		s.SetCredential(cred)
	}
	return &user, token, nil
}

// IsAuthenticated checks the bound credential by fetching the user profile.
func (s *UserService) IsAuthenticated(ctx context.Context) (*User, bool, error) {
	res, err := s.Post(ctx, "my-profile", nil)
	if err != nil {
		return nil, false, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, false, nil
	}
	var user User
	if err := res.Body.Decode(&user); err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// MyAssets lists the assets the user is granted, sorted for presentation.
// A degraded or rejected response yields an empty list, not an error.
func (s *UserService) MyAssets(ctx context.Context) ([]Asset, error) {
	res, err := s.Get(ctx, "my-assets", nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return []Asset{}, nil
	}
	var assets []Asset
	if err := res.Body.Decode(&assets); err != nil {
		return nil, err
	}
	SortAssets(assets)
	return assets, nil
}

// MyAssetGroups lists the user's granted asset groups.
func (s *UserService) MyAssetGroups(ctx context.Context) ([]AssetGroup, error) {
	res, err := s.Get(ctx, "my-asset-groups", nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return []AssetGroup{}, nil
	}
	var groups []AssetGroup
	if err := res.Body.Decode(&groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// AssetGroupAssets lists the user's granted assets within one group; not
// the whole group, only what the user may reach.
func (s *UserService) AssetGroupAssets(ctx context.Context, groupID int) ([]Asset, error) {
	res, err := s.Get(ctx, "assets-of-group", &CallOptions{PK: groupID})
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return []Asset{}, nil
	}
	var assets []Asset
	if err := res.Body.Decode(&assets); err != nil {
		return nil, err
	}
	SortAssets(assets)
	return assets, nil
}
