package api

import (
	"sort"
	"strings"
)

// Asset is a host the user is granted access to.
type Asset struct {
	ID                 int          `json:"id"`
	Hostname           string       `json:"hostname"`
	IP                 string       `json:"ip"`
	Port               int          `json:"port"`
	Comment            string       `json:"comment,omitempty"`
	IsActive           bool         `json:"is_active"`
	SystemUsersGranted []SystemUser `json:"system_users_granted"`
}

// SystemUser is a login identity on an asset.
type SystemUser struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Protocol string `json:"protocol,omitempty"`
	Priority int    `json:"priority,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// AssetGroup is a named grouping of granted assets.
type AssetGroup struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Comment      string `json:"comment,omitempty"`
	AssetsAmount int    `json:"assets_amount"`
}

// User is the authenticated backend user.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	IsActive    bool   `json:"is_active"`
	Role        string `json:"role,omitempty"`
	DateExpired string `json:"date_expired,omitempty"`
}

// SystemUserAuthInfo is the secret material for logging into an asset as a
// system user.
type SystemUserAuthInfo struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	PrivateKey string `json:"private_key"`
}

// SortAssets orders assets by hostname, then IP, case-insensitively. The
// backend returns grant order; terminals present hostname order.
func SortAssets(assets []Asset) {
	sort.SliceStable(assets, func(i, j int) bool {
		hi, hj := strings.ToLower(assets[i].Hostname), strings.ToLower(assets[j].Hostname)
		if hi != hj {
			return hi < hj
		}
		return assets[i].IP < assets[j].IP
	})
}
