package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/gw2ctl/internal/addons"
)

// LoaderInfo describes the latest addon loader release published by a repository
type LoaderInfo struct {
	VersionID       string `json:"version_id"`
	DownloadURL     string `json:"download_url"`
	WrapperNickname string `json:"wrapper_nickname"`
}

// ManagerInfo describes the latest manager release. It is not an installable addon.
type ManagerInfo struct {
	VersionID   string `json:"version_id"`
	DownloadURL string `json:"download_url"`
}

// Manifest is the payload of one addon repository
type Manifest struct {
	Addons  map[string]addons.Addon `json:"addons"`
	Loader  *LoaderInfo             `json:"loader"`
	Manager *ManagerInfo            `json:"manager"`
}

var (
	errNoAddons = errors.New("manifest has no addons map")
	errNoLoader = errors.New("manifest has no loader")
)

// ParseManifest decodes and validates a repository manifest.
// Addons missing a nickname take their map key, and list fields are never nil.
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if manifest.Addons == nil {
		return nil, errNoAddons
	}
	if manifest.Loader == nil {
		return nil, errNoLoader
	}

	normalized := make(map[string]addons.Addon, len(manifest.Addons))
	for key, addon := range manifest.Addons {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errors.New("manifest has an addon with an empty key")
		}
		if addon.Nickname == "" {
			addon.Nickname = key
		}
		normalized[key] = addon.Normalize()
	}
	manifest.Addons = normalized

	return &manifest, nil
}
