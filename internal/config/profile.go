package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/validation"
)

// ClientProfile is the opitemctl configuration file
type ClientProfile struct {
	APIURL       string `yaml:"api_url,omitempty"`
	StorageURL   string `yaml:"storage_url,omitempty"`
	Bucket       string `yaml:"bucket,omitempty"`
	DatabaseURL  string `yaml:"database_url,omitempty"`
	CachePath    string `yaml:"cache_path,omitempty"`
	CacheTTL     string `yaml:"cache_ttl,omitempty"`
	QueryTimeout string `yaml:"query_timeout,omitempty"`
	QueryRetries *int   `yaml:"query_retries,omitempty"`
	AccessToken  string `yaml:"access_token,omitempty"`
	PageSize     int    `yaml:"page_size,omitempty"`
}

// DefaultProfilePath returns $XDG_CONFIG_HOME/opitemdb/config.yaml (or the platform equivalent)
func DefaultProfilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, ProfileDirName, ProfileFileName), nil
}

// defaultCachePath returns the bbolt cache file location
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, ProfileDirName, CacheFileName)
}

// LoadProfile reads and validates the profile at path. A missing file yields the defaults.
func LoadProfile(path string) (*ClientProfile, error) {
	p := &ClientProfile{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		p.applyDefaults()
		return p, nil
	case err != nil:
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if doc != nil {
		if err := validation.NewSchemaValidator().Validate(validation.SchemaClientProfile, doc); err != nil {
			return nil, fmt.Errorf("invalid profile %s: %w", path, err)
		}
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}

	p.applyDefaults()
	for name, raw := range map[string]string{"cache_ttl": p.CacheTTL, "query_timeout": p.QueryTimeout} {
		if d, err := time.ParseDuration(raw); err != nil || d < 0 {
			return nil, fmt.Errorf("invalid profile %s: %s must be a duration like 30s, got %q", path, name, raw)
		}
	}
	return p, nil
}

func (p *ClientProfile) applyDefaults() {
	if p.APIURL == "" {
		p.APIURL = DefaultAPIURL
	}
	if p.StorageURL == "" {
		p.StorageURL = p.APIURL
	}
	if p.Bucket == "" {
		p.Bucket = domain.ImageBucket
	}
	if p.CachePath == "" {
		p.CachePath = defaultCachePath()
	}
	if p.CacheTTL == "" {
		p.CacheTTL = DefaultCacheTTL
	}
	if p.QueryTimeout == "" {
		p.QueryTimeout = DefaultQueryTimeout
	}
	if p.QueryRetries == nil {
		retries := DefaultQueryRetries
		p.QueryRetries = &retries
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
}

// Save writes the profile with owner-only permissions
func (p *ClientProfile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write profile %s: %w", path, err)
	}
	return nil
}

// CacheTTLDuration returns the parsed cache TTL
func (p *ClientProfile) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(p.CacheTTL)
	return d
}

// QueryTimeoutDuration returns the parsed list query timeout
func (p *ClientProfile) QueryTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(p.QueryTimeout)
	return d
}

// Retries returns the number of list query retries
func (p *ClientProfile) Retries() int {
	if p.QueryRetries == nil {
		return DefaultQueryRetries
	}
	return *p.QueryRetries
}
