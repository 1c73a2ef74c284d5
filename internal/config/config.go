package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the contents of mixshare.toml.
type Config struct {
	HostID     string           `toml:"host_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	ShortCodes bool             `toml:"short_codes"` // hand out short codes by default
	Server     ServerConfig     `toml:"server"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
	Database   DatabaseConfig   `toml:"database"`
	Download   DownloadConfig   `toml:"download"`
}

// ServerConfig holds the base URLs of the local share server. Download
// links are built from them.
type ServerConfig struct {
	LocalURL string `toml:"local_url"`
	LANURL   string `toml:"lan_url,omitempty"`
}

// EncryptionConfig locates the age key pair that seals exports.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// VaultConfig names one place exports are stored. Type selects which of the
// prefixed fields apply.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // for S3-compatible stores
	// Static credentials. When empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig selects the favorites store.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// DownloadConfig holds settings for the http downloader.
type DownloadConfig struct {
	Dir string `toml:"dir"`
}

// DefaultLocalURL is where the share server listens unless configured
// otherwise.
const DefaultLocalURL = "http://127.0.0.1:4719"

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Server:  ServerConfig{LocalURL: DefaultLocalURL},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "mixshare.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "mixshare.key"),
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Download: DownloadConfig{Dir: filepath.Join(baseDir, "downloads")},
	}
}

// Decode reads a Config in TOML form from r and checks it with Validate.
// An empty server URL falls back to DefaultLocalURL.
func Decode(r io.Reader) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("unknown config key %q", keys[0].String())
	}
	if cfg.Server.LocalURL == "" {
		cfg.Server.LocalURL = DefaultLocalURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Encode writes cfg to w as TOML.
func Encode(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate rejects vault lists with unnamed or duplicate entries.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Vaults))
	for i, v := range c.Vaults {
		if v.Name == "" {
			return fmt.Errorf("vault %d has no name", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate vault name %q", v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

// ReadFromFile loads the Config stored at path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to a new file at path. An existing file is never
// overwritten.
func Init(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if err := Encode(f, cfg); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("initializing config: %w", err)
	}
	return f.Close()
}
