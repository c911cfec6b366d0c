package main

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// defaultGRPCPort matches the server's DHC_GRPC_ADDR default.
const defaultGRPCPort = "9090"

// RemotesConfig is the contents of remotes.toml.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is a named datahub server. Only URL is required; the gRPC address
// and event source are derived from it when unset.
type Remote struct {
	URL       string `toml:"url"`
	Transport string `toml:"transport,omitempty"` // http or grpc
	GRPCAddr  string `toml:"grpc_addr,omitempty"`
	Token     string `toml:"token,omitempty"`
	NATSURL   string `toml:"nats_url,omitempty"`
}

func (r Remote) transport() string {
	if r.Transport == "" {
		return "http"
	}
	return r.Transport
}

// grpcTarget returns the gRPC dial address. Without an explicit address the
// host of URL (or localhost) is used on the default gRPC port, and derived
// is true.
func (r Remote) grpcTarget() (addr string, derived bool) {
	if r.GRPCAddr != "" {
		return r.GRPCAddr, false
	}
	host := "localhost"
	if u, err := url.Parse(r.URL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return net.JoinHostPort(host, defaultGRPCPort), true
}

// eventSource describes where dhc watch reads events for this remote: NATS
// when a URL is set, the server's SSE stream otherwise.
func (r Remote) eventSource() (kind, addr string) {
	if r.NATSURL != "" {
		return "nats", r.NATSURL
	}
	return "sse", streamURL(r.URL)
}

func (r Remote) validate() error {
	u, err := url.Parse(r.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q (want http://host:port or https://host)", r.URL)
	}
	switch r.transport() {
	case "http", "grpc":
	default:
		return fmt.Errorf("unknown transport %q (must be http or grpc)", r.Transport)
	}
	if r.GRPCAddr != "" {
		if _, _, err := net.SplitHostPort(r.GRPCAddr); err != nil {
			return fmt.Errorf("invalid gRPC address %q: %w", r.GRPCAddr, err)
		}
	}
	if r.NATSURL != "" {
		u, err := url.Parse(r.NATSURL)
		if err != nil {
			return fmt.Errorf("invalid NATS URL %q: %w", r.NATSURL, err)
		}
		switch u.Scheme {
		case "nats", "tls", "ws", "wss":
		default:
			return fmt.Errorf("invalid NATS URL %q (want nats://host:4222)", r.NATSURL)
		}
	}
	return nil
}

// lookup returns the remote called name, or the active one when name is empty.
func (c RemotesConfig) lookup(name string) (string, Remote, error) {
	if name == "" {
		name = c.Active
	}
	if name == "" {
		return "", Remote{}, fmt.Errorf("no active remote; pass a name or run 'dhc remote use <name>'")
	}
	r, ok := c.Remotes[name]
	if !ok {
		return "", Remote{}, fmt.Errorf("remote %q not found", name)
	}
	return name, r, nil
}

func remoteConfigPath() (string, error) {
	dir := os.Getenv("DHC_STATE_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".local", "state", "datahub")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "remotes.toml"), nil
}

func loadRemotesConfig() (RemotesConfig, error) {
	cfg := RemotesConfig{Remotes: map[string]Remote{}}
	path, err := remoteConfigPath()
	if err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

// saveRemotesConfig rewrites remotes.toml, readable by the owner only.
func saveRemotesConfig(cfg RemotesConfig) error {
	path, err := remoteConfigPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

var (
	remoteOnce   sync.Once
	cachedRemote Remote
)

// activeRemote returns the active remote, loaded once per process.
// A missing or unreadable file yields the zero Remote.
func activeRemote() Remote {
	remoteOnce.Do(func() {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return
		}
		if _, r, err := cfg.lookup(""); err == nil {
			cachedRemote = r
		}
	})
	return cachedRemote
}
