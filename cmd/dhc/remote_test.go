package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("DHC_STATE_DIR", t.TempDir())

	in := RemotesConfig{
		Active: "prod",
		Remotes: map[string]Remote{
			"prod":  {URL: "https://datahub.example.com", Transport: "grpc", GRPCAddr: "grpc.example.com:443", Token: "tok_abc", NATSURL: "nats://prod:4222"},
			"local": {URL: "http://localhost:8080"},
		},
	}
	if err := saveRemotesConfig(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := loadRemotesConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Active != "prod" {
		t.Errorf("Active = %q, want %q", got.Active, "prod")
	}
	if prod := got.Remotes["prod"]; prod != in.Remotes["prod"] {
		t.Errorf("prod remote = %+v, want %+v", prod, in.Remotes["prod"])
	}
	if local := got.Remotes["local"]; local != in.Remotes["local"] {
		t.Errorf("local remote = %+v, want only a URL", local)
	}
}

func TestLoadRemotesConfig_NoFile(t *testing.T) {
	t.Setenv("DHC_STATE_DIR", t.TempDir())

	cfg, err := loadRemotesConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Active != "" || cfg.Remotes == nil || len(cfg.Remotes) != 0 {
		t.Errorf("expected empty config with non-nil map, got %+v", cfg)
	}
}

func TestLoadRemotesConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DHC_STATE_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "remotes.toml"), []byte("active = [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadRemotesConfig(); err == nil || !strings.Contains(err.Error(), "remotes.toml") {
		t.Fatalf("expected an error naming the file, got %v", err)
	}
}

func TestRemoteConfigPath_DefaultsToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("DHC_STATE_DIR", "")
	t.Setenv("HOME", home)

	path, err := remoteConfigPath()
	if err != nil {
		t.Fatalf("remoteConfigPath: %v", err)
	}
	if want := filepath.Join(home, ".local", "state", "datahub", "remotes.toml"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
}

func TestSaveRemotesConfig_Permissions(t *testing.T) {
	t.Setenv("DHC_STATE_DIR", t.TempDir())

	if err := saveRemotesConfig(RemotesConfig{Remotes: map[string]Remote{}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	path, _ := remoteConfigPath()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Errorf("%s permissions = %04o, want 0600", path, got)
	}
}

func TestRemote_Derived(t *testing.T) {
	for _, tc := range []struct {
		name        string
		remote      Remote
		transport   string
		grpc        string
		derived     bool
		events, src string
	}{
		{
			"zero value", Remote{},
			"http", "localhost:9090", true, "sse", "/v1/events/stream",
		},
		{
			"grpc from URL host", Remote{URL: "https://datahub.example.com/"},
			"http", "datahub.example.com:9090", true, "sse", "https://datahub.example.com/v1/events/stream",
		},
		{
			"URL port ignored for grpc", Remote{URL: "http://10.0.0.5:8080", Transport: "grpc"},
			"grpc", "10.0.0.5:9090", true, "sse", "http://10.0.0.5:8080/v1/events/stream",
		},
		{
			"explicit settings", Remote{URL: "http://dh:8080", GRPCAddr: "dh-grpc:7000", NATSURL: "nats://bus:4222"},
			"http", "dh-grpc:7000", false, "nats", "nats://bus:4222",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.remote.transport(); got != tc.transport {
				t.Errorf("transport = %q, want %q", got, tc.transport)
			}
			addr, derived := tc.remote.grpcTarget()
			if addr != tc.grpc || derived != tc.derived {
				t.Errorf("grpcTarget = %q, %v; want %q, %v", addr, derived, tc.grpc, tc.derived)
			}
			kind, src := tc.remote.eventSource()
			if kind != tc.events || src != tc.src {
				t.Errorf("eventSource = %q %q; want %q %q", kind, src, tc.events, tc.src)
			}
		})
	}
}

func TestRemote_Validate(t *testing.T) {
	for _, tc := range []struct {
		name    string
		remote  Remote
		wantErr string
	}{
		{"minimal", Remote{URL: "http://localhost:8080"}, ""},
		{"full", Remote{URL: "https://dh.example.com", Transport: "grpc", GRPCAddr: "dh.example.com:443", NATSURL: "tls://bus:4222"}, ""},
		{"no scheme", Remote{URL: "localhost:8080"}, "invalid server URL"},
		{"grpc scheme", Remote{URL: "grpc://localhost:9090"}, "invalid server URL"},
		{"bad transport", Remote{URL: "http://localhost:8080", Transport: "ws"}, "unknown transport"},
		{"grpc without port", Remote{URL: "http://localhost:8080", GRPCAddr: "localhost"}, "invalid gRPC address"},
		{"http NATS URL", Remote{URL: "http://localhost:8080", NATSURL: "http://bus:4222"}, "invalid NATS URL"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.remote.validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func setFlag(t *testing.T, name, value string) {
	t.Helper()
	if err := remoteAddCmd.Flags().Set(name, value); err != nil {
		t.Fatalf("set --%s: %v", name, err)
	}
	t.Cleanup(func() { _ = remoteAddCmd.Flags().Set(name, "") })
}

func TestRemoteLifecycle(t *testing.T) {
	t.Setenv("DHC_STATE_DIR", t.TempDir())

	mustRun := func(fn func() error) {
		t.Helper()
		if err := fn(); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	for _, c := range []interface{ SetOut(w io.Writer) }{remoteAddCmd, remoteUseCmd, remoteListCmd, remoteShowCmd, remoteRemoveCmd} {
		c.SetOut(&buf)
	}

	mustRun(func() error { return remoteAddCmd.RunE(remoteAddCmd, []string{"local", "http://localhost:8080"}) })
	mustRun(func() error { return remoteAddCmd.RunE(remoteAddCmd, []string{"local", "http://localhost:8080"}) }) // replace
	cfg, _ := loadRemotesConfig()
	if cfg.Active != "local" {
		t.Fatalf("first remote should become active, got %q", cfg.Active)
	}

	setFlag(t, "transport", "grpc")
	mustRun(func() error { return remoteAddCmd.RunE(remoteAddCmd, []string{"staging", "http://staging:8080"}) })
	if !strings.Contains(buf.String(), "grpc staging:9090") {
		t.Errorf("add should report the grpc endpoint; got:\n%s", buf.String())
	}
	cfg, _ = loadRemotesConfig()
	if cfg.Active != "local" || len(cfg.Remotes) != 2 {
		t.Fatalf("adding a second remote must keep the active one: %+v", cfg)
	}

	buf.Reset()
	mustRun(func() error { return remoteListCmd.RunE(remoteListCmd, nil) })
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows; got:\n%s", buf.String())
	}
	if f := strings.Fields(lines[1]); len(f) < 5 || f[0] != "*" || f[1] != "local" || f[2] != "http" || f[3] != "http://localhost:8080" || f[4] != "sse" {
		t.Errorf("unexpected local row %q", lines[1])
	}
	if f := strings.Fields(lines[2]); len(f) < 4 || f[0] != "staging" || f[1] != "grpc" || f[2] != "staging:9090" || f[3] != "sse" {
		t.Errorf("unexpected staging row %q", lines[2])
	}

	buf.Reset()
	mustRun(func() error { return remoteShowCmd.RunE(remoteShowCmd, []string{"staging"}) })
	out := buf.String()
	for _, want := range []string{"grpc", "staging:9090", "(derived)", "sse http://staging:8080/v1/events/stream"} {
		if !strings.Contains(out, want) {
			t.Errorf("show missing %q; got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "(active)") {
		t.Errorf("staging is not active; got:\n%s", out)
	}

	mustRun(func() error { return remoteUseCmd.RunE(remoteUseCmd, []string{"staging"}) })
	mustRun(func() error { return remoteRemoveCmd.RunE(remoteRemoveCmd, []string{"staging"}) })
	cfg, _ = loadRemotesConfig()
	if _, ok := cfg.Remotes["staging"]; ok {
		t.Error("remote 'staging' should be gone")
	}
	if cfg.Active != "" {
		t.Errorf("Active should be cleared, got %q", cfg.Active)
	}
}

func TestRemoteAdd_RejectsInvalid(t *testing.T) {
	t.Setenv("DHC_STATE_DIR", t.TempDir())
	remoteAddCmd.SetOut(io.Discard)

	setFlag(t, "nats", "localhost:4222")
	if err := remoteAddCmd.RunE(remoteAddCmd, []string{"prod", "https://datahub.example.com"}); err == nil {
		t.Fatal("expected an error for a NATS URL without scheme")
	}
	cfg, _ := loadRemotesConfig()
	if len(cfg.Remotes) != 0 {
		t.Fatalf("invalid remote must not be saved: %+v", cfg)
	}
}

func TestRemoteShow_JSON(t *testing.T) {
	t.Setenv("DHC_STATE_DIR", t.TempDir())
	orig := jsonOutput
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = orig })

	if err := saveRemotesConfig(RemotesConfig{Active: "prod", Remotes: map[string]Remote{
		"prod": {URL: "https://datahub.example.com", NATSURL: "nats://bus:4222", Token: "tok_verylongsecret"},
	}}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	remoteShowCmd.SetOut(&buf)
	if err := remoteShowCmd.RunE(remoteShowCmd, nil); err != nil {
		t.Fatal(err)
	}
	var v remoteView
	if err := json.Unmarshal(buf.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	want := remoteView{
		Name: "prod", Active: true, Transport: "http",
		HTTPURL: "https://datahub.example.com", GRPCAddr: "datahub.example.com:9090", GRPCDerived: true,
		Events: "nats", EventsURL: "nats://bus:4222", Token: "tok_****cret",
	}
	if v != want {
		t.Fatalf("got %+v, want %+v", v, want)
	}
}

func TestRemoteTokenRedaction(t *testing.T) {
	t.Setenv("DHC_STATE_DIR", t.TempDir())
	setFlag(t, "token", "tok_verylongsecret")

	var buf bytes.Buffer
	remoteAddCmd.SetOut(&buf)
	if err := remoteAddCmd.RunE(remoteAddCmd, []string{"prod", "https://datahub.example.com"}); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name string
		run  func() error
	}{
		{"add", func() error { return nil }},
		{"list", func() error { remoteListCmd.SetOut(&buf); return remoteListCmd.RunE(remoteListCmd, nil) }},
		{"show", func() error { remoteShowCmd.SetOut(&buf); return remoteShowCmd.RunE(remoteShowCmd, nil) }},
	} {
		if tc.name != "add" {
			buf.Reset()
		}
		if err := tc.run(); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(buf.String(), "tok_verylongsecret") {
			t.Errorf("%s: full token must not appear; got:\n%s", tc.name, buf.String())
		}
		if tc.name != "add" && !strings.Contains(buf.String(), "tok_****cret") {
			t.Errorf("%s: expected redacted token; got:\n%s", tc.name, buf.String())
		}
	}
}

func TestRemoteErrorCases(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"use unknown", func() error { return remoteUseCmd.RunE(remoteUseCmd, []string{"ghost"}) }},
		{"remove unknown", func() error { return remoteRemoveCmd.RunE(remoteRemoveCmd, []string{"ghost"}) }},
		{"show no active", func() error { return remoteShowCmd.RunE(remoteShowCmd, nil) }},
		{"show unknown", func() error { return remoteShowCmd.RunE(remoteShowCmd, []string{"ghost"}) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DHC_STATE_DIR", t.TempDir())
			if err := tc.fn(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestRedactToken(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"", ""},
		{"short", "*****"},
		{"exactly8", "********"},
		{"tok_verylong", "tok_****long"},
	} {
		if got := redactToken(tc.in); got != tc.want {
			t.Errorf("redactToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
