package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `logging:
  level: debug
run_log:
  backend: sqlite
  path: "file:config_test?mode=memory"
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "nop"
    - type: "influx"
      conf:
        url: "http://influx:8086"
        bucket: "runs"
server:
  addr: ":9000"
  token: "secret"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  qos:
    request: 1
search:
  max_results: 50
  timeout_ms: 2000
sentry:
  dsn: ""
  traces_sample_rate: 0.2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"logging.level", cfg.Logging.Level, "debug"},
		{"run_log.backend", cfg.RunLog.Backend, "sqlite"},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"metrics.sinks", len(cfg.Metrics.Sinks), 2},
		{"metrics.sinks[1].conf.bucket", cfg.Metrics.Sinks[1].Conf["bucket"], "runs"},
		{"server.addr", cfg.Server.Addr, ":9000"},
		{"server.token", cfg.Server.Token, "secret"},
		{"server.read_timeout_ms default", cfg.Server.ReadTimeoutMS, 10000},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.client_id", cfg.MQTT.ClientID, "cli"},
		{"mqtt.qos.request", cfg.MQTT.QoS["request"], byte(1)},
		{"mqtt.request_topic default", cfg.MQTT.RequestTopic, "schedulemaker/requests"},
		{"search.max_results", cfg.Search.MaxResults, 50},
		{"search.timeout", cfg.Search.Timeout().Seconds(), 2.0},
		{"sentry.traces_sample_rate", cfg.Sentry.TracesSampleRate, 0.2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"search":{"max_results":10},"server":{"addr":":1"}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SM_SEARCH__MAX_RESULTS", "25")
	t.Setenv("SM_RUN_LOG__BACKEND", "none")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Search.MaxResults != 25 {
		t.Errorf("env override not applied: %d", cfg.Search.MaxResults)
	}
	if cfg.RunLog.Backend != "none" {
		t.Errorf("run_log.backend = %q", cfg.RunLog.Backend)
	}
	if cfg.Server.Addr != ":1" {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.RunLog.Backend != "jsonl" || cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Search.MaxResults != 0 {
		t.Fatalf("max_results should default to unlimited")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"config.toml": `x = 1`,
		"bad.yaml":    "logging:\n  level: chatty\n",
		"neg.yaml":    "search:\n  max_results: -1\n",
		"mqtt.yaml":   "mqtt:\n  enabled: true\n",
		"store.yaml":  "run_log:\n  backend: csv\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("missing file: expected error")
	}
}
