package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"xdao.co/support/keys"
	"xdao.co/support/store/registry"
)

const sample = `
operator:
  status: active
  worker_pubkey: "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
  support_pubkey: "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"
  key_algorithm: secp256k1
mining:
  difficulty: 2
  workers: 4
  max_rounds: 3
pool:
  min_difficulty: 1
  db_path: ${HOME}/support/pool
storage:
  write_policy: all
  backends:
    - name: memory
    - name: localfs
      config: {localfs-dir: "${HOME}/support/tickets"}
rpc:
  listen: 127.0.0.1:9000
log:
  level: debug
  format: json
`

func TestParseSample(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &Config{
		Operator: OperatorConfig{
			Status:        "active",
			WorkerPubKey:  "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
			SupportPubKey: "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5",
			KeyAlgorithm:  "secp256k1",
		},
		Mining: MiningConfig{Difficulty: 2, Workers: 4, MaxRounds: 3},
		Pool:   PoolConfig{MinDifficulty: 1, DBPath: filepath.Join(home, "support", "pool")},
		Storage: registry.Config{
			WritePolicy: "all",
			Backends: []registry.BackendConfig{
				{Name: "memory"},
				{Name: "localfs", Config: map[string]string{"localfs-dir": filepath.Join(home, "support", "tickets")}},
			},
		},
		RPC: RPCConfig{Listen: "127.0.0.1:9000"},
		Log: LogConfig{Level: "debug", Format: "json"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultsApply(t *testing.T) {
	cfg, err := Parse([]byte("rpc:\n  listen: 0.0.0.0:1\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Mining.Difficulty != 1 || cfg.Operator.Status != "inactive" || cfg.Storage.Backends[0].Name != "memory" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.RPC.Listen != "0.0.0.0:1" {
		t.Fatalf("override not applied")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]string{
		"status":     "operator:\n  status: paused\n",
		"key":        "operator:\n  worker_pubkey: \"0500\"\n",
		"hex":        "operator:\n  worker_pubkey: \"zz\"\n",
		"alg":        "operator:\n  key_algorithm: rsa\n",
		"difficulty": "mining:\n  difficulty: 33\n",
		"rounds":     "mining:\n  max_rounds: 0\n",
		"below pool": "mining:\n  difficulty: 0\npool:\n  min_difficulty: 2\n",
		"policy":     "storage:\n  write_policy: some\n  backends: [{name: memory}]\n",
		"level":      "log:\n  level: loud\n",
		"format":     "log:\n  format: xml\n",
		"unknown":    "mining:\n  speed: 3\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "support.yaml")
	if err := os.WriteFile(path, []byte("mining:\n  difficulty: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvVar, path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mining.Difficulty != 3 {
		t.Fatalf("expected difficulty 3, got %d", cfg.Mining.Difficulty)
	}

	t.Setenv(EnvVar, "")
	cfg, err = Load("")
	if err != nil || cfg.Mining.Difficulty != 1 {
		t.Fatalf("expected defaults without a file: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level")
	}
	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Warn("shown", "k", 1)
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestValidateKeyErrorsWrapInvalidKey(t *testing.T) {
	for _, v := range []string{"zz", "0500"} {
		_, err := Parse([]byte("operator:\n  worker_pubkey: \"" + v + "\"\n"))
		if !errors.Is(err, keys.ErrInvalidKey) {
			t.Fatalf("%s: expected ErrInvalidKey, got %v", v, err)
		}
	}
}

func TestValidateMiningBelowPoolMinimum(t *testing.T) {
	_, err := Parse([]byte("mining:\n  difficulty: 1\npool:\n  min_difficulty: 2\n"))
	if err == nil || !strings.Contains(err.Error(), "below pool.min_difficulty") {
		t.Fatalf("expected mining/pool difficulty error, got %v", err)
	}
	if _, err := Parse([]byte("mining:\n  difficulty: 2\npool:\n  min_difficulty: 2\n")); err != nil {
		t.Fatalf("equal difficulties should be accepted: %v", err)
	}
}
