package audiostash

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cleanupTempDir(t, tempDir) })

	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestLoadConfig(t *testing.T) {
	configPath := writeConfig(t, `
port: 9090
storage:
  url: https://project.supabase.co
  key: anon-key
  bucket: lessons
  public: false
auth:
  enabled: true
  username: admin
  password: secret
  api_keys:
    - key-1
  read_keys:
    - viewer-1
    - viewer-2
pipeline:
  segment_seconds: 5
  work_dir: /var/tmp/audiostash
`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if config.Port != 9090 {
		t.Errorf("expected port 9090, got %d", config.Port)
	}
	if config.Storage.URL != "https://project.supabase.co" || config.Storage.Key != "anon-key" {
		t.Errorf("unexpected storage credentials %+v", config.Storage)
	}
	if config.Storage.Bucket != "lessons" {
		t.Errorf("expected bucket 'lessons', got '%s'", config.Storage.Bucket)
	}
	if config.Storage.Public == nil || *config.Storage.Public {
		t.Error("expected public to be false")
	}
	if config.Auth == nil || !config.Auth.Enabled || config.Auth.Username != "admin" || len(config.Auth.APIKeys) != 1 {
		t.Errorf("unexpected auth config %+v", config.Auth)
	} else if len(config.Auth.ReadKeys) != 2 || config.Auth.ReadKeys[1] != "viewer-2" {
		t.Errorf("unexpected read_keys %v", config.Auth.ReadKeys)
	}
	if config.Pipeline.SegmentSeconds != 5 {
		t.Errorf("expected segment_seconds 5, got %v", config.Pipeline.SegmentSeconds)
	}
	if config.Pipeline.WorkDir != "/var/tmp/audiostash" {
		t.Errorf("expected work_dir '/var/tmp/audiostash', got '%s'", config.Pipeline.WorkDir)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(EnvStorageURL, "https://env.supabase.co")
	t.Setenv(EnvStorageKey, "env-key")

	config, err := LoadConfig(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if config.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", config.Port)
	}
	if config.Storage.Bucket != DefaultBucket {
		t.Errorf("expected default bucket %q, got %q", DefaultBucket, config.Storage.Bucket)
	}
	if config.Storage.Public == nil || !*config.Storage.Public {
		t.Error("expected buckets to be public by default")
	}
	if config.Storage.URL != "https://env.supabase.co" || config.Storage.Key != "env-key" {
		t.Errorf("expected credentials from the environment, got %+v", config.Storage)
	}
	if config.Pipeline.SegmentSeconds != DefaultSegmentSeconds {
		t.Errorf("expected default segment_seconds, got %v", config.Pipeline.SegmentSeconds)
	}
	if config.Pipeline.WorkDir != os.TempDir() {
		t.Errorf("expected work_dir %q, got %q", os.TempDir(), config.Pipeline.WorkDir)
	}
	if config.Auth != nil {
		t.Error("expected auth to be unset")
	}
}

func TestLoadConfig_FileOverridesEnvironment(t *testing.T) {
	t.Setenv(EnvStorageURL, "https://env.supabase.co")
	t.Setenv(EnvStorageKey, "env-key")

	config, err := LoadConfig(writeConfig(t, "storage:\n  url: https://file.supabase.co\n"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if config.Storage.URL != "https://file.supabase.co" {
		t.Errorf("expected url from file, got %q", config.Storage.URL)
	}
	if config.Storage.Key != "env-key" {
		t.Errorf("expected key from environment, got %q", config.Storage.Key)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "port: [not a number")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Port: 8080, Storage: StorageConfig{Bucket: "audio_files"}}, false},
		{"port too low", Config{Port: -1, Storage: StorageConfig{Bucket: "audio_files"}}, true},
		{"port too high", Config{Port: 70000, Storage: StorageConfig{Bucket: "audio_files"}}, true},
		{"negative segment", Config{Port: 8080, Storage: StorageConfig{Bucket: "b"}, Pipeline: PipelineConfig{SegmentSeconds: -1}}, true},
		{"bucket with spaces", Config{Port: 8080, Storage: StorageConfig{Bucket: "audio files"}}, true},
		{"bucket with slash", Config{Port: 8080, Storage: StorageConfig{Bucket: "audio/files"}}, true},
		{"bucket with diacritics", Config{Port: 8080, Storage: StorageConfig{Bucket: "tiếng"}}, true},
		{
			"auth without identities",
			Config{Port: 8080, Storage: StorageConfig{Bucket: "b"}, Auth: &AuthConfig{Enabled: true}},
			true,
		},
		{
			"auth with api keys",
			Config{Port: 8080, Storage: StorageConfig{Bucket: "b"}, Auth: &AuthConfig{Enabled: true, APIKeys: []string{"k"}}},
			false,
		},
		{
			"disabled auth without identities",
			Config{Port: 8080, Storage: StorageConfig{Bucket: "b"}, Auth: &AuthConfig{}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_NewUploader(t *testing.T) {
	t.Setenv(EnvStorageURL, "")
	t.Setenv(EnvStorageKey, "")

	config := &Config{}
	config.ApplyDefaults()
	if uploader := config.NewUploader(); uploader != nil {
		t.Error("expected no uploader without credentials")
	}

	private := false
	config.Storage = StorageConfig{URL: "https://project.supabase.co", Key: "k", Bucket: "lessons", Public: &private}
	uploader := config.NewUploader()
	if uploader == nil {
		t.Fatal("expected an uploader")
	}
	if uploader.Bucket() != "lessons" {
		t.Errorf("expected bucket 'lessons', got %q", uploader.Bucket())
	}
	if uploader.public {
		t.Error("expected a private bucket")
	}
}
