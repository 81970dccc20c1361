package config

import "testing"

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestEnvReader_Defaults(t *testing.T) {
	setEnv(t, map[string]string{
		"ENV":             EnvLocal,
		"STORE_BACKEND":   StoreBackendMemory,
		"JWT_SIGNING_KEY": "secret",
		"ADMIN_EMAILS":    "ana@example.com,boss@example.com",
	})

	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Board.PageSize != 2 {
		t.Fatalf("expected default page size 2, got %d", cfg.Board.PageSize)
	}
	if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[1] != "boss@example.com" {
		t.Fatalf("unexpected admin emails %v", cfg.AdminEmails)
	}
	if cfg.HTTP.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTP.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Env: EnvDev, StoreBackend: StoreBackendMemory, Board: BoardConfig{PageSize: 2}}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown env", mutate: func(c *Config) { c.Env = "staging" }},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "sqlite" }},
		{name: "postgres without database", mutate: func(c *Config) { c.StoreBackend = StoreBackendPostgres }},
		{name: "zero page size", mutate: func(c *Config) { c.Board.PageSize = 0 }},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
