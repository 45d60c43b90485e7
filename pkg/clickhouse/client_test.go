package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ClientConfig
		scheme string
		query  map[string]string
	}{
		{
			name:   "native",
			cfg:    ClientConfig{Host: "ch", Port: 9000, Database: "armts", User: "u", Password: "p@ss", DialTimeout: 5 * time.Second},
			scheme: "clickhouse",
			query:  map[string]string{"dial_timeout": "5s"},
		},
		{
			name:   "http with async insert",
			cfg:    ClientConfig{Host: "ch", Port: 8123, Database: "default", UseHTTP: true, AsyncInsert: true},
			scheme: "http",
			query:  map[string]string{"async_insert": "1", "wait_for_async_insert": "1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(buildDSN(tt.cfg))
			if err != nil {
				t.Fatalf("parse dsn: %v", err)
			}
			if u.Scheme != tt.scheme {
				t.Fatalf("scheme %q want %q", u.Scheme, tt.scheme)
			}
			if u.Path != "/"+tt.cfg.Database {
				t.Fatalf("path %q", u.Path)
			}
			if tt.cfg.User != "" {
				pw, _ := u.User.Password()
				if u.User.Username() != tt.cfg.User || pw != tt.cfg.Password {
					t.Fatalf("credentials not preserved: %v", u.User)
				}
			}
			for k, v := range tt.query {
				if got := u.Query().Get(k); got != v {
					t.Errorf("query %s = %q want %q", k, got, v)
				}
			}
		})
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(t.Context()); err == nil {
		t.Fatal("expected error without host")
	}
}
