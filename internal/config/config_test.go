package config

import (
	"strings"
	"testing"

	"github.com/dvloznov/ramp-bills/internal/domain"
	apperrors "github.com/dvloznov/ramp-bills/internal/errors"
)

func TestLayered_FirstNonEmptyWins(t *testing.T) {
	src := Layered{
		MapSource{"A": "", "B": "first"},
		nil,
		MapSource{"A": "second", "B": "second", "C": "third"},
	}

	tests := map[string]string{"A": "second", "B": "first", "C": "third"}
	for key, want := range tests {
		if got, _ := src.Lookup(key); got != want {
			t.Errorf("Lookup(%s) = %q, want %q", key, got, want)
		}
	}
	if _, ok := src.Lookup("D"); ok {
		t.Error("expected D to be unresolved")
	}
}

func TestRequire(t *testing.T) {
	src := MapSource{KeyClientID: "id", KeyClientSecret: "  "}

	err := Require(src, KeyClientID, KeyClientSecret, KeyAPIToken)
	if !apperrors.Is(err, apperrors.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if !strings.Contains(err.Error(), "RAMP_CLIENT_SECRET, RAMP_API_TOKEN") {
		t.Errorf("error should name missing keys, got %q", err.Error())
	}

	if err := Require(src, KeyClientID); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		want          Environment
		wantDefaulted bool
		wantErr       bool
	}{
		{"dev", []string{"dev"}, EnvDev, false, false},
		{"meddw", []string{"meddw"}, EnvMeddw, false, false},
		{"no argument", nil, EnvMeddw, true, false},
		{"qa is rejected", []string{"qa"}, "", false, true},
		{"case sensitive", []string{"DEV"}, "", false, true},
		{"too many", []string{"dev", "meddw"}, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, defaulted, err := ParseEnvironment(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEnvironment(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if err != nil && !apperrors.Is(err, apperrors.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
			if got != tt.want || defaulted != tt.wantDefaulted {
				t.Errorf("ParseEnvironment(%v) = %q, %v; want %q, %v", tt.args, got, defaulted, tt.want, tt.wantDefaulted)
			}
		})
	}
}

func TestLoadSettings(t *testing.T) {
	src := MapSource{
		KeyAPIToken:      "tok",
		KeyRedshiftHost:  "cluster.example",
		KeyRedshiftUser:  "loader",
		KeyRedshiftPass:  "pw",
		KeyRedshiftDB:    "ignored",
		KeyRedshiftRole:  "arn:aws:iam::1:role/copy",
		KeySQLPolicy:     "abort",
		KeyRedshiftSSL:   "require",
		KeyBillsEndpoint: "",
		KeyObjectURI:     "file:///tmp/bills.parquet",
	}

	s, err := LoadSettings(src, EnvDev)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if s.Token != "tok" || s.Dialect != DialectRedshift {
		t.Errorf("unexpected settings: %+v", s)
	}
	if s.Redshift.Database != "dev" {
		t.Errorf("Database = %q, want the environment selector", s.Redshift.Database)
	}
	if s.Redshift.Port != DefaultRedshiftPort {
		t.Errorf("Port = %q, want default", s.Redshift.Port)
	}
	if s.FetchPolicy != domain.ContinueOnError || s.SQLPolicy != domain.AbortOnError {
		t.Errorf("policies = %v/%v", s.FetchPolicy, s.SQLPolicy)
	}
	if s.ObjectURI != "file:///tmp/bills.parquet" {
		t.Errorf("ObjectURI = %q", s.ObjectURI)
	}
	if err := s.ValidateWarehouse(src); err != nil {
		t.Errorf("ValidateWarehouse: %v", err)
	}

	want := "postgres://loader:pw@cluster.example:5439/dev?sslmode=require"
	if got := s.Redshift.ConnString(); got != want {
		t.Errorf("ConnString = %q, want %q", got, want)
	}
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    MapSource
		target error
	}{
		{"missing token", MapSource{}, apperrors.ErrMissingCredential},
		{"bad policy", MapSource{KeyAPIToken: "t", KeyFetchPolicy: "retry"}, apperrors.ErrConfiguration},
		{"bad dialect", MapSource{KeyAPIToken: "t", KeyDialect: "snowflake"}, apperrors.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(tt.src, EnvMeddw)
			if !apperrors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestValidateWarehouse_MissingRedshiftKeys(t *testing.T) {
	src := MapSource{KeyAPIToken: "t", KeyRedshiftHost: "h"}
	s, err := LoadSettings(src, EnvMeddw)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	err = s.ValidateWarehouse(src)
	if !apperrors.Is(err, apperrors.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if !strings.Contains(err.Error(), KeyRedshiftRole) {
		t.Errorf("expected %s to be named, got %q", KeyRedshiftRole, err.Error())
	}
}

func TestValidateWarehouse_BigQuery(t *testing.T) {
	src := MapSource{KeyAPIToken: "t", KeyDialect: "BigQuery"}
	s, err := LoadSettings(src, EnvMeddw)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Dialect != DialectBigQuery {
		t.Fatalf("Dialect = %q", s.Dialect)
	}
	if err := s.ValidateWarehouse(src); !apperrors.Is(err, apperrors.ErrMissingCredential) {
		t.Errorf("expected missing BIGQUERY_PROJECT, got %v", err)
	}
}

func TestSettings_SetDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"redshift", DialectRedshift, false},
		{"Redshift", DialectRedshift, false},
		{" BIGQUERY ", DialectBigQuery, false},
		{"snowflake", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := &Settings{Dialect: "unchanged"}
			err := s.SetDialect(tt.in)
			if tt.wantErr {
				if !apperrors.Is(err, apperrors.ErrConfiguration) {
					t.Fatalf("expected ErrConfiguration, got %v", err)
				}
				if s.Dialect != "unchanged" {
					t.Errorf("Dialect changed to %q on error", s.Dialect)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetDialect(%q) failed: %v", tt.in, err)
			}
			if s.Dialect != tt.want {
				t.Errorf("Dialect = %q, want %q", s.Dialect, tt.want)
			}
		})
	}
}
