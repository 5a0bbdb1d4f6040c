package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/dvloznov/ramp-bills/internal/domain"
	apperrors "github.com/dvloznov/ramp-bills/internal/errors"
)

// Keys understood in env files and the process environment.
const (
	KeyClientID         = "RAMP_CLIENT_ID"
	KeyClientSecret     = "RAMP_CLIENT_SECRET"
	KeyAPIToken         = "RAMP_API_TOKEN"
	KeyTokenURL         = "RAMP_TOKEN_URL"
	KeyBillsEndpoint    = "RAMP_BILLS_ENDPOINT"
	KeyObjectURI        = "RAMP_BILLS_OBJECT_URI"
	KeyDialect          = "WAREHOUSE_DIALECT"
	KeyRedshiftHost     = "REDSHIFT_HOST"
	KeyRedshiftPort     = "REDSHIFT_PORT"
	KeyRedshiftUser     = "REDSHIFT_USER"
	KeyRedshiftPass     = "REDSHIFT_PASSWORD"
	KeyRedshiftDB       = "REDSHIFT_DB"
	KeyRedshiftRole     = "REDSHIFT_IAM_ROLE"
	KeyRedshiftSSL      = "REDSHIFT_SSLMODE"
	KeyBQProject        = "BIGQUERY_PROJECT"
	KeyBQCredentials    = "BIGQUERY_CREDENTIALS_FILE"
	KeyFetchPolicy      = "FETCH_FAILURE_POLICY"
	KeySQLPolicy        = "SQL_FAILURE_POLICY"
	KeyLogLevel         = "LOG_LEVEL"
	DefaultTokenURL     = "https://api.ramp.com/developer/v1/token"
	DefaultRedshiftPort = "5439"
)

// Warehouse dialects.
const (
	DialectRedshift = "redshift"
	DialectBigQuery = "bigquery"
)

// Redshift holds connection parameters for the SQL endpoint.
type Redshift struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	IAMRole  string
	SSLMode  string
}

// ConnString renders a postgres URL understood by pgx.
func (r Redshift) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(r.User, r.Password),
		Host:   net.JoinHostPort(r.Host, r.Port),
		Path:   "/" + r.Database,
	}
	if r.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", r.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// BigQuery holds client parameters for the BigQuery dialect.
type BigQuery struct {
	ProjectID       string
	CredentialsFile string
}

// Settings is everything a load run needs, resolved once at startup.
type Settings struct {
	Environment Environment
	Token       string
	Endpoint    string
	ObjectURI   string
	Dialect     string
	Redshift    Redshift
	BigQuery    BigQuery
	FetchPolicy domain.FailurePolicy
	SQLPolicy   domain.FailurePolicy
	LogLevel    string
}

// LoadSettings resolves run settings. Only the API token is required here;
// warehouse parameters are checked by ValidateWarehouse so dry runs work
// without them.
func LoadSettings(src Source, env Environment) (*Settings, error) {
	if err := Require(src, KeyAPIToken); err != nil {
		return nil, err
	}

	fetchPolicy, err := domain.ParseFailurePolicy(Get(src, KeyFetchPolicy, ""))
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrConfiguration, KeyFetchPolicy)
	}
	sqlPolicy, err := domain.ParseFailurePolicy(Get(src, KeySQLPolicy, ""))
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrConfiguration, KeySQLPolicy)
	}

	s := &Settings{
		Environment: env,
		Token:       Get(src, KeyAPIToken, ""),
		Endpoint:    Get(src, KeyBillsEndpoint, ""),
		ObjectURI:   Get(src, KeyObjectURI, ""),
		Redshift: Redshift{
			Host:     Get(src, KeyRedshiftHost, ""),
			Port:     Get(src, KeyRedshiftPort, DefaultRedshiftPort),
			User:     Get(src, KeyRedshiftUser, ""),
			Password: Get(src, KeyRedshiftPass, ""),
			// The environment selector names the database to load into.
			Database: Get(src, KeyRedshiftDB, ""),
			IAMRole:  Get(src, KeyRedshiftRole, ""),
			SSLMode:  Get(src, KeyRedshiftSSL, ""),
		},
		BigQuery: BigQuery{
			ProjectID:       Get(src, KeyBQProject, ""),
			CredentialsFile: Get(src, KeyBQCredentials, ""),
		},
		FetchPolicy: fetchPolicy,
		SQLPolicy:   sqlPolicy,
		LogLevel:    Get(src, KeyLogLevel, "info"),
	}
	if err := s.SetDialect(Get(src, KeyDialect, DialectRedshift)); err != nil {
		return nil, err
	}
	if env != "" {
		s.Redshift.Database = string(env)
	}
	return s, nil
}

// SetDialect selects the warehouse dialect, case-insensitively.
func (s *Settings) SetDialect(name string) error {
	dialect := strings.ToLower(strings.TrimSpace(name))
	if dialect != DialectRedshift && dialect != DialectBigQuery {
		return apperrors.WrapError(nil, apperrors.ErrConfiguration,
			fmt.Sprintf("%s=%q (want %s or %s)", KeyDialect, name, DialectRedshift, DialectBigQuery))
	}
	s.Dialect = dialect
	return nil
}

// ValidateWarehouse checks the parameters the selected dialect needs.
func (s *Settings) ValidateWarehouse(src Source) error {
	switch s.Dialect {
	case DialectBigQuery:
		return Require(src, KeyBQProject)
	default:
		if err := Require(src, KeyRedshiftHost, KeyRedshiftUser, KeyRedshiftPass, KeyRedshiftRole); err != nil {
			return err
		}
		if s.Redshift.Database == "" {
			return apperrors.WrapError(nil, apperrors.ErrMissingCredential, KeyRedshiftDB)
		}
		return nil
	}
}
