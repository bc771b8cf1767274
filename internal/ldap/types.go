package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// TransportMode selects how the connection to the directory server is
// secured.
type TransportMode string

const (
	// TransportLDAPS opens a TLS-wrapped connection directly.
	TransportLDAPS TransportMode = "ldaps"
	// TransportStartTLS opens a plaintext connection and upgrades it in
	// place before authenticating.
	TransportStartTLS TransportMode = "starttls"
	// TransportPlain opens a plaintext connection with no upgrade. For
	// trusted-network testing only.
	TransportPlain TransportMode = "plain"
)

// ParseTransportMode converts a configuration string into a
// TransportMode.
func ParseTransportMode(s string) (TransportMode, error) {
	switch TransportMode(s) {
	case TransportLDAPS, TransportStartTLS, TransportPlain:
		return TransportMode(s), nil
	default:
		return "", fmt.Errorf("unknown transport mode %q (expected ldaps, starttls or plain)", s)
	}
}

// ConnectionConfig holds everything needed to open and authenticate a
// directory session.
type ConnectionConfig struct {
	// Connection settings
	Server        string        // Host name or IP of the directory server
	Port          int           // TCP port (636 for ldaps, 389 otherwise)
	TransportMode TransportMode // ldaps, starttls or plain
	Timeout       time.Duration // Dial and per-operation timeout

	// Authentication settings
	BindUser     string // Administrative principal (UPN or DN)
	BindPassword string // Password for simple bind

	// Kerberos settings; when Realm is set the admin bind is performed
	// via GSSAPI instead of a simple bind.
	KerberosRealm  string // Kerberos realm
	KerberosKeytab string // Path to a keytab for the bind user
	KerberosConfig string // Path to krb5.conf

	// TLS settings
	TLSConfig          *tls.Config // Custom TLS configuration, optional
	InsecureSkipVerify bool        // Accept server certificates without validation
}

// DefaultConnectionConfig returns a secure default configuration:
// LDAPS on 636 with certificate validation and a 10 second timeout.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Port:          636,
		TransportMode: TransportLDAPS,
		Timeout:       10 * time.Second,
	}
}

// AuthMethod defines how the administrative bind is performed.
type AuthMethod int

const (
	AuthMethodSimpleBind AuthMethod = iota // Username/password bind
	AuthMethodKerberos                     // GSSAPI bind
)

// String returns the string representation of the authentication method.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodSimpleBind:
		return "simple"
	case AuthMethodKerberos:
		return "kerberos"
	default:
		return "unknown"
	}
}

// AuthMethod determines the bind method from the configuration.
// Kerberos takes precedence when a realm is configured.
func (c *ConnectionConfig) AuthMethod() AuthMethod {
	if c.KerberosRealm != "" {
		return AuthMethodKerberos
	}
	return AuthMethodSimpleBind
}

// URL builds the dial URL for the configured transport mode.
func (c *ConnectionConfig) URL() string {
	scheme := "ldap"
	if c.TransportMode == TransportLDAPS {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Server, c.Port)
}

// tlsConfig returns the TLS configuration to use for the connection,
// falling back to a sane default when no custom configuration was
// supplied.
func (c *ConnectionConfig) tlsConfig() *tls.Config {
	if c.TLSConfig != nil {
		return c.TLSConfig
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         c.Server,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

// Validate checks that the configuration is complete enough to attempt
// a connection.
func (c *ConnectionConfig) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if _, err := ParseTransportMode(string(c.TransportMode)); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.AuthMethod() == AuthMethodSimpleBind && c.BindUser != "" && c.BindPassword == "" {
		return fmt.Errorf("bind password is required for simple bind")
	}
	return nil
}

// Directory is the operation surface the provisioning workflow needs
// from an open session. *Session implements it; tests substitute a
// mock.
type Directory interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	Add(ctx context.Context, req *AddRequest) error
	Modify(ctx context.Context, req *ModifyRequest) error
	ModifyPassword(ctx context.Context, dn, newPassword string) error
}

// SearchRequest encapsulates LDAP search parameters.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string
	Attributes []string
	SizeLimit  int
	TimeLimit  time.Duration
}

// SearchResult contains search results.
type SearchResult struct {
	Entries []*ldap.Entry
}

// AddRequest encapsulates LDAP add parameters.
type AddRequest struct {
	DN         string
	Attributes []Attribute
}

// Attribute is a named attribute with one or more values. Requests
// keep attributes ordered so the wire encoding is reproducible.
type Attribute struct {
	Name   string
	Values []string
}

// ModifyRequest encapsulates LDAP modify parameters.
type ModifyRequest struct {
	DN                string
	AddAttributes     []Attribute
	ReplaceAttributes []Attribute
	DeleteAttributes  []string
}

// SearchScope defines LDAP search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// String returns the string representation of the search scope.
func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	case ScopeWholeSubtree:
		return "sub"
	default:
		return "unknown"
	}
}
