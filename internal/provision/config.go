package provision

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"

	"github.com/altosphere/adprovision/internal/ldap"
)

// Parameter names looked up in the host's parameter store. Every key
// carries the "ad." prefix so the directory settings stay grouped in a
// shared configuration namespace.
const (
	ParamServer         = "ad.server"
	ParamDomain         = "ad.domain"
	ParamAdminUser      = "ad.admin_user"
	ParamAdminPassword  = "ad.admin_password"
	ParamUsersOuDN      = "ad.users_ou"
	ParamOUPath         = "ad.ou_path"
	ParamTransport      = "ad.transport"
	ParamPort           = "ad.port"
	ParamValidateCert   = "ad.validate_cert"
	ParamConnectTimeout = "ad.connect_timeout"
	ParamDefaultGroups  = "ad.default_groups"
	ParamKerberosRealm  = "ad.kerberos_realm"
	ParamKerberosKeytab = "ad.kerberos_keytab"
	ParamKerberosConfig = "ad.kerberos_config"
)

// ParameterStore is the read-only view of the host application's
// configuration. The second return reports whether the parameter is
// set at all, so callers can distinguish "absent" from "empty".
type ParameterStore interface {
	Get(name string) (value string, ok bool)
}

// MapStore adapts a plain map to the ParameterStore interface.
type MapStore map[string]string

func (m MapStore) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// ConfigError reports directory configuration that is missing or
// malformed. It is raised before any network contact is attempted.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("directory configuration error: %s: %s", e.Param, e.Reason)
}

// IsConfigError reports whether err is a configuration failure.
func IsConfigError(err error) bool {
	_, ok := err.(*ConfigError)
	return ok
}

// DirectoryConfig is the fully resolved directory configuration for
// one provisioning run.
type DirectoryConfig struct {
	// Server is the directory host to contact. Required.
	Server string

	// Domain is the DNS domain of the directory, e.g. "corp.local".
	// Required; it determines the search base and the UPN suffix.
	Domain string

	// AdminUser is the account used to bind. A bare username is
	// expanded to a UPN using Domain.
	AdminUser string `default:"administrator"`

	// AdminPassword is the bind password. Required for simple bind.
	AdminPassword string

	// UsersOuDN, when set, is used verbatim as the container for new
	// accounts and takes priority over OUPath.
	UsersOuDN string

	// OUPath is a slash-separated organizational unit path below the
	// domain root, outermost unit first, e.g. "Employees/NewHires".
	OUPath string

	// TransportMode selects the connection security: "ldaps",
	// "starttls" or "plain".
	TransportMode ldap.TransportMode `default:"ldaps"`

	// Port overrides the transport's default port when non-zero.
	Port int

	// ValidateCert controls TLS certificate verification. Enabled by
	// default; disable only for lab directories with self-signed
	// certificates.
	ValidateCert bool `default:"true"`

	// ConnectTimeout bounds session establishment and each directory
	// operation.
	ConnectTimeout time.Duration `default:"10s"`

	// DefaultGroups lists groups every new account is added to.
	// Membership is best-effort and never fails the run.
	DefaultGroups []string

	// Kerberos settings enable GSSAPI bind for the admin account when
	// a keytab or config is provided. Simple bind remains the default.
	KerberosRealm  string
	KerberosKeytab string
	KerberosConfig string
}

// ResolveConfig reads the directory configuration from store, applies
// defaults and validates it. It returns a *ConfigError when a required
// parameter is absent or a value cannot be parsed; no network contact
// happens here.
func ResolveConfig(store ParameterStore) (*DirectoryConfig, error) {
	cfg := &DirectoryConfig{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying configuration defaults: %w", err)
	}

	getString := func(param string, dst *string) {
		if v, ok := store.Get(param); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	getString(ParamServer, &cfg.Server)
	getString(ParamDomain, &cfg.Domain)
	getString(ParamAdminUser, &cfg.AdminUser)
	getString(ParamAdminPassword, &cfg.AdminPassword)
	getString(ParamUsersOuDN, &cfg.UsersOuDN)
	getString(ParamOUPath, &cfg.OUPath)
	getString(ParamKerberosRealm, &cfg.KerberosRealm)
	getString(ParamKerberosKeytab, &cfg.KerberosKeytab)
	getString(ParamKerberosConfig, &cfg.KerberosConfig)

	if v, ok := store.Get(ParamTransport); ok && v != "" {
		mode, err := ldap.ParseTransportMode(v)
		if err != nil {
			return nil, &ConfigError{Param: ParamTransport, Reason: err.Error()}
		}
		cfg.TransportMode = mode
	}

	if v, ok := store.Get(ParamPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, &ConfigError{Param: ParamPort, Reason: fmt.Sprintf("invalid port %q", v)}
		}
		cfg.Port = port
	}

	if v, ok := store.Get(ParamValidateCert); ok && v != "" {
		validate, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &ConfigError{Param: ParamValidateCert, Reason: fmt.Sprintf("invalid boolean %q", v)}
		}
		cfg.ValidateCert = validate
	}

	if v, ok := store.Get(ParamConnectTimeout); ok && v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil || timeout <= 0 {
			return nil, &ConfigError{Param: ParamConnectTimeout, Reason: fmt.Sprintf("invalid duration %q", v)}
		}
		cfg.ConnectTimeout = timeout
	}

	if v, ok := store.Get(ParamDefaultGroups); ok {
		for _, group := range strings.Split(v, ",") {
			if group = strings.TrimSpace(group); group != "" {
				cfg.DefaultGroups = append(cfg.DefaultGroups, group)
			}
		}
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort(cfg.TransportMode)
	}
	if cfg.Domain != "" && !strings.Contains(cfg.AdminUser, "@") && !strings.Contains(cfg.AdminUser, "\\") {
		cfg.AdminUser = cfg.AdminUser + "@" + cfg.Domain
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is complete enough to open a
// directory session.
func (c *DirectoryConfig) Validate() error {
	if c.Server == "" {
		return &ConfigError{Param: ParamServer, Reason: "directory server is not configured"}
	}
	if c.Domain == "" {
		return &ConfigError{Param: ParamDomain, Reason: "directory domain is not configured"}
	}
	if c.AdminPassword == "" && c.KerberosKeytab == "" {
		return &ConfigError{Param: ParamAdminPassword, Reason: "admin password is not configured"}
	}
	return nil
}

// Connection maps the resolved configuration onto the session layer's
// connection settings.
func (c *DirectoryConfig) Connection() *ldap.ConnectionConfig {
	return &ldap.ConnectionConfig{
		Server:             c.Server,
		Port:               c.Port,
		TransportMode:      c.TransportMode,
		Timeout:            c.ConnectTimeout,
		BindUser:           c.AdminUser,
		BindPassword:       c.AdminPassword,
		KerberosRealm:      c.KerberosRealm,
		KerberosKeytab:     c.KerberosKeytab,
		KerberosConfig:     c.KerberosConfig,
		InsecureSkipVerify: !c.ValidateCert,
	}
}

func defaultPort(mode ldap.TransportMode) int {
	if mode == ldap.TransportLDAPS {
		return 636
	}
	return 389
}
