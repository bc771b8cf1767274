package ldap

import (
	"testing"
	"time"
)

func TestParseTransportMode(t *testing.T) {
	tests := []struct {
		input   string
		want    TransportMode
		wantErr bool
	}{
		{input: "ldaps", want: TransportLDAPS},
		{input: "starttls", want: TransportStartTLS},
		{input: "plain", want: TransportPlain},
		{input: "", wantErr: true},
		{input: "ssl", wantErr: true},
		{input: "LDAPS", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTransportMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTransportMode(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTransportMode(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTransportMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConnectionConfigURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  ConnectionConfig
		want string
	}{
		{
			name: "ldaps",
			cfg:  ConnectionConfig{Server: "dc1.corp.local", Port: 636, TransportMode: TransportLDAPS},
			want: "ldaps://dc1.corp.local:636",
		},
		{
			name: "starttls uses ldap scheme",
			cfg:  ConnectionConfig{Server: "dc1.corp.local", Port: 389, TransportMode: TransportStartTLS},
			want: "ldap://dc1.corp.local:389",
		},
		{
			name: "plain",
			cfg:  ConnectionConfig{Server: "10.0.0.5", Port: 389, TransportMode: TransportPlain},
			want: "ldap://10.0.0.5:389",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.URL(); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectionConfigValidate(t *testing.T) {
	valid := func() *ConnectionConfig {
		return &ConnectionConfig{
			Server:        "dc1.corp.local",
			Port:          636,
			TransportMode: TransportLDAPS,
			Timeout:       10 * time.Second,
			BindUser:      "administrator@corp.local",
			BindPassword:  "secret",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ConnectionConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *ConnectionConfig) {}},
		{name: "missing server", mutate: func(c *ConnectionConfig) { c.Server = "" }, wantErr: true},
		{name: "zero port", mutate: func(c *ConnectionConfig) { c.Port = 0 }, wantErr: true},
		{name: "port out of range", mutate: func(c *ConnectionConfig) { c.Port = 70000 }, wantErr: true},
		{name: "bad transport", mutate: func(c *ConnectionConfig) { c.TransportMode = "ssl" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *ConnectionConfig) { c.Timeout = 0 }, wantErr: true},
		{name: "bind user without password", mutate: func(c *ConnectionConfig) { c.BindPassword = "" }, wantErr: true},
		{
			name: "kerberos does not require password",
			mutate: func(c *ConnectionConfig) {
				c.BindPassword = ""
				c.KerberosRealm = "CORP.LOCAL"
				c.KerberosKeytab = "/etc/admin.keytab"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestAuthMethodSelection(t *testing.T) {
	simple := &ConnectionConfig{BindUser: "admin", BindPassword: "pw"}
	if simple.AuthMethod() != AuthMethodSimpleBind {
		t.Errorf("AuthMethod() = %s, want simple", simple.AuthMethod())
	}

	krb := &ConnectionConfig{BindUser: "admin", KerberosRealm: "CORP.LOCAL"}
	if krb.AuthMethod() != AuthMethodKerberos {
		t.Errorf("AuthMethod() = %s, want kerberos", krb.AuthMethod())
	}
}

func TestDefaultConnectionConfigIsSecure(t *testing.T) {
	cfg := DefaultConnectionConfig()

	if cfg.TransportMode != TransportLDAPS {
		t.Errorf("TransportMode = %s, want ldaps", cfg.TransportMode)
	}
	if cfg.Port != 636 {
		t.Errorf("Port = %d, want 636", cfg.Port)
	}
	if cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify = true by default, want certificate validation")
	}
	if tc := cfg.tlsConfig(); tc.InsecureSkipVerify {
		t.Error("tlsConfig().InsecureSkipVerify = true by default")
	}
}

func TestSplitPrincipal(t *testing.T) {
	tests := []struct {
		name          string
		cfg           ConnectionConfig
		wantPrincipal string
		wantRealm     string
		wantErr       bool
	}{
		{
			name:          "UPN bind user derives realm",
			cfg:           ConnectionConfig{BindUser: "svc-onboard@corp.local"},
			wantPrincipal: "svc-onboard",
			wantRealm:     "CORP.LOCAL",
		},
		{
			name:          "explicit realm wins",
			cfg:           ConnectionConfig{BindUser: "svc-onboard@corp.local", KerberosRealm: "EXAMPLE.ORG"},
			wantPrincipal: "svc-onboard",
			wantRealm:     "EXAMPLE.ORG",
		},
		{
			name:          "bare principal with realm",
			cfg:           ConnectionConfig{BindUser: "svc-onboard", KerberosRealm: "CORP.LOCAL"},
			wantPrincipal: "svc-onboard",
			wantRealm:     "CORP.LOCAL",
		},
		{
			name:    "bare principal without realm",
			cfg:     ConnectionConfig{BindUser: "svc-onboard"},
			wantErr: true,
		},
		{
			name:    "empty bind user",
			cfg:     ConnectionConfig{KerberosRealm: "CORP.LOCAL"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, realm, err := splitPrincipal(&tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("splitPrincipal() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("splitPrincipal() error: %v", err)
			}
			if principal != tt.wantPrincipal || realm != tt.wantRealm {
				t.Errorf("splitPrincipal() = (%q, %q), want (%q, %q)",
					principal, realm, tt.wantPrincipal, tt.wantRealm)
			}
		})
	}
}
