package ldap

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

// gssapiBind authenticates the administrative principal via Kerberos.
// Credentials are taken from the configured keytab when present,
// otherwise from the bind password.
func gssapiBind(conn *ldap.Conn, cfg *ConnectionConfig) error {
	principal, realm, err := splitPrincipal(cfg)
	if err != nil {
		return err
	}

	krb5conf := cfg.KerberosConfig
	if krb5conf == "" {
		krb5conf = "/etc/krb5.conf"
	}
	if !fileExists(krb5conf) {
		return fmt.Errorf("kerberos configuration file not found at %s", krb5conf)
	}

	var client ldap.GSSAPIClient
	switch {
	case cfg.KerberosKeytab != "":
		client, err = gssapi.NewClientWithKeytab(principal, realm, cfg.KerberosKeytab, krb5conf,
			krb5client.DisablePAFXFAST(true))
	case cfg.BindPassword != "":
		client, err = gssapi.NewClientWithPassword(principal, realm, cfg.BindPassword, krb5conf,
			krb5client.DisablePAFXFAST(true))
	default:
		return fmt.Errorf("kerberos authentication requires a keytab or a bind password")
	}
	if err != nil {
		return fmt.Errorf("failed to create GSSAPI client: %w", err)
	}
	defer func() {
		_ = client.DeleteSecContext()
	}()

	spn := fmt.Sprintf("ldap/%s", cfg.Server)
	if err := conn.GSSAPIBind(client, spn, ""); err != nil {
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}
	return nil
}

// splitPrincipal resolves the Kerberos principal and realm from the
// configuration, accepting UPN-style bind users (admin@REALM).
func splitPrincipal(cfg *ConnectionConfig) (principal, realm string, err error) {
	principal = cfg.BindUser
	realm = cfg.KerberosRealm

	if at := strings.IndexByte(principal, '@'); at != -1 {
		if realm == "" {
			realm = strings.ToUpper(principal[at+1:])
		}
		principal = principal[:at]
	}

	if principal == "" {
		return "", "", fmt.Errorf("bind user (principal) is required for kerberos authentication")
	}
	if realm == "" {
		return "", "", fmt.Errorf("kerberos realm is required (set it explicitly or use a UPN bind user)")
	}
	return principal, realm, nil
}

// fileExists checks that a file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
