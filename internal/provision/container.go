package provision

import (
	"strings"

	"github.com/altosphere/adprovision/internal/ldap"
)

// BaseDN derives the directory root DN from a DNS domain name:
// "corp.local" becomes "DC=corp,DC=local".
func BaseDN(domain string) string {
	labels := strings.Split(domain, ".")
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		if label = strings.TrimSpace(label); label != "" {
			parts = append(parts, "DC="+ldap.EscapeDNValue(label))
		}
	}
	return strings.Join(parts, ",")
}

// ResolveContainerDN computes the DN of the container that new
// accounts are created under. An explicit container DN wins; next an
// organizational unit path is mapped below the domain root, with the
// outermost unit written last per DN ordering; otherwise the built-in
// CN=Users container is used.
func ResolveContainerDN(cfg *DirectoryConfig) string {
	if cfg.UsersOuDN != "" {
		return cfg.UsersOuDN
	}

	base := BaseDN(cfg.Domain)
	if cfg.OUPath == "" {
		return "CN=Users," + base
	}

	segments := strings.Split(cfg.OUPath, "/")
	parts := make([]string, 0, len(segments)+1)
	for i := len(segments) - 1; i >= 0; i-- {
		if segment := strings.TrimSpace(segments[i]); segment != "" {
			parts = append(parts, "OU="+ldap.EscapeDNValue(segment))
		}
	}
	if len(parts) == 0 {
		return "CN=Users," + base
	}
	return strings.Join(parts, ",") + "," + base
}
