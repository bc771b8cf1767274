package provision

import (
	"context"

	"github.com/altosphere/adprovision/internal/ldap"
)

// attrUnicodePwd is the directory attribute that carries a password
// value. Directories only accept writes to it over a secure transport.
const attrUnicodePwd = "unicodePwd"

// PasswordStrategy is one way of writing an initial password to an
// account entry. Strategies are tried in order; the first success
// wins.
type PasswordStrategy interface {
	Name() string
	Set(ctx context.Context, dir ldap.Directory, dn, password string) error
}

// UnicodePwdStrategy writes the password by replacing the unicodePwd
// attribute with the UTF-16LE encoding of the quoted password. This is
// the native reset path for Active Directory.
type UnicodePwdStrategy struct{}

func (UnicodePwdStrategy) Name() string { return "unicodePwd" }

func (UnicodePwdStrategy) Set(ctx context.Context, dir ldap.Directory, dn, password string) error {
	encoded, err := EncodeUnicodePwd(password)
	if err != nil {
		return err
	}
	return dir.Modify(ctx, &ldap.ModifyRequest{
		DN: dn,
		ReplaceAttributes: []ldap.Attribute{
			{Name: attrUnicodePwd, Values: []string{encoded}},
		},
	})
}

// AdminResetStrategy performs an administrative reset through the
// password modify extended operation (RFC 3062). It serves as the
// fallback when the directory rejects the unicodePwd write.
type AdminResetStrategy struct{}

func (AdminResetStrategy) Name() string { return "admin-reset" }

func (AdminResetStrategy) Set(ctx context.Context, dir ldap.Directory, dn, password string) error {
	return dir.ModifyPassword(ctx, dn, password)
}
