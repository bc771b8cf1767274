package ldap

import "strconv"

// userAccountControl flags, from the Microsoft documentation. Only the
// flags the provisioning workflow touches or reports are listed.
const (
	UACAccountDisabled      int32 = 0x00000002 // Account is disabled
	UACPasswordNotRequired  int32 = 0x00000020 // No password required
	UACNormalAccount        int32 = 0x00000200 // Normal user account
	UACPasswordNeverExpires int32 = 0x00010000 // Password never expires
	UACPasswordExpired      int32 = 0x00800000 // Must change password at next logon
)

// UACEnabled is the userAccountControl value of a normal, enabled
// account (512).
const UACEnabled = UACNormalAccount

// IsAccountEnabled reports whether a userAccountControl value has the
// disabled bit clear.
func IsAccountEnabled(uac int32) bool {
	return uac&UACAccountDisabled == 0
}

// ParseUAC parses the string form of the userAccountControl attribute
// as returned by the directory.
func ParseUAC(value string) (int32, error) {
	v, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}
