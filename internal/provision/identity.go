package provision

import (
	"fmt"
	"strings"
)

// PersonIdentity describes the person an account is provisioned for.
// All provisioning attributes are derived from these four fields.
type PersonIdentity struct {
	GivenName    string
	Surname      string
	EmailAddress string
	Phone        string

	// LoginName is the sAMAccountName. Usually derived from the email
	// address via LoginFromEmail, but callers may set it explicitly.
	LoginName string
}

// NewIdentity builds an identity from a person's name and work email,
// deriving the login name from the email's local part.
func NewIdentity(fullName, email string) (PersonIdentity, error) {
	given, surname := SplitFullName(fullName)
	login := LoginFromEmail(email)

	id := PersonIdentity{
		GivenName:    given,
		Surname:      surname,
		EmailAddress: strings.TrimSpace(email),
		LoginName:    login,
	}
	if err := id.Validate(); err != nil {
		return PersonIdentity{}, err
	}
	return id, nil
}

// Validate reports whether the identity carries everything the
// provisioning protocol needs.
func (p PersonIdentity) Validate() error {
	if p.LoginName == "" {
		return fmt.Errorf("identity has no login name")
	}
	if p.GivenName == "" && p.Surname == "" {
		return fmt.Errorf("identity has no name")
	}
	return nil
}

// DisplayName returns the person's full display name.
func (p PersonIdentity) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(p.GivenName) + " " + strings.TrimSpace(p.Surname))
}

// UPN returns the userPrincipalName for the given directory domain.
func (p PersonIdentity) UPN(domain string) string {
	return p.LoginName + "@" + domain
}

// LoginFromEmail derives a sAMAccountName from an email address: the
// local part, lowercased, with dots removed. "Jane.Doe@corp.local"
// yields "janedoe". An address with no local part yields "".
func LoginFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	local = strings.ToLower(local)
	return strings.ReplaceAll(local, ".", "")
}

// SplitFullName splits a display name into given name and surname on
// the first space. A single-word name becomes the given name with an
// empty surname.
func SplitFullName(fullName string) (given, surname string) {
	fullName = strings.TrimSpace(fullName)
	given, surname, found := strings.Cut(fullName, " ")
	if !found {
		return fullName, ""
	}
	return given, strings.TrimSpace(surname)
}
