package provision

import "fmt"

// ProvisioningResult is the single terminal outcome of one
// provisioning run. Exactly one of the two shapes is populated:
// success carries the username and the generated initial password,
// failure carries a human-readable reason. The initial password is
// returned here once and is never logged or stored by this package.
type ProvisioningResult struct {
	Username        string
	InitialPassword string
	ErrorMessage    string
}

// Success builds a successful result.
func Success(username, initialPassword string) ProvisioningResult {
	return ProvisioningResult{Username: username, InitialPassword: initialPassword}
}

// Failure builds a failed result.
func Failure(format string, args ...any) ProvisioningResult {
	return ProvisioningResult{ErrorMessage: fmt.Sprintf(format, args...)}
}

// OK reports whether the run succeeded.
func (r ProvisioningResult) OK() bool {
	return r.ErrorMessage == ""
}
