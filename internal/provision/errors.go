package provision

import "fmt"

// Step identifies a stage of the provisioning protocol.
type Step string

const (
	StepExistenceCheck Step = "existence_check"
	StepCreate         Step = "create"
	StepSetPassword    Step = "set_password"
	StepEnable         Step = "enable"
	StepVerify         Step = "verify"
)

// label returns the human phrasing of a step for failure messages.
func (s Step) label() string {
	switch s {
	case StepExistenceCheck:
		return "existence check"
	case StepCreate:
		return "creating account"
	case StepSetPassword:
		return "setting initial password"
	case StepEnable:
		return "enabling account"
	case StepVerify:
		return "verifying account"
	default:
		return string(s)
	}
}

// ProvisioningError reports which protocol step failed for which
// account. It collapses into the failure message of the terminal
// result at the public boundary.
type ProvisioningError struct {
	Step  Step
	Login string
	Cause error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("%s for %s failed: %s", e.Step.label(), e.Login, e.Cause)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Cause
}

func stepErr(step Step, login string, cause error) *ProvisioningError {
	return &ProvisioningError{Step: step, Login: login, Cause: cause}
}
