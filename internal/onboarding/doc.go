// Package onboarding exposes the employee-facing entry point of the
// account provisioning workflow. It validates the incoming request,
// resolves directory configuration, opens a single directory session,
// runs the provisioning protocol and reports the outcome to the host
// application through the Recorder and Notifier ports.
package onboarding
