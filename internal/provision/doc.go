// Package provision implements the directory account provisioning
// workflow: resolving configuration from the host's parameter store,
// computing the target container DN, generating an initial password
// and executing the check/create/set-password/enable/verify protocol
// against an open directory session.
//
// The workflow is synchronous and sequential. Each invocation owns one
// session for its duration and produces exactly one terminal outcome:
// success with credentials, or failure with a human-readable reason.
package provision
