/*
Package ldap provides the directory transport layer for account
provisioning.

# Architecture Overview

The package is organized into a small number of components:

  - ConnectionConfig: transport, TLS and authentication settings
  - Connect: negotiates one of three transport modes and binds as an
    administrative principal
  - Session: one authenticated connection with Search/Add/Modify and
    password-modify operations

# Transport Modes

Three modes are supported, mirroring common directory deployments:

  - ldaps: TLS-wrapped connection on the configured port
  - starttls: plaintext connection upgraded in place before the bind
  - plain: plaintext connection, intended for trusted-network testing

Certificate verification is on by default; InsecureSkipVerify must be
set explicitly to accept unvalidated certificates.

# Session Lifecycle

A Session is intended for a single provisioning invocation. It is not
pooled and is not safe for concurrent use; callers open one session per
workflow run and close it on every exit path. Connection failures never
leave an open session behind.

# Error Handling

The package provides structured error handling through two types:

  - ConnectionError: dial, TLS negotiation and bind failures, tagged
    with a ConnectionErrorKind
  - LDAPError: operation failures carrying the LDAP result code, an
    error category and the server's diagnostic message

# Example Usage

	cfg := &ldap.ConnectionConfig{
		Server:        "dc1.corp.local",
		TransportMode: ldap.TransportLDAPS,
		Port:          636,
		BindUser:      "administrator@corp.local",
		BindPassword:  "password",
	}
	sess, err := ldap.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()
*/
package ldap
