package ldap

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ConnectionErrorKind classifies why a connection could not be
// established.
type ConnectionErrorKind string

const (
	KindNetworkUnreachable     ConnectionErrorKind = "network_unreachable"
	KindTLSNegotiationFailed   ConnectionErrorKind = "tls_negotiation_failed"
	KindAuthenticationRejected ConnectionErrorKind = "authentication_rejected"
)

// ConnectionError represents a failure to open or authenticate a
// directory session. After a ConnectionError no session is open and the
// caller must not attempt further operations.
type ConnectionError struct {
	Kind   ConnectionErrorKind
	Server string
	Cause  error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("directory connection to %s failed (%s)", e.Server, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(kind ConnectionErrorKind, server string, cause error) *ConnectionError {
	return &ConnectionError{Kind: kind, Server: server, Cause: cause}
}

// ErrorCategory represents different categories of LDAP operation
// errors.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryConflict       ErrorCategory = "conflict"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// LDAPError provides enhanced error information for LDAP operations.
type LDAPError struct {
	Operation string        // The operation that failed
	Category  ErrorCategory // Error category
	LDAPCode  uint16        // LDAP result code, 0 when not an LDAP result
	ServerMsg string        // Server-provided diagnostic message
	DN        string        // DN involved in the operation, if any
	Retryable bool          // Whether a later re-invocation might succeed
	Cause     error         // Underlying error
}

// IsRetryable reports whether a later, separate invocation might
// succeed. The workflow itself never retries within one run.
func (e *LDAPError) IsRetryable() bool {
	return e.Retryable
}

func (e *LDAPError) Error() string {
	var b strings.Builder
	if e.LDAPCode > 0 {
		fmt.Fprintf(&b, "LDAP %s failed (code %d)", e.Operation, e.LDAPCode)
	} else {
		fmt.Fprintf(&b, "LDAP %s failed", e.Operation)
	}
	if e.ServerMsg != "" {
		b.WriteString(": ")
		b.WriteString(e.ServerMsg)
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.DN != "" {
		fmt.Fprintf(&b, " (DN: %s)", e.DN)
	}
	return b.String()
}

func (e *LDAPError) Unwrap() error {
	return e.Cause
}

// NewLDAPError creates an LDAPError from an underlying go-ldap error,
// extracting the result code and server diagnostic when present.
func NewLDAPError(operation string, err error) *LDAPError {
	if err == nil {
		return nil
	}

	le := &LDAPError{Operation: operation, Cause: err}

	if resultErr, ok := err.(*ldap.Error); ok {
		le.LDAPCode = resultErr.ResultCode
		le.Category = categorizeCode(resultErr.ResultCode)
		if resultErr.Err != nil {
			le.ServerMsg = resultErr.Err.Error()
		}
	} else {
		le.Category = categorizeGenericError(err)
	}
	le.Retryable = le.Category == ErrorCategoryConnection || le.Category == ErrorCategoryServer

	return le
}

// WrapError wraps an error with operation context unless it is already
// an LDAPError.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if le, ok := err.(*LDAPError); ok {
		if le.Operation == "" {
			le.Operation = operation
		}
		return le
	}
	return NewLDAPError(operation, err)
}

// categorizeCode maps an LDAP result code to an error category.
func categorizeCode(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultInsufficientAccessRights,
		ldap.LDAPResultUnwillingToPerform:
		return ErrorCategoryPermission

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return ErrorCategoryNotFound

	case ldap.LDAPResultEntryAlreadyExists,
		ldap.LDAPResultAttributeOrValueExists,
		ldap.LDAPResultObjectClassViolation:
		return ErrorCategoryConflict

	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultNamingViolation:
		return ErrorCategoryValidation

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultAdminLimitExceeded:
		return ErrorCategoryServer

	case ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError,
		ldap.ErrorNetwork:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

// categorizeGenericError categorizes non-LDAP errors by message.
func categorizeGenericError(err error) ErrorCategory {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "broken pipe"):
		return ErrorCategoryConnection
	case strings.Contains(msg, "credentials"),
		strings.Contains(msg, "authentication"):
		return ErrorCategoryAuthentication
	case strings.Contains(msg, "access"),
		strings.Contains(msg, "denied"),
		strings.Contains(msg, "permission"):
		return ErrorCategoryPermission
	default:
		return ErrorCategoryUnknown
	}
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}
	if le, ok := err.(*LDAPError); ok {
		return le.Category
	}
	if resultErr, ok := err.(*ldap.Error); ok {
		return categorizeCode(resultErr.ResultCode)
	}
	return categorizeGenericError(err)
}

// IsConflictError checks if an error indicates a conflict, such as an
// entry that already exists.
func IsConflictError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConflict
}

// IsNotFoundError checks if an error indicates a "not found" condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsAuthenticationError checks if an error indicates an authentication
// problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

// IsPermissionError checks if an error indicates a permission problem.
// Active Directory reports password-policy refusals as
// unwillingToPerform, which lands here.
func IsPermissionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryPermission
}
