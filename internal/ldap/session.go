package ldap

import (
	"context"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
)

// Session is one authenticated directory connection. It is owned by a
// single provisioning invocation and must be closed on every exit
// path. Session is not safe for concurrent use.
type Session struct {
	conn   *ldap.Conn
	server string
	log    zerolog.Logger
}

// Close releases the underlying connection. Safe to call more than
// once.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Unbind()
	s.conn = nil
	if err != nil {
		s.log.Debug().Err(err).Msg("session unbind failed")
	}
	return err
}

// Server returns the host this session is connected to.
func (s *Session) Server() string {
	return s.server
}

// Search performs an LDAP search.
func (s *Session) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	ldapReq := ldap.NewSearchRequest(
		req.BaseDN,
		int(req.Scope),
		ldap.NeverDerefAliases,
		req.SizeLimit,
		int(req.TimeLimit.Seconds()),
		false,
		req.Filter,
		req.Attributes,
		nil,
	)

	start := time.Now()
	result, err := s.conn.Search(ldapReq)
	if err != nil {
		s.logError("search", req.BaseDN, start, err)
		le := NewLDAPError("search", err)
		le.DN = req.BaseDN
		return nil, le
	}

	s.log.Debug().
		Str("operation", "search").
		Str("base_dn", req.BaseDN).
		Str("scope", req.Scope.String()).
		Str("filter", req.Filter).
		Int("entries_found", len(result.Entries)).
		Dur("duration", time.Since(start)).
		Msg("search completed")

	return &SearchResult{Entries: result.Entries}, nil
}

// Add creates a new directory entry.
func (s *Session) Add(ctx context.Context, req *AddRequest) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	ldapReq := ldap.NewAddRequest(req.DN, nil)
	for _, attr := range req.Attributes {
		ldapReq.Attribute(attr.Name, attr.Values)
	}

	start := time.Now()
	if err := s.conn.Add(ldapReq); err != nil {
		s.logError("add", req.DN, start, err)
		le := NewLDAPError("add", err)
		le.DN = req.DN
		return le
	}

	s.log.Debug().
		Str("operation", "add").
		Str("dn", req.DN).
		Dur("duration", time.Since(start)).
		Msg("entry added")

	return nil
}

// Modify modifies an existing directory entry.
func (s *Session) Modify(ctx context.Context, req *ModifyRequest) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	ldapReq := ldap.NewModifyRequest(req.DN, nil)
	for _, attr := range req.AddAttributes {
		ldapReq.Add(attr.Name, attr.Values)
	}
	for _, attr := range req.ReplaceAttributes {
		ldapReq.Replace(attr.Name, attr.Values)
	}
	for _, attr := range req.DeleteAttributes {
		ldapReq.Delete(attr, []string{})
	}

	start := time.Now()
	if err := s.conn.Modify(ldapReq); err != nil {
		s.logError("modify", req.DN, start, err)
		le := NewLDAPError("modify", err)
		le.DN = req.DN
		return le
	}

	s.log.Debug().
		Str("operation", "modify").
		Str("dn", req.DN).
		Dur("duration", time.Since(start)).
		Msg("entry modified")

	return nil
}

// ModifyPassword performs the password modify extended operation
// (RFC 3062) as an administrative reset of the entry at dn. The new
// password is never logged.
func (s *Session) ModifyPassword(ctx context.Context, dn, newPassword string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	req := ldap.NewPasswordModifyRequest(dn, "", newPassword)

	start := time.Now()
	if _, err := s.conn.PasswordModify(req); err != nil {
		s.logError("password_modify", dn, start, err)
		le := NewLDAPError("password_modify", err)
		le.DN = dn
		return le
	}

	s.log.Debug().
		Str("operation", "password_modify").
		Str("dn", dn).
		Dur("duration", time.Since(start)).
		Msg("password reset")

	return nil
}

// check guards an operation against a closed session or an already
// cancelled context. Once an operation has been issued it runs to
// completion; cancellation is only observed between operations.
func (s *Session) check(ctx context.Context) error {
	if s.conn == nil {
		return NewLDAPError("session", errNotConnected)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (s *Session) logError(operation, dn string, start time.Time, err error) {
	s.log.Error().
		Str("operation", operation).
		Str("dn", dn).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("LDAP operation failed")
}
