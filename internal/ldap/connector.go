package ldap

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
)

var errNotConnected = errors.New("session is not connected")

// Connect opens a directory connection using the configured transport
// mode and authenticates as the administrative principal. On any
// failure the connection is torn down and a *ConnectionError is
// returned; no session survives a failed connect.
func Connect(ctx context.Context, cfg *ConnectionConfig) (*Session, error) {
	return ConnectWithLogger(ctx, cfg, zerolog.Nop())
}

// ConnectWithLogger is Connect with an explicit logger for the
// resulting session.
func ConnectWithLogger(ctx context.Context, cfg *ConnectionConfig, log zerolog.Logger) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConnectionConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	log.Debug().
		Str("server", cfg.Server).
		Int("port", cfg.Port).
		Str("transport", string(cfg.TransportMode)).
		Str("auth_method", cfg.AuthMethod().String()).
		Bool("verify_certificates", !cfg.InsecureSkipVerify).
		Msg("connecting to directory server")

	conn, err := dial(cfg)
	if err != nil {
		log.Error().Err(err).Str("server", cfg.Server).Msg("directory connection failed")
		return nil, err
	}
	conn.SetTimeout(cfg.Timeout)

	if err := authenticate(conn, cfg); err != nil {
		conn.Close()
		log.Error().Err(err).Str("server", cfg.Server).Msg("administrative bind failed")
		return nil, err
	}

	log.Info().
		Str("server", cfg.Server).
		Str("transport", string(cfg.TransportMode)).
		Dur("duration", time.Since(start)).
		Msg("directory session established")

	return &Session{conn: conn, server: cfg.Server, log: log}, nil
}

// dial opens the transport for the configured mode. The returned
// connection is unauthenticated.
func dial(cfg *ConnectionConfig) (*ldap.Conn, error) {
	dialer := &net.Dialer{Timeout: cfg.Timeout}

	switch cfg.TransportMode {
	case TransportLDAPS:
		conn, err := ldap.DialURL(cfg.URL(),
			ldap.DialWithDialer(dialer),
			ldap.DialWithTLSConfig(cfg.tlsConfig()))
		if err != nil {
			return nil, NewConnectionError(classifyDialError(err), cfg.Server, err)
		}
		return conn, nil

	case TransportStartTLS:
		conn, err := ldap.DialURL(cfg.URL(), ldap.DialWithDialer(dialer))
		if err != nil {
			return nil, NewConnectionError(KindNetworkUnreachable, cfg.Server, err)
		}
		if err := conn.StartTLS(cfg.tlsConfig()); err != nil {
			conn.Close()
			return nil, NewConnectionError(KindTLSNegotiationFailed, cfg.Server, err)
		}
		return conn, nil

	case TransportPlain:
		conn, err := ldap.DialURL(cfg.URL(), ldap.DialWithDialer(dialer))
		if err != nil {
			return nil, NewConnectionError(KindNetworkUnreachable, cfg.Server, err)
		}
		return conn, nil

	default:
		return nil, NewConnectionError(KindNetworkUnreachable, cfg.Server,
			errors.New("unknown transport mode "+string(cfg.TransportMode)))
	}
}

// authenticate binds as the administrative principal using the
// configured method.
func authenticate(conn *ldap.Conn, cfg *ConnectionConfig) error {
	var err error
	switch cfg.AuthMethod() {
	case AuthMethodKerberos:
		err = gssapiBind(conn, cfg)
	default:
		err = conn.Bind(cfg.BindUser, cfg.BindPassword)
	}
	if err != nil {
		return NewConnectionError(KindAuthenticationRejected, cfg.Server, err)
	}
	return nil
}

// classifyDialError distinguishes TLS handshake failures from plain
// network failures on a direct-TLS dial.
func classifyDialError(err error) ConnectionErrorKind {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "tls") ||
		strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "handshake") ||
		strings.Contains(msg, "x509") {
		return KindTLSNegotiationFailed
	}
	return KindNetworkUnreachable
}
