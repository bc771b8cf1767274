package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/altosphere/adprovision/internal/ldap"
	"github.com/altosphere/adprovision/internal/provision"
)

// DirectorySession is the slice of a connected session the service
// consumes: the four protocol operations plus Close.
type DirectorySession interface {
	ldap.Directory
	Close() error
}

// DialFunc opens an authenticated directory session. The default
// implementation dials the real directory; tests substitute their own.
type DialFunc func(ctx context.Context, cfg *ldap.ConnectionConfig, log zerolog.Logger) (DirectorySession, error)

func defaultDial(ctx context.Context, cfg *ldap.ConnectionConfig, log zerolog.Logger) (DirectorySession, error) {
	return ldap.ConnectWithLogger(ctx, cfg, log)
}

// Service runs the provisioning workflow end to end for one employee
// at a time. Each ProvisionAccount call resolves configuration fresh,
// owns exactly one directory session for its duration and produces one
// terminal result.
type Service struct {
	store    provision.ParameterStore
	recorder Recorder
	notifier Notifier
	dial     DialFunc
	log      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithNotifier sets the outcome notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithDialFunc replaces the directory dialer.
func WithDialFunc(dial DialFunc) Option {
	return func(s *Service) { s.dial = dial }
}

// NewService builds a Service reading directory settings from store.
func NewService(store provision.ParameterStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		recorder: NopRecorder{},
		notifier: NopNotifier{},
		dial:     defaultDial,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProvisionAccount handles one request: validate, resolve
// configuration, connect, provision, then record and notify the
// outcome. The returned result is the only place the generated
// password appears; it is never logged, recorded or notified.
func (s *Service) ProvisionAccount(ctx context.Context, req AccountRequest) provision.ProvisioningResult {
	log := s.log.With().Str("request_id", req.RequestID).Str("employee", req.Employee.FullName).Logger()

	result := s.provision(ctx, log, req)

	s.report(ctx, log, req, result)
	return result
}

func (s *Service) provision(ctx context.Context, log zerolog.Logger, req AccountRequest) provision.ProvisioningResult {
	if err := req.Employee.Validate(); err != nil {
		return provision.Failure("invalid request: %s", err)
	}

	cfg, err := provision.ResolveConfig(s.store)
	if err != nil {
		log.Error().Err(err).Msg("directory configuration incomplete")
		return provision.Failure("%s", err)
	}

	identity, err := provision.NewIdentity(req.Employee.FullName, req.Employee.WorkEmail)
	if err != nil {
		return provision.Failure("invalid request: %s", err)
	}
	identity.Phone = req.Employee.WorkPhone

	session, err := s.dial(ctx, cfg.Connection(), log)
	if err != nil {
		log.Error().Err(err).Str("server", cfg.Server).Msg("directory connection failed")
		return provision.Failure("%s", connectFailureMessage(cfg.Server, err))
	}
	defer session.Close()

	return provision.NewProvisioner(session, cfg).WithLogger(log).Provision(ctx, identity)
}

// report stores and announces the outcome. Both ports are best-effort:
// their failures are logged and do not change the result.
func (s *Service) report(ctx context.Context, log zerolog.Logger, req AccountRequest, result provision.ProvisioningResult) {
	record := AccountRecord{
		RequestID:     req.RequestID,
		Username:      result.Username,
		Provisioned:   result.OK(),
		Detail:        result.ErrorMessage,
		ProvisionedAt: time.Now().UTC(),
	}
	if err := s.recorder.RecordOutcome(ctx, record); err != nil {
		log.Warn().Err(err).Msg("recording outcome failed")
	}

	var message string
	if result.OK() {
		message = fmt.Sprintf("Directory account %s provisioned for %s.", result.Username, req.Employee.FullName)
		log.Info().Str("username", result.Username).Msg("account provisioned")
	} else {
		message = fmt.Sprintf("Directory account provisioning for %s failed: %s", req.Employee.FullName, result.ErrorMessage)
		log.Error().Str("reason", result.ErrorMessage).Msg("account provisioning failed")
	}
	if err := s.notifier.Notify(ctx, req.RequestID, message); err != nil {
		log.Warn().Err(err).Msg("notifying outcome failed")
	}
}

// connectFailureMessage turns a session establishment error into an
// operator-facing explanation.
func connectFailureMessage(server string, err error) string {
	var connErr *ldap.ConnectionError
	if errors.As(err, &connErr) {
		switch connErr.Kind {
		case ldap.KindNetworkUnreachable:
			return fmt.Sprintf("directory server %s is unreachable: %s", server, connErr.Cause)
		case ldap.KindTLSNegotiationFailed:
			return fmt.Sprintf("secure connection to %s could not be established: %s", server, connErr.Cause)
		case ldap.KindAuthenticationRejected:
			return fmt.Sprintf("directory server %s rejected the administrative credentials", server)
		}
	}
	return fmt.Sprintf("connecting to directory server %s failed: %s", server, err)
}
