package onboarding

import (
	"context"
	"errors"
	"strings"
	"testing"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/altosphere/adprovision/internal/ldap"
	"github.com/altosphere/adprovision/internal/provision"
)

// mockSession implements DirectorySession for service tests.
type mockSession struct {
	mock.Mock
	closed bool
}

func (m *mockSession) Search(ctx context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(ctx, req)
	if result := args.Get(0); result != nil {
		if searchResult, ok := result.(*ldap.SearchResult); ok {
			return searchResult, args.Error(1)
		}
	}
	return nil, args.Error(1)
}

func (m *mockSession) Add(ctx context.Context, req *ldap.AddRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockSession) Modify(ctx context.Context, req *ldap.ModifyRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockSession) ModifyPassword(ctx context.Context, dn, newPassword string) error {
	args := m.Called(ctx, dn, newPassword)
	return args.Error(0)
}

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

type capturingRecorder struct {
	records []AccountRecord
	err     error
}

func (r *capturingRecorder) RecordOutcome(_ context.Context, record AccountRecord) error {
	r.records = append(r.records, record)
	return r.err
}

type capturingNotifier struct {
	messages []string
	err      error
}

func (n *capturingNotifier) Notify(_ context.Context, _ string, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}

func testStore() provision.MapStore {
	return provision.MapStore{
		provision.ParamServer:        "dc01.corp.local",
		provision.ParamDomain:        "corp.local",
		provision.ParamAdminPassword: "hunter2hunter2",
	}
}

func testEmployee() Employee {
	return Employee{FullName: "Jane Doe", WorkEmail: "Jane.Doe@corp.local"}
}

func happyPathSession() *mockSession {
	session := &mockSession{}
	verified := &ldap.SearchResult{
		Entries: []*goldap.Entry{
			{
				DN: "CN=Jane Doe,CN=Users,DC=corp,DC=local",
				Attributes: []*goldap.EntryAttribute{
					{Name: "userAccountControl", Values: []string{"512"}},
				},
			},
		},
	}

	session.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.Scope == ldap.ScopeWholeSubtree
	})).Return(&ldap.SearchResult{}, nil)
	session.On("Add", mock.Anything, mock.Anything).Return(nil)
	session.On("Modify", mock.Anything, mock.Anything).Return(nil)
	session.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.Scope == ldap.ScopeBaseObject
	})).Return(verified, nil)
	return session
}

func dialTo(session DirectorySession) DialFunc {
	return func(context.Context, *ldap.ConnectionConfig, zerolog.Logger) (DirectorySession, error) {
		return session, nil
	}
}

func TestProvisionAccount_Success(t *testing.T) {
	session := happyPathSession()
	recorder := &capturingRecorder{}
	notifier := &capturingNotifier{}

	svc := NewService(testStore(),
		WithDialFunc(dialTo(session)),
		WithRecorder(recorder),
		WithNotifier(notifier),
	)

	req := NewAccountRequest(testEmployee())
	result := svc.ProvisionAccount(context.Background(), req)

	require.True(t, result.OK(), "unexpected failure: %s", result.ErrorMessage)
	assert.Equal(t, "janedoe", result.Username)
	assert.NotEmpty(t, result.InitialPassword)
	assert.True(t, session.closed, "session must be closed")

	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, req.RequestID, record.RequestID)
	assert.Equal(t, "janedoe", record.Username)
	assert.True(t, record.Provisioned)
	assert.Empty(t, record.Detail)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "janedoe")
	// The password must never leave the result.
	assert.NotContains(t, notifier.messages[0], result.InitialPassword)
	assert.NotContains(t, record.Detail, result.InitialPassword)
}

func TestProvisionAccount_InvalidEmployee(t *testing.T) {
	tests := []struct {
		name     string
		employee Employee
	}{
		{
			name:     "missing name",
			employee: Employee{WorkEmail: "jdoe@corp.local"},
		},
		{
			name:     "missing email",
			employee: Employee{FullName: "Jane Doe"},
		},
		{
			name:     "malformed email",
			employee: Employee{FullName: "Jane Doe", WorkEmail: "not-an-address"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialed := false
			svc := NewService(testStore(), WithDialFunc(func(context.Context, *ldap.ConnectionConfig, zerolog.Logger) (DirectorySession, error) {
				dialed = true
				return nil, errors.New("unexpected dial")
			}))

			result := svc.ProvisionAccount(context.Background(), NewAccountRequest(tt.employee))

			require.False(t, result.OK())
			assert.Contains(t, result.ErrorMessage, "invalid request")
			assert.False(t, dialed, "invalid requests must not open a session")
		})
	}
}

func TestProvisionAccount_ConfigurationMissing(t *testing.T) {
	store := testStore()
	delete(store, provision.ParamServer)

	dialed := false
	recorder := &capturingRecorder{}
	svc := NewService(store,
		WithRecorder(recorder),
		WithDialFunc(func(context.Context, *ldap.ConnectionConfig, zerolog.Logger) (DirectorySession, error) {
			dialed = true
			return nil, errors.New("unexpected dial")
		}),
	)

	result := svc.ProvisionAccount(context.Background(), NewAccountRequest(testEmployee()))

	require.False(t, result.OK())
	assert.Contains(t, result.ErrorMessage, "configuration")
	assert.False(t, dialed, "incomplete configuration must not open a session")

	require.Len(t, recorder.records, 1)
	assert.False(t, recorder.records[0].Provisioned)
}

func TestProvisionAccount_ConnectionFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "network unreachable",
			err:  ldap.NewConnectionError(ldap.KindNetworkUnreachable, "dc01.corp.local", errors.New("connection refused")),
			want: "unreachable",
		},
		{
			name: "tls negotiation",
			err:  ldap.NewConnectionError(ldap.KindTLSNegotiationFailed, "dc01.corp.local", errors.New("x509: certificate signed by unknown authority")),
			want: "secure connection",
		},
		{
			name: "credentials rejected",
			err:  ldap.NewConnectionError(ldap.KindAuthenticationRejected, "dc01.corp.local", errors.New("invalid credentials")),
			want: "rejected the administrative credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(testStore(), WithDialFunc(func(context.Context, *ldap.ConnectionConfig, zerolog.Logger) (DirectorySession, error) {
				return nil, tt.err
			}))

			result := svc.ProvisionAccount(context.Background(), NewAccountRequest(testEmployee()))

			require.False(t, result.OK())
			assert.Contains(t, result.ErrorMessage, tt.want)
		})
	}
}

func TestProvisionAccount_SessionClosedOnFailure(t *testing.T) {
	session := &mockSession{}
	session.On("Search", mock.Anything, mock.Anything).
		Return(nil, ldap.NewLDAPError("search", errors.New("network error")))

	svc := NewService(testStore(), WithDialFunc(dialTo(session)))

	result := svc.ProvisionAccount(context.Background(), NewAccountRequest(testEmployee()))

	require.False(t, result.OK())
	assert.True(t, session.closed, "session must be closed on failure too")
}

func TestProvisionAccount_ReportFailuresAreBestEffort(t *testing.T) {
	session := happyPathSession()
	recorder := &capturingRecorder{err: errors.New("database locked")}
	notifier := &capturingNotifier{err: errors.New("feed unavailable")}

	svc := NewService(testStore(),
		WithDialFunc(dialTo(session)),
		WithRecorder(recorder),
		WithNotifier(notifier),
	)

	result := svc.ProvisionAccount(context.Background(), NewAccountRequest(testEmployee()))

	require.True(t, result.OK(), "reporting failures must not fail the run: %s", result.ErrorMessage)
}

func TestProvisionAccount_FailureNotification(t *testing.T) {
	session := &mockSession{}
	session.On("Search", mock.Anything, mock.Anything).Return(&ldap.SearchResult{
		Entries: []*goldap.Entry{{DN: "CN=Jane Doe,CN=Users,DC=corp,DC=local"}},
	}, nil)

	notifier := &capturingNotifier{}
	svc := NewService(testStore(), WithDialFunc(dialTo(session)), WithNotifier(notifier))

	result := svc.ProvisionAccount(context.Background(), NewAccountRequest(testEmployee()))

	require.False(t, result.OK())
	require.Len(t, notifier.messages, 1)
	assert.True(t, strings.Contains(notifier.messages[0], "failed"), "message: %s", notifier.messages[0])
	assert.Contains(t, notifier.messages[0], "already exists")
}

func TestNewAccountRequest(t *testing.T) {
	first := NewAccountRequest(testEmployee())
	second := NewAccountRequest(testEmployee())

	assert.NotEmpty(t, first.RequestID)
	assert.NotEqual(t, first.RequestID, second.RequestID)
	assert.False(t, first.ReceivedAt.IsZero())
}
