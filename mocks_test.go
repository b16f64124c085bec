package gqlauth_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-gqlauth"
	"github.com/stretchr/testify/mock"
)

// testUser implements gqlauth.UserRef for testing
type testUser struct {
	key       string
	email     string
	secondary string
}

func (u testUser) Key() string            { return u.key }
func (u testUser) Email() string          { return u.email }
func (u testUser) SecondaryEmail() string { return u.secondary }

// MockBackend implements gqlauth.CredentialBackend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Login(ctx context.Context, identifier, password string) (gqlauth.UserRef, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gqlauth.UserRef), args.Error(1)
}

func (m *MockBackend) LookupByPayload(ctx context.Context, payload map[string]string) (gqlauth.UserRef, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gqlauth.UserRef), args.Error(1)
}

func (m *MockBackend) LookupByKey(ctx context.Context, key string) (gqlauth.UserRef, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gqlauth.UserRef), args.Error(1)
}

func (m *MockBackend) LookupByEmail(ctx context.Context, email string) (gqlauth.UserRef, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gqlauth.UserRef), args.Error(1)
}

func (m *MockBackend) Register(ctx context.Context, input gqlauth.RegisterInput) (gqlauth.UserRef, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gqlauth.UserRef), args.Error(1)
}

func (m *MockBackend) IsVerified(ctx context.Context, ref gqlauth.UserRef) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) SetVerified(ctx context.Context, ref gqlauth.UserRef, verified bool) error {
	args := m.Called(ctx, ref, verified)
	return args.Error(0)
}

func (m *MockBackend) IsArchived(ctx context.Context, ref gqlauth.UserRef) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) SetArchived(ctx context.Context, ref gqlauth.UserRef, archived bool) error {
	args := m.Called(ctx, ref, archived)
	return args.Error(0)
}

func (m *MockBackend) HasUsablePassword(ctx context.Context, ref gqlauth.UserRef) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) CheckPassword(ctx context.Context, ref gqlauth.UserRef, password string) error {
	args := m.Called(ctx, ref, password)
	return args.Error(0)
}

func (m *MockBackend) SetPassword(ctx context.Context, ref gqlauth.UserRef, password string) error {
	args := m.Called(ctx, ref, password)
	return args.Error(0)
}

func (m *MockBackend) Delete(ctx context.Context, ref gqlauth.UserRef, hard bool) error {
	args := m.Called(ctx, ref, hard)
	return args.Error(0)
}

func (m *MockBackend) SetSecondaryEmail(ctx context.Context, ref gqlauth.UserRef, email string) error {
	args := m.Called(ctx, ref, email)
	return args.Error(0)
}

func (m *MockBackend) SwapEmails(ctx context.Context, ref gqlauth.UserRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockBackend) RemoveSecondaryEmail(ctx context.Context, ref gqlauth.UserRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockBackend) SendEmail(ctx context.Context, kind gqlauth.EmailKind, ref gqlauth.UserRef, tplCtx map[string]string) error {
	args := m.Called(ctx, kind, ref, tplCtx)
	return args.Error(0)
}

// recordingSink captures activity events for assertions
type recordingSink struct {
	mu     sync.Mutex
	events []gqlauth.ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event gqlauth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) byType(eventType gqlauth.ActivityEventType) []gqlauth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []gqlauth.ActivityEvent
	for _, e := range s.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
