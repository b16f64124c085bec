package gqlauth

// Mutator wires the token services, captcha store and credential backend into
// ready to use mutation handlers. It is the main entry point of the package:
// a GraphQL resolver layer constructs one Mutator and dispatches messages
// through the handler it needs.
type Mutator struct {
	deps mutationDeps
}

// NewMutator builds a Mutator from configuration, a credential backend and a
// repository manager. The repository manager owns refresh token and captcha
// persistence; user persistence is whatever the backend wraps.
func NewMutator(cfg Config, backend CredentialBackend, repo RepositoryManager) *Mutator {
	cfg = cfg.withDefaults()

	logger := defLogger{}
	clock := normalizeClock(cfg.Clock)

	codec := cfg.Codec
	if codec == nil {
		codec = NewHS256Codec([]byte(cfg.SigningKey), cfg.Issuer, cfg.Audience, logger)
	}

	access := NewAccessTokenService(codec, cfg.AccessTokenTTL, clock, logger)
	refresh := NewRefreshTokenStore(repo, access, cfg.RefreshTokenTTL, cfg.RefreshTokenBytes, clock, logger)
	captcha := NewCaptchaStore(repo, cfg, logger)
	signer := NewPayloadSigner([]byte(cfg.SigningKey), clock)

	return &Mutator{
		deps: mutationDeps{
			cfg:      cfg,
			backend:  backend,
			signer:   signer,
			access:   access,
			refresh:  refresh,
			captcha:  captcha,
			activity: noopActivitySink{},
			logger:   logger,
			now:      clock,
		},
	}
}

// WithLogger replaces the logger on the mutator and every service it built.
func (m *Mutator) WithLogger(logger Logger) *Mutator {
	logger = normalizeLogger(logger)
	m.deps.logger = logger
	m.deps.access.WithLogger(logger)
	m.deps.refresh.WithLogger(logger)
	m.deps.captcha.WithLogger(logger)
	return m
}

// WithActivitySink attaches an audit trail consumer.
func (m *Mutator) WithActivitySink(sink ActivitySink) *Mutator {
	m.deps.activity = normalizeActivitySink(sink)
	return m
}

// AccessTokens exposes the access token service, mainly for middleware that
// needs to decode bearer credentials outside a mutation.
func (m *Mutator) AccessTokens() *AccessTokenService {
	return m.deps.access
}

// RefreshTokens exposes the refresh token store.
func (m *Mutator) RefreshTokens() *RefreshTokenStore {
	return m.deps.refresh
}

// Captcha exposes the captcha store.
func (m *Mutator) Captcha() *CaptchaStore {
	return m.deps.captcha
}

// Signer exposes the workflow payload signer.
func (m *Mutator) Signer() *PayloadSigner {
	return m.deps.signer
}

// Handler constructors. Resolvers typically build these once at startup and
// dispatch messages through them per request.

func (m *Mutator) CaptchaCreateHandler() *CaptchaCreateHandler {
	return &CaptchaCreateHandler{deps: m.deps}
}

func (m *Mutator) RegisterHandler() *RegisterHandler {
	return &RegisterHandler{deps: m.deps}
}

func (m *Mutator) VerifyAccountHandler() *VerifyAccountHandler {
	return &VerifyAccountHandler{deps: m.deps}
}

func (m *Mutator) ResendActivationEmailHandler() *ResendActivationEmailHandler {
	return &ResendActivationEmailHandler{deps: m.deps}
}

func (m *Mutator) TokenAuthHandler() *TokenAuthHandler {
	return &TokenAuthHandler{deps: m.deps}
}

func (m *Mutator) VerifyTokenHandler() *VerifyTokenHandler {
	return &VerifyTokenHandler{deps: m.deps}
}

func (m *Mutator) RefreshTokenHandler() *RefreshTokenHandler {
	return &RefreshTokenHandler{deps: m.deps}
}

func (m *Mutator) RevokeTokenHandler() *RevokeTokenHandler {
	return &RevokeTokenHandler{deps: m.deps}
}

func (m *Mutator) PasswordChangeHandler() *PasswordChangeHandler {
	return &PasswordChangeHandler{deps: m.deps}
}

func (m *Mutator) SendPasswordResetEmailHandler() *SendPasswordResetEmailHandler {
	return &SendPasswordResetEmailHandler{deps: m.deps}
}

func (m *Mutator) PasswordResetHandler() *PasswordResetHandler {
	return &PasswordResetHandler{deps: m.deps}
}

func (m *Mutator) PasswordSetHandler() *PasswordSetHandler {
	return &PasswordSetHandler{deps: m.deps}
}

func (m *Mutator) ArchiveAccountHandler() *ArchiveAccountHandler {
	return &ArchiveAccountHandler{deps: m.deps}
}

func (m *Mutator) DeleteAccountHandler() *DeleteAccountHandler {
	return &DeleteAccountHandler{deps: m.deps}
}

func (m *Mutator) SendSecondaryEmailActivationHandler() *SendSecondaryEmailActivationHandler {
	return &SendSecondaryEmailActivationHandler{deps: m.deps}
}

func (m *Mutator) VerifySecondaryEmailHandler() *VerifySecondaryEmailHandler {
	return &VerifySecondaryEmailHandler{deps: m.deps}
}

func (m *Mutator) SwapEmailsHandler() *SwapEmailsHandler {
	return &SwapEmailsHandler{deps: m.deps}
}

func (m *Mutator) RemoveSecondaryEmailHandler() *RemoveSecondaryEmailHandler {
	return &RemoveSecondaryEmailHandler{deps: m.deps}
}
