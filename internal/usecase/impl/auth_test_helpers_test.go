package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"clinicore/internal/domain/entity"
	"clinicore/internal/domain/repository"
	"clinicore/internal/domain/service"

	"github.com/google/uuid"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- state repository fake ---

type fakeStateRepo struct {
	mu     sync.Mutex
	states map[string]*entity.OAuthState

	saveErr error
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[string]*entity.OAuthState)}
}

func (f *fakeStateRepo) Save(ctx context.Context, state *entity.OAuthState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	if state.ID == uuid.Nil {
		state.ID = uuid.New()
	}

	clone := *state
	f.states[state.Token] = &clone

	return nil
}

func (f *fakeStateRepo) FindByToken(ctx context.Context, token string) (*entity.OAuthState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.states[token]
	if !ok {
		return nil, repository.ErrStateNotFound
	}

	clone := *state

	return &clone, nil
}

// ConsumeByToken mirrors the guarded UPDATE: the check and the flip happen
// under one lock, so concurrent callers serialize exactly like rows do.
func (f *fakeStateRepo) ConsumeByToken(ctx context.Context, token string, consumedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.states[token]
	if !ok {
		return repository.ErrStateNotFound
	}
	if state.Consumed {
		return repository.ErrStateAlreadyConsumed
	}

	state.Consumed = true
	state.ConsumedAt = &consumedAt

	return nil
}

func (f *fakeStateRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for token, state := range f.states {
		if !state.Consumed && state.ExpiresAt.Before(now) {
			delete(f.states, token)
			deleted++
		}
	}

	return deleted, nil
}

func (f *fakeStateRepo) DeleteConsumedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for token, state := range f.states {
		if state.Consumed && state.ConsumedAt != nil && state.ConsumedAt.Before(cutoff) {
			delete(f.states, token)
			deleted++
		}
	}

	return deleted, nil
}

func (f *fakeStateRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.states)
}

// --- identity repository fake ---

type fakeIdentityRepo struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*entity.Identity
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{identities: make(map[uuid.UUID]*entity.Identity)}
}

func (f *fakeIdentityRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	identity, ok := f.identities[id]
	if !ok {
		return nil, repository.ErrIdentityNotFound
	}

	clone := *identity

	return &clone, nil
}

func (f *fakeIdentityRepo) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, identity := range f.identities {
		if identity.Email == email {
			clone := *identity

			return &clone, nil
		}
	}

	return nil, repository.ErrIdentityNotFound
}

func (f *fakeIdentityRepo) FindByGoogleSubject(ctx context.Context, subject string) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, identity := range f.identities {
		if identity.GoogleSubject != "" && identity.GoogleSubject == subject {
			clone := *identity

			return &clone, nil
		}
	}

	return nil, repository.ErrIdentityNotFound
}

func (f *fakeIdentityRepo) Create(ctx context.Context, identity *entity.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}

	clone := *identity
	f.identities[identity.ID] = &clone

	return nil
}

func (f *fakeIdentityRepo) Update(ctx context.Context, identity *entity.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.identities[identity.ID]; !ok {
		return repository.ErrIdentityNotFound
	}

	clone := *identity
	f.identities[identity.ID] = &clone

	return nil
}

func (f *fakeIdentityRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.identities)
}

// --- patient profile repository fake ---

type fakePatientRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*entity.PatientProfile
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{profiles: make(map[uuid.UUID]*entity.PatientProfile)}
}

func (f *fakePatientRepo) FindByTenantAndIdentity(ctx context.Context, tenantID, identityID uuid.UUID) (*entity.PatientProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, profile := range f.profiles {
		if profile.TenantID == tenantID && profile.IdentityID == identityID {
			clone := *profile

			return &clone, nil
		}
	}

	return nil, repository.ErrPatientProfileNotFound
}

func (f *fakePatientRepo) FindByTenantAndGoogleSubject(ctx context.Context, tenantID uuid.UUID, subject string) (*entity.PatientProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, profile := range f.profiles {
		if profile.TenantID == tenantID && profile.GoogleSubject != "" && profile.GoogleSubject == subject {
			clone := *profile

			return &clone, nil
		}
	}

	return nil, repository.ErrPatientProfileNotFound
}

func (f *fakePatientRepo) Create(ctx context.Context, profile *entity.PatientProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	clone := *profile
	f.profiles[profile.ID] = &clone

	return nil
}

func (f *fakePatientRepo) Update(ctx context.Context, profile *entity.PatientProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.profiles[profile.ID]; !ok {
		return repository.ErrPatientProfileNotFound
	}

	clone := *profile
	f.profiles[profile.ID] = &clone

	return nil
}

func (f *fakePatientRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.profiles)
}

// --- transaction fakes ---

type fakeRepoFactory struct {
	identityRepo *fakeIdentityRepo
	patientRepo  *fakePatientRepo
	stateRepo    *fakeStateRepo
}

func (f *fakeRepoFactory) IdentityRepo() repository.IdentityRepository { return f.identityRepo }

func (f *fakeRepoFactory) PatientRepo() repository.PatientProfileRepository { return f.patientRepo }

func (f *fakeRepoFactory) StateRepo() repository.OAuthStateRepository { return f.stateRepo }

type fakeTxManager struct {
	factory *fakeRepoFactory
	err     error
}

func (f *fakeTxManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	if f.err != nil {
		return f.err
	}

	return fn(f.factory)
}

// --- metrics fake ---

type fakeMetrics struct {
	mu               sync.Mutex
	loginStarted     []string
	tokenValidation  []string
	stateConsumption []string
	loginCompleted   []string
	cleanupDeleted   map[string]int64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{cleanupDeleted: make(map[string]int64)}
}

func (f *fakeMetrics) LoginStarted(provider string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginStarted = append(f.loginStarted, provider)
}

func (f *fakeMetrics) TokenValidation(provider, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenValidation = append(f.tokenValidation, result)
}

func (f *fakeMetrics) StateConsumption(result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateConsumption = append(f.stateConsumption, result)
}

func (f *fakeMetrics) LoginCompleted(provider, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCompleted = append(f.loginCompleted, outcome)
}

func (f *fakeMetrics) CleanupDeleted(kind string, n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanupDeleted[kind] += n
}

func (f *fakeMetrics) consumptionCount(result string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, r := range f.stateConsumption {
		if r == result {
			count++
		}
	}

	return count
}

// --- event publisher fake ---

type fakePublisher struct {
	mu     sync.Mutex
	events []*service.AuthEvent
	err    error
}

func (f *fakePublisher) PublishAuthEvent(ctx context.Context, event *service.AuthEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	clone := *event
	f.events = append(f.events, &clone)

	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) lastEvent() *service.AuthEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.events) == 0 {
		return nil
	}

	return f.events[len(f.events)-1]
}

// --- provider fakes ---

type fakeOAuthService struct {
	mu           sync.Mutex
	lastRequest  service.AuthorizationRequest
	lastCode     string
	lastRedirect string

	tokens      *service.TokenResponse
	exchangeErr error
}

func (f *fakeOAuthService) BuildAuthorizationURL(req service.AuthorizationRequest) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRequest = req

	return fmt.Sprintf("https://accounts.google.com/o/oauth2/v2/auth?state=%s&nonce=%s", req.State, req.Nonce)
}

func (f *fakeOAuthService) ExchangeCode(ctx context.Context, code, redirectURI string) (*service.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCode = code
	f.lastRedirect = redirectURI

	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if f.tokens != nil {
		return f.tokens, nil
	}

	return &service.TokenResponse{IDToken: "id-token", AccessToken: "access-token"}, nil
}

func (f *fakeOAuthService) GetProvider() entity.ProviderType { return entity.ProviderGoogle }

type fakeValidator struct {
	mu        sync.Mutex
	lastToken string
	lastNonce string

	claims *service.ExternalClaims
	ok     bool
	err    error
}

func (f *fakeValidator) VerifyIDToken(ctx context.Context, rawToken, expectedNonce string) (*service.ExternalClaims, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = rawToken
	f.lastNonce = expectedNonce

	if f.err != nil {
		return nil, false, f.err
	}

	return f.claims, f.ok, nil
}
