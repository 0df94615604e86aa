package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bookme/auth-service/internal/domain"
)

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	nextID     int64
	byID       map[int64]domain.User
	byUsername map[string]domain.User
	byEmail    map[string]domain.User

	// injected errors (if set, method returns error)
	getByUsernameErr error
	getByEmailErr    error
	getByIDErr       error
	existsErr        error
	createErr        error
	setVerifiedErr   error

	verifiedIDs []int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID:     1,
		byID:       map[int64]domain.User{},
		byUsername: map[string]domain.User{},
		byEmail:    map[string]domain.User{},
	}
}

func (f *fakeUserRepo) add(u domain.User) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	}
	f.byID[u.ID] = u
	f.byUsername[u.Username] = u
	f.byEmail[u.Email] = u
	return u
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByUsernameErr != nil {
		return domain.User{}, f.getByUsernameErr
	}
	u, ok := f.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByIDErr != nil {
		return domain.User{}, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.byUsername[username]
	return ok, nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	u.CreatedAt = time.Now()
	return f.add(u), nil
}

func (f *fakeUserRepo) SetEmailVerified(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setVerifiedErr != nil {
		return f.setVerifiedErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.EmailVerified = true
	f.byID[u.ID] = u
	f.byUsername[u.Username] = u
	f.byEmail[u.Email] = u
	f.verifiedIDs = append(f.verifiedIDs, userID)
	return nil
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error
}

func (f *fakeHasher) Hash(pw string) (string, error) {
	if f.hashFn != nil {
		return f.hashFn(pw)
	}
	return "hash:" + pw, nil
}

func (f *fakeHasher) Compare(hash, pw string) error {
	if f.compareFn != nil {
		return f.compareFn(hash, pw)
	}
	if hash != "hash:"+pw {
		return fmt.Errorf("mismatch")
	}
	return nil
}

type fakeSigner struct {
	signErr   error
	verifyErr error
}

func (f *fakeSigner) SignAccessToken(username, role string, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "access:" + username + ":" + role, nil
}

func (f *fakeSigner) VerifyAccessToken(token string) (TokenClaims, error) {
	if f.verifyErr != nil {
		return TokenClaims{}, f.verifyErr
	}
	return TokenClaims{Username: "u", Role: "CUSTOMER", Exp: time.Now().Add(time.Minute)}, nil
}

type fakeOtp struct {
	mu sync.Mutex

	codes map[string]string

	generateErr error
	verifyErr   error // overrides state lookup when set

	generated []string // emails in call order
	deleted   []string
}

func newFakeOtp() *fakeOtp {
	return &fakeOtp{codes: map[string]string{}}
}

func (f *fakeOtp) GenerateAndStore(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generateErr != nil {
		return "", f.generateErr
	}
	code := fmt.Sprintf("%06d", len(f.generated)+100000)
	f.codes[email] = code
	f.generated = append(f.generated, email)
	return code, nil
}

func (f *fakeOtp) Verify(ctx context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return f.verifyErr
	}
	stored, ok := f.codes[email]
	if !ok {
		return domain.ErrOtpExpired()
	}
	if stored != code {
		return domain.ErrInvalidOtp()
	}
	delete(f.codes, email)
	return nil
}

func (f *fakeOtp) Delete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, email)
	f.deleted = append(f.deleted, email)
	return nil
}

func (f *fakeOtp) Exists(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.codes[email]
	return ok, nil
}

func (f *fakeOtp) TTL() time.Duration { return 5 * time.Minute }

type fakeTokenStore struct {
	mu sync.Mutex

	nextID int64
	byTok  map[string]domain.RefreshToken

	issueErr  error
	verifyErr error
	revokeErr error

	deleteExpiredN   int64
	deleteExpiredErr error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{nextID: 1, byTok: map[string]domain.RefreshToken{}}
}

func (f *fakeTokenStore) Issue(ctx context.Context, userID int64) (domain.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.issueErr != nil {
		return domain.RefreshToken{}, f.issueErr
	}
	for tok, rt := range f.byTok {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			f.byTok[tok] = rt
		}
	}
	rt := domain.RefreshToken{
		ID:        f.nextID,
		UserID:    userID,
		Token:     fmt.Sprintf("refresh-%d", f.nextID),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
	f.nextID++
	f.byTok[rt.Token] = rt
	return rt, nil
}

func (f *fakeTokenStore) Verify(ctx context.Context, token string) (domain.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return domain.RefreshToken{}, f.verifyErr
	}
	rt, ok := f.byTok[token]
	if !ok || rt.Revoked || rt.Expired(time.Now()) {
		return domain.RefreshToken{}, domain.ErrTokenInvalid()
	}
	return rt, nil
}

func (f *fakeTokenStore) Revoke(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	rt, ok := f.byTok[token]
	if !ok {
		return domain.ErrTokenInvalid()
	}
	rt.Revoked = true
	f.byTok[token] = rt
	return nil
}

func (f *fakeTokenStore) RevokeAllForUser(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for tok, rt := range f.byTok {
		if rt.UserID == userID {
			rt.Revoked = true
			f.byTok[tok] = rt
		}
	}
	return nil
}

func (f *fakeTokenStore) DeleteByUser(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for tok, rt := range f.byTok {
		if rt.UserID == userID {
			delete(f.byTok, tok)
		}
	}
	return nil
}

func (f *fakeTokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	if f.deleteExpiredErr != nil {
		return 0, f.deleteExpiredErr
	}
	return f.deleteExpiredN, nil
}

// liveTokens counts non-revoked tokens for a user.
func (f *fakeTokenStore) liveTokens(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rt := range f.byTok {
		if rt.UserID == userID && !rt.Revoked {
			n++
		}
	}
	return n
}

type fakePublisher struct {
	mu sync.Mutex

	otpEvents     []OtpIssuedEvent
	welcomeEvents []WelcomeEvent

	otpErr     error
	welcomeErr error
}

func (f *fakePublisher) PublishOtpIssued(ctx context.Context, evt OtpIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.otpErr != nil {
		return f.otpErr
	}
	f.otpEvents = append(f.otpEvents, evt)
	return nil
}

func (f *fakePublisher) PublishWelcome(ctx context.Context, evt WelcomeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.welcomeErr != nil {
		return f.welcomeErr
	}
	f.welcomeEvents = append(f.welcomeEvents, evt)
	return nil
}

func (f *fakePublisher) otpCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.otpEvents)
}

func (f *fakePublisher) welcomeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.welcomeEvents)
}

/*
Service under test
*/

func newSvcForTest(t *testing.T) (*Service, *fakeUserRepo, *fakeHasher, *fakeSigner, *fakeOtp, *fakeTokenStore, *fakePublisher) {
	t.Helper()

	users := newFakeUserRepo()
	hasher := &fakeHasher{}
	signer := &fakeSigner{}
	otp := newFakeOtp()
	tokens := newFakeTokenStore()
	pub := &fakePublisher{}

	svc := NewService(users, hasher, signer, otp, tokens, pub, Config{})
	return svc, users, hasher, signer, otp, tokens, pub
}

// seedVerifiedUser adds a user that can log in.
func seedVerifiedUser(users *fakeUserRepo, username, email, password string) domain.User {
	return users.add(domain.User{
		Username:      username,
		Email:         email,
		PasswordHash:  "hash:" + password,
		Role:          string(domain.RoleCustomer),
		EmailVerified: true,
		CreatedAt:     time.Now(),
	})
}
