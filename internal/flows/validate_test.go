package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
)

const (
	testModeInherit = iota - 1
	testModeStateless
	testModeStateful
)

func testResolver(engineMode int) func(int) (int, error) {
	cfg := ModeResolverConfig{ModeInherit: testModeInherit, ModeStateless: testModeStateless, ModeStateful: testModeStateful}
	return func(route int) (int, error) {
		mode, ok := ResolveRouteMode(route, engineMode, cfg)
		if !ok {
			return 0, errors.New("invalid route mode")
		}
		return mode, nil
	}
}

func (f *flowFixture) validateDeps(engineMode int) ValidateDeps {
	return ValidateDeps{
		DecodeToken:      f.tokens.decode,
		ResolveRouteMode: testResolver(engineMode),
		ModeStateful:     testModeStateful,
		LoadRecord:       fakeDistributed{f.distributed}.Load,
		IsUnavailable:    func(err error) bool { return errors.Is(err, errFakeUnavailable) },
	}
}

func createForTest(t *testing.T, f *flowFixture) CreateResult {
	t.Helper()
	res := RunCreate(context.Background(), CreateRequest{
		Principal:     session.Principal{User: testUser()},
		Authorization: testAuthz(),
	}, f.create)
	if res.Failure != CreateFailureNone {
		t.Fatalf("create failed: %v", res.Err)
	}
	return res
}

func TestResolveRouteMode(t *testing.T) {
	cfg := ModeResolverConfig{ModeInherit: testModeInherit, ModeStateless: testModeStateless, ModeStateful: testModeStateful}

	if mode, ok := ResolveRouteMode(testModeInherit, testModeStateful, cfg); !ok || mode != testModeStateful {
		t.Fatalf("inherit should take engine mode, got %d %v", mode, ok)
	}
	if mode, ok := ResolveRouteMode(testModeStateless, testModeStateful, cfg); !ok || mode != testModeStateless {
		t.Fatalf("route override ignored, got %d %v", mode, ok)
	}
	if _, ok := ResolveRouteMode(42, testModeStateful, cfg); ok {
		t.Fatal("unknown route mode must be rejected")
	}
	if _, ok := ResolveRouteMode(testModeInherit, 42, cfg); ok {
		t.Fatal("unknown engine mode must be rejected")
	}
}

func TestRunValidateStatelessSkipsStore(t *testing.T) {
	f := newFlowFixture(false, true, "sid-1")
	created := createForTest(t, f)
	f.distributed.loadErr = errFakeUnavailable

	res := RunValidate(context.Background(), created.Token, testModeInherit, f.validateDeps(testModeStateless))
	if res.Failure != ValidateFailureNone {
		t.Fatalf("stateless validate must not read the store: %v", res.Err)
	}
	if res.Mode != testModeStateless || res.Session.SessionID != "sid-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunValidateStatefulStoreMissOverridesToken(t *testing.T) {
	f := newFlowFixture(false, true, "sid-1")
	created := createForTest(t, f)
	deps := f.validateDeps(testModeStateful)

	if res := RunValidate(context.Background(), created.Token, testModeInherit, deps); res.Failure != ValidateFailureNone {
		t.Fatalf("expected live session, got %v", res.Err)
	}

	if failed := RunInvalidate(context.Background(), "sid-1", f.invalidate); failed != nil {
		t.Fatalf("invalidate failed: %+v", failed)
	}
	res := RunValidate(context.Background(), created.Token, testModeInherit, deps)
	if res.Failure != ValidateFailureStoreMiss {
		t.Fatalf("expected store miss after invalidation, got %d", res.Failure)
	}

	// Per-route stateless override still trusts the signed token.
	if res := RunValidate(context.Background(), created.Token, testModeStateless, deps); res.Failure != ValidateFailureNone {
		t.Fatalf("stateless override failed: %v", res.Err)
	}
}

func TestRunValidateDecodeFailureNeverTouchesStore(t *testing.T) {
	f := newFlowFixture(false, true)
	deps := f.validateDeps(testModeStateful)
	deps.LoadRecord = func(context.Context, string) (*session.Session, error) {
		t.Fatal("store must not be read after a decode failure")
		return nil, nil
	}

	res := RunValidate(context.Background(), "garbage", testModeInherit, deps)
	if res.Failure != ValidateFailureDecode || res.Err == nil {
		t.Fatalf("expected decode failure, got %+v", res)
	}
}

func TestRunValidateStoreUnavailable(t *testing.T) {
	f := newFlowFixture(false, true, "sid-1")
	created := createForTest(t, f)
	f.distributed.loadErr = errFakeUnavailable

	res := RunValidate(context.Background(), created.Token, testModeInherit, f.validateDeps(testModeStateful))
	if res.Failure != ValidateFailureStoreUnavailable {
		t.Fatalf("expected store unavailable, got %d", res.Failure)
	}
}

func TestRunValidateNonceMismatch(t *testing.T) {
	f := newFlowFixture(false, true, "sid-1")
	created := createForTest(t, f)
	f.distributed.sessions["sid-1"].Nonce = "87654321"

	res := RunValidate(context.Background(), created.Token, testModeInherit, f.validateDeps(testModeStateful))
	if res.Failure != ValidateFailureMismatch {
		t.Fatalf("expected mismatch, got %d", res.Failure)
	}
}

func TestRunValidateInvalidRouteMode(t *testing.T) {
	f := newFlowFixture(false, true, "sid-1")
	created := createForTest(t, f)

	res := RunValidate(context.Background(), created.Token, 42, f.validateDeps(testModeStateful))
	if res.Failure != ValidateFailureInvalidRouteMode {
		t.Fatalf("expected invalid route mode, got %d", res.Failure)
	}
}

func (f *flowFixture) cookieDeps(now time.Time) CookieDeps {
	return CookieDeps{
		DecodeCookie: func(c string) (*session.Session, error) {
			tok := "tok-" + c[len("cookie-"):]
			s, err := f.tokens.decode(tok)
			if err != nil {
				return nil, err
			}
			return &session.Session{
				SessionID: s.SessionID,
				User:      &session.User{UserID: s.User.UserID},
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
			}, nil
		},
		Now:           func() time.Time { return now },
		Legacy:        fakeLegacy{memStore: f.legacy},
		IsUnavailable: func(err error) bool { return errors.Is(err, errFakeUnavailable) },
	}
}

func TestRunValidateCookie(t *testing.T) {
	f := newFlowFixture(true, true, "sid-1")
	created := createForTest(t, f)

	res := RunValidateCookie(context.Background(), created.LegacyCookie, f.cookieDeps(testNow.Add(time.Hour)))
	if res.Failure != ValidateFailureNone {
		t.Fatalf("cookie validate failed: %v", res.Err)
	}
	if res.Session.User.Username != "jdoe" {
		t.Fatalf("expected stored session to be returned, got %+v", res.Session.User)
	}

	res = RunValidateCookie(context.Background(), created.LegacyCookie, f.cookieDeps(testNow.Add(11*time.Hour)))
	if res.Failure != ValidateFailureDecode || !errors.Is(res.Err, ErrCookieExpired) {
		t.Fatalf("expected expired cookie, got %+v", res)
	}

	f.legacy.Invalidate(context.Background(), "sid-1")
	res = RunValidateCookie(context.Background(), created.LegacyCookie, f.cookieDeps(testNow.Add(time.Hour)))
	if res.Failure != ValidateFailureStoreMiss {
		t.Fatalf("expected store miss, got %d", res.Failure)
	}
}

func TestRunValidateCookieUserMismatch(t *testing.T) {
	f := newFlowFixture(true, false, "sid-1")
	created := createForTest(t, f)
	f.legacy.sessions["sid-1"].User = &session.User{UserID: "5"}

	res := RunValidateCookie(context.Background(), created.LegacyCookie, f.cookieDeps(testNow))
	if res.Failure != ValidateFailureMismatch {
		t.Fatalf("expected mismatch, got %d", res.Failure)
	}
}
