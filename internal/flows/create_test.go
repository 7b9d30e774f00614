package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
)

func TestRunCreateDualWrite(t *testing.T) {
	f := newFlowFixture(true, true, "sid-1")

	res := RunCreate(context.Background(), CreateRequest{
		Principal:      session.Principal{User: testUser()},
		Authorization:  testAuthz(),
		IPAddress:      "10.0.0.1",
		TrackingCookie: "track",
	}, f.create)
	if res.Failure != CreateFailureNone {
		t.Fatalf("create failed: kind=%d err=%v", res.Failure, res.Err)
	}
	if res.Session.SessionID != "sid-1" || res.Token != "tok-sid-1" || res.LegacyCookie != "cookie-sid-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Session.EndTime-res.Session.StartTime != 36000 {
		t.Fatalf("expected 10h lifetime, got %ds", res.Session.EndTime-res.Session.StartTime)
	}
	if !f.legacy.has("sid-1") || !f.distributed.has("sid-1") {
		t.Fatal("expected session in both stores")
	}
	if !res.Session.Authorization.EndorsedFor("astro-ph", "GA") {
		t.Fatal("expected endorsement carried into session")
	}
}

func TestRunCreateStoresAuthorizationCopy(t *testing.T) {
	f := newFlowFixture(false, true, "sid-1")
	authz := testAuthz()

	res := RunCreate(context.Background(), CreateRequest{
		Principal:     session.Principal{User: testUser()},
		Authorization: authz,
	}, f.create)
	if res.Failure != CreateFailureNone {
		t.Fatalf("create failed: %v", res.Err)
	}

	authz.Endorsements[0] = permission.Endorse("*", "*")
	if res.Session.Authorization.EndorsedFor("math", "AG") {
		t.Fatal("caller mutation leaked into session authorization")
	}
}

func TestRunCreateRollsBackLegacyOnDistributedFailure(t *testing.T) {
	f := newFlowFixture(true, true, "sid-1")
	f.distributed.createErr = errFakeUnavailable

	res := RunCreate(context.Background(), CreateRequest{Principal: session.Principal{User: testUser()}}, f.create)
	if res.Failure != CreateFailureDistributedWrite {
		t.Fatalf("expected distributed write failure, got %d", res.Failure)
	}
	if !errors.Is(res.Err, errFakeUnavailable) {
		t.Fatalf("expected cause to be kept, got %v", res.Err)
	}
	if !res.Compensated || !res.RolledBack || res.RollbackErr != nil {
		t.Fatalf("expected successful rollback, got rolledBack=%v err=%v", res.RolledBack, res.RollbackErr)
	}
	if f.legacy.has("sid-1") {
		t.Fatal("legacy record must be absent after rollback")
	}
	if len(f.legacy.deleted) != 1 || f.legacy.deleted[0] != "sid-1" {
		t.Fatalf("expected legacy delete of sid-1, got %v", f.legacy.deleted)
	}
}

func TestRunCreateRollbackSurvivesCancellation(t *testing.T) {
	f := newFlowFixture(true, true, "sid-1")
	f.distributed.createErr = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := RunCreate(ctx, CreateRequest{Principal: session.Principal{User: testUser()}}, f.create)
	if res.Failure != CreateFailureDistributedWrite || !res.RolledBack {
		t.Fatalf("expected rolled back distributed failure, got %+v", res)
	}
}

func TestRunCreateReportsFailedRollback(t *testing.T) {
	f := newFlowFixture(true, true, "sid-1")
	f.distributed.createErr = errFakeUnavailable
	f.legacy.deleteErr = errors.New("delete failed")

	res := RunCreate(context.Background(), CreateRequest{Principal: session.Principal{User: testUser()}}, f.create)
	if res.RolledBack || res.RollbackErr == nil {
		t.Fatalf("expected failed rollback to be reported, got %+v", res)
	}
}

func TestRunCreateLegacyFailureSkipsDistributed(t *testing.T) {
	f := newFlowFixture(true, true, "sid-1")
	f.legacy.createErr = errFakeUnavailable

	res := RunCreate(context.Background(), CreateRequest{Principal: session.Principal{User: testUser()}}, f.create)
	if res.Failure != CreateFailureLegacyWrite || res.Store != StoreLegacy {
		t.Fatalf("expected legacy write failure, got %+v", res)
	}
	if f.distributed.count() != 0 {
		t.Fatal("distributed store must not be written after legacy failure")
	}
}

func TestRunCreateRetriesDuplicateID(t *testing.T) {
	f := newFlowFixture(true, false, "sid-1", "sid-2")
	f.legacy.sessions["sid-1"] = &session.Session{SessionID: "sid-1"}

	res := RunCreate(context.Background(), CreateRequest{Principal: session.Principal{User: testUser()}}, f.create)
	if res.Failure != CreateFailureNone {
		t.Fatalf("expected retry to succeed, got %v", res.Err)
	}
	if res.Session.SessionID != "sid-2" {
		t.Fatalf("expected second id, got %s", res.Session.SessionID)
	}
}

func TestRunCreateInvalidPrincipal(t *testing.T) {
	f := newFlowFixture(true, true, "sid-1")

	res := RunCreate(context.Background(), CreateRequest{}, f.create)
	if res.Failure != CreateFailureInvalidPrincipal {
		t.Fatalf("expected invalid principal, got %d", res.Failure)
	}
	if f.legacy.count() != 0 || f.distributed.count() != 0 {
		t.Fatal("no store may be written for an invalid principal")
	}
}

func TestRunCreateEncodeFailureLeavesNothing(t *testing.T) {
	f := newFlowFixture(true, true, "sid-1")
	f.create.EncodeCookie = func(*session.Session) (string, error) { return "", errors.New("no legacy id") }

	res := RunCreate(context.Background(), CreateRequest{Principal: session.Principal{User: testUser()}}, f.create)
	if res.Failure != CreateFailureEncode {
		t.Fatalf("expected encode failure, got %d", res.Failure)
	}
	if !res.Compensated || !res.RolledBack {
		t.Fatalf("expected legacy rows to be compensated, got %+v", res)
	}
	if f.legacy.count() != 0 || f.distributed.count() != 0 {
		t.Fatal("no store may hold the session when encoding fails")
	}
}

func TestRunCreateLegacyAssignsSessionID(t *testing.T) {
	f := newFlowFixture(true, true, "4711")
	f.create.NewSessionID = func() (string, error) {
		t.Fatal("generated id must not be used when the legacy store is written")
		return "", nil
	}

	res := RunCreate(context.Background(), CreateRequest{Principal: session.Principal{User: testUser()}}, f.create)
	if res.Failure != CreateFailureNone {
		t.Fatalf("create failed: %v", res.Err)
	}
	if res.Session.SessionID != "4711" || res.Token != "tok-4711" || res.LegacyCookie != "cookie-4711" {
		t.Fatalf("expected legacy-assigned id throughout, got %+v", res)
	}
	if !f.distributed.has("4711") {
		t.Fatal("distributed record must be keyed on the legacy id")
	}
}

func TestRunCreateDistributedOnlyOmitsCookie(t *testing.T) {
	f := newFlowFixture(false, true, "sid-1")

	res := RunCreate(context.Background(), CreateRequest{Principal: session.Principal{Client: &session.Client{ClientID: "c1"}}}, f.create)
	if res.Failure != CreateFailureNone {
		t.Fatalf("create failed: %v", res.Err)
	}
	if res.LegacyCookie != "" {
		t.Fatalf("expected no legacy cookie, got %q", res.LegacyCookie)
	}
	if f.legacy.count() != 0 {
		t.Fatal("legacy store must not be written in distributed-only mode")
	}
}
