package session

import (
	"reflect"
	"testing"

	"github.com/MrEthical07/goSession/permission"
)

func testSession(now int64) *Session {
	return &Session{
		SessionID: "6ba7b810-9dad-41d1-80b4-00c04fd430c8",
		User: &User{
			UserID:   "4",
			Username: "jdoe",
			Email:    "jdoe@example.org",
			Name:     FullName{Forename: "Jane", Surname: "Doe"},
			Profile: &Profile{
				Affiliation:     "Cornell University",
				Country:         "us",
				Rank:            3,
				DefaultCategory: permission.Category{Archive: "astro-ph", Subject: "GA"},
			},
		},
		Authorization: permission.Authorization{
			Classic: permission.PrivilegeEmailVerified,
			Scopes:  permission.NewScopes(permission.ScopeUploadRead, permission.ScopeUploadWrite),
			Endorsements: []permission.Endorsement{
				permission.Endorse("astro-ph", "CO"),
				permission.Endorse("astro-ph", "GA"),
			},
		},
		StartTime:  now,
		EndTime:    now + 36000,
		IPAddress:  "10.0.0.1",
		RemoteHost: "client.example.org",
		Nonce:      "12345678",
	}
}

func testClientSession(now int64) *Session {
	return &Session{
		SessionID:     "0b6f5ad4-6d63-4c6e-9f0e-6b1f1f4a4c11",
		Client:        &Client{ClientID: "c-1", OwnerID: "4"},
		Authorization: permission.Authorization{Scopes: permission.NewScopes(permission.ScopeSubmissionRead)},
		StartTime:     now,
		EndTime:       now + 60,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, sess := range []*Session{testSession(1_700_000_000), testClientSession(1_700_000_000)} {
		data, err := Encode(sess)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !reflect.DeepEqual(got, sess) {
			t.Fatalf("roundtrip mismatch:\n got %+v\nwant %+v", got, sess)
		}
	}
}

func TestEncodeRejectsInvalidSession(t *testing.T) {
	sess := testSession(100)
	sess.EndTime = sess.StartTime
	if _, err := Encode(sess); err == nil {
		t.Fatal("expected start >= end to be rejected")
	}

	noPrincipal := testSession(100)
	noPrincipal.User = nil
	if _, err := Encode(noPrincipal); err == nil {
		t.Fatal("expected missing principal to be rejected")
	}
}

func TestDecodeRejectsUnknownVersionAndTrailingBytes(t *testing.T) {
	data, err := Encode(testSession(100))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	bad := append([]byte{}, data...)
	bad[0] = 9
	if _, err := Decode(bad); err == nil {
		t.Fatal("expected unknown version to be rejected")
	}

	if _, err := Decode(append(append([]byte{}, data...), 0)); err == nil {
		t.Fatal("expected trailing byte to be rejected")
	}
}

func TestSessionLiveness(t *testing.T) {
	sess := testSession(1000)
	if !sess.Live(1000) {
		t.Fatal("expected live at start time")
	}
	if sess.Live(999) {
		t.Fatal("not live before start")
	}
	if sess.Live(sess.EndTime) || !sess.Expired(sess.EndTime) {
		t.Fatal("end time is exclusive")
	}
	if sess.PrincipalID() != "4" {
		t.Fatalf("unexpected principal id %q", sess.PrincipalID())
	}
	if testClientSession(0).PrincipalID() != "c-1" {
		t.Fatal("client-only session must use client id")
	}
}

func TestCloneIsDeep(t *testing.T) {
	sess := testSession(1000)
	c := sess.Clone()
	c.User.Profile.Country = "fr"
	c.Authorization.Scopes[0] = "mutated"

	if sess.User.Profile.Country != "us" || sess.Authorization.Scopes[0] == "mutated" {
		t.Fatal("clone shares state with original")
	}
}
