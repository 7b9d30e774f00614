package session

import (
	"testing"
)

// FuzzSessionDecode exercises the binary session decoder with arbitrary inputs.
// Goal: no panics; anything accepted must re-encode to the same bytes.
func FuzzSessionDecode(f *testing.F) {
	encoded, err := Encode(testSession(1_700_000_000))
	if err == nil {
		f.Add(encoded)
		f.Add(encoded[:10])
		f.Add(encoded[:len(encoded)-1])
	}
	clientOnly, err := Encode(testClientSession(1_700_000_000))
	if err == nil {
		f.Add(clientOnly)
	}

	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{sessionFormatVersionCurrent})
	f.Add([]byte{255, 255, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}

		reEncoded, err := Encode(s)
		if err != nil {
			t.Fatalf("encode after successful decode: %v", err)
		}
		again, err := Decode(reEncoded)
		if err != nil {
			t.Fatalf("decode of re-encoded record: %v", err)
		}
		if again.SessionID != s.SessionID || again.EndTime != s.EndTime {
			t.Fatalf("roundtrip mismatch: %+v vs %+v", again, s)
		}
	})
}
