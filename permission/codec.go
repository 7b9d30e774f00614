package permission

import (
	"encoding/binary"
	"errors"
)

const (
	authorizationCodecVersion byte = 1
	maxCodecEntries                = 4096
	maxCodecStringLen              = 1024
)

// ErrInvalidEncoding is returned by DecodeAuthorization for any input it did
// not produce.
var ErrInvalidEncoding = errors.New("invalid authorization encoding")

// EncodeAuthorization serializes the normalized form of a. Equal
// authorizations always produce identical bytes.
//
// Layout: version, classic (big-endian uint64), scope count, scopes,
// endorsement count, then archive/subject/flag per endorsement. Counts and
// string lengths are uvarints.
func EncodeAuthorization(a Authorization) []byte {
	n := a.Normalize()

	buf := make([]byte, 0, 16+len(n.Scopes)*20+len(n.Endorsements)*16)
	buf = append(buf, authorizationCodecVersion)
	buf = binary.BigEndian.AppendUint64(buf, uint64(n.Classic))

	buf = binary.AppendUvarint(buf, uint64(len(n.Scopes)))
	for _, s := range n.Scopes {
		buf = appendString(buf, s)
	}

	buf = binary.AppendUvarint(buf, uint64(len(n.Endorsements)))
	for _, e := range n.Endorsements {
		buf = appendString(buf, e.Archive)
		buf = appendString(buf, e.Subject)
		var flag byte
		if e.Advisory {
			flag = 1
		}
		buf = append(buf, flag)
	}

	return buf
}

// DecodeAuthorization parses bytes produced by EncodeAuthorization. Trailing
// bytes are rejected.
func DecodeAuthorization(data []byte) (Authorization, error) {
	r := codecReader{data: data}

	version, ok := r.readByte()
	if !ok || version != authorizationCodecVersion {
		return Authorization{}, ErrInvalidEncoding
	}

	classic, ok := r.readUint64()
	if !ok {
		return Authorization{}, ErrInvalidEncoding
	}
	out := Authorization{Classic: Privilege(classic)}

	count, ok := r.count()
	if !ok {
		return Authorization{}, ErrInvalidEncoding
	}
	for i := 0; i < count; i++ {
		s, ok := r.readString()
		if !ok {
			return Authorization{}, ErrInvalidEncoding
		}
		out.Scopes = append(out.Scopes, s)
	}

	count, ok = r.count()
	if !ok {
		return Authorization{}, ErrInvalidEncoding
	}
	for i := 0; i < count; i++ {
		archive, ok1 := r.readString()
		subject, ok2 := r.readString()
		flag, ok3 := r.readByte()
		if !ok1 || !ok2 || !ok3 || flag > 1 {
			return Authorization{}, ErrInvalidEncoding
		}
		out.Endorsements = append(out.Endorsements, Endorsement{
			Archive:  archive,
			Subject:  subject,
			Advisory: flag == 1,
		})
	}

	if len(r.data) != 0 {
		return Authorization{}, ErrInvalidEncoding
	}
	return out, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

type codecReader struct {
	data []byte
}

func (r *codecReader) readByte() (byte, bool) {
	if len(r.data) < 1 {
		return 0, false
	}
	b := r.data[0]
	r.data = r.data[1:]
	return b, true
}

func (r *codecReader) readUint64() (uint64, bool) {
	if len(r.data) < 8 {
		return 0, false
	}
	v := binary.BigEndian.Uint64(r.data[:8])
	r.data = r.data[8:]
	return v, true
}

func (r *codecReader) uvarint(limit uint64) (int, bool) {
	v, n := binary.Uvarint(r.data)
	if n <= 0 || v > limit {
		return 0, false
	}
	r.data = r.data[n:]
	return int(v), true
}

func (r *codecReader) count() (int, bool) {
	return r.uvarint(maxCodecEntries)
}

func (r *codecReader) readString() (string, bool) {
	n, ok := r.uvarint(maxCodecStringLen)
	if !ok || len(r.data) < n {
		return "", false
	}
	s := string(r.data[:n])
	r.data = r.data[n:]
	return s, true
}
