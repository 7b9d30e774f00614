package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/MrEthical07/goSession/permission"
)

const (
	sessionFormatVersionCurrent = 1

	principalUser   byte = 1 << 0
	principalClient byte = 1 << 1

	maxFieldLen         = math.MaxUint16
	maxAuthorizationLen = 1 << 20
)

var errFieldTooLong = errors.New("session field too long")

// Encode serializes s in the current record format.
func Encode(s *Session) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte(sessionFormatVersionCurrent)

	w := &recordWriter{buf: &buf}
	w.putString(s.SessionID)
	w.putInt64(s.StartTime)
	w.putInt64(s.EndTime)
	w.putString(s.IPAddress)
	w.putString(s.RemoteHost)
	w.putString(s.Nonce)

	var flags byte
	if s.User != nil {
		flags |= principalUser
	}
	if s.Client != nil {
		flags |= principalClient
	}
	buf.WriteByte(flags)

	if u := s.User; u != nil {
		w.putString(u.UserID)
		w.putString(u.Username)
		w.putString(u.Email)
		w.putString(u.Name.Forename)
		w.putString(u.Name.Surname)
		w.putString(u.Name.Suffix)
		if p := u.Profile; p != nil {
			buf.WriteByte(1)
			w.putString(p.Affiliation)
			w.putString(p.Country)
			w.putInt64(int64(p.Rank))
			w.putString(p.DefaultCategory.Archive)
			w.putString(p.DefaultCategory.Subject)
			w.putString(p.HomepageURL)
		} else {
			buf.WriteByte(0)
		}
	}
	if c := s.Client; c != nil {
		w.putString(c.ClientID)
		w.putString(c.OwnerID)
	}

	authz := permission.EncodeAuthorization(s.Authorization)
	if len(authz) > maxAuthorizationLen {
		return nil, errors.New("authorization too large")
	}
	w.putUint32(uint32(len(authz)))
	buf.Write(authz)

	if w.err != nil {
		return nil, w.err
	}
	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionCurrent {
		return nil, errors.New("invalid session version")
	}

	r := &recordReader{r: reader}
	s := &Session{
		SessionID:  r.readString(),
		StartTime:  r.readInt64(),
		EndTime:    r.readInt64(),
		IPAddress:  r.readString(),
		RemoteHost: r.readString(),
		Nonce:      r.readString(),
	}

	flags := r.readByte()
	if flags&^(principalUser|principalClient) != 0 {
		return nil, errors.New("invalid principal flags")
	}

	if flags&principalUser != 0 {
		u := &User{
			UserID:   r.readString(),
			Username: r.readString(),
			Email:    r.readString(),
			Name: FullName{
				Forename: r.readString(),
				Surname:  r.readString(),
				Suffix:   r.readString(),
			},
		}
		switch r.readByte() {
		case 0:
		case 1:
			u.Profile = &Profile{
				Affiliation: r.readString(),
				Country:     r.readString(),
				Rank:        int(r.readInt64()),
				DefaultCategory: permission.Category{
					Archive: r.readString(),
					Subject: r.readString(),
				},
				HomepageURL: r.readString(),
			}
		default:
			return nil, errors.New("invalid profile marker")
		}
		s.User = u
	}
	if flags&principalClient != 0 {
		s.Client = &Client{
			ClientID: r.readString(),
			OwnerID:  r.readString(),
		}
	}

	authzLen := r.readUint32()
	if r.err == nil && authzLen > maxAuthorizationLen {
		return nil, errors.New("authorization too large")
	}
	authzBytes := r.readBytes(int(authzLen))
	if r.err != nil {
		return nil, r.err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in session record")
	}

	authz, err := permission.DecodeAuthorization(authzBytes)
	if err != nil {
		return nil, err
	}
	s.Authorization = authz

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

type recordWriter struct {
	buf *bytes.Buffer
	err error
}

func (w *recordWriter) putString(v string) {
	if w.err != nil {
		return
	}
	if len(v) > maxFieldLen {
		w.err = errFieldTooLong
		return
	}
	w.err = binary.Write(w.buf, binary.BigEndian, uint16(len(v)))
	w.buf.WriteString(v)
}

func (w *recordWriter) putInt64(v int64) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.buf, binary.BigEndian, v)
}

func (w *recordWriter) putUint32(v uint32) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.buf, binary.BigEndian, v)
}

type recordReader struct {
	r   *bytes.Reader
	err error
}

func (r *recordReader) readByte() byte {
	if r.err != nil {
		return 0
	}
	b, err := r.r.ReadByte()
	r.err = err
	return b
}

func (r *recordReader) readString() string {
	if r.err != nil {
		return ""
	}
	var n uint16
	if r.err = binary.Read(r.r, binary.BigEndian, &n); r.err != nil {
		return ""
	}
	return string(r.readBytes(int(n)))
}

func (r *recordReader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.r.Len() {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	out := make([]byte, n)
	_, r.err = io.ReadFull(r.r, out)
	return out
}

func (r *recordReader) readInt64() int64 {
	if r.err != nil {
		return 0
	}
	var v int64
	r.err = binary.Read(r.r, binary.BigEndian, &v)
	return v
}

func (r *recordReader) readUint32() uint32 {
	if r.err != nil {
		return 0
	}
	var v uint32
	r.err = binary.Read(r.r, binary.BigEndian, &v)
	return v
}
