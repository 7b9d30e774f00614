package jwt

import (
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the signed payload of a session token. The registered
// claims carry sub (principal id), jti (session id), iat (start time), exp
// (end time) and iss.
type SessionClaims struct {
	SID    string        `json:"sid"`
	Nonce  string        `json:"nonce,omitempty"`
	User   *UserClaims   `json:"user,omitempty"`
	Client *ClientClaims `json:"client,omitempty"`
	Authz  AuthzClaims   `json:"authz"`
	IP     string        `json:"ip,omitempty"`
	Host   string        `json:"host,omitempty"`
	jwt.RegisteredClaims
}

type UserClaims struct {
	ID       string         `json:"id"`
	Username string         `json:"username,omitempty"`
	Email    string         `json:"email,omitempty"`
	Name     NameClaims     `json:"name"`
	Profile  *ProfileClaims `json:"profile,omitempty"`
}

type NameClaims struct {
	Forename string `json:"forename,omitempty"`
	Surname  string `json:"surname,omitempty"`
	Suffix   string `json:"suffix,omitempty"`
}

type ProfileClaims struct {
	Affiliation    string `json:"affiliation,omitempty"`
	Country        string `json:"country,omitempty"`
	Rank           int    `json:"rank"`
	DefaultArchive string `json:"default_archive,omitempty"`
	DefaultSubject string `json:"default_subject,omitempty"`
	HomepageURL    string `json:"homepage_url,omitempty"`
}

type ClientClaims struct {
	ID    string `json:"id"`
	Owner string `json:"owner,omitempty"`
}

type AuthzClaims struct {
	Classic      uint64              `json:"classic"`
	Scopes       []string            `json:"scopes,omitempty"`
	Endorsements []EndorsementClaims `json:"endorsements,omitempty"`
}

type EndorsementClaims struct {
	Archive  string `json:"archive"`
	Subject  string `json:"subject"`
	Advisory bool   `json:"advisory,omitempty"`
}

func claimsFromSession(s *session.Session, issuer string) *SessionClaims {
	authz := s.Authorization.Normalize()

	c := &SessionClaims{
		SID:   s.SessionID,
		Nonce: s.Nonce,
		IP:    s.IPAddress,
		Host:  s.RemoteHost,
		Authz: AuthzClaims{
			Classic: authz.Classic.Raw(),
			Scopes:  authz.Scopes.Strings(),
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.PrincipalID(),
			ID:        s.SessionID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(unixTime(s.StartTime)),
			ExpiresAt: jwt.NewNumericDate(unixTime(s.EndTime)),
		},
	}

	for _, e := range authz.Endorsements {
		c.Authz.Endorsements = append(c.Authz.Endorsements, EndorsementClaims{
			Archive:  e.Archive,
			Subject:  e.Subject,
			Advisory: e.Advisory,
		})
	}

	if u := s.User; u != nil {
		uc := &UserClaims{
			ID:       u.UserID,
			Username: u.Username,
			Email:    u.Email,
			Name: NameClaims{
				Forename: u.Name.Forename,
				Surname:  u.Name.Surname,
				Suffix:   u.Name.Suffix,
			},
		}
		if p := u.Profile; p != nil {
			uc.Profile = &ProfileClaims{
				Affiliation:    p.Affiliation,
				Country:        p.Country,
				Rank:           p.Rank,
				DefaultArchive: p.DefaultCategory.Archive,
				DefaultSubject: p.DefaultCategory.Subject,
				HomepageURL:    p.HomepageURL,
			}
		}
		c.User = uc
	}
	if cl := s.Client; cl != nil {
		c.Client = &ClientClaims{ID: cl.ClientID, Owner: cl.OwnerID}
	}

	return c
}

func (c *SessionClaims) toSession() *session.Session {
	s := &session.Session{
		SessionID:  c.SID,
		Nonce:      c.Nonce,
		IPAddress:  c.IP,
		RemoteHost: c.Host,
		StartTime:  c.IssuedAt.Unix(),
		EndTime:    c.ExpiresAt.Unix(),
	}

	authz := permission.Authorization{
		Classic: permission.Privilege(c.Authz.Classic),
		Scopes:  permission.NewScopes(c.Authz.Scopes...),
	}
	for _, e := range c.Authz.Endorsements {
		authz.Endorsements = append(authz.Endorsements, permission.Endorsement{
			Archive:  e.Archive,
			Subject:  e.Subject,
			Advisory: e.Advisory,
		})
	}
	s.Authorization = authz.Normalize()

	if u := c.User; u != nil {
		user := &session.User{
			UserID:   u.ID,
			Username: u.Username,
			Email:    u.Email,
			Name: session.FullName{
				Forename: u.Name.Forename,
				Surname:  u.Name.Surname,
				Suffix:   u.Name.Suffix,
			},
		}
		if p := u.Profile; p != nil {
			user.Profile = &session.Profile{
				Affiliation: p.Affiliation,
				Country:     p.Country,
				Rank:        p.Rank,
				DefaultCategory: permission.Category{
					Archive: p.DefaultArchive,
					Subject: p.DefaultSubject,
				},
				HomepageURL: p.HomepageURL,
			}
		}
		s.User = user
	}
	if cl := c.Client; cl != nil {
		s.Client = &session.Client{ClientID: cl.ID, OwnerID: cl.Owner}
	}

	return s
}
