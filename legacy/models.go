package legacy

import (
	"github.com/uptrace/bun"
)

// TapirSession is a row of tapir_sessions. The table assigns session_id.
type TapirSession struct {
	bun.BaseModel `bun:"table:tapir_sessions,alias:ts"`

	SessionID   int64  `bun:"session_id,pk,autoincrement"`
	UserID      int64  `bun:"user_id,notnull"`
	LastReissue int64  `bun:"last_reissue,notnull,default:0"`
	StartTime   int64  `bun:"start_time,notnull,default:0"`
	EndTime     int64  `bun:"end_time,notnull,default:0"`
}

// TapirSessionAudit records the request context a session was created from.
type TapirSessionAudit struct {
	bun.BaseModel `bun:"table:tapir_sessions_audit,alias:tsa"`

	SessionID      int64  `bun:"session_id,pk"`
	IPAddr         string `bun:"ip_addr,notnull,default:''"`
	RemoteHost     string `bun:"remote_host,notnull,default:''"`
	TrackingCookie string `bun:"tracking_cookie,notnull,default:''"`
}

// TapirUser is the subset of tapir_users the session engine reads.
type TapirUser struct {
	bun.BaseModel `bun:"table:tapir_users,alias:tu"`

	UserID            int64  `bun:"user_id,pk"`
	FirstName         string `bun:"first_name"`
	LastName          string `bun:"last_name"`
	SuffixName        string `bun:"suffix_name"`
	Email             string `bun:"email,notnull,unique"`
	PolicyClass       int    `bun:"policy_class,notnull,default:2"`
	FlagEditUsers     int    `bun:"flag_edit_users,notnull,default:0"`
	FlagEditSystem    int    `bun:"flag_edit_system,notnull,default:0"`
	FlagEmailVerified int    `bun:"flag_email_verified,notnull,default:0"`
	FlagDeleted       int    `bun:"flag_deleted,notnull,default:0"`
	FlagBanned        int    `bun:"flag_banned,notnull,default:0"`
}

// TapirNickname maps a username to a user.
type TapirNickname struct {
	bun.BaseModel `bun:"table:tapir_nicknames,alias:tn"`

	NickID      int64  `bun:"nick_id,pk,autoincrement"`
	Nickname    string `bun:"nickname,notnull,unique"`
	UserID      int64  `bun:"user_id,notnull"`
	FlagValid   int    `bun:"flag_valid,notnull,default:0"`
	FlagPrimary int    `bun:"flag_primary,notnull,default:0"`
}

// Demographic is a row of arxiv_demographics.
type Demographic struct {
	bun.BaseModel `bun:"table:arxiv_demographics,alias:ad"`

	UserID       int64   `bun:"user_id,pk"`
	Country      string  `bun:"country,notnull,default:''"`
	Affiliation  string  `bun:"affiliation,notnull,default:''"`
	URL          string  `bun:"url,notnull,default:''"`
	Rank         *int    `bun:"column:type"`
	Archive      *string `bun:"archive"`
	SubjectClass *string `bun:"subject_class"`
}

// EndorsementRecord is a row of arXiv_endorsements.
type EndorsementRecord struct {
	bun.BaseModel `bun:"table:arXiv_endorsements,alias:e"`

	EndorsementID int64  `bun:"endorsement_id,pk,autoincrement"`
	EndorserID    *int64 `bun:"endorser_id"`
	EndorseeID    int64  `bun:"endorsee_id,notnull"`
	Archive       string `bun:"archive,notnull"`
	SubjectClass  string `bun:"subject_class,notnull"`
	FlagValid     int    `bun:"flag_valid,notnull,default:0"`
	Type          string `bun:"column:type,notnull,default:'user'"`
	PointValue    int    `bun:"point_value,notnull,default:0"`
	IssuedWhen    int64  `bun:"issued_when,notnull,default:0"`
}

// SessionAuthorization snapshots the principal and authorization a session
// was created with, so later account or privilege changes never apply to a
// live session.
type SessionAuthorization struct {
	bun.BaseModel `bun:"table:tapir_session_authorizations,alias:tsz"`

	SessionID    int64  `bun:"session_id,pk"`
	Classic      int64  `bun:"classic,notnull,default:0"`
	Scopes       string `bun:"scopes,notnull,default:''"`
	Endorsements string `bun:"endorsements,notnull,default:''"`
	UserBound    bool   `bun:"user_bound,notnull"`
	ClientID     string `bun:"client_id,notnull,default:''"`
	OwnerID      string `bun:"owner_id,notnull,default:''"`
	Nonce        string `bun:"nonce,notnull,default:''"`

	Username        string `bun:"username,notnull,default:''"`
	Email           string `bun:"email,notnull,default:''"`
	Forename        string `bun:"forename,notnull,default:''"`
	Surname         string `bun:"surname,notnull,default:''"`
	Suffix          string `bun:"suffix,notnull,default:''"`
	HasProfile      bool   `bun:"has_profile,notnull"`
	Affiliation     string `bun:"affiliation,notnull,default:''"`
	Country         string `bun:"country,notnull,default:''"`
	Rank            int    `bun:"profile_rank,notnull,default:0"`
	DefaultCategory string `bun:"default_category,notnull,default:''"`
	HomepageURL     string `bun:"homepage_url,notnull,default:''"`
}

func allModels() []interface{} {
	return []interface{}{
		(*TapirUser)(nil),
		(*TapirNickname)(nil),
		(*Demographic)(nil),
		(*EndorsementRecord)(nil),
		(*TapirSession)(nil),
		(*TapirSessionAudit)(nil),
		(*SessionAuthorization)(nil),
	}
}
