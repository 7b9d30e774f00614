package legacy

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goSession/permission"
)

// Authorizations computes the rights userID holds today: the capability code
// from the user flags, the scopes of the user's policy class, and explicit
// endorsements pooled by category.
//
// Valid endorsement rows are summed by point value per archive/subject.
// Positive pools grant; negative pools are kept as advisory entries; pools
// that cancel out are dropped.
func (s *Store) Authorizations(ctx context.Context, userID string) (permission.Authorization, error) {
	row, err := s.loadUserRow(ctx, userID)
	if err != nil {
		return permission.Authorization{}, err
	}

	authz := permission.Authorization{
		Classic: permission.ComputeCapabilities(
			row.FlagEditUsers != 0,
			row.FlagEmailVerified != 0,
			row.FlagEditSystem != 0,
		),
	}
	if scopes, err := s.policies.Scopes(row.PolicyClass); err == nil {
		authz.Scopes = scopes
	}

	var records []EndorsementRecord
	err = s.db.NewSelect().
		Model(&records).
		Column("archive", "subject_class", "point_value").
		Where("endorsee_id = ?", row.UserID).
		Where("flag_valid = 1").
		Scan(ctx)
	if err != nil {
		return permission.Authorization{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	authz.Endorsements = poolEndorsements(records)
	return authz.Normalize(), nil
}

func poolEndorsements(records []EndorsementRecord) []permission.Endorsement {
	pooled := make(map[permission.Category]int, len(records))
	order := make([]permission.Category, 0, len(records))
	for _, r := range records {
		c := permission.Category{Archive: r.Archive, Subject: r.SubjectClass}
		if _, seen := pooled[c]; !seen {
			order = append(order, c)
		}
		pooled[c] += r.PointValue
	}

	out := make([]permission.Endorsement, 0, len(order))
	for _, c := range order {
		switch points := pooled[c]; {
		case points > 0:
			out = append(out, permission.Endorse(c.Archive, c.Subject))
		case points < 0:
			out = append(out, permission.Endorsement{Archive: c.Archive, Subject: c.Subject, Advisory: true})
		}
	}
	return out
}
