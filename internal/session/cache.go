package session

import (
	"strconv"

	"github.com/producttrack/producttrack/internal/keystore"
)

// RecomputeCache rewrites the denormalized session keys from s. The token
// stays authoritative; these keys exist for quick display only and no
// authorization decision reads them.
func RecomputeCache(kv keystore.Store, s *Session) error {
	if s == nil {
		return kv.Delete(keystore.KeyAccountType, keystore.KeySystemRole, keystore.KeyUsername,
			keystore.KeyProfilePending, keystore.KeyTeamRole, keystore.KeyUserID)
	}

	values := map[string]string{
		keystore.KeyAccountType:    string(s.AccountType),
		keystore.KeySystemRole:     string(s.SystemRole),
		keystore.KeyUsername:       s.Username,
		keystore.KeyProfilePending: strconv.FormatBool(s.ProfileComplete),
		keystore.KeyUserID:         strconv.FormatInt(s.UserID, 10),
	}
	for _, k := range []string{
		keystore.KeyAccountType,
		keystore.KeySystemRole,
		keystore.KeyUsername,
		keystore.KeyProfilePending,
		keystore.KeyUserID,
	} {
		if err := kv.Set(k, values[k]); err != nil {
			return err
		}
	}

	if s.TeamRole == TeamRoleNone {
		return kv.Delete(keystore.KeyTeamRole)
	}
	return kv.Set(keystore.KeyTeamRole, string(s.TeamRole))
}

// CachedUsername returns the display name written at login, without
// decoding the token.
func CachedUsername(kv keystore.Store) string {
	v, _ := kv.Get(keystore.KeyUsername)
	return v
}
