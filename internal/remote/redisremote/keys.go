package redisremote

import (
	"fmt"

	"github.com/lightcade/lightcade/internal/model"
)

// Key prefix for all arcade data
const keyPrefix = "lightcade"

// scoreKey returns the Redis key for a ScoreRecord
func scoreKey(ref string) string {
	return fmt.Sprintf("%s:score:%s", keyPrefix, ref)
}

// scoresForAccountIndexKey returns the Redis key for the LIST of score refs
// belonging to an account
func scoresForAccountIndexKey(accountID model.AccountID) string {
	return fmt.Sprintf("%s:idx:scores_for_account:%s", keyPrefix, accountID)
}

// personalBestKey returns the Redis key for a PersonalBest aggregate
func personalBestKey(accountID model.AccountID, key model.GameKey) string {
	return fmt.Sprintf("%s:best:%s:%s", keyPrefix, accountID, key.String())
}

// accountKey returns the Redis key for an account record
func accountKey(accountID model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, accountID)
}

// usernameIndexKey returns the Redis key for the username -> account_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// globalSessionKey returns the Redis key for the shared session token
func globalSessionKey() string {
	return fmt.Sprintf("%s:session:global", keyPrefix)
}
