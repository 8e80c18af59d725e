package entry

import "dance-entry-api/internal/logs"

type EntryServiceAPI interface {
	Get(id int64) (*Entry, error)
	CheckAccess(entryID int64, userID string, isAdmin bool) (*Entry, error)
	ListByUser(userID string) ([]Entry, error)
	Submit(entryID int64, userID string) (*Entry, error)
}

// AccessChecker is the slice of EntryServiceAPI other packages need to guard
// their entry-scoped routes.
type AccessChecker interface {
	CheckAccess(entryID int64, userID string, isAdmin bool) (*Entry, error)
}

type LogServicePort interface {
	Log(entry logs.SystemLog, payload any) error
}

var _ EntryServiceAPI = (*EntryService)(nil)
var _ LogServicePort = (*logs.LogService)(nil)
