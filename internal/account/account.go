// Package account holds the Roblox account record stored in a vault and the
// AccountData.json list format it is exchanged in.
package account

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/illarion/ramvault/internal/digest"
)

const (
	MaxAliasLength       = 50
	MaxDescriptionLength = 5000
	MaxPasswordLength    = 5000
	DefaultGroup         = "Default"
)

// Account is a single stored account.
type Account struct {
	Valid                bool
	SecurityToken        string
	Username             string
	UserID               int64
	BrowserTrackerID     string
	Group                string
	LastUse              time.Time
	LastAttemptedRefresh time.Time
	Fields               map[string]string

	alias       string
	description string
	password    string
}

// New creates an account around a security token.
func New(securityToken string) *Account {
	return &Account{
		SecurityToken: securityToken,
		Group:         DefaultGroup,
		Fields:        make(map[string]string),
	}
}

func (a *Account) Alias() string       { return a.alias }
func (a *Account) Description() string { return a.description }
func (a *Account) Password() string    { return a.password }

// SetAlias sets the alias unless it exceeds MaxAliasLength bytes.
func (a *Account) SetAlias(v string) bool {
	if len(v) > MaxAliasLength {
		return false
	}
	a.alias = v
	return true
}

// SetDescription sets the description unless it exceeds MaxDescriptionLength bytes.
func (a *Account) SetDescription(v string) bool {
	if len(v) > MaxDescriptionLength {
		return false
	}
	a.description = v
	return true
}

// SetPassword sets the account password unless it exceeds MaxPasswordLength bytes.
func (a *Account) SetPassword(v string) bool {
	if len(v) > MaxPasswordLength {
		return false
	}
	a.password = v
	return true
}

// ID returns the account's stable identifier: the uppercase MD5 of the
// lower-cased username, or of the security token for accounts that have not
// resolved a username yet.
func (a *Account) ID() string {
	if a.Username != "" {
		return digest.MD5String(strings.ToLower(a.Username))
	}
	return digest.MD5String(a.SecurityToken)
}

// DisplayName returns the alias, falling back to the username and then the id.
func (a *Account) DisplayName() string {
	switch {
	case a.alias != "":
		return a.alias
	case a.Username != "":
		return a.Username
	default:
		return a.ID()
	}
}

// IsID reports whether ref looks like an account id rather than a username.
func IsID(ref string) bool {
	if len(ref) != 2*digest.MD5Size {
		return false
	}
	for _, r := range ref {
		if !strings.ContainsRune("0123456789ABCDEFabcdef", r) {
			return false
		}
	}
	return true
}

// RefToID resolves a username or id reference to an account id.
func RefToID(ref string) string {
	if IsID(ref) {
		return strings.ToUpper(ref)
	}
	return digest.MD5String(strings.ToLower(ref))
}

// RobloxTick converts t to Roblox tick format: seconds since the epoch with a
// millisecond fraction.
func RobloxTick(t time.Time) float64 {
	ms := t.UnixMilli()
	return float64(ms/1000) + float64(ms%1000)/1000.0
}

// epochMillis encodes t as epoch milliseconds. The zero time is written as 0,
// the value Roblox Account Manager stores for an account never used.
func epochMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromEpochMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

type wireAccount struct {
	Valid                bool            `json:"Valid"`
	SecurityToken        string          `json:"SecurityToken"`
	Username             string          `json:"Username"`
	UserID               int64           `json:"UserID"`
	BrowserTrackerID     string          `json:"BrowserTrackerID"`
	Group                *string         `json:"Group,omitempty"`
	Alias                string          `json:"Alias"`
	Description          string          `json:"Description"`
	Password             string          `json:"Password"`
	Fields               json.RawMessage `json:"Fields,omitempty"`
	LastUse              int64           `json:"LastUse"`
	LastAttemptedRefresh int64           `json:"LastAttemptedRefresh"`
}

// MarshalJSON encodes the account with timestamps as epoch milliseconds.
func (a *Account) MarshalJSON() ([]byte, error) {
	group := a.Group
	fields := a.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	rawFields, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireAccount{
		Valid:                a.Valid,
		SecurityToken:        a.SecurityToken,
		Username:             a.Username,
		UserID:               a.UserID,
		BrowserTrackerID:     a.BrowserTrackerID,
		Group:                &group,
		Alias:                a.alias,
		Description:          a.description,
		Password:             a.password,
		Fields:               rawFields,
		LastUse:              epochMillis(a.LastUse),
		LastAttemptedRefresh: epochMillis(a.LastAttemptedRefresh),
	})
}

// UnmarshalJSON decodes an account. Missing fields take their defaults,
// over-long alias/description/password values are dropped, and a Fields
// value that is not a string map is ignored.
func (a *Account) UnmarshalJSON(data []byte) error {
	var w wireAccount
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*a = Account{
		Valid:                w.Valid,
		SecurityToken:        w.SecurityToken,
		Username:             w.Username,
		UserID:               w.UserID,
		BrowserTrackerID:     w.BrowserTrackerID,
		Group:                DefaultGroup,
		LastUse:              fromEpochMillis(w.LastUse),
		LastAttemptedRefresh: fromEpochMillis(w.LastAttemptedRefresh),
		Fields:               make(map[string]string),
	}
	if w.Group != nil {
		a.Group = *w.Group
	}
	a.SetAlias(w.Alias)
	a.SetDescription(w.Description)
	a.SetPassword(w.Password)

	if len(w.Fields) > 0 {
		var fields map[string]string
		if err := json.Unmarshal(w.Fields, &fields); err == nil && fields != nil {
			a.Fields = fields
		}
	}
	return nil
}

// ParseList decodes an AccountData.json array.
func ParseList(data []byte) ([]*Account, error) {
	var accounts []*Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse account list: %w", err)
	}

	result := accounts[:0]
	for _, a := range accounts {
		if a != nil {
			result = append(result, a)
		}
	}
	return result, nil
}

// MarshalList encodes accounts as an AccountData.json array.
func MarshalList(accounts []*Account) ([]byte, error) {
	if accounts == nil {
		accounts = []*Account{}
	}
	return json.Marshal(accounts)
}
