package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PlaceholderBotToken is the value shipped in sample configs. It is treated
// the same as an empty token.
const PlaceholderBotToken = "your_bot_token_here"

const (
	hashKey     = "hash"
	userKey     = "user"
	authDateKey = "auth_date"
	queryIDKey  = "query_id"

	webAppDataKey = "WebAppData"

	// allowed clock skew for auth_date values in the future
	futureSkew = 5 * time.Minute
)

// Identity is the Telegram account extracted from init data.
type Identity struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Username     string    `json:"username,omitempty"`
	LanguageCode string    `json:"language_code,omitempty"`
	IsPremium    bool      `json:"is_premium"`
	AuthDate     time.Time `json:"auth_date"`
	QueryID      string    `json:"query_id,omitempty"`
}

// webAppUser mirrors the JSON object Telegram puts into the user field.
type webAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
}

// Verify checks that rawInitData was signed by Telegram for the bot owning
// botToken and returns the embedded identity.
//
// See https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app
func Verify(rawInitData, botToken string) (Identity, error) {
	if botToken == "" || botToken == PlaceholderBotToken {
		return Identity{}, ErrEmptySecret
	}

	fields, err := parseFields(rawInitData)
	if err != nil {
		return Identity{}, err
	}

	provided, ok := fields[hashKey]
	if !ok || provided == "" {
		return Identity{}, ErrMissingSignature
	}
	delete(fields, hashKey)

	expected := signature(DataCheckString(fields), botToken)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return Identity{}, ErrSignatureMismatch
	}

	return identityFrom(fields)
}

// ExtractUnverified decodes the identity without checking the signature.
// Only for local development; never use its result for authorization in a
// deployed environment.
func ExtractUnverified(rawInitData string) (Identity, error) {
	fields, err := parseFields(rawInitData)
	if err != nil {
		return Identity{}, err
	}
	return identityFrom(fields)
}

// CheckFreshness rejects identities whose auth_date is missing, older than
// maxAge or too far in the future relative to now.
func CheckFreshness(id Identity, maxAge time.Duration, now time.Time) error {
	if id.AuthDate.IsZero() {
		return ErrExpired
	}
	if now.Sub(id.AuthDate) > maxAge || id.AuthDate.Sub(now) > futureSkew {
		return ErrExpired
	}
	return nil
}

// DataCheckString builds the canonical message Telegram signs: every field
// except hash, sorted by key, rendered as key=value and joined by newlines.
func DataCheckString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == hashKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	return strings.Join(lines, "\n")
}

// secretKey derives the WebApp signing key from the bot token.
func secretKey(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte(webAppDataKey))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

func signature(dataCheck, botToken string) string {
	mac := hmac.New(sha256.New, secretKey(botToken))
	mac.Write([]byte(dataCheck))
	return hex.EncodeToString(mac.Sum(nil))
}

// parseFields splits the query string on & and each pair on its first =,
// decoding keys and values. A repeated key keeps its last value.
func parseFields(raw string) (map[string]string, error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(strings.TrimSpace(raw), "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q", ErrMalformedInitData, k)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("%w: value of %q", ErrMalformedInitData, key)
		}
		fields[key] = value
	}
	return fields, nil
}

func identityFrom(fields map[string]string) (Identity, error) {
	raw, ok := fields[userKey]
	if !ok || raw == "" {
		return Identity{}, ErrMissingUserField
	}

	u, err := decodeUser(raw)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		LanguageCode: u.LanguageCode,
		IsPremium:    u.IsPremium,
		QueryID:      fields[queryIDKey],
	}
	if ts, err := strconv.ParseInt(fields[authDateKey], 10, 64); err == nil && ts > 0 {
		id.AuthDate = time.Unix(ts, 0).UTC()
	}
	return id, nil
}

// decodeUser parses the user JSON. Some clients percent-encode the object a
// second time, so an undecodable value gets one more unescape attempt.
func decodeUser(raw string) (webAppUser, error) {
	var u webAppUser
	err := json.Unmarshal([]byte(raw), &u)
	if err != nil && strings.HasPrefix(raw, "%") {
		if unescaped, uerr := url.QueryUnescape(raw); uerr == nil {
			u = webAppUser{}
			err = json.Unmarshal([]byte(unescaped), &u)
		}
	}
	if err != nil {
		return webAppUser{}, fmt.Errorf("%w: %v", ErrMalformedUserPayload, err)
	}
	if u.ID == 0 {
		return webAppUser{}, fmt.Errorf("%w: id is missing", ErrMalformedUserPayload)
	}
	return u, nil
}
