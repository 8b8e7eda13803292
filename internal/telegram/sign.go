package telegram

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// Sign returns init data for fields signed with botToken, the way the
// Telegram client would deliver it. Any hash entry in fields is replaced.
func Sign(fields map[string]string, botToken string) string {
	vals := url.Values{}
	for k, v := range fields {
		if k == hashKey {
			continue
		}
		vals.Set(k, v)
	}
	vals.Set(hashKey, signature(DataCheckString(fields), botToken))
	return vals.Encode()
}

// FieldsFor renders an identity into the top-level init data fields.
func FieldsFor(id Identity) (map[string]string, error) {
	user, err := jsonUser(id)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{userKey: user}
	if !id.AuthDate.IsZero() {
		fields[authDateKey] = strconv.FormatInt(id.AuthDate.Unix(), 10)
	}
	if id.QueryID != "" {
		fields[queryIDKey] = id.QueryID
	}
	return fields, nil
}

// SignIdentity is FieldsFor followed by Sign, stamping auth_date with now
// when the identity carries none.
func SignIdentity(id Identity, botToken string, now time.Time) (string, error) {
	if id.AuthDate.IsZero() {
		id.AuthDate = now
	}
	fields, err := FieldsFor(id)
	if err != nil {
		return "", err
	}
	return Sign(fields, botToken), nil
}

func jsonUser(id Identity) (string, error) {
	b, err := json.Marshal(webAppUser{
		ID:           id.ID,
		FirstName:    id.FirstName,
		LastName:     id.LastName,
		Username:     id.Username,
		LanguageCode: id.LanguageCode,
		IsPremium:    id.IsPremium,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
