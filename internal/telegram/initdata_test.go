package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test_token"

// expectedHash recomputes the signature from scratch so the tests do not
// share code with the implementation.
func expectedHash(t *testing.T, botToken, dataCheck string) string {
	t.Helper()
	key := hmac.New(sha256.New, []byte("WebAppData"))
	key.Write([]byte(botToken))
	mac := hmac.New(sha256.New, key.Sum(nil))
	mac.Write([]byte(dataCheck))
	return hex.EncodeToString(mac.Sum(nil))
}

func aliceInitData(t *testing.T, hash string) string {
	t.Helper()
	user := `{"id":123,"username":"alice"}`
	raw := "auth_date=1700000000&user=" + url.QueryEscape(user)
	if hash != "" {
		raw += "&hash=" + hash
	}
	return raw
}

func TestVerify_KnownPayload(t *testing.T) {
	dataCheck := "auth_date=1700000000\nuser={\"id\":123,\"username\":\"alice\"}"
	hash := expectedHash(t, testToken, dataCheck)

	id, err := Verify(aliceInitData(t, hash), testToken)
	require.NoError(t, err)
	assert.Equal(t, int64(123), id.ID)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), id.AuthDate)
	assert.Empty(t, id.FirstName)
	assert.Empty(t, id.QueryID)
	assert.False(t, id.IsPremium)
}

func TestVerify_ZeroHash(t *testing.T) {
	_, err := Verify(aliceInitData(t, strings.Repeat("0", 64)), testToken)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerify_FlippedHashCharacter(t *testing.T) {
	dataCheck := "auth_date=1700000000\nuser={\"id\":123,\"username\":\"alice\"}"
	hash := expectedHash(t, testToken, dataCheck)

	for i := range hash {
		b := []byte(hash)
		if b[i] == 'a' {
			b[i] = 'b'
		} else {
			b[i] = 'a'
		}
		_, err := Verify(aliceInitData(t, string(b)), testToken)
		require.ErrorIs(t, err, ErrSignatureMismatch, "position %d", i)
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		token  string
		fields map[string]string
		wantID int64
	}{
		{
			name:  "minimal",
			token: "123456:ABC-DEF",
			fields: map[string]string{
				"auth_date": "1700000000",
				"user":      `{"id":42}`,
			},
			wantID: 42,
		},
		{
			name:  "full launch context",
			token: "7000000000:AAH-long_token_value",
			fields: map[string]string{
				"query_id":      "AAHdF6IQAAAAAN0XohDhrOrc",
				"auth_date":     "1700000123",
				"chat_instance": "-8359093232342465645",
				"chat_type":     "private",
				"start_param":   "lesson_7",
				"user":          `{"id":279058397,"first_name":"Vlad & Co","last_name":"Д","username":"vdkfrost","language_code":"ru","is_premium":true}`,
			},
			wantID: 279058397,
		},
		{
			name:  "values with reserved characters",
			token: "t",
			fields: map[string]string{
				"auth_date":   "1",
				"start_param": "a=b&c=d+e%20f",
				"user":        `{"id":9007199254740991,"first_name":"100% sure"}`,
			},
			wantID: 9007199254740991,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := Sign(tc.fields, tc.token)

			id, err := Verify(raw, tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id.ID)

			_, err = Verify(raw, tc.token+"x")
			assert.ErrorIs(t, err, ErrSignatureMismatch)
		})
	}
}

func TestVerify_SignMatchesIndependentHash(t *testing.T) {
	fields := map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":123,"username":"alice"}`,
	}
	vals, err := url.ParseQuery(Sign(fields, testToken))
	require.NoError(t, err)
	assert.Equal(t, expectedHash(t, testToken, DataCheckString(fields)), vals.Get("hash"))
}

func TestVerify_OrderIndependent(t *testing.T) {
	fields := map[string]string{
		"query_id":  "q1",
		"auth_date": "1700000000",
		"user":      `{"id":5,"username":"bob"}`,
	}
	vals, err := url.ParseQuery(Sign(fields, testToken))
	require.NoError(t, err)
	hash := vals.Get("hash")

	orders := [][]string{
		{"auth_date", "query_id", "user", "hash"},
		{"hash", "user", "query_id", "auth_date"},
		{"user", "hash", "auth_date", "query_id"},
	}
	for _, order := range orders {
		parts := make([]string, 0, len(order))
		for _, k := range order {
			v := hash
			if k != "hash" {
				v = fields[k]
			}
			parts = append(parts, k+"="+url.QueryEscape(v))
		}
		id, err := Verify(strings.Join(parts, "&"), testToken)
		require.NoError(t, err, "order %v", order)
		assert.Equal(t, int64(5), id.ID)
		assert.Equal(t, "q1", id.QueryID)
	}
}

func TestVerify_MissingHash(t *testing.T) {
	_, err := Verify(aliceInitData(t, ""), testToken)
	assert.ErrorIs(t, err, ErrMissingSignature)

	_, err = Verify(aliceInitData(t, "")+"&hash=", testToken)
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestVerify_GarbageNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"&&&",
		"=",
		"hash",
		"hash=%zz",
		"%",
		"user=%7B%22id%22",
		strings.Repeat("a=b&", 1000),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			_, err := Verify(in, testToken)
			assert.Error(t, err)
		}, "input %q", in)
	}
}

func TestVerify_MalformedEscapes(t *testing.T) {
	_, err := Verify("user=%zz&hash=00", testToken)
	assert.ErrorIs(t, err, ErrMalformedInitData)
}

func TestVerify_UserProblemsAfterValidSignature(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		want   error
	}{
		{"no user", map[string]string{"auth_date": "1700000000"}, ErrMissingUserField},
		{"empty user", map[string]string{"auth_date": "1700000000", "user": ""}, ErrMissingUserField},
		{"invalid json", map[string]string{"auth_date": "1700000000", "user": "{not json"}, ErrMalformedUserPayload},
		{"no id", map[string]string{"auth_date": "1700000000", "user": `{"username":"x"}`}, ErrMalformedUserPayload},
		{"string id", map[string]string{"auth_date": "1700000000", "user": `{"id":"12"}`}, ErrMalformedUserPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Verify(Sign(tc.fields, testToken), testToken)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerify_EmptySecret(t *testing.T) {
	raw := Sign(map[string]string{"user": `{"id":1}`}, "")

	for _, token := range []string{"", PlaceholderBotToken} {
		_, err := Verify(raw, token)
		assert.ErrorIs(t, err, ErrEmptySecret)
		assert.True(t, IsConfigError(err))
	}

	_, err := Verify(raw, testToken)
	assert.False(t, IsConfigError(err))
}

func TestExtractUnverified(t *testing.T) {
	id, err := ExtractUnverified(aliceInitData(t, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(123), id.ID)
	assert.Equal(t, "alice", id.Username)

	// a forged hash does not matter on this path
	id, err = ExtractUnverified(aliceInitData(t, strings.Repeat("0", 64)))
	require.NoError(t, err)
	assert.Equal(t, int64(123), id.ID)

	_, err = ExtractUnverified("auth_date=1")
	assert.ErrorIs(t, err, ErrMissingUserField)

	_, err = ExtractUnverified("user=nope")
	assert.ErrorIs(t, err, ErrMalformedUserPayload)
}

func TestExtractUnverified_DoubleEncodedUser(t *testing.T) {
	user := url.QueryEscape(`{"id":77,"first_name":"Ann"}`)
	id, err := ExtractUnverified("user=" + url.QueryEscape(user))
	require.NoError(t, err)
	assert.Equal(t, int64(77), id.ID)
	assert.Equal(t, "Ann", id.FirstName)
}

func TestDataCheckString(t *testing.T) {
	got := DataCheckString(map[string]string{
		"user":      "{}",
		"hash":      "ignored",
		"auth_date": "1",
		"Zeta":      "upper sorts first",
	})
	assert.Equal(t, "Zeta=upper sorts first\nauth_date=1\nuser={}", got)
}

func TestCheckFreshness(t *testing.T) {
	now := time.Unix(1700000000, 0)

	assert.NoError(t, CheckFreshness(Identity{AuthDate: now.Add(-time.Minute)}, time.Hour, now))
	assert.NoError(t, CheckFreshness(Identity{AuthDate: now.Add(time.Minute)}, time.Hour, now))
	assert.ErrorIs(t, CheckFreshness(Identity{AuthDate: now.Add(-2 * time.Hour)}, time.Hour, now), ErrExpired)
	assert.ErrorIs(t, CheckFreshness(Identity{AuthDate: now.Add(time.Hour)}, time.Hour, now), ErrExpired)
	assert.ErrorIs(t, CheckFreshness(Identity{}, time.Hour, now), ErrExpired)
}

func TestSignIdentity(t *testing.T) {
	now := time.Unix(1700000500, 0).UTC()
	raw, err := SignIdentity(Identity{ID: 10, Username: "carol", QueryID: "q", IsPremium: true}, testToken, now)
	require.NoError(t, err)

	id, err := Verify(raw, testToken)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: 10, Username: "carol", QueryID: "q", IsPremium: true, AuthDate: now}, id)
}

func TestVerify_Concurrent(t *testing.T) {
	raw := Sign(map[string]string{"auth_date": "1", "user": `{"id":8}`}, testToken)

	done := make(chan error, 32)
	for i := 0; i < cap(done); i++ {
		go func() {
			_, err := Verify(raw, testToken)
			done <- err
		}()
	}
	for i := 0; i < cap(done); i++ {
		assert.NoError(t, <-done)
	}
}
