package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForDefaultsToJapanese(t *testing.T) {
	c, err := For("")
	require.NoError(t, err)
	assert.Equal(t, "ja", c.Locale())
	assert.Equal(t, "パスワードが一致しません", c.Text(PasswordMismatch))
}

func TestForUnknownLocale(t *testing.T) {
	_, err := For("xx")
	assert.ErrorIs(t, err, ErrUnknownLocale)
}

func TestTextFormatsArguments(t *testing.T) {
	assert.Equal(t, "パスワードは6文字以上で入力してください", MustFor("ja").Text(PasswordTooShort, 6))
	assert.Equal(t, "Password must be at least 8 characters", MustFor("en").Text(PasswordTooShort, 8))
}

func TestUnknownKeyRendersKey(t *testing.T) {
	assert.Equal(t, "no.such.key", MustFor("en").Text(Key("no.such.key")))
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	ja := catalogs["ja"]
	for _, locale := range Locales() {
		entries := catalogs[locale]
		assert.Len(t, entries, len(ja), "locale %s", locale)
		for k := range ja {
			_, ok := entries[k]
			assert.True(t, ok, "locale %s missing %s", locale, k)
		}
	}
}
