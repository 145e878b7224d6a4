package i18n

import pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"

// Error builds a typed error whose public message renders from key.
// The English text doubles as the log message.
func Error(code pkgerrors.Code, key Key) *pkgerrors.Error {
	return pkgerrors.New(code, Message(LangEN, key)).WithKey(string(key))
}

// Wrap is Error with a cause attached.
func Wrap(code pkgerrors.Code, err error, key Key) *pkgerrors.Error {
	return pkgerrors.Wrap(code, err, Message(LangEN, key)).WithKey(string(key))
}

// Localize renders err's message in lang when it carries a known key.
func Localize(lang Lang, err *pkgerrors.Error) (string, bool) {
	if err == nil {
		return "", false
	}
	key := Key(err.Key())
	if key == "" || !Known(key) {
		return "", false
	}
	return Message(lang, key), true
}
