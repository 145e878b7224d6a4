package contact

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
)

func TestNewWhatsAppNormalizesNumber(t *testing.T) {
	wa, err := NewWhatsApp("+20 (100) 123-4567")
	require.NoError(t, err)

	link := wa.Link(i18n.LangAR, "")
	assert.Equal(t, "+201001234567", link.Number)
	assert.Equal(t, "https://wa.me/201001234567", link.URL)

	_, err = NewWhatsApp(" - ")
	assert.Error(t, err)
}

func TestLinkPrefillsOrderReference(t *testing.T) {
	wa, err := NewWhatsApp("201001234567")
	require.NoError(t, err)

	link := wa.Link(i18n.LangEN, "ORD-77")
	parsed, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, "Hello, I have a question about order ORD-77", parsed.Query().Get("text"))

	link = wa.Link(i18n.LangAR, "ORD-77")
	parsed, err = url.Parse(link.URL)
	require.NoError(t, err)
	assert.Contains(t, parsed.Query().Get("text"), "ORD-77")
}
