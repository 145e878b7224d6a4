package contact

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
)

// Link is the WhatsApp chat the storefront offers for support.
type Link struct {
	Number string `json:"number"`
	URL    string `json:"url"`
}

// WhatsApp builds click-to-chat links for the configured restaurant number.
type WhatsApp struct {
	number string
}

// NewWhatsApp keeps only the digits of number; a number with none disables the channel.
func NewWhatsApp(number string) (*WhatsApp, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return nil, fmt.Errorf("whatsapp number has no digits")
	}
	return &WhatsApp{number: digits}, nil
}

// Link returns the chat link, prefilled with an order reference when orderRef is set.
func (w *WhatsApp) Link(lang i18n.Lang, orderRef string) Link {
	u := url.URL{Scheme: "https", Host: "wa.me", Path: "/" + w.number}
	if text := greeting(lang, strings.TrimSpace(orderRef)); text != "" {
		u.RawQuery = url.Values{"text": {text}}.Encode()
	}
	return Link{Number: "+" + w.number, URL: u.String()}
}

func greeting(lang i18n.Lang, orderRef string) string {
	if orderRef == "" {
		return ""
	}
	if lang == i18n.LangEN {
		return "Hello, I have a question about order " + orderRef
	}
	return "مرحبا، لدي استفسار بخصوص الطلب " + orderRef
}
