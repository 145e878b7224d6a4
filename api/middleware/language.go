package middleware

import (
	"net/http"

	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

const langHeader = "X-Storefront-Lang"

// Language resolves the response language: ?lang, then X-Storefront-Lang, then Accept-Language, then fallback.
func Language(logg *logger.Logger, fallback i18n.Lang) func(http.Handler) http.Handler {
	fallback = i18n.ParseLang(string(fallback), i18n.LangAR)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := i18n.FromAcceptLanguage(r.Header.Get("Accept-Language"), fallback)
			if v := r.Header.Get(langHeader); v != "" {
				lang = i18n.ParseLang(v, lang)
			}
			if v := r.URL.Query().Get("lang"); v != "" {
				lang = i18n.ParseLang(v, lang)
			}
			w.Header().Set("Content-Language", string(lang))

			ctx := i18n.WithLang(r.Context(), lang)
			if logg != nil {
				ctx = logg.WithLang(ctx, string(lang))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
