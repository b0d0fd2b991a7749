package i18n

import "net/http"

const langCookie = "lifesync_lang"

// Middleware injects a per-request localizer. The language is taken
// from the ?lang= query parameter (which also sets a cookie, so the
// switcher sticks), then the cookie, then the configured default.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := defaultLang
			if c, err := r.Cookie(langCookie); err == nil && Supported(c.Value) {
				lang = c.Value
			}
			if q := r.URL.Query().Get("lang"); q != "" && Supported(q) {
				lang = q
				http.SetCookie(w, &http.Cookie{
					Name:     langCookie,
					Value:    q,
					Path:     "/",
					HttpOnly: true,
				})
			}
			ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
