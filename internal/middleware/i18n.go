package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N stores the caller's preferred language and country in the request
// context. The language comes from X-Locale, then Accept-Language, then
// the most likely language of the resolved country, then fallback.
func I18N(fallback language.Tag, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, fallback, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			w.Header().Set("Content-Language", locale.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback language.Tag, country string) language.Tag {
	if tag, ok := parseLocale(r.Header.Get("X-Locale")); ok {
		return tag
	}
	if tag, ok := preferredLanguage(r.Header.Get("Accept-Language")); ok {
		return tag
	}
	if tag, ok := countryLanguage(country); ok {
		return tag
	}
	if fallback != language.Und {
		return fallback
	}
	return language.English
}

func parseLocale(raw string) (language.Tag, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return language.Und, false
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	return tag, true
}

// preferredLanguage returns the highest weighted tag of an Accept-Language
// header.
func preferredLanguage(header string) (language.Tag, bool) {
	if strings.TrimSpace(header) == "" {
		return language.Und, false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return language.Und, false
	}
	for _, tag := range tags {
		if tag != language.Und {
			return tag, true
		}
	}
	return language.Und, false
}

// countryLanguage maps a country to its most likely language, e.g. ID to
// Indonesian or BR to Portuguese.
func countryLanguage(country string) (language.Tag, bool) {
	if country == "" {
		return language.Und, false
	}
	region, err := language.ParseRegion(country)
	if err != nil {
		return language.Und, false
	}
	tag, err := language.Compose(region)
	if err != nil {
		return language.Und, false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return language.Und, false
	}
	out, err := language.Compose(base, region)
	if err != nil {
		return language.Und, false
	}
	return out, true
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocaleFromContext returns the detected language, or language.Und when
// the I18N middleware did not run.
func LocaleFromContext(ctx context.Context) language.Tag {
	if v, ok := ctx.Value(LocaleKey).(language.Tag); ok {
		return v
	}
	return language.Und
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry resolves a best-effort ISO country code for the given
// request: CDN country headers first, then the region subtag of the
// requested locale, then a GeoIP lookup of the client address.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	headerHints := []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		val := strings.ToUpper(strings.TrimSpace(r.Header.Get(key)))
		if val == "" || val == "XX" {
			continue
		}
		return val
	}
	if tag, ok := parseLocale(r.Header.Get("X-Locale")); ok {
		if region, conf := tag.Region(); conf == language.Exact {
			return region.String()
		}
	}
	if tag, ok := preferredLanguage(r.Header.Get("Accept-Language")); ok {
		if region, conf := tag.Region(); conf == language.Exact {
			return region.String()
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}
