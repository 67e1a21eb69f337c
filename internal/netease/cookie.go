package netease

import "strings"

// requiredCookiePrefix selects the only cookie fragment the service needs
// to keep. Everything else the login check endpoint returns is noise.
const requiredCookiePrefix = "MUSIC_U"

// FilterCookie trims a raw credential blob down to the required fragments.
// The login status endpoint returns surplus cookies, sometimes repeated;
// only MUSIC_U fragments are retained, deduplicated in encounter order,
// each terminated by a semicolon. The result is what gets persisted and
// reused, never the raw blob.
func FilterCookie(raw string) string {
	var b strings.Builder
	seen := make(map[string]struct{})
	for _, fragment := range strings.Split(raw, ";") {
		if !strings.HasPrefix(strings.TrimSpace(fragment), requiredCookiePrefix) {
			continue
		}
		if _, ok := seen[fragment]; ok {
			continue
		}
		seen[fragment] = struct{}{}
		b.WriteString(fragment)
		b.WriteByte(';')
	}
	return b.String()
}
