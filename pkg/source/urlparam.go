package source

import (
	"encoding/base64"
	"strings"
	"unicode"
)

var urlSafeReplacer = strings.NewReplacer("-", "+", "_", "/")

// DecodeURLParam decodes a code deep-link value. Whitespace anywhere in the
// value is ignored, '-' and '_' are read as '+' and '/', and padding is
// optional.
func DecodeURLParam(code string) (string, error) {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)
	std := strings.TrimRight(urlSafeReplacer.Replace(stripped), "=")

	raw, err := base64.RawStdEncoding.DecodeString(std)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// EncodeURLParam produces a code deep-link value for text: URL-safe base64
// without padding.
func EncodeURLParam(text string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(text))
}
