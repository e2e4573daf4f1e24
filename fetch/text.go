package fetch

import (
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

func toValidUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// decodeDeclared decodes raw using the charset parameter of contentType
// when one is declared and known; otherwise raw is treated as UTF-8 with
// invalid sequences replaced.
func decodeDeclared(raw []byte, contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if label := params["charset"]; label != "" {
			if enc, _ := charset.Lookup(label); enc != nil {
				if decoded, err := enc.NewDecoder().Bytes(raw); err == nil {
					return string(decoded)
				}
			}
		}
	}
	return toValidUTF8(raw)
}

// headerText joins a header's values for transport to the UI. Values that
// are not valid UTF-8 become "" rather than failing the call.
func headerText(values []string) string {
	joined := strings.Join(values, ", ")
	if !utf8.ValidString(joined) {
		return ""
	}
	return joined
}
