package lexer

import (
	"fmt"
	"strings"
)

// Unescape strips the surrounding quotes from a char or string literal image
// and decodes its escapes. It accepts exactly the escapes the scanner keeps.
func Unescape(image string) (string, error) {
	if len(image) < 2 {
		return "", fmt.Errorf("literal %q is too short", image)
	}
	quote := image[0]
	if (quote != '"' && quote != '\'') || image[len(image)-1] != quote {
		return "", fmt.Errorf("literal %q is not quoted", image)
	}
	body := image[1 : len(image)-1]
	if !strings.Contains(body, `\`) {
		return body, nil
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			b.WriteByte(body[i])
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("literal %q ends inside an escape", image)
		}
		switch body[i] {
		case 'b':
			b.WriteByte('\b')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'f':
			b.WriteByte('\f')
		case 'r':
			b.WriteByte('\r')
		case '"', '\'', '\\':
			b.WriteByte(body[i])
		default:
			return "", fmt.Errorf("bad escape \\%c in %q", body[i], image)
		}
	}
	return b.String(), nil
}
