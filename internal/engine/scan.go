package engine

const (
	stCode = iota
	stLineComment
	stBlockComment
	stString
	stChar
	stRawString
)

// Pending reports whether src is lexically open: unbalanced delimiters, an
// unterminated raw string, or an unterminated block comment. Open text can
// still become valid with more input. Interpreted strings and char literals
// do not survive a newline, so they fall through to the compiler instead.
func Pending(src string) bool {
	depth := 0
	state := stCode
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case stCode:
			switch c {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			case '"':
				state = stString
			case '\'':
				state = stChar
			case '`':
				state = stRawString
			case '/':
				if i+1 < len(src) {
					switch src[i+1] {
					case '/':
						state = stLineComment
						i++
					case '*':
						state = stBlockComment
						i++
					}
				}
			}
		case stLineComment:
			if c == '\n' {
				state = stCode
			}
		case stBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				state = stCode
				i++
			}
		case stString:
			switch c {
			case '\\':
				i++
			case '"', '\n':
				state = stCode
			}
		case stChar:
			switch c {
			case '\\':
				i++
			case '\'', '\n':
				state = stCode
			}
		case stRawString:
			if c == '`' {
				state = stCode
			}
		}
		if depth < 0 {
			// malformed, not open; the compiler reports it
			return false
		}
	}
	return depth > 0 || state == stBlockComment || state == stRawString
}
