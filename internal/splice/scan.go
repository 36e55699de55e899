package splice

import "fmt"

type scanState int

const (
	stateCode scanState = iota
	stateString
	stateLineComment
	stateBlockComment
)

// lexer tracks whether a position in a script is code, inside a quoted
// string or inside a comment.
type lexer struct {
	state scanState
	quote byte
}

// step consumes doc[i] and returns the index of the next unread byte.
// Escapes and two-byte comment delimiters are consumed whole. A newline
// ends a single or double quoted string.
func (lx *lexer) step(doc string, i int) int {
	c := doc[i]
	switch lx.state {
	case stateString:
		switch {
		case c == '\\':
			return i + 2
		case c == lx.quote, c == '\n' && lx.quote != '`':
			lx.state = stateCode
		}

	case stateLineComment:
		if c == '\n' {
			lx.state = stateCode
		}

	case stateBlockComment:
		if c == '*' && i+1 < len(doc) && doc[i+1] == '/' {
			lx.state = stateCode
			return i + 2
		}

	case stateCode:
		switch c {
		case '"', '\'', '`':
			lx.state, lx.quote = stateString, c
		case '/':
			if i+1 < len(doc) {
				switch doc[i+1] {
				case '/':
					lx.state = stateLineComment
					return i + 2
				case '*':
					lx.state = stateBlockComment
					return i + 2
				}
			}
		}
	}
	return i + 1
}

// scan walks the literal that opens at doc[start] and returns the offset
// just past its matching close bracket. Brackets inside quoted strings and
// comments are ignored; every other '{' or '[' pushes and every '}' or ']'
// must close the innermost open bracket.
func scan(doc string, start int) (int, error) {
	var (
		stack []byte
		lx    lexer
	)

	for i := start; i < len(doc); {
		c := doc[i]
		if lx.state == stateString && c == '\n' && lx.quote != '`' {
			return 0, fmt.Errorf("%w: newline in string at offset %d", errUnterminated, i)
		}
		if lx.state == stateCode {
			switch c {
			case '{':
				stack = append(stack, '}')
			case '[':
				stack = append(stack, ']')
			case '}', ']':
				if len(stack) == 0 || stack[len(stack)-1] != c {
					return 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrUnbalanced, c, i)
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return i + 1, nil
				}
			}
		}
		i = lx.step(doc, i)
	}

	if lx.state == stateString || lx.state == stateBlockComment {
		return 0, fmt.Errorf("%w: reached end of document", errUnterminated)
	}
	return 0, fmt.Errorf("%w: %d bracket(s) left open", ErrUnbalanced, len(stack))
}
