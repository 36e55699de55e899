// Package splice replaces the structured literal assigned to a marker
// inside a larger text document (`const contentDatabase = {...};` in a
// page script) and leaves every other byte untouched.
package splice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMarkerNotFound  = errors.New("marker not found")
	ErrUnbalanced      = errors.New("unbalanced structured literal")
	ErrDuplicateMarker = errors.New("marker assigned more than once")

	// errUnterminated means the scan ran off the end inside a string or
	// comment. Only this failure is retried with the sentinel fallback.
	errUnterminated = errors.New("unterminated string or comment")
)

// Splicer locates `<Marker> = <literal>` where the literal starts with `{`
// or `[`. Sentinels are texts known to follow the assignment (for example
// "const START_DATE" or "</script>"); they are only used by the fallback.
type Splicer struct {
	Marker    string
	Sentinels []string
}

// Span is the byte range of the literal value inside the document.
type Span struct {
	Start    int
	End      int
	Fallback bool
}

// Locate finds the literal assigned to the marker.
func (s Splicer) Locate(doc string) (Span, error) {
	if s.Marker == "" {
		return Span{}, fmt.Errorf("%w: empty marker", ErrMarkerNotFound)
	}

	start, ok := s.findAssignment(doc, 0)
	if !ok {
		return Span{}, fmt.Errorf("%w: %q", ErrMarkerNotFound, s.Marker)
	}

	span := Span{Start: start}
	end, err := scan(doc, start)
	switch {
	case err == nil:
		span.End = end
	case errors.Is(err, errUnterminated):
		end, ferr := s.fallback(doc, start)
		if ferr != nil {
			return Span{}, fmt.Errorf("%w (scan: %v)", ferr, err)
		}
		span.End = end
		span.Fallback = true
	default:
		return Span{}, err
	}

	if _, dup := s.findAssignment(doc, span.End); dup {
		return Span{}, fmt.Errorf("%w: %q", ErrDuplicateMarker, s.Marker)
	}
	return span, nil
}

// Extract returns the literal text currently assigned to the marker.
func (s Splicer) Extract(doc string) (string, error) {
	span, err := s.Locate(doc)
	if err != nil {
		return "", err
	}
	return doc[span.Start:span.End], nil
}

// Splice replaces the literal with value. On error the original document
// is returned unchanged together with the error.
func (s Splicer) Splice(doc string, value []byte) (string, error) {
	span, err := s.Locate(doc)
	if err != nil {
		return doc, err
	}
	var b strings.Builder
	b.Grow(len(doc) - (span.End - span.Start) + len(value))
	b.WriteString(doc[:span.Start])
	b.Write(value)
	b.WriteString(doc[span.End:])
	return b.String(), nil
}

// findAssignment returns the offset of the opening bracket of the first
// `<marker> = {` or `<marker> = [` at or after from. Occurrences inside
// comments or quoted strings are skipped.
func (s Splicer) findAssignment(doc string, from int) (int, bool) {
	var lx lexer
	for i := from; i < len(doc); {
		if lx.state == stateCode && strings.HasPrefix(doc[i:], s.Marker) {
			if j, ok := s.assignmentAt(doc, i); ok {
				return j, true
			}
		}
		i = lx.step(doc, i)
	}
	return 0, false
}

func (s Splicer) assignmentAt(doc string, at int) (int, bool) {
	if at > 0 && isIdent(doc[at-1]) {
		return 0, false
	}
	j := skipSpace(doc, at+len(s.Marker))
	if j >= len(doc) || doc[j] != '=' || (j+1 < len(doc) && doc[j+1] == '=') {
		return 0, false
	}
	j = skipSpace(doc, j+1)
	if j < len(doc) && (doc[j] == '{' || doc[j] == '[') {
		return j, true
	}
	return 0, false
}

// fallback splices up to the last ';' before the first sentinel that
// follows start. The region must still have matching bracket counts.
func (s Splicer) fallback(doc string, start int) (int, error) {
	stop := -1
	for _, sentinel := range s.Sentinels {
		if sentinel == "" {
			continue
		}
		if idx := strings.Index(doc[start:], sentinel); idx >= 0 && (stop < 0 || start+idx < stop) {
			stop = start + idx
		}
	}
	if stop < 0 {
		return 0, fmt.Errorf("%w: no sentinel after marker", ErrUnbalanced)
	}

	region := doc[start:stop]
	semi := strings.LastIndexByte(region, ';')
	if semi < 0 {
		return 0, fmt.Errorf("%w: no terminator before sentinel", ErrUnbalanced)
	}
	value := strings.TrimRight(region[:semi], " \t\r\n")
	if !rawBalanced(value) {
		return 0, fmt.Errorf("%w: bracket counts differ before sentinel", ErrUnbalanced)
	}
	return start + len(value), nil
}

func rawBalanced(v string) bool {
	if v == "" {
		return false
	}
	closer := map[byte]byte{'{': '}', '[': ']'}[v[0]]
	if v[len(v)-1] != closer {
		return false
	}
	return strings.Count(v, "{") == strings.Count(v, "}") &&
		strings.Count(v, "[") == strings.Count(v, "]")
}

func skipSpace(doc string, i int) int {
	for i < len(doc) {
		switch doc[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

func isIdent(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
