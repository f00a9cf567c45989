package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// maxLiteralDepth bounds nesting so hostile input cannot exhaust the stack.
const maxLiteralDepth = 64

// Mapping is an insertion-ordered mapping literal with string keys.
type Mapping struct {
	keys   []string
	values map[string]any
}

func newMapping() *Mapping {
	return &Mapping{values: make(map[string]any)}
}

// Keys returns the keys in the order they appear in the report.
func (m *Mapping) Keys() []string {
	return m.keys
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	return len(m.keys)
}

func (m *Mapping) set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Number is a numeric literal. Integers and floats are kept apart so they
// print back the way the engine printed them ("3" vs "3.0").
type Number struct {
	Value float64
	IsInt bool
}

// String formats the number like the engine's repr.
func (n Number) String() string {
	if n.IsInt {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return formatFloat(n.Value)
}

// Round returns n rounded to the given number of decimals. Rounding works on
// the exact binary value, so 1.2345 (stored as 1.23449999...) gives 1.234.
func (n Number) Round(decimals int) Number {
	if n.IsInt || math.IsInf(n.Value, 0) || math.IsNaN(n.Value) {
		return n
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(n.Value, 'f', decimals, 64), 64)
	if err != nil {
		return n
	}
	return Number{Value: rounded}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// parseLiteral parses the first complete literal value in src. Anything after
// it is ignored: the report terminator line may carry extra closing braces.
//
// Supported: {k: v}, [a, b], (a, b), ints, floats, quoted strings (with
// implicit concatenation of adjacent strings), True, False, None and
// datetime.datetime(y, m, d[, H[, M[, S[, us]]]]).
func parseLiteral(src string) (any, error) {
	p := &literalParser{src: src}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("empty literal")
	}
	return p.value(0)
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *literalParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, p.peek())
	}
	p.pos++
	return nil
}

func (p *literalParser) value(depth int) (any, error) {
	if depth > maxLiteralDepth {
		return nil, p.errorf("literal nested deeper than %d", maxLiteralDepth)
	}

	p.skipSpace()
	switch c := p.peek(); {
	case c == '{':
		return p.mapping(depth)
	case c == '[':
		return p.sequence(depth, ']')
	case c == '(':
		return p.sequence(depth, ')')
	case c == '\'' || c == '"':
		return p.strings()
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.number()
	case isIdentStart(c):
		return p.identifier(depth)
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *literalParser) mapping(depth int) (any, error) {
	p.pos++ // '{'
	m := newMapping()

	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return m, nil
		}

		rawKey, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		key, err := mappingKey(rawKey)
		if err != nil {
			return nil, p.errorf("%v", err)
		}

		err = p.expect(':')
		if err != nil {
			return nil, err
		}

		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		m.set(key, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return m, nil
		default:
			return nil, p.errorf("expected ',' or '}' in mapping")
		}
	}
}

func mappingKey(v any) (string, error) {
	switch k := v.(type) {
	case string:
		return k, nil
	case Number:
		return k.String(), nil
	default:
		return "", fmt.Errorf("unsupported mapping key of type %T", v)
	}
}

func (p *literalParser) sequence(depth int, closing byte) (any, error) {
	p.pos++ // '[' or '('
	items := make([]any, 0, 4)

	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			return items, nil
		}

		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return items, nil
		default:
			return nil, p.errorf("expected ',' or %q in sequence", closing)
		}
	}
}

// strings reads one quoted string plus any directly adjacent ones, which the
// engine's pretty-printer emits when it wraps long strings.
func (p *literalParser) strings() (any, error) {
	var sb strings.Builder
	for {
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)

		save := p.pos
		p.skipSpace()
		if c := p.peek(); c != '\'' && c != '"' {
			p.pos = save
			return sb.String(), nil
		}
	}
}

func (p *literalParser) quoted() (string, error) {
	quote := p.src[p.pos]
	p.pos++

	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return sb.String(), nil
		case c == '\n':
			return "", p.errorf("newline in string")
		case c == '\\':
			p.pos++
			err := p.escape(&sb)
			if err != nil {
				return "", err
			}
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
}

func (p *literalParser) escape(sb *strings.Builder) error {
	if p.eof() {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++

	switch c {
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'x':
		return p.codePoint(sb, 2)
	case 'u':
		return p.codePoint(sb, 4)
	case 'U':
		return p.codePoint(sb, 8)
	default:
		// Unknown escapes are kept verbatim, as the engine's repr does.
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}
	return nil
}

func (p *literalParser) codePoint(sb *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("truncated escape")
	}
	r, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil || !utf8.ValidRune(rune(r)) {
		return p.errorf("invalid escape %q", p.src[p.pos:p.pos+digits])
	}
	p.pos += digits
	sb.WriteRune(rune(r))
	return nil
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}

	isInt := true
scan:
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case isDigit(c) || c == '_':
			p.pos++
		case c == '.':
			isInt = false
			p.pos++
		case c == 'e' || c == 'E':
			isInt = false
			p.pos++
			if s := p.peek(); s == '-' || s == '+' {
				p.pos++
			}
		default:
			break scan
		}
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")

	if text == "-" || text == "+" {
		if strings.HasPrefix(p.src[p.pos:], "inf") {
			p.pos += 3
			sign := 1
			if text == "-" {
				sign = -1
			}
			return Number{Value: math.Inf(sign)}, nil
		}
		return nil, p.errorf("invalid number %q", text)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf("invalid number %q", text)
	}
	return Number{Value: f, IsInt: isInt}, nil
}

func (p *literalParser) identifier(depth int) (any, error) {
	start := p.pos
	for !p.eof() && (isIdentStart(p.src[p.pos]) || isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	name := p.src[start:p.pos]

	switch name {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	case "inf":
		return Number{Value: math.Inf(1)}, nil
	case "datetime.datetime", "datetime":
		return p.datetime(depth)
	default:
		p.pos = start
		return nil, p.errorf("unsupported identifier %q", name)
	}
}

func (p *literalParser) datetime(depth int) (any, error) {
	p.skipSpace()
	if p.peek() != '(' {
		return nil, p.errorf("expected '(' after datetime")
	}

	raw, err := p.sequence(depth, ')')
	if err != nil {
		return nil, err
	}
	args := raw.([]any)
	if len(args) < 3 || len(args) > 7 {
		return nil, p.errorf("datetime takes 3 to 7 arguments, got %d", len(args))
	}

	parts := [7]int{0, 1, 1, 0, 0, 0, 0}
	for i, a := range args {
		n, ok := a.(Number)
		if !ok || !n.IsInt {
			return nil, p.errorf("datetime argument %d is not an integer", i+1)
		}
		parts[i] = int(n.Value)
	}

	if parts[1] < 1 || parts[1] > 12 || parts[2] < 1 || parts[2] > 31 {
		return nil, p.errorf("datetime out of range")
	}

	return time.Date(parts[0], time.Month(parts[1]), parts[2],
		parts[3], parts[4], parts[5], parts[6]*1000, time.UTC), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
