package ldapcodec

import (
	"bytes"
	"strconv"
	"strings"
)

// Defined filter types
const (
	FilterTypeAnd             uint8 = 0
	FilterTypeOr              uint8 = 1
	FilterTypeNot             uint8 = 2
	FilterTypeEqual           uint8 = 3
	FilterTypeSubstrings      uint8 = 4
	FilterTypeGreaterOrEqual  uint8 = 5
	FilterTypeLessOrEqual     uint8 = 6
	FilterTypePresent         uint8 = 7
	FilterTypeApproxMatch     uint8 = 8
	FilterTypeExtensibleMatch uint8 = 9
	// An empty AND set is the absolute-true filter and an empty OR set the
	// absolute-false filter (RFC 4526); they share the AND/OR type codes.
	FilterTypeAbsoluteTrue  = FilterTypeAnd
	FilterTypeAbsoluteFalse = FilterTypeOr
)

//	Filter ::= CHOICE {
//		and             [0] SET SIZE (1..MAX) OF filter Filter,
//		or              [1] SET SIZE (1..MAX) OF filter Filter,
//		not             [2] Filter,
//		equalityMatch   [3] AttributeValueAssertion,
//		substrings      [4] SubstringFilter,
//		greaterOrEqual  [5] AttributeValueAssertion,
//		lessOrEqual     [6] AttributeValueAssertion,
//		present         [7] AttributeDescription,
//		approxMatch     [8] AttributeValueAssertion,
//		extensibleMatch [9] MatchingRuleAssertion,
//		...  }
type Filter struct {
	Type uint8
	Data any
}

// SubstringFilter ::= SEQUENCE {
// 		type           AttributeDescription,
// 		substrings     SEQUENCE SIZE (1..MAX) OF substring CHOICE {
// 		 	initial [0] AssertionValue,  -- can occur at most once
// 		 	any     [1] AssertionValue,
// 		 	final   [2] AssertionValue } -- can occur at most once
// 		}
type SubstringFilter struct {
	Type    string
	Initial string
	Any     []string
	Final   string
}

// MatchingRuleAssertion ::= SEQUENCE {
// 		matchingRule    [1] MatchingRuleId OPTIONAL,
// 		type            [2] AttributeDescription OPTIONAL,
// 		matchValue      [3] AssertionValue,
// 		dnAttributes    [4] BOOLEAN DEFAULT FALSE }
type MatchingRuleAssertion struct {
	MatchingRule string
	Type         string
	MatchValue   string
	DNAttributes bool
}

// Return a Filter from a raw BER element
func GetFilter(raw BerRawElement) (*Filter, error) {
	if raw.Type.Class() != BerClassContextSpecific {
		return nil, ErrWrongElementType.WithInfo("Filter type", raw.Type)
	}
	f := &Filter{
		Type: raw.Type.TagNumber(),
	}
	switch f.Type {
	case FilterTypeAnd, FilterTypeOr:
		var filters []Filter
		seq, err := BerGetSequence(raw.Data)
		if err != nil {
			return nil, err
		}
		for _, rf := range seq {
			filter, err := GetFilter(rf)
			if err != nil {
				return nil, err
			}
			filters = append(filters, *filter)
		}
		f.Data = filters
	case FilterTypeNot:
		elmt, err := BerReadElement(bytes.NewReader(raw.Data))
		if err != nil {
			return nil, err
		}
		filter, err := GetFilter(elmt)
		if err != nil {
			return nil, err
		}
		f.Data = filter
	case FilterTypeEqual, FilterTypeGreaterOrEqual, FilterTypeLessOrEqual, FilterTypeApproxMatch:
		ass, err := GetAttributeValueAssertion(raw.Data)
		if err != nil {
			return nil, err
		}
		f.Data = ass
	case FilterTypeSubstrings:
		seq, err := BerGetSequence(raw.Data)
		if err != nil {
			return nil, err
		}
		if len(seq) != 2 {
			return nil, ErrWrongSequenceLength.WithInfo("SubstringFilter sequence length", len(seq))
		}
		if seq[0].Type != BerTypeOctetString {
			return nil, ErrWrongElementType.WithInfo("SubstringFilter type type", seq[0].Type)
		}
		sf := &SubstringFilter{Type: BerGetOctetString(seq[0].Data)}
		if seq[1].Type != BerTypeSequence {
			return nil, ErrWrongElementType.WithInfo("SubstringFilter substrings type", seq[1].Type)
		}
		seq, err = BerGetSequence(seq[1].Data)
		if err != nil {
			return nil, err
		}
		for _, rs := range seq {
			if rs.Type.Class() != BerClassContextSpecific {
				return nil, ErrWrongElementType.WithInfo("SubstringFilter substring type", rs.Type)
			}
			switch rs.Type.TagNumber() {
			case 0:
				if sf.Initial != "" {
					return nil, ErrWrongElementType.WithInfo("Multiple initial substrings", string(rs.Data))
				}
				sf.Initial = BerGetOctetString(rs.Data)
			case 1:
				sf.Any = append(sf.Any, BerGetOctetString(rs.Data))
			case 2:
				if sf.Final != "" {
					return nil, ErrWrongElementType.WithInfo("Multiple final substrings", string(rs.Data))
				}
				sf.Final = BerGetOctetString(rs.Data)
			default:
				return nil, ErrWrongElementType.WithInfo("SubstringFilter substring type", rs.Type)
			}
		}
		f.Data = sf
	case FilterTypePresent:
		f.Data = BerGetOctetString(raw.Data)
	case FilterTypeExtensibleMatch:
		seq, err := BerGetSequence(raw.Data)
		if err != nil {
			return nil, err
		}
		m := &MatchingRuleAssertion{}
		i := 0
		if len(seq) > i && seq[i].Type == BerContextSpecificType(1, false) {
			m.MatchingRule = BerGetOctetString(seq[i].Data)
			i++
		}
		if len(seq) > i && seq[i].Type == BerContextSpecificType(2, false) {
			m.Type = BerGetOctetString(seq[i].Data)
			i++
		}
		if len(seq) <= i || len(seq) > i+2 {
			return nil, ErrWrongSequenceLength.WithInfo("MatchingRuleAssertion sequence length", len(seq))
		}
		if seq[i].Type != BerContextSpecificType(3, false) {
			return nil, ErrWrongElementType.WithInfo("MatchingRuleAssertion matchValue type", seq[i].Type)
		}
		m.MatchValue = BerGetOctetString(seq[i].Data)
		i++
		if i < len(seq) {
			if seq[i].Type != BerContextSpecificType(4, false) {
				return nil, ErrWrongElementType.WithInfo("MatchingRuleAssertion dnAttributes type", seq[i].Type)
			}
			dna, err := BerGetBoolean(seq[i].Data)
			if err != nil {
				return nil, err
			}
			m.DNAttributes = dna
		}
		f.Data = m
	default:
		f.Data = &raw
	}
	return f, nil
}

// Return the BER-encoded element (with header; the context-specific tag on a
// Filter element is what distinguishes its CHOICE arm, so unlike most
// Encode methods in this package this one is not header-less)
func (f *Filter) Encode() []byte {
	constructed := false
	var data []byte
	switch f.Type {
	case FilterTypeAnd, FilterTypeOr:
		constructed = true
		b := bytes.NewBuffer(nil)
		for _, child := range f.Data.([]Filter) {
			b.Write(child.Encode())
		}
		data = b.Bytes()
	case FilterTypeNot:
		constructed = true
		data = f.Data.(*Filter).Encode()
	case FilterTypeEqual, FilterTypeGreaterOrEqual, FilterTypeLessOrEqual, FilterTypeApproxMatch:
		constructed = true
		data = f.Data.(*AttributeValueAssertion).Encode()
	case FilterTypeSubstrings:
		constructed = true
		data = f.Data.(*SubstringFilter).Encode()
	case FilterTypePresent:
		data = []byte(f.Data.(string))
	case FilterTypeExtensibleMatch:
		constructed = true
		data = f.Data.(*MatchingRuleAssertion).Encode()
	default:
		if raw, ok := f.Data.(*BerRawElement); ok {
			return BerEncodeElement(raw.Type, raw.Data)
		}
	}
	return BerEncodeElement(BerContextSpecificType(f.Type, constructed), data)
}

// Return the BER-encoded struct (without element header)
func (sf *SubstringFilter) Encode() []byte {
	b := bytes.NewBuffer(nil)
	b.Write(BerEncodeOctetString(sf.Type))
	sb := bytes.NewBuffer(nil)
	if sf.Initial != "" {
		sb.Write(BerEncodeElement(BerContextSpecificType(0, false), []byte(sf.Initial)))
	}
	for _, a := range sf.Any {
		sb.Write(BerEncodeElement(BerContextSpecificType(1, false), []byte(a)))
	}
	if sf.Final != "" {
		sb.Write(BerEncodeElement(BerContextSpecificType(2, false), []byte(sf.Final)))
	}
	b.Write(BerEncodeSequence(sb.Bytes()))
	return b.Bytes()
}

// Return the BER-encoded struct (without element header)
func (m *MatchingRuleAssertion) Encode() []byte {
	b := bytes.NewBuffer(nil)
	if m.MatchingRule != "" {
		b.Write(BerEncodeElement(BerContextSpecificType(1, false), []byte(m.MatchingRule)))
	}
	if m.Type != "" {
		b.Write(BerEncodeElement(BerContextSpecificType(2, false), []byte(m.Type)))
	}
	b.Write(BerEncodeElement(BerContextSpecificType(3, false), []byte(m.MatchValue)))
	if m.DNAttributes {
		b.Write(BerEncodeElement(BerContextSpecificType(4, false), []byte{0xff}))
	}
	return b.Bytes()
}

// String renders f as an RFC 4515 filter string, the inverse of
// ParseFilterString.
func (f *Filter) String() string {
	switch f.Type {
	case FilterTypeAnd:
		return "(&" + joinFilterStrings(f.Data.([]Filter)) + ")"
	case FilterTypeOr:
		return "(|" + joinFilterStrings(f.Data.([]Filter)) + ")"
	case FilterTypeNot:
		return "(!" + f.Data.(*Filter).String() + ")"
	case FilterTypeEqual:
		a := f.Data.(*AttributeValueAssertion)
		return "(" + a.Description + "=" + escapeFilterAssertionValue(a.Value) + ")"
	case FilterTypeGreaterOrEqual:
		a := f.Data.(*AttributeValueAssertion)
		return "(" + a.Description + ">=" + escapeFilterAssertionValue(a.Value) + ")"
	case FilterTypeLessOrEqual:
		a := f.Data.(*AttributeValueAssertion)
		return "(" + a.Description + "<=" + escapeFilterAssertionValue(a.Value) + ")"
	case FilterTypeApproxMatch:
		a := f.Data.(*AttributeValueAssertion)
		return "(" + a.Description + "~=" + escapeFilterAssertionValue(a.Value) + ")"
	case FilterTypePresent:
		return "(" + f.Data.(string) + "=*)"
	case FilterTypeSubstrings:
		sf := f.Data.(*SubstringFilter)
		s := "(" + sf.Type + "="
		if sf.Initial != "" {
			s += escapeFilterAssertionValue(sf.Initial)
		}
		s += "*"
		for _, a := range sf.Any {
			s += escapeFilterAssertionValue(a) + "*"
		}
		if sf.Final != "" {
			s += escapeFilterAssertionValue(sf.Final)
		}
		return s + ")"
	case FilterTypeExtensibleMatch:
		m := f.Data.(*MatchingRuleAssertion)
		s := "(" + m.Type
		if m.DNAttributes {
			s += ":dn"
		}
		if m.MatchingRule != "" {
			s += ":" + m.MatchingRule
		}
		return s + ":=" + escapeFilterAssertionValue(m.MatchValue) + ")"
	default:
		return "(?)"
	}
}

func joinFilterStrings(filters []Filter) string {
	s := ""
	for _, f := range filters {
		s += f.String()
	}
	return s
}

// unescapeFilterAssertionValue decodes RFC 4515 \HH escapes in a filter
// assertion value. Unlike DN escaping (DecodeRDNAttributeValue), filter
// strings only ever escape as a backslash followed by two hex digits.
func unescapeFilterAssertionValue(s string) (string, error) {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			buf = append(buf, s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", newFilterSyntaxError(FilterErrBadEscape, i, s[i:])
		}
		b, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", newFilterSyntaxError(FilterErrBadEscape, i, s[i:i+3])
		}
		buf = append(buf, byte(b))
		i += 2
	}
	return string(buf), nil
}

// escapeFilterAssertionValue encodes a value for use in a filter string,
// escaping the characters RFC 4515 requires plus NUL.
func escapeFilterAssertionValue(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '(', ')', '*', '\\', 0x00:
			hx := strconv.FormatUint(uint64(b), 16)
			if len(hx) == 1 {
				hx = "0" + hx
			}
			buf = append(buf, '\\')
			buf = append(buf, strings.ToUpper(hx)...)
		default:
			buf = append(buf, b)
		}
	}
	return string(buf)
}

// ParseFilterString parses an RFC 4515 textual search filter, e.g.
// "(&(objectClass=person)(cn=John*))".
func ParseFilterString(s string) (*Filter, error) {
	f, pos, err := parseFilterExpr(s, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(s) {
		return nil, newFilterSyntaxError(FilterErrExpectingLeftParen, pos, safeByteAt(s, pos))
	}
	return f, nil
}

func safeByteAt(s string, pos int) string {
	if pos < 0 || pos >= len(s) {
		return ""
	}
	return string(s[pos])
}

func parseFilterExpr(s string, pos int) (*Filter, int, error) {
	if pos >= len(s) || s[pos] != '(' {
		return nil, pos, newFilterSyntaxError(FilterErrMissingLeftParen, pos, safeByteAt(s, pos))
	}
	pos++
	if pos >= len(s) {
		return nil, pos, newFilterSyntaxError(FilterErrUnexpectedEnd, pos, "")
	}
	var f *Filter
	var err error
	switch s[pos] {
	case '&':
		f, pos, err = parseFilterList(s, pos+1, FilterTypeAnd)
	case '|':
		f, pos, err = parseFilterList(s, pos+1, FilterTypeOr)
	case '!':
		var inner *Filter
		inner, pos, err = parseFilterExpr(s, pos+1)
		if err == nil {
			f = &Filter{Type: FilterTypeNot, Data: inner}
		}
	default:
		f, pos, err = parseFilterItem(s, pos)
	}
	if err != nil {
		return nil, pos, err
	}
	if pos >= len(s) || s[pos] != ')' {
		return nil, pos, newFilterSyntaxError(FilterErrMissingRightParen, pos, safeByteAt(s, pos))
	}
	return f, pos + 1, nil
}

func parseFilterList(s string, pos int, typ uint8) (*Filter, int, error) {
	var filters []Filter
	for pos < len(s) && s[pos] == '(' {
		child, newPos, err := parseFilterExpr(s, pos)
		if err != nil {
			return nil, pos, err
		}
		filters = append(filters, *child)
		pos = newPos
	}
	if len(filters) == 0 {
		return nil, pos, newFilterSyntaxError(FilterErrEmptyAndOr, pos, "")
	}
	return &Filter{Type: typ, Data: filters}, pos, nil
}

// parseFilterItem extracts one item's content, up to (but not including)
// its closing parenthesis. Filter strings escape a literal ')' as \29, so
// an unescaped ')' byte always ends the item.
func parseFilterItem(s string, pos int) (*Filter, int, error) {
	start := pos
	end := strings.IndexByte(s[pos:], ')')
	if end < 0 {
		return nil, pos, newFilterSyntaxError(FilterErrMissingRightParen, pos, "")
	}
	end += pos
	f, err := parseFilterItemContent(s[start:end], start)
	return f, end, err
}

func parseFilterItemContent(item string, basePos int) (*Filter, error) {
	for i := 0; i < len(item); i++ {
		if item[i] == '\\' {
			i++ // skip the two hex digits of an escape sequence
			continue
		}
		if item[i] != '=' {
			continue
		}
		typ := FilterTypeEqual
		opStart := i
		extensible := false
		if i > 0 {
			switch item[i-1] {
			case '>':
				typ, opStart = FilterTypeGreaterOrEqual, i-1
			case '<':
				typ, opStart = FilterTypeLessOrEqual, i-1
			case '~':
				typ, opStart = FilterTypeApproxMatch, i-1
			case ':':
				extensible, opStart = true, i-1
			}
		}
		attrPart := item[:opStart]
		valuePart := item[i+1:]
		if extensible {
			return parseExtensibleFilterItem(attrPart, valuePart)
		}
		if typ == FilterTypeEqual {
			if valuePart == "*" {
				return &Filter{Type: FilterTypePresent, Data: attrPart}, nil
			}
			if strings.Contains(valuePart, "*") {
				return parseSubstringFilterItem(attrPart, valuePart)
			}
		}
		val, err := unescapeFilterAssertionValue(valuePart)
		if err != nil {
			return nil, err
		}
		return &Filter{Type: typ, Data: &AttributeValueAssertion{Description: attrPart, Value: val}}, nil
	}
	return nil, newFilterSyntaxError(FilterErrUnexpectedEnd, basePos+len(item), item)
}

func parseSubstringFilterItem(attr, value string) (*Filter, error) {
	parts := strings.Split(value, "*")
	sf := &SubstringFilter{Type: attr}
	last := len(parts) - 1
	for i, part := range parts {
		if part == "" {
			continue
		}
		val, err := unescapeFilterAssertionValue(part)
		if err != nil {
			return nil, err
		}
		switch i {
		case 0:
			sf.Initial = val
		case last:
			sf.Final = val
		default:
			sf.Any = append(sf.Any, val)
		}
	}
	return &Filter{Type: FilterTypeSubstrings, Data: sf}, nil
}

func parseExtensibleFilterItem(attrPart, valuePart string) (*Filter, error) {
	m := &MatchingRuleAssertion{}
	parts := strings.Split(attrPart, ":")
	if parts[0] != "" {
		m.Type = parts[0]
	}
	for _, p := range parts[1:] {
		if p == "dn" {
			m.DNAttributes = true
		} else if p != "" {
			m.MatchingRule = p
		}
	}
	val, err := unescapeFilterAssertionValue(valuePart)
	if err != nil {
		return nil, err
	}
	m.MatchValue = val
	return &Filter{Type: FilterTypeExtensibleMatch, Data: m}, nil
}
