package logprocessor

import (
	"math"
	"regexp"
	"unicode"

	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/models"
)

// nonSpace is one character that is not whitespace in the Unicode sense:
// the separators (Z) plus the C0/C1 controls that act as whitespace. A
// no-break space inside a field therefore ends the token.
const nonSpace = `[^\pZ\t\n\v\f\r\x1c-\x1f\x85]`

// Combined Log Format, request-relevant prefix only:
// %h %l %u [%t] "%m %U %H" %>s %b
// The match is anchored at the start of the line; anything after the bytes
// field (referer, user agent) is ignored. Fields are separated by a single
// ASCII space and the status is any three decimal digits of any script.
var combinedLogPattern = regexp.MustCompile(
	`^(` + nonSpace + `+) ` + nonSpace + `+ ` + nonSpace + `+ ` +
		`\[([^\]]+)\] ` +
		`"(` + nonSpace + `+) (` + nonSpace + `+) ` + nonSpace + `+" ` +
		`(\p{Nd}{3}) (` + nonSpace + `+)`,
)

const (
	groupHost = iota + 1
	groupTimestamp
	groupMethod
	groupResource
	groupStatus
	groupBytes
)

// ParseLine parses a single access log line. It returns false when the line
// does not match the grammar; no partial record is ever returned.
//
// Status codes are not range checked and methods are not validated: any
// three digit status and any non-space method token is accepted.
func ParseLine(line string) (*models.LogRecord, bool) {
	m := combinedLogPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	status, ok := parseDigits(m[groupStatus])
	if !ok {
		return nil, false
	}

	return &models.LogRecord{
		Host:      m[groupHost],
		Timestamp: m[groupTimestamp],
		Method:    m[groupMethod],
		Resource:  m[groupResource],
		Status:    int(status),
		Bytes:     parseBytes(m[groupBytes]),
	}, true
}

// parseBytes converts the response size field. Placeholders such as "-" and
// digit runs that overflow int64 count as zero.
func parseBytes(field string) int64 {
	n, ok := parseDigits(field)
	if !ok {
		return 0
	}
	return n
}

// parseDigits reads a non-empty run of decimal digits from any script
// ("١٢٣" is 123). It fails on any other rune and on int64 overflow.
func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for _, r := range s {
		d, ok := digitValue(r)
		if !ok {
			return 0, false
		}
		if n > (math.MaxInt64-int64(d))/10 {
			return 0, false
		}
		n = n*10 + int64(d)
	}
	return n, true
}

// digitValue returns the value of a Unicode decimal digit. Decimal digits
// are allocated in contiguous runs of ten starting at zero, so the value is
// the offset into its run.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	if !unicode.Is(unicode.Nd, r) {
		return 0, false
	}
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return int((r-lo)/rune(rg.Stride)) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return int((r-lo)/rune(rg.Stride)) % 10, true
		}
	}
	return 0, false
}
