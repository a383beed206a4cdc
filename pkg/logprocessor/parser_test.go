package logprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/models"
)

func TestParseLine(t *testing.T) {
	line := `127.0.0.1 - - [10/Oct/2023:13:55:36] "GET /index.html HTTP/1.1" 200 1024`

	record, ok := ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, &models.LogRecord{
		Host:      "127.0.0.1",
		Timestamp: "10/Oct/2023:13:55:36",
		Method:    "GET",
		Resource:  "/index.html",
		Status:    200,
		Bytes:     1024,
	}, record)
}

func TestParseLineCombinedTrailingFields(t *testing.T) {
	line := `192.168.1.100 - frank [10/Oct/2023:13:55:36 +0000] "POST /api/users HTTP/1.1" 401 567 "https://example.com" "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"`

	record, ok := ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, "192.168.1.100", record.Host)
	assert.Equal(t, "10/Oct/2023:13:55:36 +0000", record.Timestamp)
	assert.Equal(t, "POST", record.Method)
	assert.Equal(t, "/api/users", record.Resource)
	assert.Equal(t, 401, record.Status)
	assert.Equal(t, int64(567), record.Bytes)
}

func TestParseLineBytesField(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  int64
	}{
		{"digits", "2326", 2326},
		{"zero", "0", 0},
		{"dash placeholder", "-", 0},
		{"mixed", "12ab", 0},
		{"negative", "-5", 0},
		{"overflow", "99999999999999999999999", 0},
		{"max int64", "9223372036854775807", 9223372036854775807},
		{"arabic-indic digits", "١٢٣٤", 1234},
		{"mixed scripts", "1٢3", 123},
		{"superscript is not decimal", "²", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := `host - - [ts] "GET / HTTP/1.0" 200 ` + tt.field
			record, ok := ParseLine(line)
			require.True(t, ok)
			assert.Equal(t, tt.want, record.Bytes)
		})
	}
}

func TestParseLinePermissive(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		status int
		method string
	}{
		{"out of range status", `h - - [ts] "GET / HTTP/1.1" 999 10`, 999, "GET"},
		{"zero status", `h - - [ts] "GET / HTTP/1.1" 000 10`, 0, "GET"},
		{"unknown method", `h - - [ts] "FROB /x HTTP/1.1" 200 10`, 200, "FROB"},
		{"hostname host", `example.org - - [ts] "GET / HTTP/1.1" 200 10`, 200, "GET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, ok := ParseLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.status, record.Status)
			assert.Equal(t, tt.method, record.Method)
		})
	}
}

func TestParseLineUnicodeWhitespace(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no-break space in host", "1.2.3.4\u00a0evil - - [ts] \"GET / HTTP/1.1\" 200 10"},
		{"no-break space in resource", "1.2.3.4 - - [ts] \"GET /a\u00a0b HTTP/1.1\" 200 10"},
		{"ideographic space in method", "1.2.3.4 - - [ts] \"GET\u3000X / HTTP/1.1\" 200 10"},
		{"line separator in ident", "1.2.3.4 -\u2028x - [ts] \"GET / HTTP/1.1\" 200 10"},
		{"next line in bytes", "1.2.3.4 - - [ts] \"GET / HTTP/1.1\" 200 \u0085"},
		{"no-break space as separator", "1.2.3.4\u00a0- - [ts] \"GET / HTTP/1.1\" 200 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, ok := ParseLine(tt.line)
			assert.False(t, ok)
			assert.Nil(t, record)
		})
	}
}

func TestParseLineUnicodeFields(t *testing.T) {
	// zero width space is a format character, not whitespace
	record, ok := ParseLine("h\u200bost - - [ts] \"GET /caf\u00e9 HTTP/1.1\" 200 10")
	require.True(t, ok)
	assert.Equal(t, "h\u200bost", record.Host)
	assert.Equal(t, "/caf\u00e9", record.Resource)

	record, ok = ParseLine(`h - - [ts] "GET / HTTP/1.1" ٢٠٠ ١٠`)
	require.True(t, ok)
	assert.Equal(t, 200, record.Status)
	assert.Equal(t, int64(10), record.Bytes)
	assert.Equal(t, 2, record.StatusClass())

	record, ok = ParseLine(`h - - [ts] "GET / HTTP/1.1" ४०४ -`)
	require.True(t, ok)
	assert.Equal(t, 404, record.Status)
}

func TestDigitValue(t *testing.T) {
	tests := []struct {
		r    rune
		want int
	}{
		{'0', 0},
		{'9', 9},
		{'٠', 0},
		{'٩', 9},
		{'۷', 7},
		{'७', 7},
		{'๓', 3},
		{'５', 5},
		{'𝟗', 9},
	}

	for _, tt := range tests {
		got, ok := digitValue(tt.r)
		require.True(t, ok, "%q", tt.r)
		assert.Equal(t, tt.want, got, "%q", tt.r)
	}

	for _, r := range []rune{'a', '-', '²', '½', 'Ⅻ'} {
		_, ok := digitValue(r)
		assert.False(t, ok, "%q", r)
	}
}

func TestParseLineInvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ``},
		{"whitespace", `   `},
		{"missing quotes", `127.0.0.1 - - [10/Oct/2023:13:55:36] GET /index.html HTTP/1.1 200 1024`},
		{"missing brackets", `127.0.0.1 - - 10/Oct/2023:13:55:36 "GET /index.html HTTP/1.1" 200 1024`},
		{"empty timestamp", `127.0.0.1 - - [] "GET /index.html HTTP/1.1" 200 1024`},
		{"two digit status", `127.0.0.1 - - [10/Oct/2023:13:55:36] "GET /index.html HTTP/1.1" 20 1024`},
		{"four digit status", `127.0.0.1 - - [10/Oct/2023:13:55:36] "GET /index.html HTTP/1.1" 2000 1024`},
		{"non digit status", `127.0.0.1 - - [10/Oct/2023:13:55:36] "GET /index.html HTTP/1.1" 2x0 1024`},
		{"missing bytes", `127.0.0.1 - - [10/Oct/2023:13:55:36] "GET /index.html HTTP/1.1" 200`},
		{"missing protocol", `127.0.0.1 - - [10/Oct/2023:13:55:36] "GET /index.html" 200 1024`},
		{"missing identity fields", `127.0.0.1 [10/Oct/2023:13:55:36] "GET /index.html HTTP/1.1" 200 1024`},
		{"leading space", ` 127.0.0.1 - - [10/Oct/2023:13:55:36] "GET /index.html HTTP/1.1" 200 1024`},
		{"double separator", `127.0.0.1 - -  [10/Oct/2023:13:55:36] "GET /index.html HTTP/1.1" 200 1024`},
		{"generic log", `2023-10-10 13:55:38 INFO User login successful user_id=12345`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, ok := ParseLine(tt.line)
			assert.False(t, ok)
			assert.Nil(t, record)
		})
	}
}

func TestParseLineWellFormedProperties(t *testing.T) {
	lines := []string{
		`127.0.0.1 - - [10/Oct/2023:13:55:36] "GET /index.html HTTP/1.1" 200 1024`,
		`10.1.1.1 ident user [01/Jan/2024:00:00:00 -0500] "DELETE /items/7 HTTP/2.0" 503 -`,
		`::1 - - [x] "HEAD /health HTTP/1.0" 304 0 trailing junk`,
	}

	for _, line := range lines {
		record, ok := ParseLine(line)
		require.True(t, ok, line)
		assert.GreaterOrEqual(t, record.Status, 0)
		assert.Less(t, record.Status, 1000)
		assert.GreaterOrEqual(t, record.Bytes, int64(0))
		assert.NotEmpty(t, record.Host)
		assert.NotEmpty(t, record.Method)
		assert.NotEmpty(t, record.Resource)
	}
}

func BenchmarkParseLine(b *testing.B) {
	line := `192.168.1.100 - - [10/Oct/2023:13:55:36 +0000] "GET /api/users HTTP/1.1" 200 1234 "https://example.com" "Mozilla/5.0"`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := ParseLine(line); !ok {
			b.Fatal("expected line to parse")
		}
	}
}
