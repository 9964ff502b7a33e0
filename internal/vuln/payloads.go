package vuln

import (
	"regexp"
	"strings"
)

// payloadsPerCorpus is how many entries of each corpus are sent per GET
// endpoint.
const payloadsPerCorpus = 2

// XSSPayloads are reflected-script probes; a literal echo is a positive.
var XSSPayloads = []string{
	`<script>alert("XSS")</script>`,
	`<img src=x onerror=alert("XSS")>`,
	`<svg onload=alert("XSS")>`,
	`javascript:alert("XSS")`,
}

// SQLPayloads try to break out of a quoted SQL literal.
var SQLPayloads = []string{
	`' OR '1'='1`,
	`1' UNION SELECT NULL--`,
	`'; DROP TABLE users--`,
	`" OR "1"="1`,
}

// TraversalPayloads reach for well-known system files.
var TraversalPayloads = []string{
	`../../../../etc/passwd`,
	`..\..\..\..\windows\win.ini`,
	`....//....//....//etc/passwd`,
	`%2e%2e%2f%2e%2e%2fetc%2fpasswd`,
}

// traversalMarkers appear in /etc/passwd and win.ini respectively.
var traversalMarkers = []string{"root:", "[extensions]"}

// sqlErrorSignatures match database error text leaking into a response.
var sqlErrorSignatures = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you have an error in your sql syntax`),
	regexp.MustCompile(`(?i)sql syntax.*mysql`),
	regexp.MustCompile(`(?i)warning.*mysqli?_`),
	regexp.MustCompile(`(?i)postgresql.*error`),
	regexp.MustCompile(`(?i)error:\s*syntax error at or near`),
	regexp.MustCompile(`(?i)unclosed quotation mark after`),
	regexp.MustCompile(`(?i)incorrect syntax near`),
	regexp.MustCompile(`(?i)\bORA-[0-9]{4,}`),
	regexp.MustCompile(`(?i)quoted string not properly terminated`),
	regexp.MustCompile(`(?i)sqlite.*error`),
	regexp.MustCompile(`(?i)\[SQLITE_ERROR\]`),
	regexp.MustCompile(`(?i)java\.sql\.SQLException`),
	regexp.MustCompile(`(?i)ODBCException`),
}

func firstN(corpus []string, n int) []string {
	if len(corpus) < n {
		return corpus
	}
	return corpus[:n]
}

// sqlErrorIn returns the matched signature text, if any.
func sqlErrorIn(body []byte) (string, bool) {
	for _, re := range sqlErrorSignatures {
		if m := re.Find(body); m != nil {
			return string(m), true
		}
	}
	return "", false
}

func traversalMarkerIn(body []byte) (string, bool) {
	s := string(body)
	for _, marker := range traversalMarkers {
		if strings.Contains(s, marker) {
			return marker, true
		}
	}
	return "", false
}
