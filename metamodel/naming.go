package metamodel

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	for _, w := range []string{"ACL", "API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SQL", "SSH", "TCP", "TLS", "TTL", "UDP", "UI", "UID", "UUID", "URI", "URL", "UTF8", "VM", "XML", "XMPP", "XSRF", "XSS"} {
		r.AddAcronym(w)
	}
	return r
}

// Plural returns the plural form of a type name.
func Plural(s string) string {
	return rules.Pluralize(s)
}

// Snake converts the given name to snake_case. For example:
//
//	Snake("EmployeeRecord") // "employee_record"
//	Snake("deptName")       // "dept_name"
//	Snake("HTTPServer")     // "http_server"
func Snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, current letter is uppercase,
		// and previous is lowercase (cases like: "UserInfo"), or next letter is also
		// a lowercase and previous letter is not "_".
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ValidName reports whether s can be used as a type or attribute name.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}
