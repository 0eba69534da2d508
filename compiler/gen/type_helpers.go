package gen

import (
	"go/token"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// acronyms are kept upper case in generated identifiers, e.g. "userId"
// becomes "UserID".
var acronyms = names(
	"ACL", "API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP",
	"HTTPS", "ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA",
	"SMTP", "SQL", "SSH", "TCP", "TLS", "TTL", "UDP", "UI", "UID", "URI",
	"URL", "UTF8", "UUID", "VM", "XML", "XMPP", "XSRF", "XSS",
)

// AddAcronym adds an acronym kept upper case in generated identifiers.
// It must not be called concurrently with code generation.
func AddAcronym(word string) {
	acronyms[strings.ToUpper(word)] = struct{}{}
}

// pascal converts an attribute or graph name to an exported Go identifier:
// "dept_name", "deptName" and "Employee.department" become "DeptName" and
// "EmployeeDepartment".
func pascal(s string) string {
	// A Caser is stateful and must not be shared between goroutines.
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words(s) {
		if _, ok := acronyms[strings.ToUpper(w)]; ok {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		b.WriteString(title.String(w))
	}
	return b.String()
}

// words splits s on separators and lower-to-upper case transitions.
func words(s string) []string {
	var (
		words []string
		rs    = []rune(s)
		start = -1
	)
	for i, r := range rs {
		switch {
		case isSeparator(r):
			if start >= 0 {
				words = append(words, string(rs[start:i]))
				start = -1
			}
		case start < 0:
			start = i
		case unicode.IsUpper(r) && unicode.IsLower(rs[i-1]):
			words = append(words, string(rs[start:i]))
			start = i
		}
	}
	if start >= 0 {
		words = append(words, string(rs[start:]))
	}
	return words
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}

// validPackage reports whether name can be used as a package name.
func validPackage(name string) bool {
	return token.IsIdentifier(name) && name != "_"
}

func names(ids ...string) map[string]struct{} {
	m := make(map[string]struct{})
	for i := range ids {
		m[ids[i]] = struct{}{}
	}
	return m
}
