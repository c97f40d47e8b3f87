// Package proxylist validates candidate proxy endpoint strings and manages
// the editable list file they come from.
//
// A candidate is accepted iff it matches
//
//	socks5://[user:pass@]host:port
//
// where user is alphanumerics plus "_", "-", ".", pass is any non-"@" run,
// host is alphanumerics plus "." and "-", and port is 2-5 decimal digits.
package proxylist

import "strings"

// Scheme is the only proxy protocol this system probes.
const Scheme = "socks5"

// Endpoint holds the parsed fields of a valid candidate line.
type Endpoint struct {
	Scheme   string
	Username string
	Password string
	Host     string
	Port     string
}

// HostPort returns the dial address of the proxy itself.
func (e Endpoint) HostPort() string {
	return e.Host + ":" + e.Port
}

// HasAuth reports whether the endpoint carries embedded credentials.
func (e Endpoint) HasAuth() bool {
	return e.Username != ""
}

// Parse splits a raw candidate line into its endpoint fields. It returns
// false when the line does not match the grammar; it never guesses at
// partially valid input.
func Parse(raw string) (Endpoint, bool) {
	rest, found := strings.CutPrefix(raw, Scheme+"://")
	if !found {
		return Endpoint{}, false
	}

	ep := Endpoint{Scheme: Scheme}

	// Password may not contain "@", so the first "@" (if any) terminates
	// the credential segment.
	if at := strings.IndexByte(rest, '@'); at >= 0 {
		cred := rest[:at]
		rest = rest[at+1:]

		user, pass, ok := strings.Cut(cred, ":")
		if !ok || user == "" || pass == "" {
			return Endpoint{}, false
		}
		if !isUser(user) {
			return Endpoint{}, false
		}
		ep.Username = user
		ep.Password = pass
	}

	// Host may not contain ":", so the first ":" starts the port.
	host, port, ok := strings.Cut(rest, ":")
	if !ok || !isHost(host) || !isPort(port) {
		return Endpoint{}, false
	}
	ep.Host = host
	ep.Port = port

	return ep, true
}

// Normalize trims each line, drops blanks and lines that fail Parse, and
// removes exact duplicates keeping the first occurrence. Output order is the
// first-seen order of the surviving lines. Pure and idempotent.
func Normalize(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := Parse(line); !ok {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}

	return out
}

func isUser(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isAlnum(c) && c != '_' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func isHost(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isAlnum(c) && c != '.' && c != '-' {
			return false
		}
	}
	return true
}

func isPort(s string) bool {
	if len(s) < 2 || len(s) > 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
