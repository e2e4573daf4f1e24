package headerpolicy

import (
	"net/url"
	"strings"
)

// Matcher reports whether a rule applies to the given hostname.
type Matcher func(host string) bool

// HostContains matches hostnames containing the given domain as a substring.
func HostContains(domain string) Matcher {
	return func(host string) bool {
		return strings.Contains(host, domain)
	}
}

// Rule pairs a host predicate with the headers to send when it matches.
type Rule struct {
	// Name identifies the rule in logs.
	Name    string
	Match   Matcher
	Headers Policy
}

// DefaultRules returns the built-in rule list, in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			// Link aggregation sites answer non-browser clients with 403.
			Name:    "reddit",
			Match:   HostContains("reddit.com"),
			Headers: Browser(),
		},
		{
			Name:    "youtube",
			Match:   HostContains("youtube.com"),
			Headers: FeedReader(),
		},
	}
}

// Resolver selects a Policy for a destination URL.
// It is immutable and safe for concurrent use.
type Resolver struct {
	rules []Rule
	def   Policy
}

// NewResolver creates a Resolver evaluating rules top-down, falling back to def.
func NewResolver(rules []Rule, def Policy) *Resolver {
	return &Resolver{
		rules: append([]Rule(nil), rules...),
		def:   def,
	}
}

// Resolve returns the headers of the first rule matching u's hostname.
func (r *Resolver) Resolve(u *url.URL) Policy {
	p, _ := r.ResolveRule(u)
	return p
}

// ResolveRule is Resolve that also reports the name of the matched rule,
// or "default" when no rule matched.
func (r *Resolver) ResolveRule(u *url.URL) (Policy, string) {
	var host string
	if u != nil {
		host = strings.ToLower(u.Hostname())
	}

	for _, rule := range r.rules {
		if rule.Match != nil && rule.Match(host) {
			return rule.Headers, rule.Name
		}
	}
	return r.def, "default"
}

var defaultResolver = NewResolver(DefaultRules(), Browser())

// Default returns the resolver built from DefaultRules with the browser policy as fallback.
func Default() *Resolver {
	return defaultResolver
}

// Resolve resolves u against the default resolver.
func Resolve(u *url.URL) Policy {
	return defaultResolver.Resolve(u)
}
