// Package headerpolicy selects outgoing request headers from the destination host.
//
// Many sites reject requests that do not look like a desktop browser, while
// feed endpoints of some video platforms expect an honest feed-reader client.
// A Resolver evaluates an ordered list of rules against the URL hostname and
// returns the headers of the first rule whose predicate matches, or the
// default policy when none does.
//
//	p := headerpolicy.Resolve(u)
//	p.Apply(req.Header)
package headerpolicy

import (
	"net/http"
	"strings"
)

const (
	// BrowserUserAgent identifies requests as a desktop Chrome browser.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// FeedReaderUserAgent identifies the application itself to feed endpoints.
	FeedReaderUserAgent = "SuperFlux/1.0 (RSS Reader; +https://github.com/user/superflux)"

	// BrowserAccept prefers HTML and XML documents.
	BrowserAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// BrowserAcceptLanguage is sent alongside the browser identity.
	BrowserAcceptLanguage = "en-US,en;q=0.9,fr;q=0.8"

	// FeedAccept prefers Atom and XML feed documents.
	FeedAccept = "application/atom+xml, application/xml, text/xml, */*"
)

// Header is a single name/value pair of a Policy.
type Header struct {
	Name  string
	Value string
}

// Policy is an ordered list of headers to send to a destination.
type Policy []Header

// Get returns the value of the named header, compared case-insensitively.
func (p Policy) Get(name string) string {
	for _, h := range p {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Apply sets every header of the policy on h, in order.
func (p Policy) Apply(h http.Header) {
	for _, kv := range p {
		h.Set(kv.Name, kv.Value)
	}
}

// Header returns the policy as a new http.Header.
func (p Policy) Header() http.Header {
	h := make(http.Header, len(p))
	p.Apply(h)
	return h
}

// Browser is the desktop browser identity: User-Agent, Accept and Accept-Language.
func Browser() Policy {
	return Policy{
		{Name: "User-Agent", Value: BrowserUserAgent},
		{Name: "Accept", Value: BrowserAccept},
		{Name: "Accept-Language", Value: BrowserAcceptLanguage},
	}
}

// FeedReader is the feed-reader identity used for Atom feed endpoints.
func FeedReader() Policy {
	return Policy{
		{Name: "User-Agent", Value: FeedReaderUserAgent},
		{Name: "Accept", Value: FeedAccept},
	}
}
