package media

import (
	"net/url"
	"strings"
)

const (
	// DefaultMinBytes rejects thumbnails and tracking pixels. Tunable, not measured.
	DefaultMinBytes = 20000
	// DefaultMinSourceDimension is the per-axis resolution floor for fetched candidates.
	DefaultMinSourceDimension = 800
)

// SocialDomains are hosts whose images are usually cropped previews or login walls.
var SocialDomains = []string{
	"instagram.com",
	"facebook.com",
	"tiktok.com",
	"x.com",
	"twitter.com",
	"pinterest.com",
	"linkedin.com",
}

// StockDomains are watermark-heavy stock photo sites.
var StockDomains = []string{
	"gettyimages",
	"shutterstock",
	"istockphoto",
	"stock.adobe",
	"alamy",
	"dreamstime",
	"123rf",
	"depositphotos",
	"pond5",
	"vectors",
}

// Validator holds the acceptance thresholds for fetched resources.
type Validator struct {
	MinBytes     int
	MinDimension int
	Blacklist    []string
}

// DefaultValidator returns the thresholds used when nothing is configured.
func DefaultValidator() Validator {
	blacklist := make([]string, 0, len(SocialDomains)+len(StockDomains))
	blacklist = append(blacklist, SocialDomains...)
	blacklist = append(blacklist, StockDomains...)
	return Validator{
		MinBytes:     DefaultMinBytes,
		MinDimension: DefaultMinSourceDimension,
		Blacklist:    blacklist,
	}
}

// SizeOK reports whether a payload of n bytes is large enough.
func (v Validator) SizeOK(n int) bool {
	return n >= v.MinBytes
}

// ResolutionOK rejects an image only when both axes are under the floor.
func (v Validator) ResolutionOK(width, height int) bool {
	return !(width < v.MinDimension && height < v.MinDimension)
}

// DomainBlacklisted reports whether the host of raw (a URL or a bare domain)
// contains any blacklisted substring.
func (v Validator) DomainBlacklisted(raw string) bool {
	host := hostOf(raw)
	if host == "" {
		return false
	}
	for _, entry := range v.Blacklist {
		if entry != "" && strings.Contains(host, entry) {
			return true
		}
	}
	return false
}

var defaultValidator = DefaultValidator()

// SizeOK applies the default byte threshold.
func SizeOK(n int) bool { return defaultValidator.SizeOK(n) }

// ResolutionOK applies the default resolution floor.
func ResolutionOK(width, height int) bool { return defaultValidator.ResolutionOK(width, height) }

// DomainBlacklisted applies the default blacklist.
func DomainBlacklisted(raw string) bool { return defaultValidator.DomainBlacklisted(raw) }

// HostOf returns the lower-cased host of a URL or bare domain.
func HostOf(raw string) string { return hostOf(raw) }

func hostOf(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	if strings.HasPrefix(raw, "//") {
		raw = raw[2:]
	}
	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
