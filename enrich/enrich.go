// ABOUTME: Company name and participant domain extraction from call metadata
// ABOUTME: Derives matchable account signals from noisy call titles and party lists
package enrich

import (
	"regexp"
	"sort"
	"strings"

	"github.com/harperreed/salesdesk/models"
)

// Config controls extraction. SellerVariants are the seller's own names as
// they appear in call titles; matches against them anchor company extraction
// and are never returned as companies. InternalDomains are skipped during
// participant domain extraction so account matching isn't polluted by the
// seller's own addresses.
type Config struct {
	SellerVariants  []string
	NoiseWords      []string
	InternalDomains []string
}

// DefaultConfig returns the extraction config used in production.
func DefaultConfig() Config {
	return Config{
		SellerVariants: []string{"sourcegraph", "amp"},
		NoiseWords: []string{
			"bi-weekly", "office", "hours", "sync", "call",
			"meeting", "weekly", "monthly",
		},
		InternalDomains: []string{"sourcegraph.com"},
	}
}

// Separator tokens that appear between company names in call titles,
// e.g. "Canva <> Sourcegraph" or "Sourcegraph x Grab".
var separators = []string{"<>", "x", "//", "/", "&", "+", "|", "-", "–", "—"}

// Extractor holds compiled patterns for one Config. Safe for concurrent use.
type Extractor struct {
	cfg           Config
	variantSet    map[string]bool
	internalSet   map[string]bool
	forward       *regexp.Regexp
	reverse       *regexp.Regexp
	trailingNoise *regexp.Regexp
	fallbackSplit *regexp.Regexp
}

// New compiles an Extractor for the given config.
func New(cfg Config) *Extractor {
	seps := make([]string, len(separators))
	for i, s := range separators {
		seps[i] = regexp.QuoteMeta(s)
	}
	variants := make([]string, len(cfg.SellerVariants))
	variantSet := make(map[string]bool, len(cfg.SellerVariants))
	for i, v := range cfg.SellerVariants {
		v = strings.ToLower(v)
		variants[i] = regexp.QuoteMeta(v)
		variantSet[v] = true
	}
	noise := make([]string, len(cfg.NoiseWords))
	for i, w := range cfg.NoiseWords {
		noise[i] = regexp.QuoteMeta(strings.ToLower(w))
	}
	internalSet := make(map[string]bool, len(cfg.InternalDomains))
	for _, d := range cfg.InternalDomains {
		internalSet[strings.ToLower(d)] = true
	}

	sepAlt := strings.Join(seps, "|")
	variantAlt := strings.Join(variants, "|")

	return &Extractor{
		cfg:         cfg,
		variantSet:  variantSet,
		internalSet: internalSet,
		// "Company <separator> Seller"
		forward: regexp.MustCompile(
			`(?i)([A-Za-z0-9][A-Za-z0-9\s&'.]+?)\s*(?:` + sepAlt + `)\s*(?:` + variantAlt + `)(?:\s|:|$)`),
		// "Seller <separator> Company"
		reverse: regexp.MustCompile(
			`(?i)(?:` + variantAlt + `)\s*(?:` + sepAlt + `)\s*([A-Za-z0-9][A-Za-z0-9\s&'.]+?)(?:\s*(?:[:|]|$))`),
		trailingNoise: regexp.MustCompile(
			`(?i)\s+(` + strings.Join(noise, "|") + `)$`),
		fallbackSplit: regexp.MustCompile(`[\s\-–—/\\|<>:]`),
	}
}

var defaultExtractor = New(DefaultConfig())

// ExtractCompanyNames extracts companies from a title using the default
// config. See Extractor.CompanyNames.
func ExtractCompanyNames(title string) []string {
	return defaultExtractor.CompanyNames(title)
}

// CompanyNames returns lower-cased candidate company names found in a call
// title. Deterministic and pure; returns an empty slice when no plausible
// company token is found.
func (e *Extractor) CompanyNames(title string) []string {
	companies := make(map[string]bool)

	if title == "" {
		return []string{}
	}

	for _, m := range e.forward.FindAllStringSubmatch(title, -1) {
		e.addCandidate(companies, m[1])
	}
	for _, m := range e.reverse.FindAllStringSubmatch(title, -1) {
		e.addCandidate(companies, m[1])
	}

	// Fallback: first word before a separator, for titles like
	// "Acme quarterly review" that never mention the seller.
	if len(companies) == 0 {
		first := strings.ToLower(strings.TrimSpace(e.fallbackSplit.Split(title, 2)[0]))
		if len(first) > 2 && !e.variantSet[first] {
			companies[first] = true
		}
	}

	out := make([]string, 0, len(companies))
	for name := range companies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e *Extractor) addCandidate(companies map[string]bool, raw string) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = e.trailingNoise.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if len(name) > 1 && !e.variantSet[name] {
		companies[name] = true
	}
}

// ParticipantEmails returns the lower-cased email addresses of all parties
// that have one.
func (e *Extractor) ParticipantEmails(parties []models.Party) []string {
	emails := make([]string, 0, len(parties))
	for _, p := range parties {
		email := strings.ToLower(strings.TrimSpace(p.EmailAddress))
		if email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// ParticipantDomains returns the distinct lower-cased domains of party
// emails, skipping parties without an email and the seller's own domains.
func (e *Extractor) ParticipantDomains(parties []models.Party) []string {
	emails := make([]string, 0, len(parties))
	for _, p := range parties {
		emails = append(emails, p.EmailAddress)
	}
	return e.ExternalDomains(emails)
}

// ExternalDomains returns the distinct external domains found in a list of
// email addresses, excluding the seller's own domains.
func (e *Extractor) ExternalDomains(emails []string) []string {
	seen := make(map[string]bool)
	for _, email := range emails {
		domain := extractDomain(strings.ToLower(strings.TrimSpace(email)))
		if domain == "" || e.internalSet[domain] {
			continue
		}
		seen[domain] = true
	}

	out := make([]string, 0, len(seen))
	for domain := range seen {
		out = append(out, domain)
	}
	sort.Strings(out)
	return out
}

// extractDomain extracts the domain from an email address.
func extractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
