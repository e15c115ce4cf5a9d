package domain

import "time"

// StandardSource describes one place standards are fetched from: a name,
// the search query used to locate current revisions, and the canonical
// home recorded as provenance.
type StandardSource struct {
	// Name is the framework title, e.g. "NIST Cybersecurity Framework".
	Name string

	// Query is the search query used to find current revisions.
	Query string

	// URL is the canonical home of the framework.
	URL string
}

// FetchedDocument is one raw document retrieved by a fetch collaborator,
// before embedding. The ingestion pipeline turns it into a Candidate.
type FetchedDocument struct {
	// Title is the document title as reported by the source.
	Title string

	// SourceURL is where the document was retrieved from.
	SourceURL string

	// Text is the document content.
	Text string

	// Source identifies which fetcher produced the document.
	Source string

	// FetchedAt is the observation timestamp.
	FetchedAt time.Time
}

// DefaultStandardSources returns the built-in catalogue of tracked
// security and regulatory frameworks.
func DefaultStandardSources() []StandardSource {
	return []StandardSource{
		{
			Name:  "NIST Cybersecurity Framework",
			Query: "NIST Cybersecurity Framework latest version",
			URL:   "https://www.nist.gov/cyberframework",
		},
		{
			Name:  "ISO/IEC 27001",
			Query: "ISO 27001 information security standard latest version",
			URL:   "https://www.iso.org/isoiec-27001-information-security.html",
		},
		{
			Name:  "PCI DSS",
			Query: "PCI DSS payment card industry data security standard latest",
			URL:   "https://www.pcisecuritystandards.org",
		},
		{
			Name:  "GDPR",
			Query: "GDPR general data protection regulation requirements",
			URL:   "https://gdpr.eu",
		},
		{
			Name:  "SOC 2",
			Query: "SOC 2 compliance requirements trust services criteria",
			URL:   "https://www.aicpa.org",
		},
		{
			Name:  "HIPAA Security Rule",
			Query: "HIPAA security rule requirements latest",
			URL:   "https://www.hhs.gov/hipaa",
		},
		{
			Name:  "CMMC",
			Query: "CMMC cybersecurity maturity model certification requirements",
			URL:   "https://dodcio.defense.gov/CMMC",
		},
		{
			Name:  "CIS Controls",
			Query: "CIS critical security controls latest version",
			URL:   "https://www.cisecurity.org/controls",
		},
		{
			Name:  "OWASP Top 10",
			Query: "OWASP top 10 web application security risks latest",
			URL:   "https://owasp.org/www-project-top-ten",
		},
	}
}

// DefaultGeneralQueries returns broad search queries used to discover
// standards outside the built-in catalogue.
func DefaultGeneralQueries() []string {
	return []string{
		"new security compliance standards",
		"updated cybersecurity regulations",
		"information security framework updates",
	}
}
