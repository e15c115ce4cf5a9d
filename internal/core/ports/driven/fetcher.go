package driven

import (
	"context"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

// Fetcher retrieves candidate standard documents from an external
// source system.
//
// Implementations may include:
//   - Web search APIs that locate current framework revisions
//   - GitHub repositories where frameworks are published (OWASP, CIS)
type Fetcher interface {
	// Name identifies the fetcher, recorded as fetch provenance on
	// versions it produced.
	Name() string

	// Fetch retrieves documents for one standard source. The limit caps
	// the number of documents returned; zero means the fetcher default.
	Fetch(ctx context.Context, source domain.StandardSource, limit int) ([]domain.FetchedDocument, error)
}
