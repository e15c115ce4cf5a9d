package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

// previewLength caps the content excerpt returned in search results.
// Full content is only served from the single-version endpoint.
const previewLength = 200

type standardDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type versionDTO struct {
	VersionID      string    `json:"version_id"`
	StandardID     string    `json:"standard_id"`
	VersionNumber  int       `json:"version_number"`
	VersionDate    time.Time `json:"version_date"`
	ContentHash    string    `json:"content_hash"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	SourceURL      string    `json:"source_url,omitempty"`
	Content        string    `json:"content,omitempty"`
}

type changeDTO struct {
	ChangeID          string          `json:"change_id"`
	PreviousVersionID string          `json:"previous_version_id"`
	NewVersionID      string          `json:"new_version_id"`
	SimilarityScore   float64         `json:"similarity_score"`
	Magnitude         string          `json:"magnitude"`
	Summary           string          `json:"summary"`
	Changes           []changeItemDTO `json:"changes"`
	DetectedAt        time.Time       `json:"detected_at"`
}

type changeItemDTO struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
}

type comparisonDTO struct {
	VersionA        string  `json:"version_a"`
	VersionB        string  `json:"version_b"`
	SimilarityScore float64 `json:"similarity_score"`
	ModelA          string  `json:"model_a,omitempty"`
	ModelB          string  `json:"model_b,omitempty"`
	CrossModel      bool    `json:"cross_model"`
}

type searchResultDTO struct {
	StandardID     string  `json:"standard_id"`
	StandardName   string  `json:"standard_name"`
	VersionID      string  `json:"version_id,omitempty"`
	VersionDate    string  `json:"version_date,omitempty"`
	ContentPreview string  `json:"content_preview,omitempty"`
	Score          float64 `json:"score,omitempty"`
}

func toStandardDTO(s domain.Standard) standardDTO {
	return standardDTO{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		SourceURL:   s.SourceURL,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toVersionDTO(v domain.Version, withContent bool) versionDTO {
	dto := versionDTO{
		VersionID:      v.ID,
		StandardID:     v.StandardID,
		VersionNumber:  v.VersionNumber,
		VersionDate:    v.VersionDate,
		ContentHash:    v.ContentHash,
		EmbeddingModel: v.EmbeddingModel(),
	}
	if url, ok := v.Metadata[domain.MetaSourceURL].(string); ok {
		dto.SourceURL = url
	}
	if withContent {
		dto.Content = v.Content
	}
	return dto
}

func toChangeDTO(c domain.Change) changeDTO {
	items := make([]changeItemDTO, 0, len(c.Summary.Details))
	for _, d := range c.Summary.Details {
		items = append(items, changeItemDTO{
			Type:        string(d.Type),
			Description: d.Description,
			Content:     d.Content,
		})
	}
	return changeDTO{
		ChangeID:          c.ID,
		PreviousVersionID: c.FromVersionID,
		NewVersionID:      c.ToVersionID,
		SimilarityScore:   c.SimilarityScore,
		Magnitude:         string(c.Summary.Magnitude),
		Summary:           c.Summary.Description,
		Changes:           items,
		DetectedAt:        c.DetectedAt,
	}
}

func toSearchResultDTO(r domain.SearchResult) searchResultDTO {
	dto := searchResultDTO{
		StandardID:   r.Standard.ID,
		StandardName: r.Standard.Name,
		Score:        r.Score,
	}
	if r.Version != nil {
		dto.VersionID = r.Version.ID
		dto.VersionDate = r.Version.VersionDate.Format(time.RFC3339)
		dto.ContentPreview = contentPreview(r.Version.Content)
	} else {
		dto.ContentPreview = contentPreview(r.Standard.Description)
	}
	return dto
}

// contentPreview truncates text to previewLength characters, appending
// an ellipsis when anything was cut.
func contentPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}

func (s *Server) handleListStandards(w http.ResponseWriter, r *http.Request) {
	standards, err := s.query.ListStandards(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]standardDTO, 0, len(standards))
	for _, std := range standards {
		out = append(out, toStandardDTO(std))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"standards": out})
}

func (s *Server) handleGetStandard(w http.ResponseWriter, r *http.Request) {
	std, err := s.query.GetStandard(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toStandardDTO(*std))
}

func (s *Server) handleVersionHistory(w http.ResponseWriter, r *http.Request) {
	versions, err := s.query.GetVersionHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]versionDTO, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersionDTO(v, false))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"versions": out})
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	version, err := s.query.GetVersion(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toVersionDTO(*version, true))
}

func (s *Server) handleVersionChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := s.query.GetChangesForVersion(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]changeDTO, 0, len(changes))
	for _, c := range changes {
		out = append(out, toChangeDTO(c))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"changes": out})
}

func (s *Server) handleCompareVersions(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.query.CompareVersions(r.Context(), r.PathValue("a"), r.PathValue("b"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, comparisonDTO{
		VersionA:        cmp.VersionA,
		VersionB:        cmp.VersionB,
		SimilarityScore: cmp.Score,
		ModelA:          cmp.ModelA,
		ModelB:          cmp.ModelB,
		CrossModel:      cmp.CrossModel,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := domain.SearchOptions{
		Semantic: q.Get("semantic") == "true",
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, r, domain.ErrInvalidInput)
			return
		}
		opts.Limit = limit
	}

	results, err := s.query.Search(r.Context(), q.Get("q"), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]searchResultDTO, 0, len(results))
	for _, res := range results {
		out = append(out, toSearchResultDTO(res))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

// respondError maps domain errors onto HTTP statuses. Internal error
// detail is logged, never sent to the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidVector):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrReadOnlyService):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}
