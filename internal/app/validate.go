package app

import (
	"strings"

	"riskintel/pkg/domain"
)

// GenerateRequest is the common body for document, audio and deferred report
// generation.
type GenerateRequest struct {
	Countries   []string `json:"countries"`
	Risks       []string `json:"risks"`
	Year        int      `json:"year"`
	Format      string   `json:"format,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

const (
	minYear = 1900
	maxYear = 2100
)

var riskSlugSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(domain.RiskSlugs))
	for _, slug := range domain.RiskSlugs {
		set[slug] = struct{}{}
	}
	return set
}()

// validateRequest normalizes the request in place and rejects structurally
// invalid input before any catalog row exists. Document requests may carry a
// format; only "pdf" is supported.
func validateRequest(req *GenerateRequest, allowFormat bool) error {
	req.Countries = normalizeList(req.Countries)
	if len(req.Countries) == 0 {
		return validationErrorf("at least one country is required")
	}

	lowered := make([]string, 0, len(req.Risks))
	for _, risk := range req.Risks {
		lowered = append(lowered, strings.ToLower(risk))
	}
	risks := normalizeList(lowered)
	if len(risks) == 0 {
		return validationErrorf("at least one risk is required")
	}
	for _, risk := range risks {
		if _, ok := riskSlugSet[risk]; !ok {
			return validationErrorf("unknown risk %q", risk)
		}
	}
	req.Risks = risks

	if req.Year < minYear || req.Year > maxYear {
		return validationErrorf("year must be between %d and %d", minYear, maxYear)
	}

	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if !allowFormat {
		if req.Format != "" {
			return validationErrorf("format is not supported for this media kind")
		}
	} else if req.Format != "" && req.Format != "pdf" {
		return validationErrorf("unsupported format %q (want pdf)", req.Format)
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Tags = normalizeList(req.Tags)
	return nil
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
