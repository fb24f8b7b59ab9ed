package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chapterdapp/chapterd/internal/language"
)

func (s *Server) registerLanguageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLanguages",
		Method:      http.MethodGet,
		Path:        "/api/v1/languages",
		Summary:     "List supported languages",
		Description: "Languages with a configured chapter marker table",
		Tags:        []string{"Languages"},
	}, s.handleListLanguages)
}

// LanguagesOutput wraps the language list for Huma.
type LanguagesOutput struct {
	Body struct {
		Languages []string `json:"languages" doc:"Canonical BCP 47 codes, sorted"`
	}
}

func (s *Server) handleListLanguages(_ context.Context, _ *struct{}) (*LanguagesOutput, error) {
	out := &LanguagesOutput{}
	out.Body.Languages = language.Supported()
	return out, nil
}
