package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"1.0.0"}`))
		})

		// Activities
		r.Get("/activities", h.ListActivities)
		r.Post("/activities", h.SaveActivity)
		r.Get("/activities/{id}", h.GetActivity)
		r.Put("/activities/{id}", h.SaveActivity)
		r.Delete("/activities/{id}", h.DeleteActivity)

		// Teaching
		r.Get("/teaching", h.ListTeaching)
		r.Post("/teaching", h.SaveTeaching)
		r.Get("/teaching/{id}", h.GetTeaching)
		r.Put("/teaching/{id}", h.SaveTeaching)
		r.Delete("/teaching/{id}", h.DeleteTeaching)

		// Notes
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.SaveNote)
		r.Get("/notes/{id}", h.GetNote)
		r.Put("/notes/{id}", h.SaveNote)
		r.Delete("/notes/{id}", h.DeleteNote)

		// Brainstorming
		r.Get("/brainstorming", h.ListBrainstorming)
		r.Post("/brainstorming", h.SaveBrainstorming)
		r.Post("/brainstorming/translate", h.TranslateBrainstormingField)
		r.Post("/brainstorming/refine", h.RefineBrainstormingField)
		r.Post("/brainstorming/synthesize", h.SynthesizeIdea)
		r.Post("/brainstorming/abstract", h.GenerateAbstract)
		r.Post("/brainstorming/recommendations/external", h.ExternalRecommendations)
		r.Post("/brainstorming/recommendations/internal", h.InternalRecommendations)
		r.Post("/brainstorming/translate-all", h.TranslateBrainstorming)
		r.Post("/brainstorming/export", h.ExportToTracer)
		r.Get("/brainstorming/{id}", h.GetBrainstorming)
		r.Put("/brainstorming/{id}", h.SaveBrainstorming)
		r.Delete("/brainstorming/{id}", h.DeleteBrainstorming)

		// Tracer projects
		r.Get("/tracer/projects", h.ListTracerProjects)
		r.Post("/tracer/projects", h.SaveTracerProject)
		r.Post("/tracer/projects/translate", h.TranslateTracerField)
		r.Get("/tracer/projects/{id}", h.GetTracerProject)
		r.Put("/tracer/projects/{id}", h.SaveTracerProject)
		r.Delete("/tracer/projects/{id}", h.DeleteTracerProject)
		r.Get("/tracer/projects/{id}/detail", h.GetTracerDetail)
		r.Post("/tracer/projects/{id}/refine", h.RefineTracerField)
		r.Post("/tracer/projects/{id}/import", h.ImportFromBrainstorming)
		r.Post("/tracer/projects/{id}/audit", h.StartAudit)

		// Tracer children (listed and created under the project)
		r.Get("/tracer/projects/{id}/logs", h.ListTracerLogs)
		r.Post("/tracer/projects/{id}/logs", h.SaveTracerLog)
		r.Get("/tracer/projects/{id}/todos", h.ListTracerTodos)
		r.Post("/tracer/projects/{id}/todos", h.SaveTracerTodo)
		r.Get("/tracer/projects/{id}/references", h.ListTracerReferences)
		r.Post("/tracer/projects/{id}/references", h.SaveTracerReference)
		r.Get("/tracer/projects/{id}/finance", h.ListTracerFinance)
		r.Post("/tracer/projects/{id}/finance", h.SaveTracerFinance)

		r.Get("/tracer/logs/{id}", h.OpenTracerLog)
		r.Delete("/tracer/logs/{id}", h.DeleteTracerLog)
		r.Delete("/tracer/todos/{id}", h.DeleteTracerTodo)
		r.Delete("/tracer/references/{id}", h.DeleteTracerReference)
		r.Delete("/tracer/finance/{id}", h.DeleteTracerFinance)

		// Library
		r.Get("/library", h.ListLibrary)

		// Vault
		r.Post("/vault/upload", h.UploadVaultFile)
		r.Delete("/vault/files", h.DeleteVaultFile)

		// AI
		r.Post("/ai/translate", h.Translate)
		r.Get("/ai/languages", h.ListLanguages)

		// LLM Management
		r.Get("/llm/models", h.ListLLMModels)
		r.Get("/llm/health", h.LLMHealth)

		// Ads
		r.Get("/ads/vip", h.GetVipAd)
	})
}
