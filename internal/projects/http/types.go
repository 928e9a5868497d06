package http

import "github.com/model-my-watershed/mmw-backend/internal/projects"

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	repo      *projects.Repo
	scenarios *projects.ScenarioRepo
}

func New(repo *projects.Repo, scenarios *projects.ScenarioRepo) *Handler {
	return &Handler{repo: repo, scenarios: scenarios}
}
