package v1

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

type WorkflowStep struct {
	Name      string          `json:"name"`
	Attempts  int             `json:"attempts"`
	Output    json.RawMessage `json:"output"`
	CreatedTs int64           `json:"created_ts"`
}

type Workflow struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	CreatedTs int64           `json:"created_ts"`
	UpdatedTs int64           `json:"updated_ts"`
	Steps     []*WorkflowStep `json:"steps"`
}

// GetWorkflow returns an ingestion workflow and its completed steps.
// GET /workflows/:id
func (s *APIV1Service) GetWorkflow(c echo.Context) error {
	instance, steps, err := s.NoteService.GetWorkflow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	response := &Workflow{
		ID:        instance.ID,
		Name:      instance.Name,
		Status:    instance.Status.String(),
		Error:     instance.Error,
		CreatedTs: instance.CreatedTs,
		UpdatedTs: instance.UpdatedTs,
		Steps:     make([]*WorkflowStep, 0, len(steps)),
	}
	for _, step := range steps {
		output := json.RawMessage(step.Output)
		if !json.Valid(output) {
			output = json.RawMessage("null")
		}
		response.Steps = append(response.Steps, &WorkflowStep{
			Name:      step.Name,
			Attempts:  step.Attempts,
			Output:    output,
			CreatedTs: step.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}
