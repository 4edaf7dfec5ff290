package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderModelUsed names the model that produced an answer.
const HeaderModelUsed = "x-model-used"

// GetAnswer answers the question in the text query parameter.
// GET /?text=...
func (s *APIV1Service) GetAnswer(c echo.Context) error {
	answer, err := s.AnswerService.Answer(c.Request().Context(), c.QueryParam("text"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(HeaderModelUsed, answer.Model)
	return c.String(http.StatusOK, answer.Text)
}
