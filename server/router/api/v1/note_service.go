package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/noterag/server/internal/errors"
	"github.com/hrygo/noterag/store"
)

type CreateNoteRequest struct {
	Text string `json:"text" validate:"required"`
}

type Note struct {
	ID        int32  `json:"id"`
	Text      string `json:"text"`
	CreatedTs int64  `json:"created_ts"`
}

type ListNotesResponse struct {
	Notes []*Note `json:"notes"`
}

func convertNoteFromStore(note *store.Note) *Note {
	return &Note{
		ID:        note.ID,
		Text:      note.Text,
		CreatedTs: note.CreatedTs,
	}
}

// CreateNote queues ingestion of the request text.
// The body is read as JSON whatever the Content-Type header says.
// POST /notes
func (s *APIV1Service) CreateNote(c echo.Context) error {
	request := &CreateNoteRequest{}
	if err := json.NewDecoder(c.Request().Body).Decode(request); err != nil {
		return apperrors.InvalidArgument("Missing text")
	}
	if err := c.Validate(request); err != nil {
		return apperrors.InvalidArgument("Missing text")
	}

	instance, err := s.NoteService.CreateNote(c.Request().Context(), request.Text)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/workflows/"+instance.ID)
	return c.String(http.StatusCreated, "Created note")
}

// ListNotes returns notes newest first.
// GET /notes?limit=&offset=
func (s *APIV1Service) ListNotes(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}

	list, err := s.NoteService.ListNotes(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	response := &ListNotesResponse{Notes: make([]*Note, 0, len(list))}
	for _, note := range list {
		response.Notes = append(response.Notes, convertNoteFromStore(note))
	}
	return c.JSON(http.StatusOK, response)
}

// GetNote returns one note.
// GET /notes/:id
func (s *APIV1Service) GetNote(c echo.Context) error {
	id, err := noteIDParam(c)
	if err != nil {
		return err
	}
	note, err := s.NoteService.GetNote(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertNoteFromStore(note))
}

// DeleteNote removes a note and its vector.
// DELETE /notes/:id
func (s *APIV1Service) DeleteNote(c echo.Context) error {
	id, err := noteIDParam(c)
	if err != nil {
		return err
	}
	if err := s.NoteService.DeleteNote(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func noteIDParam(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperrors.InvalidArgument("invalid note id")
	}
	return int32(id), nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidArgument("invalid " + name)
	}
	return n, nil
}
