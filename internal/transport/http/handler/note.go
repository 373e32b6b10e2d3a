package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paperbase/internal/app"
	"paperbase/internal/model"
	"paperbase/internal/transport/http/response"
)

type NoteHandler struct {
	noteService *app.NoteService
}

func NewNoteHandler(noteService *app.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

type CreateNoteRequest struct {
	DocumentID        string       `json:"document_id" binding:"required"`
	PageNumber        int          `json:"page_number" binding:"required"`
	Quote             string       `json:"quote"`
	Rects             []model.Rect `json:"rects"`
	ContentMD         string       `json:"content_md" binding:"required"`
	TagNames          []string     `json:"tags"`
	LinkedDocumentIDs []string     `json:"linked_document_ids"`
}

type UpdateNoteRequest struct {
	ContentMD         string   `json:"content_md" binding:"required"`
	TagNames          []string `json:"tags"`
	LinkedDocumentIDs []string `json:"linked_document_ids"`
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	detail, err := h.noteService.Create(app.CreateNoteInput{
		DocumentID:        req.DocumentID,
		PageNumber:        req.PageNumber,
		Quote:             req.Quote,
		Rects:             req.Rects,
		ContentMD:         req.ContentMD,
		TagNames:          req.TagNames,
		LinkedDocumentIDs: req.LinkedDocumentIDs,
	})
	if err != nil {
		h.writeNoteError(c, err, "create note failed")
		return
	}
	response.OK(c, detail)
}

func (h *NoteHandler) Get(c *gin.Context) {
	detail, err := h.noteService.Get(c.Param("id"))
	if err != nil {
		h.writeNoteError(c, err, "fetch note failed")
		return
	}
	response.OK(c, detail)
}

func (h *NoteHandler) ListByDocument(c *gin.Context) {
	notes, err := h.noteService.ListByDocument(c.Param("id"))
	if err != nil {
		h.writeNoteError(c, err, "list notes failed")
		return
	}
	response.OK(c, notes)
}

func (h *NoteHandler) Update(c *gin.Context) {
	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	detail, err := h.noteService.Update(app.UpdateNoteInput{
		ID:                c.Param("id"),
		ContentMD:         req.ContentMD,
		TagNames:          req.TagNames,
		LinkedDocumentIDs: req.LinkedDocumentIDs,
	})
	if err != nil {
		h.writeNoteError(c, err, "update note failed")
		return
	}
	response.OK(c, detail)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.noteService.Delete(id); err != nil {
		h.writeNoteError(c, err, "delete note failed")
		return
	}
	response.OK(c, gin.H{"deleted_note_id": id})
}

func (h *NoteHandler) writeNoteError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrNoteNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNoteNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
