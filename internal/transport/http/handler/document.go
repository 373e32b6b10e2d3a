package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"paperbase/internal/app"
	"paperbase/internal/chunker"
	"paperbase/internal/pkg/pdfextract"
	"paperbase/internal/transport/http/response"
)

type DocumentHandler struct {
	ingestService   *app.IngestService
	documentService *app.DocumentService
	storageDir      string
	maxUploadBytes  int64
}

func NewDocumentHandler(ingestService *app.IngestService, documentService *app.DocumentService, storageDir string, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{
		ingestService:   ingestService,
		documentService: documentService,
		storageDir:      storageDir,
		maxUploadBytes:  maxUploadBytes,
	}
}

type IngestPagesRequest struct {
	DocumentID    string `json:"document_id"`
	Title         string `json:"title"`
	SourceName    string `json:"source_name"`
	DescriptionMD string `json:"description_md"`
	Pages         []struct {
		Number int    `json:"number"`
		Text   string `json:"text"`
	} `json:"pages" binding:"required"`
	TagNames []string `json:"tags"`
}

type UpdateDocumentRequest struct {
	Title         *string `json:"title"`
	DescriptionMD *string `json:"description_md"`
}

type ReplaceTagsRequest struct {
	TagNames []string `json:"tags"`
}

// Upload accepts a multipart form with "file" (PDF) plus optional "title",
// "description" and comma-separated "tags", stores the file, extracts per-page
// text and ingests the document.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > h.maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	pages, err := pdfextract.ExtractPages(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to extract text from PDF: "+err.Error())
		return
	}
	if len(pages) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "PDF contains no pages")
		return
	}

	documentID := uuid.NewString()
	storedPath := filepath.Join(h.storageDir, documentID+".pdf")
	if err := os.MkdirAll(h.storageDir, 0o755); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "prepare storage dir failed")
		return
	}
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "store file failed")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	pageTexts := make([]chunker.PageText, len(pages))
	for i, p := range pages {
		pageTexts[i] = chunker.PageText{Number: p.Number, Text: p.Text}
	}

	result, err := h.ingestService.Ingest(c.Request.Context(), app.IngestInput{
		DocumentID:    documentID,
		Title:         title,
		SourceName:    file.Filename,
		Pages:         pageTexts,
		DescriptionMD: strings.TrimSpace(c.PostForm("description")),
		FilePath:      storedPath,
		MimeType:      "application/pdf",
		ByteSize:      file.Size,
		WordCount:     pdfextract.WordCount(pages),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingest failed: "+err.Error())
		}
		return
	}

	if raw := strings.TrimSpace(c.PostForm("tags")); raw != "" {
		if _, err := h.documentService.ReplaceTags(documentID, strings.Split(raw, ",")); err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "assign tags failed")
			return
		}
	}

	response.OK(c, result)
}

// IngestPages ingests pre-extracted page text, for sources that are not PDFs
// or for re-ingesting an existing document under its ID.
func (h *DocumentHandler) IngestPages(c *gin.Context) {
	var req IngestPagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		documentID = uuid.NewString()
	}

	pageTexts := make([]chunker.PageText, len(req.Pages))
	for i, p := range req.Pages {
		number := p.Number
		if number == 0 {
			number = i + 1
		}
		pageTexts[i] = chunker.PageText{Number: number, Text: p.Text}
	}

	result, err := h.ingestService.Ingest(c.Request.Context(), app.IngestInput{
		DocumentID:    documentID,
		Title:         req.Title,
		SourceName:    req.SourceName,
		Pages:         pageTexts,
		DescriptionMD: req.DescriptionMD,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingest failed: "+err.Error())
		}
		return
	}

	if len(req.TagNames) > 0 {
		if _, err := h.documentService.ReplaceTags(documentID, req.TagNames); err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "assign tags failed")
			return
		}
	}

	response.OK(c, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documentService.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	detail, err := h.documentService.Get(c.Param("id"))
	if err != nil {
		h.writeDocumentError(c, err, "fetch document failed")
		return
	}
	response.OK(c, detail)
}

func (h *DocumentHandler) Update(c *gin.Context) {
	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.documentService.Update(app.UpdateDocumentInput{
		ID:            c.Param("id"),
		Title:         req.Title,
		DescriptionMD: req.DescriptionMD,
	})
	if err != nil {
		h.writeDocumentError(c, err, "update document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) ReplaceTags(c *gin.Context) {
	var req ReplaceTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	tags, err := h.documentService.ReplaceTags(c.Param("id"), req.TagNames)
	if err != nil {
		h.writeDocumentError(c, err, "replace tags failed")
		return
	}
	response.OK(c, gin.H{"tags": tags})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.documentService.Delete(c.Request.Context(), id); err != nil {
		h.writeDocumentError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}

func (h *DocumentHandler) ListTags(c *gin.Context) {
	tags, err := h.documentService.ListTags()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list tags failed")
		return
	}
	response.OK(c, tags)
}

func (h *DocumentHandler) writeDocumentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
