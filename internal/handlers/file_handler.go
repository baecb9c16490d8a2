package handlers

import (
	"net/http"

	"go-hardware-pos/internal/storage"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetFiles(c *gin.Context) {
	if h.Files == nil {
		unavailable(c, "File storage")
		return
	}
	files, err := h.Files.List(c.Request.Context(), scopeOf(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// UploadFile stores any document for the current user.
func (h *Handler) UploadFile(c *gin.Context) {
	if h.Files == nil {
		unavailable(c, "File storage")
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, "Could not read file")
		return
	}
	defer f.Close()

	file, err := h.Files.Save(c.Request.Context(), scopeOf(c).UserID, storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "File uploaded successfully", "file": file})
}

func (h *Handler) DeleteFile(c *gin.Context) {
	if h.Files == nil {
		unavailable(c, "File storage")
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Files.Delete(c.Request.Context(), scopeOf(c).Actor, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
