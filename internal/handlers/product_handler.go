package handlers

import (
	"net/http"
	"strings"

	"go-hardware-pos/internal/catalog"
	"go-hardware-pos/internal/storage"

	"github.com/gin-gonic/gin"
)

// --- GET: List the branch's products ---
func (h *Handler) GetProducts(c *gin.Context) {
	page, err := h.Catalog.ListProducts(c.Request.Context(), scopeOf(c).CurrentBranchID, listFilter(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var in catalog.ProductInput

	// 1. Parse JSON Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Save to DB
	bp, err := h.Catalog.CreateProduct(c.Request.Context(), scopeOf(c).CurrentBranchID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product added successfully!", "product": bp})
}

// --- PUT: Update details, price or branch stock ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	// 1. Get ID from URL (e.g., /products/5)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	bp, err := h.Catalog.UpdateProduct(c.Request.Context(), scopeOf(c).CurrentBranchID, id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": bp})
}

// --- DELETE: Remove a product and everything stocked under it ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteProduct(c.Request.Context(), scopeOf(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// --- UPLOAD: Handle Image Files ---
func (h *Handler) UploadImage(c *gin.Context) {
	if h.Files == nil {
		unavailable(c, "File storage")
		return
	}

	// 1. Get the file from the request
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		badRequest(c, "Only image files are allowed")
		return
	}

	f, err := header.Open()
	if err != nil {
		badRequest(c, "Could not read file")
		return
	}
	defer f.Close()

	// 2. Store it and record it for the user
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

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     file.FileURL,
	})
}
