package server

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"tourdesk/internal/api"
	"tourdesk/internal/files"
	"tourdesk/internal/storage"
	"tourdesk/internal/store"

	"github.com/gin-gonic/gin"
)

// Messages returned by the catalog routes
const (
	MsgCategoryCreated  = "Category created successfully"
	MsgCategoryDeleted  = "Category deleted successfully"
	MsgCategoryNotFound = "Category not found"
	MsgUnknownCategory  = "Category does not exist"
	MsgNoFile           = "No file uploaded"
	MsgFileTooLarge     = "File too large"
	MsgNotImage         = "Only image files are allowed"
	MsgStorageDown      = "Storage service is not available"
	MsgTourNotFound     = "Tour not found"
)

type createCategoryRequest struct {
	CatagoryName string `json:"catagoryName" binding:"required"`
}

type deleteCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type surroundingRequest struct {
	Title    string `json:"title"`
	Distance string `json:"distance"`
}

type tourRequest struct {
	PackageName    string               `json:"packageName" binding:"required"`
	Location       string               `json:"location" binding:"required"`
	Price          float64              `json:"price" binding:"gte=0"`
	TotalNights    int                  `json:"totalNights" binding:"gte=1"`
	Category       string               `json:"category" binding:"required"`
	Policies       string               `json:"policies"`
	HotelDetails   string               `json:"hotelDetails"`
	ContactDetails string               `json:"contactDetails"`
	IsPremium      bool                 `json:"isPremium"`
	Review         string               `json:"review"`
	Expression     string               `json:"expression" binding:"omitempty,oneof=good 'very good' bad"`
	Amenities      []string             `json:"amenities" binding:"min=1"`
	Surroundings   []surroundingRequest `json:"surroundings"`
	Image          string               `json:"image" binding:"required"`
}

func (s *Server) listCategoriesHandler(c *gin.Context) {
	categories, err := s.store.ListCategories(c.Request.Context())
	if err != nil {
		s.internalError(c, "failed to list categories", err)
		return
	}

	out := make([]api.Category, 0, len(categories))
	for _, cat := range categories {
		out = append(out, api.Category{ID: cat.ID, Name: cat.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCategoryHandler(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CatagoryName) == "" {
		fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	if _, err := s.store.CreateCategory(c.Request.Context(), req.CatagoryName); err != nil {
		s.internalError(c, "failed to create category", err)
		return
	}
	succeed(c, MsgCategoryCreated)
}

func (s *Server) deleteCategoryHandler(c *gin.Context) {
	var req deleteCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	err := s.store.DeleteCategory(c.Request.Context(), req.Name)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, MsgCategoryNotFound)
		return
	}
	if err != nil {
		s.internalError(c, "failed to delete category", err)
		return
	}
	succeed(c, MsgCategoryDeleted)
}

func (s *Server) uploadHandler(c *gin.Context) {
	if s.storage == nil {
		fail(c, http.StatusServiceUnavailable, MsgStorageDown)
		return
	}

	header, err := c.FormFile(api.UploadField)
	if err != nil {
		fail(c, http.StatusBadRequest, MsgNoFile)
		return
	}
	if header.Size > files.MaxFileSize {
		fail(c, http.StatusRequestEntityTooLarge, MsgFileTooLarge)
		return
	}

	name := path.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}
	if err := files.ValidateImage(name, contentType); err != nil {
		fail(c, http.StatusBadRequest, MsgNotImage)
		return
	}
	if contentType == "" {
		contentType, _ = files.ContentType(name)
	}

	f, err := header.Open()
	if err != nil {
		s.internalError(c, "failed to open upload", err)
		return
	}
	defer f.Close()

	key := files.NewKey(name)
	if err := s.storage.Put(c.Request.Context(), key, contentType, f, header.Size); err != nil {
		s.internalError(c, "failed to store upload", err)
		return
	}

	c.JSON(http.StatusOK, api.UploadResponse{FilePath: key})
}

func (s *Server) serveFileHandler(c *gin.Context) {
	if s.storage == nil {
		fail(c, http.StatusServiceUnavailable, MsgStorageDown)
		return
	}

	obj, err := s.storage.Get(c.Request.Context(), files.UploadPrefix+c.Param("name"))
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		s.internalError(c, "failed to read file", err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}

func (s *Server) createTourHandler(c *gin.Context) {
	var req tourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	ctx := c.Request.Context()

	exists, err := s.store.CategoryExists(ctx, req.Category)
	if err != nil {
		s.internalError(c, "failed to check category", err)
		return
	}
	if !exists {
		fail(c, http.StatusBadRequest, MsgUnknownCategory)
		return
	}

	tour := &store.Tour{
		PackageName:    req.PackageName,
		Location:       req.Location,
		Price:          req.Price,
		TotalNights:    req.TotalNights,
		Category:       req.Category,
		Policies:       req.Policies,
		HotelDetails:   req.HotelDetails,
		ContactDetails: req.ContactDetails,
		IsPremium:      req.IsPremium,
		Review:         req.Review,
		Expression:     req.Expression,
		Amenities:      req.Amenities,
		Image:          req.Image,
	}
	for _, sr := range req.Surroundings {
		tour.Surroundings = append(tour.Surroundings, store.Surrounding{Title: sr.Title, Distance: sr.Distance})
	}

	if err := s.store.CreateTour(ctx, tour); err != nil {
		s.internalError(c, "failed to create tour", err)
		return
	}
	c.JSON(http.StatusCreated, tourRecord(tour))
}

func (s *Server) getTourHandler(c *gin.Context) {
	tour, err := s.store.TourByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, MsgTourNotFound)
		return
	}
	if err != nil {
		s.internalError(c, "failed to get tour", err)
		return
	}
	c.JSON(http.StatusOK, tourRecord(tour))
}

func tourRecord(t *store.Tour) api.TourRecord {
	rec := api.TourRecord{
		ID: t.ID,
		Tour: api.Tour{
			PackageName:    t.PackageName,
			Location:       t.Location,
			Price:          t.Price,
			TotalNights:    t.TotalNights,
			Category:       t.Category,
			Policies:       t.Policies,
			HotelDetails:   t.HotelDetails,
			ContactDetails: t.ContactDetails,
			IsPremium:      t.IsPremium,
			Review:         t.Review,
			Expression:     t.Expression,
			Amenities:      t.Amenities,
			Image:          t.Image,
		},
	}
	rec.Surroundings = make([]api.Surrounding, 0, len(t.Surroundings))
	for _, sr := range t.Surroundings {
		rec.Surroundings = append(rec.Surroundings, api.Surrounding{Title: sr.Title, Distance: sr.Distance})
	}
	return rec
}
