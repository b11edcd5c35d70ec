package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

// UploadField is the multipart field name the upload endpoint expects
const UploadField = "file"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ListCategories fetches every category
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, "list categories", http.MethodGet, PathListCategories, nil, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Category{}
	}
	return out, nil
}

// CreateCategory creates a category by name
func (c *Client) CreateCategory(ctx context.Context, name string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, "create category", PathCreateCategory, createCategoryRequest{CatagoryName: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory deletes a category by name
func (c *Client) DeleteCategory(ctx context.Context, name string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, "delete category", PathDeleteCategory, deleteCategoryRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload sends one file as multipart form data and returns its server path
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadField, quoteEscaper.Replace(filepath.Base(filename))))
	header.Set("Content-Type", ContentTypeFor(filename))

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, &Error{Op: "upload", Err: fmt.Errorf("failed to create form part: %w", err)}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &Error{Op: "upload", Err: fmt.Errorf("failed to read file: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return nil, &Error{Op: "upload", Err: fmt.Errorf("failed to finish form: %w", err)}
	}

	var out UploadResponse
	if err := c.do(ctx, "upload", http.MethodPost, PathUploads, &buf, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	if out.FilePath == "" {
		return nil, &Error{Op: "upload", Err: errors.New("response carried no filePath")}
	}
	return &out, nil
}

// CreateTour submits a complete tour package
func (c *Client) CreateTour(ctx context.Context, tour Tour) (*TourRecord, error) {
	var out TourRecord
	if err := c.postJSON(ctx, "create tour", PathTours, tour, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContentTypeFor guesses a MIME type from a file name
func ContentTypeFor(filename string) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if ct == "" {
		return "application/octet-stream"
	}
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
