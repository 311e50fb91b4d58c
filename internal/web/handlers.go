package web

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prodcat/catalog/internal/catalog"
	"github.com/prodcat/catalog/internal/logging"
)

// allowedImportTypes is the MIME allowlist for uploaded catalog files.
var allowedImportTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"application/csv":          true,
}

// handleImportProducts ingests a multipart CSV upload through the
// reconciliation pipeline. The upload is staged to a temp file that the
// service deletes on every exit path.
func (s *Server) handleImportProducts(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Uploaded file is too large or the form is invalid.", "file")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "CSV file is required for product import.", "file")
		return
	}
	defer file.Close()

	if contentType := mediaType(header); !allowedImportTypes[contentType] {
		writeErrorResponse(w, http.StatusBadRequest, "Only CSV files are allowed for product import.", "file")
		return
	}

	path, err := s.saveUpload(file)
	if err != nil {
		s.respondError(w, r, catalog.Persistence("staging upload: %v", err))
		return
	}

	logger := logging.WithFields(r.Context(), "file", header.Filename, "size", header.Size)
	logger.Info("import started")

	result, err := s.service.ImportFile(r.Context(), path)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger.Info("import finished", "added", result.AddedCount, "skipped", result.SkippedCount)

	msg := fmt.Sprintf("Successfully imported %d products. Skipped %d duplicates.",
		result.AddedCount, result.SkippedCount)
	writeResponse(w, http.StatusOK, result, msg)
}

// saveUpload stages the multipart file into the configured temp directory
// and returns its path. Ownership of the file passes to the import service.
func (s *Server) saveUpload(file multipart.File) (string, error) {
	tmp, err := os.CreateTemp(s.cfg.Upload.TmpDir, "catalog-import-*.csv")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// mediaType returns the bare content type of a form file, without parameters
// like charset.
func mediaType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}

// handleExportProducts streams the full catalog as a CSV attachment.
func (s *Server) handleExportProducts(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.Export(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("products_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.Write(data)
}

// handleListProducts returns the full catalog as JSON.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeResponse(w, http.StatusOK, products, "Products list fetched successfully")
}

// handleUpdateProduct applies a partial-field update and reports whether
// inventory history was logged.
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch catalog.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Request body must be valid JSON.", "")
		return
	}

	result, err := s.service.Update(r.Context(), id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	msg := "Product updated successfully."
	if result.StockChanged {
		msg = "Product updated successfully and inventory history logged."
	}
	writeResponse(w, http.StatusOK, result.Product, msg)
}

// handleProductHistory returns the inventory audit trail for one product.
// An empty trail is a successful response, not an error.
func (s *Server) handleProductHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	history, err := s.service.History(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	msg := "Inventory history fetched successfully"
	if len(history) == 0 {
		msg = "No inventory history found for this product."
	}
	writeResponse(w, http.StatusOK, history, msg)
}

// handleHealth reports liveness, including store reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeErrorResponse(w, http.StatusServiceUnavailable, "store unreachable", "")
			return
		}
	}
	writeResponse(w, http.StatusOK, map[string]string{"status": "ok"}, "Service healthy")
}
