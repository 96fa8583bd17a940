package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/JonMunkholm/fundsheet/internal/logging"
	"github.com/google/uuid"
)

const (
	// exportFileName is the attachment name of exported workbooks.
	exportFileName = "exported_data.xlsx"

	// xlsxContentType is the media type of .xlsx workbooks.
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// maxSearchBody caps the JSON body of a search request.
	maxSearchBody = 1 << 20

	// multipartMemory is how much of an upload is buffered in memory before
	// spilling to a temp file.
	multipartMemory = 8 << 20

	healthTimeout = 2 * time.Second
)

const noDataMessage = "No data found for the specified search criteria"

// uploadResponse is the body of a successful upload.
type uploadResponse struct {
	Message  string `json:"message"`
	UploadID string `json:"upload_id"`
	FileName string `json:"file_name"`
	Rows     int    `json:"rows"`
	Inserted int    `json:"inserted"`
}

// searchResponse is the body of a search. Data is never null.
type searchResponse struct {
	Data    []core.Record `json:"data"`
	Message string        `json:"message,omitempty"`
}

// handleUpload stores the multipart "file" field in the upload directory
// and ingests it. The stored copy is removed by the service unless uploads
// are retained.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondError(w, r, err)
			return
		}
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	ctx := withRequestMetadata(r.Context(), r)

	path, err := s.saveUpload(file, header.Filename)
	if err != nil {
		logging.FromContext(ctx).Error("failed to store upload", "file", header.Filename, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to store uploaded file")
		return
	}

	res, err := s.service.IngestFile(ctx, path, header.Filename)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, uploadResponse{
		Message:  "File uploaded and data saved to database successfully",
		UploadID: res.ID,
		FileName: res.FileName,
		Rows:     res.Rows,
		Inserted: res.Inserted,
	})
}

// saveUpload copies src to a fresh, uniquely named file in the upload
// directory. The original name only contributes its extension.
func (s *Server) saveUpload(src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(s.cfg.Upload.Dir, 0o750); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.cfg.Upload.Dir, uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// handleSearch returns the records matching a JSON SearchCriteria body.
// number_of_employees comes back as the lower bound of the uploaded band.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSearchBody)

	var criteria core.SearchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondError(w, r, err)
			return
		}
		respondError(w, r, &core.InvalidCriteriaError{Reason: "request body must be a JSON object of search fields: " + err.Error()})
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	records, err := s.service.Search(ctx, criteria)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := searchResponse{Data: records}
	if len(records) == 0 {
		resp.Message = noDataMessage
	}
	writeJSON(w, resp)
}

// handleExport streams the records matching the organization_name and
// website query parameters as an xlsx attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := core.ExportCriteria(q.Get("organization_name"), q.Get("website"))

	ctx := withRequestMetadata(r.Context(), r)
	err := s.service.Export(ctx, criteria, func(f *os.File) error {
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
		http.ServeContent(w, r, exportFileName, time.Now(), f)
		return nil
	})
	if err != nil {
		respondError(w, r, err)
	}
}

type healthResponse struct {
	Status  string                   `json:"status"`
	Ingests core.IngestLimiterStatus `json:"ingests"`
	Error   string                   `json:"error,omitempty"`
}

// handleHealth reports liveness and whether the store answers a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Ingests: s.service.LimiterStatus()}
	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(ctx).Warn("health check failed", "error", err)
		resp.Status = "unavailable"
		resp.Error = core.MapError(err).Message
		writeJSONStatus(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, resp)
}
