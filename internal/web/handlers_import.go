package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/LeadImport/internal/leadimport"
	"github.com/JonMunkholm/LeadImport/internal/logging"
	"github.com/JonMunkholm/LeadImport/internal/web/templates"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

var importFileName = regexp.MustCompile(`(?i)\.(csv|txt)$`)

// importRequest is the validated form of a start-import request.
type importRequest struct {
	FileName string            `json:"file"`
	Mapping  map[string]string `json:"mapping"`
}

func (r importRequest) Validate() error {
	fieldNames := make([]any, 0, len(leadimport.Fields)+1)
	fieldNames = append(fieldNames, string(leadimport.FieldNone))
	for _, f := range leadimport.Fields {
		fieldNames = append(fieldNames, string(f))
	}

	return validation.ValidateStruct(&r,
		validation.Field(&r.FileName,
			validation.Required.Error("file name is required"),
			validation.Length(1, 255),
			validation.Match(importFileName).Error("file must be a .csv or .txt export"),
		),
		validation.Field(&r.Mapping,
			validation.Each(validation.In(fieldNames...).Error("unknown lead field")),
		),
	)
}

// uploadedFile is a multipart upload read into memory and normalized.
type uploadedFile struct {
	Name string
	Text string
}

// readUpload parses the multipart form and reads the "file" part.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (uploadedFile, error) {
	maxSize := s.cfg.Import.MaxFileSize
	// leave room for the multipart envelope and the mapping field
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return uploadedFile{}, fmt.Errorf("%w: limit is %d bytes", leadimport.ErrFileTooLarge, maxSize)
		}
		return uploadedFile{}, validation.Errors{"file": fmt.Errorf("invalid multipart form: %w", err)}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return uploadedFile{}, errNoFile
	}
	defer file.Close()

	text, err := leadimport.ReadText(file, maxSize)
	if err != nil {
		return uploadedFile{}, err
	}
	return uploadedFile{Name: filepath.Base(header.Filename), Text: text}, nil
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"fields":   leadimport.Fields,
		"statuses": leadimport.Statuses,
	})
}

// handlePreview reports the header, default mapping and row count of an
// upload without importing it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	upload, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	preview, err := s.service.Preview(upload.Text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, preview)
}

// handleStartImport validates the upload and starts a background run.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	upload, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	req := importRequest{FileName: upload.Name}
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Mapping); err != nil {
			s.respondError(w, r, validation.Errors{"mapping": errors.New("mapping must be a JSON object of column to field")})
			return
		}
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	runID, err := s.service.Start(r.Context(), req.FileName, upload.Text, req.Mapping)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "run_id", runID, "file", req.FileName).Info("import accepted")

	w.Header().Set("Location", "/api/imports/"+runID)
	writeJSONStatus(w, http.StatusAccepted, map[string]string{
		"run_id":   runID,
		"status":   "/api/imports/" + runID,
		"progress": "/api/imports/" + runID + "/progress",
		"result":   "/api/imports/" + runID + "/result",
		"page":     "/imports/" + runID,
	})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Status(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, st)
}

// handleImportResult returns the run's report. Unfinished runs answer 202
// with their status, unless ?wait=true asks to block until completion.
func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	var st leadimport.RunStatus
	var err error
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		st, err = s.service.Result(r.Context(), runID)
	} else {
		st, err = s.service.Status(runID)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if st.Phase == leadimport.PhaseRunning {
		writeJSONStatus(w, http.StatusAccepted, st)
		return
	}
	writeJSON(w, st)
}

// handleImportProgress streams progress as Server-Sent Events. The event ID
// is the percentage, so a reconnecting client sending Last-Event-ID skips
// what it already has. A final "complete" event carries the run status.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	updates, err := s.service.Subscribe(runID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"))
		return
	}

	lastID := -1
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		lastID, _ = strconv.Atoi(v)
	} else if v := r.URL.Query().Get("lastEventId"); v != "" {
		lastID, _ = strconv.Atoi(v)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case p, ok := <-updates:
			if !ok {
				st, err := s.service.Status(runID)
				if err != nil {
					return
				}
				data, _ := json.Marshal(st)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}

			pct := p.Percent()
			if pct <= lastID {
				continue
			}
			lastID = pct

			data, _ := json.Marshal(progressEvent{Progress: p, Percent: pct})
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", pct, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

type progressEvent struct {
	leadimport.Progress
	Percent int `json:"percent"`
}

// handleImportPage renders the run's audit log as HTML.
func (s *Server) handleImportPage(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Status(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filter := leadimport.ResultStatus(strings.ToLower(r.URL.Query().Get("status")))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ImportPage(st, filter).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render import page", "error", err)
	}
}
