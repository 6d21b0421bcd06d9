package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"

	"github.com/ginjaninja78/xlsx-column-splitter/internal/logging"
	"github.com/ginjaninja78/xlsx-column-splitter/internal/splitter"
	"github.com/ginjaninja78/xlsx-column-splitter/internal/validation"
	"github.com/ginjaninja78/xlsx-column-splitter/pkg/utils"
)

const (
	archiveName = "split_files.zip"
	xlsxMIME    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// fileLink is one row of the results page.
type fileLink struct {
	Name string
	Size string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, indexTemplate, struct {
		MaxColumns int
		MaxUpload  string
	}{
		MaxColumns: s.cfg.MaxColumns,
		MaxUpload:  utils.FormatSize(s.cfg.MaxUploadBytes),
	})
}

// handleUpload stages the uploaded spreadsheet and splits it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			http.Error(w, fmt.Sprintf("File too large: the limit is %s", utils.FormatSize(s.cfg.MaxUploadBytes)), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("Invalid upload: %v", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	s.splitMtx.Lock()
	defer s.splitMtx.Unlock()

	// Results of the previous run are discarded even if this upload is rejected.
	if err := s.files.ClearAll(); err != nil {
		level.Error(s.logger).Log("msg", "failed to clear directories", "err", err)
		http.Error(w, fmt.Sprintf("Error preparing directories: %v", err), http.StatusInternalServerError)
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	} else if err != nil {
		http.Error(w, fmt.Sprintf("Invalid upload: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	maxColumns, err := validation.ValidateUpload(validation.UploadForm{
		Filename:   header.Filename,
		MaxColumns: r.FormValue("max_columns"),
	}, s.cfg.MaxColumns)
	if err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) && errs.Has(validation.RuleRequired) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		level.Warn(s.logger).Log("msg", "upload rejected", "file", header.Filename, "err", err)
		http.Error(w, fmt.Sprintf("Error processing file: %v", err), http.StatusBadRequest)
		return
	}

	path, err := s.files.StageUpload(header.Filename, file)
	if err != nil {
		level.Error(s.logger).Log("msg", "failed to stage upload", "file", header.Filename, "err", err)
		http.Error(w, fmt.Sprintf("Error saving file: %v", err), http.StatusInternalServerError)
		return
	}
	level.Info(s.logger).Log("msg", "upload staged", "file", path, "size", utils.FormatSize(header.Size), "max_columns", maxColumns)

	_, err = s.splitter.Split(r.Context(), splitter.Request{
		SourcePath: path,
		OutputDir:  s.cfg.OutputDir,
		MaxColumns: maxColumns,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Error processing file: %v", err), http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, "/results", http.StatusSeeOther)
}

// handleResults lists the split files currently in the output directory.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	names, err := s.files.ListOutputFiles(splitter.OutputExtension)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		level.Warn(s.logger).Log("msg", "failed to list output files", "err", err)
	}
	if len(names) == 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	links := make([]fileLink, 0, len(names))
	for _, name := range names {
		link := fileLink{Name: name}
		if path, err := s.files.OutputPath(name); err == nil {
			if size, err := utils.GetFileSize(path); err == nil {
				link.Size = utils.FormatSize(size)
			}
		}
		links = append(links, link)
	}

	s.render(w, resultsTemplate, struct{ Files []fileLink }{Files: links})
}

// handleDownload serves one split file as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]

	path, err := s.files.OutputPath(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// handleArchive serves every split file as one ZIP archive.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	names, err := s.files.ListOutputFiles(splitter.OutputExtension)
	if err != nil || len(names) == 0 {
		http.NotFound(w, r)
		return
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path, err := s.files.OutputPath(name)
		if err != nil {
			continue
		}
		paths = append(paths, path)
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archiveName))
	if err := utils.WriteArchive(w, paths); err != nil {
		// Headers are already sent; the client sees a truncated archive.
		level.Error(s.logger).Log("msg", "failed to write archive", "err", err)
	}
}

// handleLogs renders the most recent log records.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	s.render(w, logsTemplate, struct{ Entries []logging.Entry }{
		Entries: s.logs.Entries(s.cfg.LogViewLimit),
	})
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		level.Error(s.logger).Log("msg", "failed to render page", "template", tmpl.Name(), "err", err)
	}
}
