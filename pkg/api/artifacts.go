package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
)

// artifactPath resolves a job's {type}/{path} route variables to an
// on-disk path, for both the download and upload routes.
func artifactPath(job *grid.Job, artifactType, path string) (string, error) {
	switch artifactType {
	case "files":
		return job.InputPath(path), nil
	case "output":
		return job.OutputPath(path), nil
	case "executable":
		return job.ExecutableFilePath(path), nil
	default:
		return "", fmt.Errorf("unknown artifact type %q", artifactType)
	}
}

func (h *handlers) getJobArtifact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	job, err := h.grid.GetJob(vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := artifactPath(job, vars["type"], vars["path"])
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	http.ServeFile(w, r, path)
}

// putJobArtifact stores the request body as-is under the resolved
// path, then, for files and executable uploads only, registers the
// upload against the job's work-unit set and the on-disk manifest.
// Output uploads (worker nodes writing results) write bytes without
// touching job state.
func (h *handlers) putJobArtifact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, artifactType, path := vars["id"], vars["type"], vars["path"]

	job, err := h.grid.GetJob(id)
	if err != nil {
		writeError(w, err)
		return
	}
	diskPath, err := artifactPath(job, artifactType, path)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := writeUploadedFile(diskPath, r.Body); err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch artifactType {
	case "files":
		if err := h.grid.AddFile(id, path); err != nil {
			writeError(w, err)
			return
		}
		if h.store != nil {
			_ = h.store.RecordFileUploaded(id, path)
		}
	case "executable":
		if err := h.grid.AddExecutable(id, path); err != nil {
			writeError(w, err)
			return
		}
		if h.store != nil {
			_ = h.store.RecordExecutableUploaded(id, path)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// multipartUpload is the qqfile-alias upload route: a multipart POST
// carrying the file under the "qqfile" form field, with the target
// filename given by the qqfile query parameter.
// It converges on the same AddFile/manifest operations as the primary
// PUT route.
func (h *handlers) multipartUpload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	filename := r.URL.Query().Get("qqfile")
	if filename == "" {
		writeErrorMsg(w, http.StatusBadRequest, "missing qqfile query parameter")
		return
	}

	job, err := h.grid.GetJob(id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "malformed multipart upload")
		return
	}
	file, _, err := r.FormFile("qqfile")
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "missing qqfile form field")
		return
	}
	defer file.Close()

	if err := writeUploadedFile(job.InputPath(filename), file); err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.grid.AddFile(id, filename); err != nil {
		writeError(w, err)
		return
	}
	if h.store != nil {
		_ = h.store.RecordFileUploaded(id, filename)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeUploadedFile(path string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, body)
	return err
}
