package handler

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ImagesPath is the URL prefix uploaded images are served under.
const ImagesPath = "/api/uploads/images/"

// imageTypes maps accepted file extensions to the content type their bytes
// must sniff as.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// UploadImage stores a menu image sent as the multipart field "file" and
// returns the URL it is served from.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(w, r, badRequest("file size exceeds %dMB limit", h.maxUploadBytes>>20))
			return
		}
		fail(w, r, badRequest("multipart field \"file\" is required"))
		return
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	want, ok := imageTypes[ext]
	if !ok {
		fail(w, r, badRequest("file type not allowed, allowed types: %s", allowedExtensions()))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		fail(w, r, errors.Wrap(err, "read upload"))
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		fail(w, r, badRequest("file size exceeds %dMB limit", h.maxUploadBytes>>20))
		return
	}
	if got := mimetype.Detect(data); !got.Is(want) {
		fail(w, r, badRequest("file content is %s, expected %s", got.String(), want))
		return
	}

	name := uuid.NewString() + ext
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		fail(w, r, errors.Wrap(err, "create upload dir"))
		return
	}
	if err := os.WriteFile(filepath.Join(h.uploadDir, name), data, 0o644); err != nil {
		fail(w, r, errors.Wrap(err, "write upload"))
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		URL:      path.Join(ImagesPath, name),
		Filename: header.Filename,
		Message:  "Image uploaded successfully",
	})
}

// serveImages serves files from the upload directory without directory
// listings.
func (h *Handler) serveImages() http.Handler {
	fs := http.StripPrefix(ImagesPath, http.FileServer(http.Dir(h.uploadDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			writeError(w, http.StatusNotFound, "image not found")
			return
		}
		fs.ServeHTTP(w, r)
	})
}

func allowedExtensions() string {
	exts := make([]string, 0, len(imageTypes))
	for ext := range imageTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
