package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"freeradical-go/internal/services"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 50 << 20

func (s *Server) ListMedia(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListMedia(s.DB, pagination(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) GetMedia(w http.ResponseWriter, r *http.Request) {
	media, err := services.GetMedia(s.DB, chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, media)
}

func (s *Server) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Expected a multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "The file part is missing")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Could not read upload")
		return
	}
	media, err := services.SaveMedia(r.Context(), s.DB, s.Blobs, services.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		AltText:     r.FormValue("alt_text"),
		UploadedBy:  CurrentUserID(r),
		Data:        data,
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publish(services.EventMediaUploaded, media)
	WriteJSON(w, http.StatusCreated, media)
}

func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	media, body, err := services.OpenMedia(r.Context(), s.DB, s.Blobs, chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Type", media.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(media.FileSize, 10))
	w.Header().Set("Content-Disposition", "inline; filename=\""+media.OriginalFilename+"\"")
	_, _ = io.Copy(w, body)
}

func (s *Server) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	media, err := services.DeleteMedia(r.Context(), s.DB, s.Blobs, chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publish(services.EventMediaDeleted, media)
	w.WriteHeader(http.StatusNoContent)
}
