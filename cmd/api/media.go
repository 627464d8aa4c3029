package main

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"storefront/internal/media"
)

const (
	maxUploadBytes = 25 * 1024 * 1024
	maxUploadFiles = 10
)

// errUnsupportedMedia marks a file whose sniffed type is not accepted.
var errUnsupportedMedia = errors.New("unsupported file type")

type DeleteMediaPayload struct {
	URL string `json:"url" validate:"required,url"`
}

// uploadMediaHandler godoc
//
//	@Summary		Upload media
//	@Description	Uploads images or short videos (multipart field "files") and returns their URLs. Nothing is written to the database.
//	@Tags			admin-media
//	@Accept			mpfd
//	@Produce		json
//	@Param			files	formData	file	true	"Image or video files"
//	@Success		201		{object}	map[string][]string
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/media [post]
func (app *application) uploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, errInvalidRequest("at least one file is required"))
		return
	}
	if len(files) > maxUploadFiles {
		app.badRequestResponse(w, r, fmt.Errorf("maximum %d files allowed", maxUploadFiles))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := app.uploadOne(ctx, fh)
		switch {
		case errors.Is(err, errUnsupportedMedia):
			app.badRequestResponse(w, r, err)
			return
		case err != nil:
			app.internalServerError(w, r, err)
			return
		}
		urls = append(urls, url)
	}

	_ = app.jsonResponse(w, http.StatusCreated, map[string][]string{"urls": urls})
}

func (app *application) uploadOne(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer file.Close()

	mime, err := media.SniffMIME(file)
	if err != nil {
		return "", err
	}
	if !media.Allowed[mime] {
		return "", fmt.Errorf("%w: %s is %s", errUnsupportedMedia, fh.Filename, mime)
	}

	url, err := app.media.Upload(ctx, file, "")
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fh.Filename, err)
	}
	return url, nil
}

func (app *application) deleteMediaHandler(w http.ResponseWriter, r *http.Request) {
	var payload DeleteMediaPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := app.media.Delete(ctx, payload.URL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
