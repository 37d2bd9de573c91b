package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	blobsvc "github.com/mkundi/kampasi/services/blob"
)

// maxUploadSize caps image uploads at 10 MiB.
const maxUploadSize = 10 << 20

var uploadBuckets = map[string]bool{
	"facilities": true,
	"spaces":     true,
	"events":     true,
}

var (
	errUnknownBucket = echo.NewHTTPError(http.StatusNotFound, "unknown upload bucket")
	errMissingFile   = echo.NewHTTPError(http.StatusBadRequest, "a \"file\" form field is required")
	errFileTooLarge  = echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	errUploadFailed  = echo.NewHTTPError(http.StatusBadGateway, "upload failed")
)

type uploadApi struct {
	store blobsvc.Store
}

func registerUploadAPI(g *echo.Group, jwt echo.MiddlewareFunc, store blobsvc.Store) {
	api := uploadApi{store: store}

	g.POST("/uploads/:bucket", api.upload, jwt, adminMiddleware())
}

func (api *uploadApi) upload(ctx echo.Context) error {
	bucket := ctx.Param("bucket")
	if !uploadBuckets[bucket] {
		return errUnknownBucket
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return errMissingFile
	}
	if fh.Size > maxUploadSize {
		return errFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	url, err := api.store.Upload(ctx.Request().Context(), bucket, fh.Filename, src)
	if err != nil {
		if errors.Cause(err) == blobsvc.ErrUpload {
			return errUploadFailed
		}
		return errors.Wrap(err, "storing uploaded file")
	}
	return ctx.JSON(http.StatusCreated, UploadResponse{URL: url})
}

type UploadResponse struct {
	URL string `json:"url"`
}
