package upload

import (
	"errors"
	"net/http"
	"strings"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/identity"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/constants"
	"github.com/akeren/waitlist-foundry/pkg/storage"
)

const (
	logoUploadsPerMinute = 20

	// Multipart framing on top of the file itself. Bodies between the logo
	// limit and this cap still reach the handler and get the size message.
	multipartOverhead = 1 << 20
)

func NewUploadController(logger *log.Logger, store storage.ObjectStore, resolve identity.Resolver) *router.RESTController {
	return router.NewRESTController(
		"UploadController",
		"/api/upload",
		func(rs *router.RouterService, c *router.RESTController) {
			metrics := NewMetrics(rs.MetricsRegisterer())
			service := NewUploadService(logger, store, metrics)

			limiter := rs.LimiterFactory().PerMinute("logo-upload", logoUploadsPerMinute)

			rs.AddPostHandler(c, limiter, "logo", uploadLogoHandler(service, resolve))
			rs.LimitBodySize(c, http.MethodPost, "logo", router.BodyLimit{
				MaxBytes: constants.MaxLogoSizeBytes + multipartOverhead,
				Status:   http.StatusBadRequest,
				Message:  MessageTooLarge,
			})
		},
	)
}

// NewLocalFilesController serves what a LocalStore wrote at its URL prefix.
func NewLocalFilesController(store *storage.LocalStore) *router.RESTController {
	return router.NewRESTController(
		"LocalFilesController",
		"/",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddStaticHandler(c, nil, strings.TrimPrefix(store.URLPrefix(), "/"), store.Dir())
		},
	)
}

func uploadLogoHandler(service UploadService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		if _, errResult := identity.Require(ctx, resolve); errResult != nil {
			return errResult
		}

		header, err := ctx.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return router.BadRequestResult(MessageTooLarge, nil)
			}
			logger.Info("Logo upload without file", "error", err)
			return router.BadRequestResult(MessageNoFile, nil)
		}

		file, err := header.Open()
		if err != nil {
			logger.Warn("Failed to open uploaded file", "error", err)
			return router.BadRequestResult(MessageNoFile, nil)
		}
		defer file.Close()

		response, err := service.UploadLogo(ctx.Request.Context(), &LogoFile{
			Name:         header.Filename,
			DeclaredType: header.Header.Get("Content-Type"),
			Size:         header.Size,
			Body:         file,
		})
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Fichier uploadé")
	}
}
