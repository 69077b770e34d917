package router

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/akeren/waitlist-foundry/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

const staticCSP = "default-src 'none'; style-src 'unsafe-inline'; sandbox"

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+mountPoint, "//", "/"),
		prepare:    prepare,
	}
}

// RateLimitWith sets the limiter for every handler of this controller that
// was registered without one of its own.
func (controller *RESTController) RateLimitWith(limiter ratelimit.RateLimiter) *RESTController {
	controller.limiter = limiter
	return controller
}

// routePath joins the mount point and a relative path into a gin pattern
// without duplicate or trailing slashes.
func (controller *RESTController) routePath(relativePath string) string {
	return path.Join("/", controller.mountPoint, relativePath)
}

func (routerService *RouterService) keyForPathAndMethod(path, method string) string {
	return method + " " + path
}

// register records ownership and the optional route limiter, then hands the
// route to gin. Registering the same method and pattern twice is a
// programming error and panics at startup.
func (routerService *RouterService) register(method string, controller *RESTController, limiter ratelimit.RateLimiter, pattern string, handlers ...gin.HandlerFunc) {
	key := routerService.keyForPathAndMethod(pattern, method)

	if owner, taken := routerService.handlerToControllerMap[key]; taken {
		panic(fmt.Sprintf("route %s already registered by controller %q", key, owner.name))
	}
	routerService.handlerToControllerMap[key] = controller

	if limiter != nil {
		routerService.rateLimitOverrides[key] = limiter
	}

	controller.handlerCount++
	routerService.engine.Handle(method, pattern, handlers...)
	routerService.logger.Debug("Handler registered", "method", method, "path", pattern)
}

func (routerService *RouterService) addHandler(method string, controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares []MiddlewareFunc) {
	routerService.register(method, controller, limiter, controller.routePath(relativePath), append(middlewares, createHandler(handler))...)
}

func (routerService *RouterService) AddGetHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.addHandler(http.MethodGet, controller, limiter, path, handler, middlewares)
}

func (routerService *RouterService) AddPostHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.addHandler(http.MethodPost, controller, limiter, path, handler, middlewares)
}

func (routerService *RouterService) AddPutHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.addHandler(http.MethodPut, controller, limiter, path, handler, middlewares)
}

func (routerService *RouterService) AddDeleteHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.addHandler(http.MethodDelete, controller, limiter, path, handler, middlewares)
}

// BodyLimit caps the request body of one route. Status and Message replace
// the default 413 answer when set.
type BodyLimit struct {
	MaxBytes int64
	Status   int
	Message  string
}

func (l BodyLimit) rejection() *ServiceResult {
	status, message := l.Status, l.Message
	if status == 0 {
		status = http.StatusRequestEntityTooLarge
	}
	if message == "" {
		message = "Requête trop volumineuse"
	}
	return ErrorResult(status, message, nil)
}

// LimitBodySize replaces the global request body cap for one route.
func (routerService *RouterService) LimitBodySize(controller *RESTController, method, path string, limit BodyLimit) {
	if limit.MaxBytes <= 0 {
		return
	}
	routerService.bodyLimitOverrides[routerService.keyForPathAndMethod(controller.routePath(path), method)] = limit
}

func createHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)

		switch {
		case result == nil:
			GetLogger(c).Error("Handler returned no result", "route", c.FullPath())
			c.JSON(http.StatusInternalServerError, ErrorResult(http.StatusInternalServerError, "Erreur serveur", nil).ToJSON())
		case result.Attachment != nil:
			writeAttachment(c, result)
		default:
			c.JSON(result.StatusCode, result.ToJSON())
		}
	}
}

func writeAttachment(c *RequestContext, result *ServiceResult) {
	att := result.Attachment

	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if att.FileName != "" {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.FileName}))
	}
	c.Header("Cache-Control", "no-store")
	c.Data(result.StatusCode, contentType, att.Body)
}

// AddStaticHandler serves files below root at <mount>/<path>/*filepath.
// Directory listings are disabled and missing files get the JSON 404.
func (routerService *RouterService) AddStaticHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, root string) {
	prefix := controller.routePath(relativePath)
	pattern := path.Join(prefix, "/*filepath")

	dir := gin.Dir(root, false)
	fileServer := http.StripPrefix(prefix, http.FileServer(dir))

	serve := func(c *RequestContext) {
		if !isRegularFile(dir, c.Param("filepath")) {
			c.AbortWithStatusJSON(http.StatusNotFound, NotFoundResult("Fichier non trouvé").ToJSON())
			return
		}

		// Uploaded logos may be SVG; the sandbox keeps their scripts out of our origin.
		c.Header("Content-Security-Policy", staticCSP)
		c.Header("Cache-Control", "public, max-age=86400")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}

	routerService.register(http.MethodGet, controller, limiter, pattern, serve)
	routerService.register(http.MethodHead, controller, limiter, pattern, serve)

	if _, err := os.Stat(root); err != nil {
		routerService.logger.Warn("Static root is not accessible yet", "root", root, "error", err)
	}
}

func isRegularFile(fs http.FileSystem, name string) bool {
	f, err := fs.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	return err == nil && !info.IsDir()
}
