package router

import (
	"encoding/json"
	"reflect"

	"github.com/akeren/waitlist-foundry/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is the {code, data, message} envelope every JSON endpoint
// answers with. Error results repeat the message under "error". Fields of an
// object payload are also written at the top level, under the envelope keys.
type ServiceResult struct {
	StatusCode int    `json:"code"`
	Data       any    `json:"data"`
	Message    string `json:"message"`

	// Attachment, when set, is written raw instead of the JSON envelope.
	Attachment *Attachment `json:"-"`
}

// Attachment is a downloadable response body such as a CSV export.
type Attachment struct {
	FileName    string
	ContentType string
	Body        []byte
}

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retryAfter"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	handlerCount int
	limiter      ratelimit.RateLimiter
	prepare      func(*RouterService, *RESTController)
}

func (result *ServiceResult) ToJSON() gin.H {
	body := gin.H{}
	for key, value := range objectFields(result.Data) {
		body[key] = value
	}

	body["code"] = result.StatusCode
	body["data"] = result.Data
	body["message"] = result.Message
	if result.IsError() {
		body["error"] = result.Message
	} else {
		delete(body, "error")
	}
	return body
}

// objectFields returns the top-level JSON fields of a struct or map payload
// and nil for anything else.
func objectFields(data any) map[string]json.RawMessage {
	if data == nil {
		return nil
	}
	switch reflect.Indirect(reflect.ValueOf(data)).Kind() {
	case reflect.Struct, reflect.Map:
	default:
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func (result *ServiceResult) IsError() bool {
	return result.StatusCode >= 400
}
