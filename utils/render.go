package utils

import (
	"html/template"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/session"
)

// TemplateFuncs are available to every page template.
var TemplateFuncs = template.FuncMap{
	"gravatar": Gravatar,
	// safeHTML marks stored content as trusted; it is sanitized before it is saved
	"safeHTML":   func(s string) template.HTML { return template.HTML(s) },
	"fieldError": fieldError,
}

// fieldError looks up the message for field in a map of field errors; nil maps yield "".
func fieldError(errs interface{}, field string) string {
	v := reflect.ValueOf(errs)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return ""
	}
	msg := v.MapIndex(reflect.ValueOf(field).Convert(v.Type().Key()))
	if !msg.IsValid() || msg.Kind() != reflect.String {
		return ""
	}
	return msg.String()
}

// HTML renders a page template with the values every page needs: the principal
// ("login"), whether it is the administrator ("admin"), pending flash notices and the title.
func HTML(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	user := session.Principal(c)
	data["title"] = title
	data["login"] = user
	data["admin"] = user.IsAdmin()
	data["flashes"] = session.Flashes(c)
	c.HTML(status, name, data)
}

var errorMessages = map[int]string{
	http.StatusForbidden:           "You do not have permission to access this page.",
	http.StatusNotFound:            "The page you are looking for does not exist.",
	http.StatusTooManyRequests:     "Too many requests, please slow down.",
	http.StatusInternalServerError: "Something went wrong on our side.",
}

// ErrorPage renders the error template for status and stops the handler chain.
func ErrorPage(c *gin.Context, status int) {
	msg, ok := errorMessages[status]
	if !ok {
		msg = http.StatusText(status)
	}
	HTML(c, status, "error.html", http.StatusText(status), gin.H{"status": status, "message": msg})
	c.Abort()
}

// Redirect sends a 302 to location after queueing an optional flash notice.
func Redirect(c *gin.Context, location, flash string) {
	if flash != "" {
		if err := session.AddFlash(c, flash); err != nil {
			Sugar.Warnf("save flash failed: %v", err)
		}
	}
	c.Redirect(http.StatusFound, location)
}
