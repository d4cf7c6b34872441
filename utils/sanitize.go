package utils

import "github.com/microcosm-cc/bluemonday"

var (
	postPolicy    = bluemonday.UGCPolicy()
	commentPolicy = newCommentPolicy()
)

// newCommentPolicy allows inline formatting and links but no images, tables or headings.
func newCommentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowElements("p", "br", "b", "i", "em", "strong", "u", "s", "blockquote", "code", "pre", "ul", "ol", "li")
	return p
}

// SanitizePost cleans an administrator's post body before it is stored.
func SanitizePost(body string) string {
	return postPolicy.Sanitize(body)
}

// SanitizeComment cleans a reader's comment before it is stored.
func SanitizeComment(text string) string {
	return commentPolicy.Sanitize(text)
}
