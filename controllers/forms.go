package controllers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RegisterForm is submitted from the sign-up page.
type RegisterForm struct {
	Email    string `form:"email" binding:"required,email,max=250"`
	Password string `form:"password" binding:"required"`
	Name     string `form:"name" binding:"required,max=250"`
}

// LoginForm is submitted from the login page.
type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

// CommentForm is submitted under a post.
type CommentForm struct {
	Comment string `form:"comment" binding:"required,max=400"`
}

// PostForm creates or edits a post.
type PostForm struct {
	Title    string `form:"title" binding:"required,max=250"`
	Subtitle string `form:"subtitle" binding:"required,max=250"`
	ImgURL   string `form:"img_url" binding:"required,url,max=250"`
	Body     string `form:"body" binding:"required"`
}

// requiredMessage is shown for empty fields, including ones that sanitizing emptied.
const requiredMessage = "This field is required."

// FieldErrors maps a form struct field name to the message shown next to it.
type FieldErrors map[string]string

// formErrors turns a binding error into per-field messages. Errors that are not
// validation failures (malformed bodies) are reported under "form".
func formErrors(err error) FieldErrors {
	out := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["form"] = "The submitted form could not be read."
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return requiredMessage
	case "email":
		return "Invalid email address."
	case "url":
		return "Invalid URL."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}
