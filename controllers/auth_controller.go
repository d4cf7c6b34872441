package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/models"
	"github.com/cppla/blog/services"
	"github.com/cppla/blog/session"
	"github.com/cppla/blog/utils"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	users *services.UserService
}

// NewAuthController creates an AuthController.
func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

// RegisterPage shows the sign-up form.
func (a *AuthController) RegisterPage(ctx *gin.Context) {
	utils.HTML(ctx, http.StatusOK, "register.html", "Register", gin.H{"form": RegisterForm{}})
}

// Register creates the account and logs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var form RegisterForm
	if err := ctx.ShouldBind(&form); err != nil {
		form.Password = ""
		utils.HTML(ctx, http.StatusBadRequest, "register.html", "Register", gin.H{"form": form, "errors": formErrors(err)})
		return
	}

	user, err := a.users.Register(form.Email, form.Password, form.Name)
	if errors.Is(err, services.ErrEmailTaken) {
		utils.Redirect(ctx, "/login", flashEmailTaken)
		return
	}
	if err != nil {
		utils.Sugar.Errorf("register %s: %v", models.NormalizeEmail(form.Email), err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return
	}

	if err := session.SetLoginUser(ctx, user); err != nil {
		utils.Sugar.Errorf("bind session for %s: %v", user.Email, err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return
	}
	utils.Sugar.Infow("user registered", "user_id", user.ID, "role", user.Role)
	utils.Redirect(ctx, "/", "")
}

// LoginPage shows the login form.
func (a *AuthController) LoginPage(ctx *gin.Context) {
	utils.HTML(ctx, http.StatusOK, "login.html", "Login", gin.H{"form": LoginForm{}})
}

// Login checks the credentials and binds the session on success.
func (a *AuthController) Login(ctx *gin.Context) {
	var form LoginForm
	if err := ctx.ShouldBind(&form); err != nil {
		form.Password = ""
		utils.HTML(ctx, http.StatusBadRequest, "login.html", "Login", gin.H{"form": form, "errors": formErrors(err)})
		return
	}

	user, err := a.users.Authenticate(form.Email, form.Password)
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Redirect(ctx, "/login", flashNoSuchAccount)
		return
	case errors.Is(err, services.ErrWrongPassword):
		utils.Sugar.Warnw("wrong password", "email", models.NormalizeEmail(form.Email), "ip", ctx.ClientIP())
		utils.Redirect(ctx, "/login", flashWrongPassword)
		return
	case err != nil:
		utils.Sugar.Errorf("login %s: %v", models.NormalizeEmail(form.Email), err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return
	}

	if err := session.SetLoginUser(ctx, user); err != nil {
		utils.Sugar.Errorf("bind session for %s: %v", user.Email, err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return
	}
	utils.Sugar.Infow("user logged in", "user_id", user.ID, "ip", ctx.ClientIP())
	utils.Redirect(ctx, "/", flashLoggedIn)
}

// Logout clears the session binding.
func (a *AuthController) Logout(ctx *gin.Context) {
	if user := session.Principal(ctx); user != nil {
		utils.Sugar.Infow("user logged out", "user_id", user.ID)
	}
	if err := session.ClearSession(ctx); err != nil {
		utils.Sugar.Warnf("clear session failed: %v", err)
	}
	utils.Redirect(ctx, "/", flashLoggedOut)
}
