package enroll

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/sportscool/enroll-backend/internal/credentials"
	"github.com/sportscool/enroll-backend/internal/templates"
	"github.com/sportscool/enroll-backend/internal/web"
)

// AuthCookieName carries the session token for user-side flows.
const AuthCookieName = "auth_token"

// Handlers holds the user-side route handlers and their tunables.
type Handlers struct {
	TokenTTL     time.Duration
	MaxTokens    int
	LoginLimiter *web.KeyedLimiter
}

// Register wires the user-side routes into the registry.
func (h *Handlers) Register(reg *web.Registry) {
	reg.Handle([]string{http.MethodGet}, "/", h.Home)
	reg.Handle([]string{http.MethodPost}, "/", h.Submit)
	reg.Handle([]string{http.MethodGet}, "/login", h.LoginPage)
	reg.Handle([]string{http.MethodPost}, "/login", h.Login)
	reg.Handle([]string{http.MethodGet}, "/users/{id}/edit", h.EditPage)
	reg.Handle([]string{http.MethodPut, http.MethodPost}, "/users/{id}", h.Update)
	reg.Handle([]string{http.MethodDelete, http.MethodPost}, "/users/{id}/delete", h.Delete)
}

type formPage struct {
	Form           map[string]string
	Errors         map[string]string
	Success        string
	Login          string
	Password       string
	UserID         int
	SuccessMessage string
}

func renderPage(name string, status int, page formPage) *web.Response {
	if page.Form == nil {
		page.Form = map[string]string{}
	}
	if page.Errors == nil {
		page.Errors = map[string]string{}
	}
	content, err := templates.Render(name, page)
	if err != nil {
		log.Printf("[enroll] %v", err)
		return web.Text(http.StatusInternalServerError, "Internal Server Error")
	}
	return web.HTML(status, content)
}

// splitFlash separates echoed field values from field errors and flags.
func splitFlash(flash map[string]string) (form, errs map[string]string) {
	form = map[string]string{}
	errs = map[string]string{}
	for key, value := range flash {
		if len(key) > 4 && key[len(key)-4:] == "_err" {
			errs[key[:len(key)-4]] = value
		} else {
			form[key] = value
		}
	}
	return form, errs
}

// Home renders the registration form, consuming any flash state left by a
// previous submission (generated credentials or field errors with echoes).
func (h *Handlers) Home(ctx *web.Context) *web.Response {
	flash := ctx.PopFlash()
	form, errs := splitFlash(flash)

	page := formPage{
		Form:     form,
		Errors:   errs,
		Success:  flash["success"],
		Login:    flash["login"],
		Password: flash["password"],
	}
	resp := renderPage("index.html", http.StatusOK, page)
	if flash != nil {
		resp.ClearCookie(web.FlashCookieName)
	}
	return resp
}

// Submit handles the registration form: validate, create credentials, store
// user and form atomically, then hand the generated credentials back via
// flash (HTML) or the response body (JSON).
func (h *Handlers) Submit(ctx *web.Context) *web.Response {
	data := ctx.FormData()
	input := ParseInput(data)

	if errs := input.Validate(time.Now()); len(errs) > 0 {
		return h.validationFailure(ctx, data, errs, "/#registration-form")
	}

	login := credentials.GenerateLogin()
	password := credentials.GeneratePassword()

	var user *User
	err := ctx.DB().Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = CreateUser(tx, login, password); err != nil {
			return err
		}
		_, err = CreateRegistration(tx, input, user.ID)
		return err
	})
	if err != nil {
		log.Printf("[enroll] registration failed: %v", err)
		if ctx.Req().WantsJSON() {
			return web.JSON(http.StatusBadRequest, map[string]string{"form": "Не удалось сохранить заявку"})
		}
		flash := map[string]string{"form_err": "Не удалось сохранить заявку"}
		for _, field := range formFields {
			if data.Has(field) {
				flash[field] = data.Get(field)
			}
		}
		return ctx.SetFlash(web.Redirect(http.StatusSeeOther, "/#registration-form"), flash)
	}

	if ctx.Req().WantsJSON() {
		return web.JSON(http.StatusOK, map[string]string{
			"login":    login,
			"password": password,
			"message":  "Регистрация прошла успешно",
		})
	}
	return ctx.SetFlash(web.Redirect(http.StatusSeeOther, "/#registration-form"), map[string]string{
		"success":  "1",
		"login":    login,
		"password": password,
	})
}

func (h *Handlers) validationFailure(ctx *web.Context, data web.FormData, errs FieldErrors, redirect string) *web.Response {
	if ctx.Req().WantsJSON() {
		return web.JSON(http.StatusBadRequest, map[string]any{"errors": errs})
	}
	flash := map[string]string{}
	for _, field := range formFields {
		if data.Has(field) {
			flash[field] = data.Get(field)
		}
	}
	for field, msg := range errs {
		flash[field+"_err"] = msg
	}
	return ctx.SetFlash(web.Redirect(http.StatusSeeOther, redirect), flash)
}

// LoginPage renders the login form. A deletion notice is shown after account
// removal, signalled either by ?deleted=1 or by flash.
func (h *Handlers) LoginPage(ctx *web.Context) *web.Response {
	message := ""
	if v, ok := ctx.QueryString("deleted"); ok && v == "1" {
		message = "Ваш аккаунт был успешно удален."
	}
	flash := ctx.PopFlash()
	if flash["delete_success"] == "1" {
		message = "Ваш аккаунт был успешно удален."
	}

	resp := renderPage("login.html", http.StatusOK, formPage{SuccessMessage: message})
	if flash != nil {
		resp.ClearCookie(web.FlashCookieName)
	}
	return resp
}

// Login verifies credentials and issues a session token. Unknown login and
// wrong password produce one indistinguishable failure.
func (h *Handlers) Login(ctx *web.Context) *web.Response {
	if h.LoginLimiter != nil && !h.LoginLimiter.Allow(ctx.RemoteIP()) {
		return web.Text(http.StatusTooManyRequests, "Слишком много попыток входа. Попробуйте позже.")
	}

	data := ctx.FormData()
	login := data.Get("login")
	password := data.Get("password")

	user, err := GetUserByLogin(ctx.DB(), login)
	if err != nil || !user.CheckPassword(password) {
		const message = "Неверный логин или пароль"
		if ctx.Req().WantsJSON() {
			return web.JSON(http.StatusUnauthorized, map[string]string{"form": message})
		}
		return renderPage("login.html", http.StatusUnauthorized, formPage{
			Form:   map[string]string{"login": login},
			Errors: map[string]string{"form": message},
		})
	}

	token, err := IssueToken(ctx.DB(), user.ID, h.TokenTTL, h.MaxTokens)
	if err != nil {
		log.Printf("[enroll] failed to issue token for user %d: %v", user.ID, err)
		return web.Text(http.StatusInternalServerError, "Internal Server Error")
	}

	cookie := &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	editURL := fmt.Sprintf("/users/%d/edit", user.ID)
	if ctx.Req().WantsJSON() {
		return web.JSON(http.StatusOK, map[string]any{
			"success":  true,
			"redirect": editURL,
			"user_id":  user.ID,
		}).WithCookie(cookie)
	}
	return web.Redirect(http.StatusSeeOther, editURL).WithCookie(cookie)
}

// requireOwner checks that the request carries a valid session token bound to
// the path's user id. On failure it returns the appropriate response for the
// access mode: 401 JSON for API calls, redirect to login for browsers.
func (h *Handlers) requireOwner(ctx *web.Context, api bool) (int, *web.Response) {
	userID, err := ctx.PathInt("id")
	if err != nil {
		if api {
			return 0, web.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Некорректный ID пользователя"})
		}
		return 0, web.HTML(http.StatusBadRequest, "Некорректный ID пользователя")
	}

	token, ok := ctx.Req().Cookie(AuthCookieName)
	if ok {
		if tokenUserID, valid := CheckToken(ctx.DB(), token); valid && tokenUserID == userID {
			return userID, nil
		}
	}
	if api {
		return 0, web.JSON(http.StatusUnauthorized, map[string]any{"success": false, "message": "Доступ запрещен"})
	}
	return 0, web.Redirect(http.StatusFound, "/login")
}

// EditPage renders the stored registration form for its owner.
func (h *Handlers) EditPage(ctx *web.Context) *web.Response {
	userID, denied := h.requireOwner(ctx, false)
	if denied != nil {
		return denied
	}

	if _, err := GetUser(ctx.DB(), userID); err != nil {
		return web.HTML(http.StatusNotFound, "Пользователь не найден")
	}

	flash := ctx.PopFlash()
	message := ""
	if flash["update_success"] == "1" {
		message = "Данные успешно обновлены"
	}

	form := map[string]string{}
	if reg, err := GetRegistrationByUser(ctx.DB(), userID); err == nil && reg != nil {
		form = regToMap(reg)
	}

	resp := renderPage("edit.html", http.StatusOK, formPage{
		Form:           form,
		UserID:         userID,
		SuccessMessage: message,
	})
	if flash != nil {
		resp.ClearCookie(web.FlashCookieName)
	}
	return resp
}

func regToMap(reg *RegistrationForm) map[string]string {
	comment := ""
	if reg.Comment != nil {
		comment = *reg.Comment
	}
	consent := "false"
	if reg.Consent {
		consent = "true"
	}
	return map[string]string{
		"child_name":      reg.ChildName,
		"child_birthdate": reg.ChildBirthdate,
		"parent_name":     reg.ParentName,
		"phone":           reg.Phone,
		"email":           reg.Email,
		"comment":         comment,
		"consent":         consent,
	}
}

// Update re-validates the submitted data and overwrites the owner's form.
func (h *Handlers) Update(ctx *web.Context) *web.Response {
	api := ctx.Req().WantsJSON()
	userID, denied := h.requireOwner(ctx, api)
	if denied != nil {
		return denied
	}

	if _, err := GetUser(ctx.DB(), userID); err != nil {
		if api {
			return web.JSON(http.StatusNotFound, map[string]any{"success": false, "message": "Пользователь не найден"})
		}
		return web.HTML(http.StatusNotFound, "Пользователь не найден")
	}

	data := ctx.FormData()
	input := ParseInput(data)
	if errs := input.Validate(time.Now()); len(errs) > 0 {
		if api {
			return web.JSON(http.StatusBadRequest, map[string]any{"errors": errs})
		}
		page := formPage{Form: echoMap(data), Errors: errs, UserID: userID}
		return renderPage("edit.html", http.StatusBadRequest, page)
	}

	reg, err := GetRegistrationByUser(ctx.DB(), userID)
	if err != nil {
		log.Printf("[enroll] failed to load registration for user %d: %v", userID, err)
		return web.Text(http.StatusInternalServerError, "Internal Server Error")
	}
	if reg != nil {
		if err := reg.Update(ctx.DB(), input); err != nil {
			log.Printf("[enroll] failed to update registration for user %d: %v", userID, err)
			return web.Text(http.StatusInternalServerError, "Internal Server Error")
		}
	}

	if api {
		return web.JSON(http.StatusOK, map[string]any{"success": true, "message": "Данные успешно обновлены"})
	}
	return ctx.SetFlash(
		web.Redirect(http.StatusSeeOther, fmt.Sprintf("/users/%d/edit", userID)),
		map[string]string{"update_success": "1"},
	)
}

func echoMap(data web.FormData) map[string]string {
	form := map[string]string{}
	for _, field := range formFields {
		if data.Has(field) {
			form[field] = data.Get(field)
		}
	}
	return form
}

// Delete removes the account. The DELETE method (API path) deletes
// immediately; the POST path renders a confirmation page until
// confirm_delete=true is submitted.
func (h *Handlers) Delete(ctx *web.Context) *web.Response {
	isAPI := ctx.Req().Method == http.MethodDelete
	userID, denied := h.requireOwner(ctx, isAPI)
	if denied != nil {
		return denied
	}

	if isAPI {
		if err := DeleteUser(ctx.DB(), userID); err != nil {
			log.Printf("[enroll] failed to delete user %d: %v", userID, err)
			return web.JSON(http.StatusInternalServerError, map[string]any{"success": false, "message": "Ошибка при удалении"})
		}
		return web.JSON(http.StatusOK, map[string]any{
			"success": true,
			"message": "Аккаунт успешно удален",
		}).ClearCookie(AuthCookieName)
	}

	if !ctx.FormData().Bool("confirm_delete") {
		return renderPage("delete_confirm.html", http.StatusOK, formPage{UserID: userID})
	}

	if err := DeleteUser(ctx.DB(), userID); err != nil {
		log.Printf("[enroll] failed to delete user %d: %v", userID, err)
		return renderPage("edit.html", http.StatusInternalServerError, formPage{
			Errors: map[string]string{"form": "Ошибка при удалении аккаунта"},
			UserID: userID,
		})
	}
	resp := web.Redirect(http.StatusFound, "/login").ClearCookie(AuthCookieName)
	return ctx.SetFlash(resp, map[string]string{"delete_success": "1"})
}
