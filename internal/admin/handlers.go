package admin

import (
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/sportscool/enroll-backend/internal/enroll"
	"github.com/sportscool/enroll-backend/internal/templates"
	"github.com/sportscool/enroll-backend/internal/web"
)

// AuthCookieName carries the admin token.
const AuthCookieName = "admin_token"

type Handlers struct {
	LoginLimiter *web.KeyedLimiter
}

// Register wires the admin routes into the registry.
func (h *Handlers) Register(reg *web.Registry) {
	reg.Handle([]string{http.MethodGet}, "/admin/login/", h.CanonicalRedirect)
	reg.Handle([]string{http.MethodGet}, "/admin/login", h.LoginPage)
	reg.Handle([]string{http.MethodPost}, "/admin/login", h.Login)
	reg.Handle([]string{http.MethodGet}, "/admin/dashboard", h.Dashboard)
	reg.Handle([]string{http.MethodGet}, "/admin/logout", h.Logout)
}

// CanonicalRedirect sends the trailing-slash variant to the canonical login
// path.
func (h *Handlers) CanonicalRedirect(ctx *web.Context) *web.Response {
	return web.Redirect(http.StatusFound, "/admin/login")
}

type loginPage struct {
	ErrorMessage string
}

func renderLogin(status int, message string) *web.Response {
	content, err := templates.Render("admin_login.html", loginPage{ErrorMessage: message})
	if err != nil {
		log.Printf("[admin] %v", err)
		return web.Text(http.StatusInternalServerError, "Internal Server Error")
	}
	return web.HTML(status, content)
}

func (h *Handlers) LoginPage(ctx *web.Context) *web.Response {
	return renderLogin(http.StatusOK, "")
}

// Login verifies admin credentials and issues the admin token cookie. The
// failure message does not distinguish unknown username from wrong password.
func (h *Handlers) Login(ctx *web.Context) *web.Response {
	if h.LoginLimiter != nil && !h.LoginLimiter.Allow(ctx.RemoteIP()) {
		return web.Text(http.StatusTooManyRequests, "Слишком много попыток входа. Попробуйте позже.")
	}

	data := ctx.FormData()
	username := strings.TrimSpace(data.Get("username"))
	password := data.Get("password")

	account, err := GetByUsername(ctx.DB(), username)
	if err != nil || !account.CheckPassword(password) {
		return renderLogin(http.StatusUnauthorized, "Неверное имя пользователя или пароль")
	}

	token, err := IssueToken(ctx.DB(), account.ID)
	if err != nil {
		log.Printf("[admin] failed to issue token for admin %d: %v", account.ID, err)
		return web.Text(http.StatusInternalServerError, "Internal Server Error")
	}

	return web.Redirect(http.StatusSeeOther, "/admin/dashboard").WithCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// DashboardRow is one registration in the admin listing.
type DashboardRow struct {
	ID             int
	Login          string
	ChildName      string
	ChildBirthdate string
	BirthYear      string
	ParentName     string
	Phone          string
	Email          string
	Comment        string
}

type dashboardPage struct {
	Users      []DashboardRow
	BirthYears []string
}

// Dashboard lists every registered user with its form, plus the deduplicated
// birth years (descending) for the filter dropdown.
func (h *Handlers) Dashboard(ctx *web.Context) *web.Response {
	token, ok := ctx.Req().Cookie(AuthCookieName)
	if !ok {
		return web.Redirect(http.StatusFound, "/admin/login")
	}
	if _, valid := CheckToken(ctx.DB(), token); !valid {
		return web.Redirect(http.StatusFound, "/admin/login")
	}

	var users []enroll.User
	if err := ctx.DB().Preload("Registration").Order("id").Find(&users).Error; err != nil {
		log.Printf("[admin] failed to load dashboard rows: %v", err)
		return web.Text(http.StatusInternalServerError, "Internal Server Error")
	}

	page := dashboardPage{}
	seenYears := map[string]struct{}{}
	for _, user := range users {
		form := user.Registration
		if form == nil {
			continue
		}
		year := birthYear(form.ChildBirthdate)
		if year != "" {
			seenYears[year] = struct{}{}
		}
		comment := ""
		if form.Comment != nil {
			comment = *form.Comment
		}
		page.Users = append(page.Users, DashboardRow{
			ID:             user.ID,
			Login:          user.Login,
			ChildName:      form.ChildName,
			ChildBirthdate: form.ChildBirthdate,
			BirthYear:      year,
			ParentName:     form.ParentName,
			Phone:          form.Phone,
			Email:          form.Email,
			Comment:        comment,
		})
	}
	for year := range seenYears {
		page.BirthYears = append(page.BirthYears, year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(page.BirthYears)))

	content, err := templates.Render("admin_dashboard.html", page)
	if err != nil {
		log.Printf("[admin] %v", err)
		return web.Text(http.StatusInternalServerError, "Internal Server Error")
	}
	return web.HTML(http.StatusOK, content)
}

func birthYear(birthdate string) string {
	year, _, ok := strings.Cut(birthdate, "-")
	if !ok {
		return ""
	}
	return year
}

// Logout deactivates the admin token and clears its cookie.
func (h *Handlers) Logout(ctx *web.Context) *web.Response {
	if token, ok := ctx.Req().Cookie(AuthCookieName); ok {
		if err := InvalidateToken(ctx.DB(), token); err != nil {
			log.Printf("[admin] failed to invalidate token: %v", err)
		}
	}
	return web.Redirect(http.StatusSeeOther, "/admin/login").ClearCookie(AuthCookieName)
}
