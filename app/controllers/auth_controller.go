package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/app/repository"
	"github.com/JonasWeigert/PostPilot/internal/pkg/session"
	"github.com/JonasWeigert/PostPilot/internal/pkg/usercontext"
)

// HandleLogin renders the login form and processes submissions.
func HandleLogin(c *fiber.Ctx) error {
	if isLoggedIn(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	if c.Method() != fiber.MethodPost {
		return c.Render("auth/login", fiber.Map{
			"Title": "Sign in",
			"Error": c.Query("error"),
			"Csrf":  c.Locals("csrf"),
		}, "layouts/main")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(c.FormValue("email"))
	if err != nil || !models.CheckPasswordHash(c.FormValue("password"), user.Password) {
		// Do not tell the caller which half of the pair was wrong.
		log.Warnf("failed login for %s from %s", c.FormValue("email"), GetClientIP(c))
		return c.Redirect("/login?error=invalid+credentials", fiber.StatusSeeOther)
	}
	if user.Status != models.STATUS_ACTIVE {
		return c.Redirect("/login?error=account+disabled", fiber.StatusSeeOther)
	}

	if err := startSession(c, user); err != nil {
		log.Errorf("session start failed: %v", err)
		return c.Redirect("/login?error=session+error", fiber.StatusSeeOther)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Warnf("updating last login for user %d: %v", user.ID, err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleLogout destroys the operator session.
func HandleLogout(c *fiber.Ctx) error {
	if err := session.DestroySession(c); err != nil {
		log.Warnf("logout: %v", err)
	}
	c.Locals(usercontext.KeyFromProtected, false)
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// HandleRegister renders the signup form and creates operator accounts.
func HandleRegister(c *fiber.Ctx) error {
	if isLoggedIn(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	if c.Method() != fiber.MethodPost {
		return c.Render("auth/register", fiber.Map{
			"Title": "Create account",
			"Error": c.Query("error"),
			"Csrf":  c.Locals("csrf"),
		}, "layouts/main")
	}

	user, err := models.CreateUser(c.FormValue("username"), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		return c.Redirect("/register?error=invalid+input", fiber.StatusSeeOther)
	}

	if err := repository.GetGlobalFactory().GetUserRepository().Create(user); err != nil {
		log.Errorf("creating user %s: %v", user.Email, err)
		return c.Redirect("/register?error=could+not+create+account", fiber.StatusSeeOther)
	}

	return c.Redirect("/login", fiber.StatusSeeOther)
}

// startSession writes the authenticated user into a fresh session.
func startSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyPublicID, user.PublicID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)

	return sess.Save()
}
