package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/app/repository"
)

// HandleOAuthCallback completes the Google sign-in flow and logs the
// operator in, creating the account on first sight of the email.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warnf("operator oauth failed: %v", err)
		return c.Redirect("/login?error=sign-in+failed", fiber.StatusSeeOther)
	}
	if u.Email == "" {
		return c.Redirect("/login?error=provider+returned+no+email", fiber.StatusSeeOther)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(u.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First sign-in; the placeholder password is never usable for login.
		placeholder := fmt.Sprintf("oauth_%s", models.GenerateToken(16))
		user, err = models.CreateUser(firstNonEmpty(u.Name, u.NickName, u.Email), u.Email, placeholder)
		if err == nil {
			err = repo.Create(user)
		}
	}
	if err != nil {
		log.Errorf("operator oauth account lookup for %s: %v", u.Email, err)
		return c.Redirect("/login?error=sign-in+failed", fiber.StatusSeeOther)
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

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
