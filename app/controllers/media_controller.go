package controllers

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/JonasWeigert/PostPilot/internal/pkg/env"
	"github.com/JonasWeigert/PostPilot/internal/pkg/upload"
)

const maxMediaSize = 20 * 1024 * 1024

// HandleMediaStage accepts an image upload and stages it on local disk. The
// returned handle goes into a post's media_handle field; the media store
// uploads it to S3 at publish time.
func HandleMediaStage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "no file in request")
	}
	if fileHeader.Size > maxMediaSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"success": false,
			"error":   "file exceeds the 20 MB limit",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return serverError(c, "could not read file")
	}
	head := make([]byte, 512)
	n, err := file.Read(head)
	_ = file.Close()
	if err != nil && err != io.EOF {
		return serverError(c, "could not read file")
	}

	if _, err := upload.ValidateImageBySniff(fileHeader.Filename, head[:n]); err != nil {
		return badRequest(c, err.Error())
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))

	stagingDir := env.GetEnv("MEDIA_STAGING_DIR", "./uploads/staging")
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		log.Errorf("creating staging dir: %v", err)
		return serverError(c, "could not stage file")
	}

	handle := filepath.Join(stagingDir, uuid.New().String()+ext)
	if err := c.SaveFile(fileHeader, handle); err != nil {
		log.Errorf("staging media: %v", err)
		return serverError(c, "could not stage file")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"media_handle": handle,
	})
}
