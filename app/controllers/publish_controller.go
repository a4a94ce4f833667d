package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/app/repository"
	"github.com/JonasWeigert/PostPilot/internal/pkg/metrics/counter"
	"github.com/JonasWeigert/PostPilot/internal/pkg/socialpub"
	"github.com/JonasWeigert/PostPilot/internal/pkg/usercontext"
)

// postRequest is the JSON body for creating and updating posts.
type postRequest struct {
	Title            string `json:"title"`
	LinkedInContent  string `json:"linkedin_content"`
	InstagramContent string `json:"instagram_content"`
	TwitterContent   string `json:"twitter_content"`
	MediaHandle      string `json:"media_handle"`
}

// PublishController manages posts and drives the publish orchestration.
type PublishController struct {
	publisher *socialpub.Publisher
}

func NewPublishController(publisher *socialpub.Publisher) *PublishController {
	return &PublishController{publisher: publisher}
}

// HandlePostsPage renders the post overview.
func (pc *PublishController) HandlePostsPage(c *fiber.Ctx) error {
	userID := usercontext.GetPublicID(c)
	posts, err := repository.GetGlobalFactory().GetPostRepository().GetByUserID(userID, 0, 50)
	if err != nil {
		log.Errorf("listing posts for user %s: %v", userID, err)
		posts = nil
	}

	return c.Render("posts", fiber.Map{
		"Title":    "Posts",
		"Username": ExtractUsername(c),
		"Posts":    posts,
	}, "layouts/main")
}

// HandlePostList returns the caller's posts.
func (pc *PublishController) HandlePostList(c *fiber.Ctx) error {
	userID := usercontext.GetPublicID(c)
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)

	posts, err := repository.GetGlobalFactory().GetPostRepository().GetByUserID(userID, offset, limit)
	if err != nil {
		log.Errorf("listing posts for user %s: %v", userID, err)
		return serverError(c, "could not list posts")
	}
	return c.JSON(fiber.Map{"success": true, "posts": posts})
}

// HandlePostCreate stores a new publish unit.
func (pc *PublishController) HandlePostCreate(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.LinkedInContent == "" && req.InstagramContent == "" && req.TwitterContent == "" {
		return badRequest(c, "at least one platform needs content")
	}

	post := &models.Post{
		UserID:           usercontext.GetPublicID(c),
		Title:            req.Title,
		LinkedInContent:  req.LinkedInContent,
		InstagramContent: req.InstagramContent,
		TwitterContent:   req.TwitterContent,
		MediaHandle:      req.MediaHandle,
	}
	if err := repository.GetGlobalFactory().GetPostRepository().Create(post); err != nil {
		log.Errorf("creating post: %v", err)
		return serverError(c, "could not create post")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "post": post})
}

// HandlePostGet returns one post.
func (pc *PublishController) HandlePostGet(c *fiber.Ctx) error {
	post, err := pc.ownedPost(c)
	if post == nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "post": post})
}

// HandlePostUpdate edits an existing post's content.
func (pc *PublishController) HandlePostUpdate(c *fiber.Ctx) error {
	post, err := pc.ownedPost(c)
	if post == nil {
		return err
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	post.Title = req.Title
	post.LinkedInContent = req.LinkedInContent
	post.InstagramContent = req.InstagramContent
	post.TwitterContent = req.TwitterContent
	post.MediaHandle = req.MediaHandle

	if err := repository.GetGlobalFactory().GetPostRepository().Update(post); err != nil {
		log.Errorf("updating post %d: %v", post.ID, err)
		return serverError(c, "could not update post")
	}
	return c.JSON(fiber.Map{"success": true, "post": post})
}

// HandlePublish fans the post out to every platform with content that has
// not been published yet. The summary reports per-platform outcomes; partial
// failure is a normal result, not an HTTP error.
func (pc *PublishController) HandlePublish(c *fiber.Ctx) error {
	post, err := pc.ownedPost(c)
	if post == nil {
		return err
	}
	userID := usercontext.GetPublicID(c)

	contentMap := publishableContent(post, pc.publisher.Enabled)
	summary := pc.publisher.ForUser(userID).Publish(c.Context(), contentMap, post.MediaHandle)
	pc.recordResults(post, summary.Results)

	return c.JSON(fiber.Map{"success": true, "summary": summary})
}

// HandleRepublish re-invokes a single platform's adapter with the post's
// current content, bypassing the already-published short-circuit.
func (pc *PublishController) HandleRepublish(c *fiber.Ctx) error {
	post, err := pc.ownedPost(c)
	if post == nil {
		return err
	}
	platform, perr := models.ParsePlatform(c.Params("platform"))
	if perr != nil {
		return badRequest(c, perr.Error())
	}
	if !pc.publisher.Enabled(platform) {
		return badRequest(c, "platform is disabled")
	}
	content := post.ContentFor(platform)
	if content == "" {
		return badRequest(c, "post has no content for this platform")
	}
	userID := usercontext.GetPublicID(c)

	result := pc.publisher.ForUser(userID).PublishOne(c.Context(), platform, content, post.MediaHandle)
	pc.recordResults(post, []socialpub.Result{result})

	return c.JSON(fiber.Map{"success": true, "result": result})
}

// recordResults updates published flags and counters from per-platform
// outcomes. Metric writes are best effort.
func (pc *PublishController) recordResults(post *models.Post, results []socialpub.Result) {
	repo := repository.GetGlobalFactory().GetPostRepository()

	anySuccess := false
	for _, r := range results {
		if err := counter.AddPublishResult(r.Platform, r.Success); err != nil {
			log.Warnf("publish counter: %v", err)
		}
		if !r.Success {
			continue
		}
		anySuccess = true
		if err := repo.MarkPublished(post.ID, r.Platform, true); err != nil {
			log.Errorf("marking post %d published on %s: %v", post.ID, r.Platform, err)
		}
	}

	if anySuccess {
		if err := counter.AddPostPublish(post.ID); err != nil {
			log.Warnf("post publish counter: %v", err)
		}
		if post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
			if err := repo.Update(post); err != nil {
				log.Warnf("setting published_at on post %d: %v", post.ID, err)
			}
		}
	}
}

// publishableContent collects the post's pending content per platform. A
// platform whose generation toggle is disabled never enters the map, even
// when the post still carries content for it.
func publishableContent(post *models.Post, enabled func(models.Platform) bool) socialpub.ContentMap {
	contentMap := socialpub.ContentMap{}
	for _, platform := range models.AllPlatforms() {
		if !enabled(platform) || post.PublishedOn(platform) {
			continue
		}
		if content := post.ContentFor(platform); content != "" {
			contentMap[platform] = content
		}
	}
	return contentMap
}

// ownedPost loads the post from the :id param and enforces ownership. On
// failure the response has already been written.
func (pc *PublishController) ownedPost(c *fiber.Ctx) (*models.Post, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, badRequest(c, "invalid post id")
	}

	post, err := repository.GetGlobalFactory().GetPostRepository().GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "post not found",
		})
	}
	if err != nil {
		log.Errorf("loading post %d: %v", id, err)
		return nil, serverError(c, "could not load post")
	}
	if post.UserID != usercontext.GetPublicID(c) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "post not found",
		})
	}
	return post, nil
}
