package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"blog-api/internal/auth"
	"blog-api/internal/domain"
	"blog-api/internal/sanitize"
	"blog-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	posts  service.PostService
	users  service.UserService
	tokens *auth.Manager
	logger *logrus.Logger
}

func NewHandler(posts service.PostService, users service.UserService, tokens *auth.Manager, logger *logrus.Logger) *Handler {
	return &Handler{
		posts:  posts,
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/posts", h.listPosts)
		api.GET("/posts/:slug", h.getPost)
		// the comment routes address posts by id; gin allows a single
		// param name per segment position, so these read it from :slug
		api.GET("/posts/:slug/comments", h.listComments)
		api.POST("/posts/:id/comments", h.createComment)

		api.POST("/posts", h.requireAuth(), h.createPost)
		api.PATCH("/posts/edit/:slug", h.requireAuth(), h.updatePost)
		api.DELETE("/posts/:id", h.requireAuth(), h.deletePost)
		api.DELETE("/posts/:id/comments/:commentId", h.requireAuth(), h.deleteComment)

		api.GET("/admin/login", h.loginPage)
		api.POST("/admin/login", h.login)
		api.POST("/admin/signup", h.signup)

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type postRequest struct {
	Title string `json:"title" binding:"required"`
	Text  string `json:"text" binding:"required"`
}

type commentRequest struct {
	Username string `json:"username"`
	Text     string `json:"text" binding:"required,max=200"`
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPost(c *gin.Context) {
	post, err := h.posts.GetPost(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":         postToResponse(*post),
		"decodedTitle": sanitize.Decode(post.Title),
		"decodedText":  sanitize.Decode(post.Text),
	})
}

func (h *Handler) createPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": bindingErrors(err)})
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), req.Title, req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) updatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": bindingErrors(err)})
		return
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), c.Param("slug"), req.Title, req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post updated",
		"updated": postToResponse(*post),
	})
}

func (h *Handler) deletePost(c *gin.Context) {
	if err := h.posts.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

func (h *Handler) listComments(c *gin.Context) {
	comments, err := h.posts.ListComments(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]CommentResponse, len(comments))
	for i := range comments {
		resp[i] = commentToResponse(comments[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": bindingErrors(err)})
		return
	}

	comment, err := h.posts.CreateComment(c.Request.Context(), c.Param("id"), req.Username, req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment posted",
		"comment": commentToResponse(*comment),
	})
}

func (h *Handler) deleteComment(c *gin.Context) {
	if err := h.posts.DeleteComment(c.Request.Context(), c.Param("commentId")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

func (h *Handler) loginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Login"})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": bindingErrors(err)})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "User authenticated",
		"username": user.Username,
		"token":    token,
	})
}

func (h *Handler) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": bindingErrors(err)})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "User created",
		"username": user.Username,
	})
}

// respondError maps service errors onto HTTP statuses: validation
// failures become a 400 error list, auth failures 401, missing entities
// 404, slug/username collisions 409 and anything else a 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	if verr, ok := service.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Messages})
		return
	}

	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrSlugTaken), errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func bindingErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return msgs
}

type PostResponse struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Text       string            `json:"text"`
	Image      string            `json:"image,omitempty"`
	Slug       string            `json:"slug"`
	Timestamp  string            `json:"timestamp"`
	LastUpdate string            `json:"lastUpdate,omitempty"`
	Comments   []CommentResponse `json:"comments"`
}

type CommentResponse struct {
	ID        string `json:"id"`
	PostID    string `json:"post"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func postToResponse(post domain.Post) PostResponse {
	resp := PostResponse{
		ID:         post.ID,
		Title:      post.Title,
		Text:       post.Text,
		Image:      post.Image,
		Slug:       post.Slug,
		Timestamp:  post.Timestamp,
		LastUpdate: post.LastUpdate,
		Comments:   make([]CommentResponse, len(post.Comments)),
	}
	for i := range post.Comments {
		resp.Comments[i] = commentToResponse(post.Comments[i])
	}
	return resp
}

func commentToResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Username:  comment.Username,
		Text:      comment.Text,
		Timestamp: comment.Timestamp,
	}
}
