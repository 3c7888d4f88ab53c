package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobhubhq/jobhub/internal/auth"
	"github.com/jobhubhq/jobhub/internal/cache"
	"github.com/jobhubhq/jobhub/internal/config"
	"github.com/jobhubhq/jobhub/internal/domain/job"
	"github.com/jobhubhq/jobhub/internal/domain/user"
	"github.com/jobhubhq/jobhub/internal/http/middlewares"
	"github.com/jobhubhq/jobhub/internal/jobs"
	"github.com/jobhubhq/jobhub/internal/repo/mongodb"
	"github.com/jobhubhq/jobhub/internal/security"
	"github.com/jobhubhq/jobhub/internal/upload"
)

type UsersRepo interface {
	Create(ctx context.Context, p user.CreateParams) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, p user.UpdateParams) (user.User, error)
}

type JobsEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type SessionIssuer interface {
	GenerateSessionToken(userID, email, role string) (string, time.Time, error)
	SessionTTL() time.Duration
}

// SessionRevoker is optional; when nil, logout only clears the cookie and
// the token simply ages out.
type SessionRevoker interface {
	VerifySessionToken(token string) (*auth.Claims, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
}

type UsersHandler struct {
	repo         UsersRepo
	queue        JobsEnqueuer
	sessions     SessionIssuer
	revoker      SessionRevoker
	profileCache *cache.Cache[user.User]
	cookieSecure bool
}

func NewUsersHandler(
	repo UsersRepo,
	queue JobsEnqueuer,
	sessions SessionIssuer,
	revoker SessionRevoker,
	profileCache *cache.Cache[user.User],
	cookieSecure bool,
) *UsersHandler {
	return &UsersHandler{
		repo:         repo,
		queue:        queue,
		sessions:     sessions,
		revoker:      revoker,
		profileCache: profileCache,
		cookieSecure: cookieSecure,
	}
}

type RegisterRequest struct {
	FullName string `form:"fullName" json:"fullName" binding:"required,min=2,max=100"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=6,max=72"`
	Role     string `form:"role" json:"role" binding:"required,oneof=student recruiter"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=student recruiter admin"`
}

// POST /api/v1/user/register (multipart; optional resume under "file")
func (h *UsersHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindForm(ctx, &req) {
		return
	}

	// the resume is only written once the form has validated
	stored, hasFile, err := upload.SaveFromContext(ctx)

	if err != nil {
		respondStorageFailure(ctx)
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	params := user.CreateParams{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         user.Role(req.Role),
	}

	if hasFile {
		params.Resume = stored.Ref
		params.ResumeOriginalName = stored.OriginalName
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.repo.Create(cctx, params)

	if err != nil {
		if errors.Is(err, mongodb.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "account_exists", "An account with this email already exists")
			return
		}

		RespondInternal(ctx, "Could not create account")
		return
	}

	h.enqueueWelcomeEmail(ctx, u)

	if hasFile {
		h.enqueueResumeParse(ctx, u.ID, stored)
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Account created successfully",
		"user":    u,
	})
}

// POST /api/v1/user/login
func (h *UsersHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.repo.GetByEmail(cctx, email)

	// Unknown email, bad password and role mismatch all collapse into the
	// same response so callers cannot tell which part was wrong.
	if err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			respondInvalidCredentials(ctx)
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		respondInvalidCredentials(ctx)
		return
	}

	if req.Role != string(u.Role) {
		respondInvalidCredentials(ctx)
		return
	}

	raw, _, err := h.sessions.GenerateSessionToken(u.ID, u.Email, string(u.Role))

	if err != nil {
		RespondInternal(ctx, "Could not log in")
		return
	}

	h.setSessionCookie(ctx, raw, int(h.sessions.SessionTTL().Seconds()))

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Welcome back " + u.FullName,
		"user":    u,
	})
}

// GET /api/v1/user/logout (behind the auth guard)
//
// Revocation is best effort: a denylist hiccup still clears the cookie.
func (h *UsersHandler) Logout(ctx *gin.Context) {
	if h.revoker != nil {
		if raw, ok := middlewares.TokenFromContext(ctx); ok && raw != "" {
			if claims, err := h.revoker.VerifySessionToken(raw); err == nil {
				rctx, cancel := config.WithTimeout(time.Second)
				_ = h.revoker.Revoke(rctx, claims)
				cancel()
			}
		}
	}

	h.setSessionCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// GET /api/v1/user/profile
func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Please log in to continue")
		return
	}

	if h.profileCache != nil {
		if u, hit := h.profileCache.Get(userID); hit {
			ctx.JSON(http.StatusOK, gin.H{"success": true, "user": u})
			return
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.repo.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	if h.profileCache != nil {
		h.profileCache.Set(userID, u)
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

// PUT /api/v1/user/profile (multipart; optional resume under "file")
func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Please log in to continue")
		return
	}

	params, fieldErrs := updateParamsFromForm(ctx)

	if len(fieldErrs) > 0 {
		RespondValidation(ctx, gin.H{"fields": fieldErrs})
		return
	}

	stored, hasFile, err := upload.SaveFromContext(ctx)

	if err != nil {
		respondStorageFailure(ctx)
		return
	}

	if hasFile {
		params.Resume = &stored.Ref
		params.ResumeOriginalName = &stored.OriginalName
	}

	if params.Empty() {
		RespondBadRequest(ctx, "Nothing to update", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.repo.UpdateProfile(cctx, userID, params)

	if err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not update profile")
		return
	}

	if h.profileCache != nil {
		h.profileCache.Delete(userID)
	}

	if hasFile {
		h.enqueueResumeParse(ctx, userID, stored)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"user":    u,
	})
}

func respondInvalidCredentials(ctx *gin.Context) {
	RespondUnauthorized(ctx, "invalid_credentials", "Incorrect email or password")
}

// an unwritable upload destination fails the request before any record write
func respondStorageFailure(ctx *gin.Context) {
	RespondError(ctx, http.StatusInternalServerError, "storage_failure", "Could not store uploaded file", nil)
}

func (h *UsersHandler) setSessionCookie(ctx *gin.Context, value string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.SessionCookieName, value, maxAge, "/", "", h.cookieSecure, true)
}

// updateParamsFromForm maps only the fields the client actually sent;
// absent keys must leave the stored values alone.
func updateParamsFromForm(ctx *gin.Context) (user.UpdateParams, []FieldError) {
	var params user.UpdateParams
	var fieldErrs []FieldError

	if v, ok := ctx.GetPostForm("fullName"); ok {
		v = strings.TrimSpace(v)

		if len(v) < 2 || len(v) > 100 {
			fieldErrs = append(fieldErrs, FieldError{
				Field: "fullName", Rule: "min", Param: "2", Message: validationMessage("min", "2"),
			})
		} else {
			params.FullName = &v
		}
	}

	if v, ok := ctx.GetPostForm("bio"); ok {
		v = strings.TrimSpace(v)

		if len(v) > 500 {
			fieldErrs = append(fieldErrs, FieldError{
				Field: "bio", Rule: "max", Param: "500", Message: validationMessage("max", "500"),
			})
		} else {
			params.Bio = &v
		}
	}

	if v, ok := ctx.GetPostForm("phoneNumber"); ok {
		v = strings.TrimSpace(v)
		params.PhoneNumber = &v
	}

	if v, ok := ctx.GetPostForm("photo"); ok {
		v = strings.TrimSpace(v)
		params.Photo = &v
	}

	if v, ok := ctx.GetPostForm("skills"); ok {
		params.Skills = splitSkills(v)
	}

	return params, fieldErrs
}

// splitSkills turns "Go, Python, Docker" into a trimmed list. An explicit
// empty value clears the stored skills.
func splitSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func (h *UsersHandler) enqueueWelcomeEmail(ctx *gin.Context, u user.User) {
	payload, err := jobs.EncodePayload(jobs.JobSendWelcomeEmail, jobs.SendWelcomeEmailPayload{
		UserID:   u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     string(u.Role),
	})

	if err != nil {
		return
	}

	h.enqueue(ctx, string(jobs.JobSendWelcomeEmail), payload)
}

func (h *UsersHandler) enqueueResumeParse(ctx *gin.Context, userID string, stored upload.StoredFile) {
	payload, err := jobs.EncodePayload(jobs.JobParseResume, jobs.ParseResumePayload{
		UserID:       userID,
		Resume:       stored.Ref,
		OriginalName: stored.OriginalName,
		RequestID:    requestIDFrom(ctx),
	})

	if err != nil {
		return
	}

	h.enqueue(ctx, string(jobs.JobParseResume), payload)
}

// enqueue is fire and forget from the request's point of view: the account
// write already committed, so a queue hiccup must not fail the response.
func (h *UsersHandler) enqueue(ctx *gin.Context, jobType string, payload []byte) {
	if h.queue == nil {
		return
	}

	qctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	j, err := h.queue.Create(qctx, job.CreateRequest{
		Type:    jobType,
		Payload: payload,
	})

	if err != nil {
		return
	}

	ctx.Set(middlewares.CtxJobID, j.ID)
}
