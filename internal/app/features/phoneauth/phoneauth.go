// internal/app/features/phoneauth/phoneauth.go
package phoneauth

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Phone: the digits-only phone number users sign in with

import (
	"context"
	"errors"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/kaziocha/internal/app/features/errors"
	"github.com/dalemusser/kaziocha/internal/app/store/ratelimit"
	userstore "github.com/dalemusser/kaziocha/internal/app/store/users"
	"github.com/dalemusser/kaziocha/internal/app/system/auth"
	"github.com/dalemusser/kaziocha/internal/app/system/authutil"
	"github.com/dalemusser/kaziocha/internal/app/system/inputval"
	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/dalemusser/kaziocha/internal/app/system/network"
	"github.com/dalemusser/kaziocha/internal/app/system/storegate"
	"github.com/dalemusser/kaziocha/internal/app/system/timeouts"
	"github.com/dalemusser/kaziocha/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Client-facing messages.
const (
	msgInvalidJSON    = "Invalid JSON payload"
	msgPhoneTaken     = "An account with this phone number already exists"
	msgNoAccount      = "Account not found. Please sign up first."
	msgBadPassword    = "Invalid password"
	msgUserNotFound   = "User not found"
	msgWrongCurrent   = "Current password is incorrect"
	msgPasswordUpdate = "Password updated successfully"
)

// TokenIssuer signs session tokens. *token.Manager satisfies it.
type TokenIssuer interface {
	Issue(userID, phone string) (string, error)
}

// Handler provides the phone/password auth endpoints.
type Handler struct {
	tokens TokenIssuer
	hasher authutil.Hasher
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
	limits ratelimit.Config // zero disables sign-in lockout
	now    func() time.Time
}

// NewHandler creates a new phone auth Handler.
func NewHandler(tokens TokenIssuer, hasher authutil.Hasher, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		tokens: tokens,
		hasher: hasher,
		errLog: errLog,
		logger: logger,
		now:    time.Now,
	}
}

// SetRateLimit enables lockout after repeated failed sign-ins per phone.
func (h *Handler) SetRateLimit(cfg ratelimit.Config) {
	h.limits = cfg
}

// Routes returns the /api/auth router. Profile and password changes need a
// bearer token; the store gate is applied by the caller.
func Routes(h *Handler, tp auth.TokenParser) http.Handler {
	r := chi.NewRouter()
	r.Post("/check-phone", h.CheckPhone)
	r.Post("/signup", h.Signup)
	r.Post("/signin", h.Signin)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireToken(tp, h.logger))
		r.Put("/profile", h.UpdateProfile)
		r.Put("/password", h.ChangePassword)
	})
	return r
}

func users(ctx context.Context) *userstore.Store {
	return userstore.New(storegate.Database(ctx))
}

// decodeValid decodes the body into in and validates it, writing a 400 on
// failure. It returns false if a response was written.
func decodeValid(w http.ResponseWriter, r *http.Request, in any) bool {
	if err := jsonutil.Decode(r, in); err != nil {
		jsonutil.BadRequest(w, msgInvalidJSON)
		return false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.First(), res.Fields())
		return false
	}
	return true
}

// CheckPhone handles POST /api/auth/check-phone.
func (h *Handler) CheckPhone(w http.ResponseWriter, r *http.Request) {
	var in checkPhoneInput
	if !decodeValid(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	exists, err := users(ctx).ExistsByPhone(ctx, in.Phone)
	if err != nil {
		h.errLog.Fail(w, r, "check phone failed", err)
		return
	}
	jsonutil.OK(w, map[string]any{"exists": exists})
}

// Signup handles POST /api/auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if !decodeValid(w, r, &in) {
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	store := users(ctx)

	exists, err := store.ExistsByPhone(ctx, in.Phone)
	if err != nil {
		h.errLog.Fail(w, r, "signup lookup failed", err)
		return
	}
	if exists {
		jsonutil.BadRequest(w, msgPhoneTaken)
		return
	}

	hash, err := h.hasher.Hash(in.Password)
	if err != nil {
		h.errLog.Log(r, "password hash failed", err)
		jsonutil.InternalError(w, errorsfeature.InternalMessage)
		return
	}

	now := h.now().UTC()
	u, err := store.Create(ctx, models.User{
		Name:           in.Name,
		Phone:          in.Phone,
		Location:       in.Location,
		PasswordHash:   hash,
		Role:           in.Role,
		Specialization: in.Specialization,
		JobType:        in.JobType,
		JoinDate:       now,
		LastLogin:      &now,
	})
	if errors.Is(err, userstore.ErrDuplicate) {
		jsonutil.BadRequest(w, msgPhoneTaken)
		return
	}
	if err != nil {
		h.errLog.Fail(w, r, "signup insert failed", err)
		return
	}

	h.logger.Info("user signed up", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	h.writeSession(w, r, http.StatusOK, &u)
}

// Signin handles POST /api/auth/signin.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var in signinInput
	if !decodeValid(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	store := users(ctx)

	key := ratelimit.PhoneKey(in.Phone)
	limiter := h.limiter(ctx)
	if limiter != nil {
		d, err := limiter.CheckAllowed(ctx, key)
		if err != nil {
			h.logger.Warn("rate limit check failed", zap.Error(err))
			storegate.Check(r.Context(), err)
		}
		if !d.Allowed {
			now := h.now()
			h.logger.Info("signin rate limited", zap.String("phone", in.Phone), zap.String("ip", network.ClientIP(r)))
			jsonutil.TooManyRequests(w, ratelimit.RetryAfter(d, now), ratelimit.LockoutMessage(d, now))
			return
		}
	}

	u, err := store.GetByPhone(ctx, in.Phone)
	if errors.Is(err, userstore.ErrNotFound) {
		h.recordFailure(ctx, r, limiter, key)
		jsonutil.BadRequest(w, msgNoAccount)
		return
	}
	if err != nil {
		h.errLog.Fail(w, r, "signin lookup failed", err)
		return
	}

	if !h.hasher.Check(in.Password, u.PasswordHash) {
		h.recordFailure(ctx, r, limiter, key)
		jsonutil.BadRequest(w, msgBadPassword)
		return
	}
	if limiter != nil {
		if err := limiter.ClearOnSuccess(ctx, key); err != nil {
			h.logger.Warn("rate limit clear failed", zap.Error(err))
			storegate.Check(r.Context(), err)
		}
	}

	now := h.now().UTC()
	if err := store.TouchLastLogin(ctx, u.ID, now); err != nil {
		// The sign-in itself succeeded; a stale lastLogin is not worth failing it.
		h.logger.Warn("update last login failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		storegate.Check(r.Context(), err)
	}
	u.LastLogin = &now

	h.writeSession(w, r, http.StatusOK, u)
}

// limiter returns the sign-in rate limiter, or nil when limiting is off.
func (h *Handler) limiter(ctx context.Context) *ratelimit.Store {
	if !h.limits.Enabled() {
		return nil
	}
	return ratelimit.New(storegate.Database(ctx), h.limits)
}

func (h *Handler) recordFailure(ctx context.Context, r *http.Request, limiter *ratelimit.Store, key string) {
	if limiter == nil {
		return
	}
	d, err := limiter.RecordFailure(ctx, key)
	if err != nil {
		h.logger.Warn("rate limit record failed", zap.Error(err))
		storegate.Check(r.Context(), err)
		return
	}
	if !d.Allowed {
		h.logger.Info("signin locked out",
			zap.String("key", key),
			zap.String("ip", network.ClientIP(r)),
			zap.Timep("locked_until", d.LockedUntil))
	}
}

// UpdateProfile handles PUT /api/auth/profile for the token's user.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	var in profileInput
	if !decodeValid(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := users(ctx).UpdateProfile(ctx, cu.UserID(), userstore.ProfileUpdate{
		Name:           in.Name,
		Location:       in.Location,
		Specialization: in.Specialization,
		JobType:        in.JobType,
	})
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.BadRequest(w, msgUserNotFound)
		return
	}
	if err != nil {
		h.errLog.Fail(w, r, "profile update failed", err)
		return
	}

	jsonutil.OK(w, userResponse{Success: true, User: u})
}

// ChangePassword handles PUT /api/auth/password for the token's user.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	var in passwordInput
	if !decodeValid(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	store := users(ctx)

	u, err := store.GetByID(ctx, cu.UserID())
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.BadRequest(w, msgUserNotFound)
		return
	}
	if err != nil {
		h.errLog.Fail(w, r, "password change lookup failed", err)
		return
	}

	if !h.hasher.Check(in.CurrentPassword, u.PasswordHash) {
		jsonutil.BadRequest(w, msgWrongCurrent)
		return
	}
	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	hash, err := h.hasher.Hash(in.NewPassword)
	if err != nil {
		h.errLog.Log(r, "password hash failed", err)
		jsonutil.InternalError(w, errorsfeature.InternalMessage)
		return
	}
	if err := store.UpdatePassword(ctx, u.ID, hash); err != nil {
		h.errLog.Fail(w, r, "password update failed", err)
		return
	}

	h.logger.Info("password changed", zap.String("user_id", u.ID.Hex()))
	jsonutil.OK(w, map[string]any{"success": true, "message": msgPasswordUpdate})
}

// writeSession issues a token for u and writes {success, token, user}.
func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, status int, u *models.User) {
	tok, err := h.tokens.Issue(u.ID.Hex(), u.Phone)
	if err != nil {
		h.errLog.Log(r, "token issue failed", err)
		jsonutil.InternalError(w, errorsfeature.InternalMessage)
		return
	}
	jsonutil.JSON(w, status, sessionResponse{Success: true, Token: tok, User: u})
}
