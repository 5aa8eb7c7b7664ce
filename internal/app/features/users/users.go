// internal/app/features/users/users.go
package usersfeature

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/kaziocha/internal/app/features/errors"
	"github.com/dalemusser/kaziocha/internal/app/store/ratelimit"
	userstore "github.com/dalemusser/kaziocha/internal/app/store/users"
	"github.com/dalemusser/kaziocha/internal/app/system/authutil"
	"github.com/dalemusser/kaziocha/internal/app/system/inputval"
	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/dalemusser/kaziocha/internal/app/system/network"
	"github.com/dalemusser/kaziocha/internal/app/system/storegate"
	"github.com/dalemusser/kaziocha/internal/app/system/timeouts"
	"github.com/dalemusser/kaziocha/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgInvalidJSON   = "Invalid JSON payload"
	msgTaken         = "User with this email or phone already exists"
	msgBadLogin      = "Invalid email or password"
	msgRegistered    = "User registered successfully!"
	msgLoggedIn      = "Login successful!"
	msgUserIDMissing = "User ID is required"
	msgUserIDInvalid = "Invalid user ID"
	msgUserNotFound  = "User not found"
)

// TokenIssuer signs session tokens. *token.Manager satisfies it.
type TokenIssuer interface {
	Issue(userID, phone string) (string, error)
}

// Handler provides the email/password account endpoints used by the web client.
type Handler struct {
	tokens TokenIssuer
	hasher authutil.Hasher
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
	limits ratelimit.Config
}

func NewHandler(tokens TokenIssuer, hasher authutil.Hasher, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		tokens: tokens,
		hasher: hasher,
		errLog: errLog,
		logger: logger,
	}
}

// SetRateLimit enables lockout after repeated failed logins per email.
func (h *Handler) SetRateLimit(cfg ratelimit.Config) {
	h.limits = cfg
}

// Routes returns the /api/users router.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Get("/profile", h.Profile)
	return r
}

type registerInput struct {
	Name     string `json:"name" validate:"required,max=100" label:"Name"`
	Email    string `json:"email" validate:"required,email,max=254" label:"Email address"`
	Phone    string `json:"phone" validate:"required,phone" label:"Phone number"`
	Password string `json:"password" validate:"required" label:"Password"`
	Location string `json:"location" validate:"max=100" label:"Location"`
	Role     string `json:"role" validate:"role" label:"Role"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// account is the public view of a user returned by this feature.
type account struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Location  string     `json:"location"`
	Role      string     `json:"role"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func toAccount(u *models.User) account {
	a := account{
		ID:       u.ID.Hex(),
		Name:     u.Name,
		Phone:    u.Phone,
		Location: u.Location,
		Role:     u.Role,
	}
	if u.Email != nil {
		a.Email = *u.Email
	}
	return a
}

type sessionResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Token   string  `json:"token"`
	User    account `json:"user"`
}

// Register handles POST /api/users/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, msgInvalidJSON)
		return
	}
	if strings.TrimSpace(in.Role) == "" {
		in.Role = models.RoleEmployer
	}
	if res := inputval.Validate(&in); res.HasErrors() {
		jsonutil.ValidationError(w, res.First(), res.Fields())
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	store := userstore.New(storegate.Database(ctx))

	taken, err := store.ExistsByPhoneOrEmail(ctx, in.Phone, in.Email)
	if err != nil {
		h.errLog.Fail(w, r, "register lookup failed", err)
		return
	}
	if taken {
		jsonutil.BadRequest(w, msgTaken)
		return
	}

	hash, err := h.hasher.Hash(in.Password)
	if err != nil {
		h.errLog.Log(r, "password hash failed", err)
		jsonutil.InternalError(w, errorsfeature.InternalMessage)
		return
	}

	email := in.Email
	u, err := store.Create(ctx, models.User{
		Name:         in.Name,
		Email:        &email,
		Phone:        in.Phone,
		Location:     in.Location,
		PasswordHash: hash,
		Role:         in.Role,
	})
	if errors.Is(err, userstore.ErrDuplicate) {
		jsonutil.BadRequest(w, msgTaken)
		return
	}
	if err != nil {
		h.errLog.Fail(w, r, "register insert failed", err)
		return
	}

	h.logger.Info("user registered", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	h.writeSession(w, r, http.StatusCreated, msgRegistered, &u)
}

// Login handles POST /api/users/login. Unknown email and wrong password get
// the same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, msgInvalidJSON)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	db := storegate.Database(ctx)

	var limiter *ratelimit.Store
	key := ratelimit.EmailKey(in.Email)
	if h.limits.Enabled() {
		limiter = ratelimit.New(db, h.limits)
		d, err := limiter.CheckAllowed(ctx, key)
		if err != nil {
			h.warnStore(r, "rate limit check failed", err)
		}
		if !d.Allowed {
			now := time.Now()
			h.logger.Info("login rate limited", zap.String("key", key), zap.String("ip", network.ClientIP(r)))
			jsonutil.TooManyRequests(w, ratelimit.RetryAfter(d, now), ratelimit.LockoutMessage(d, now))
			return
		}
	}
	fail := func() {
		if limiter != nil {
			if _, err := limiter.RecordFailure(ctx, key); err != nil {
				h.warnStore(r, "rate limit record failed", err)
			}
		}
		jsonutil.Unauthorized(w, msgBadLogin)
	}

	u, err := userstore.New(db).GetByEmail(ctx, in.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		fail()
		return
	}
	if err != nil {
		h.errLog.Fail(w, r, "login lookup failed", err)
		return
	}
	if !h.hasher.Check(in.Password, u.PasswordHash) {
		fail()
		return
	}
	if limiter != nil {
		if err := limiter.ClearOnSuccess(ctx, key); err != nil {
			h.warnStore(r, "rate limit clear failed", err)
		}
	}

	h.writeSession(w, r, http.StatusOK, msgLoggedIn, u)
}

// Profile handles GET /api/users/profile?userId=.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	raw := query.Get(r, "userId")
	if raw == "" {
		jsonutil.BadRequest(w, msgUserIDMissing)
		return
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		jsonutil.BadRequest(w, msgUserIDInvalid)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := userstore.New(storegate.Database(ctx)).GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.NotFound(w, msgUserNotFound)
		return
	}
	if err != nil {
		h.errLog.Fail(w, r, "profile lookup failed", err)
		return
	}

	a := toAccount(u)
	a.CreatedAt = &u.CreatedAt
	jsonutil.OK(w, map[string]any{"success": true, "user": a})
}

// warnStore logs a store error that does not fail the request.
func (h *Handler) warnStore(r *http.Request, msg string, err error) {
	h.logger.Warn(msg, zap.Error(err))
	storegate.Check(r.Context(), err)
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, status int, msg string, u *models.User) {
	tok, err := h.tokens.Issue(u.ID.Hex(), u.Phone)
	if err != nil {
		h.errLog.Log(r, "token issue failed", err)
		jsonutil.InternalError(w, errorsfeature.InternalMessage)
		return
	}
	jsonutil.JSON(w, status, sessionResponse{
		Success: true,
		Message: msg,
		Token:   tok,
		User:    toAccount(u),
	})
}
