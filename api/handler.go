// Package api exposes the subledger engine over HTTP with gin.
//
// Mutating requests carry the acting identity and an ed25519 signature
// over the canonical message from package auth, hex encoded. The handler
// turns a verified signature into an auth.Signer and never trusts an
// identity it did not verify.
package api

import (
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/auth"
)

// Handler serves the subledger HTTP API.
type Handler struct {
	ledger   *subledger.Ledger
	logger   *slog.Logger
	validate *validator.Validate
	airdrop  bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithAirdrop exposes POST /accounts/:address/airdrop. Leave it off
// outside development networks.
func WithAirdrop(enabled bool) Option {
	return func(h *Handler) { h.airdrop = enabled }
}

// New creates a Handler for l.
func New(l *subledger.Ledger, opts ...Option) *Handler {
	h := &Handler{
		ledger:   l,
		logger:   slog.Default(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.health)

	r.POST("/plans", h.createPlan)
	r.GET("/plans/:address", h.getPlan)

	r.POST("/subscriptions", h.subscribe)
	r.GET("/subscriptions/:address", h.getSubscription)
	r.GET("/subscriptions/:address/active", h.checkSubscription)

	r.GET("/accounts/:address/balance", h.balance)
	if h.airdrop {
		r.POST("/accounts/:address/airdrop", h.airdropFunds)
	}
}

// Router returns a gin engine with the routes mounted under basePath.
func (h *Handler) Router(basePath string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	h.Register(r.Group(strings.TrimSuffix(basePath, "/")))
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		h.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

// ──────────────────────────────────────────────────
// Requests
// ──────────────────────────────────────────────────

// CreatePlanRequest is the body of POST /plans. Signature signs
// auth.CreatePlanMessage.
type CreatePlanRequest struct {
	Creator      string `json:"creator" validate:"required,hexadecimal,len=64"`
	PlanID       uint64 `json:"plan_id"`
	Name         string `json:"name"`
	Price        uint64 `json:"price"`
	DurationDays uint32 `json:"duration_days"`
	Signature    string `json:"signature" validate:"required,hexadecimal,len=128"`
}

// SubscribeRequest is the body of POST /subscriptions. Either Plan or
// PlanID with Creator names the plan. Signature signs
// auth.SubscribeMessage over the resolved plan address.
type SubscribeRequest struct {
	Subscriber string `json:"subscriber" validate:"required,hexadecimal,len=64"`
	Plan       string `json:"plan,omitempty" validate:"omitempty,hexadecimal,len=64"`
	PlanID     uint64 `json:"plan_id"`
	Creator    string `json:"creator" validate:"required,hexadecimal,len=64"`
	Signature  string `json:"signature" validate:"required,hexadecimal,len=128"`
}

// AirdropRequest is the body of POST /accounts/:address/airdrop.
type AirdropRequest struct {
	Amount uint64 `json:"amount"`
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		errorJSON(c, http.StatusBadRequest, CodeBadRequest, "malformed request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		errorJSON(c, http.StatusBadRequest, CodeBadRequest, validationMessage(err))
		return false
	}
	return true
}

func pathAddress(c *gin.Context) (account.Address, bool) {
	addr, err := account.Parse(c.Param("address"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return account.Zero, false
	}
	return addr, true
}

func parseField(c *gin.Context, field, raw string) (account.Address, bool) {
	addr, err := account.Parse(raw)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, CodeBadRequest, field+": "+err.Error())
		return account.Zero, false
	}
	return addr, true
}

// verify mints a Signer for identity from a hex signature over msg.
func verify(identity account.Address, msg []byte, sigHex string) (auth.Signer, error) {
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return auth.Signer{}, auth.ErrInvalidSignature
	}
	return auth.Verify(identity, msg, sig)
}

// ──────────────────────────────────────────────────
// Handlers
// ──────────────────────────────────────────────────

func (h *Handler) health(c *gin.Context) {
	if err := h.ledger.Store().Ping(c.Request.Context()); err != nil {
		errorJSON(c, http.StatusServiceUnavailable, CodeInternal, "store unavailable")
		return
	}
	successJSON(c, http.StatusOK, gin.H{"status": "ok", "now": h.ledger.Now()})
}

func (h *Handler) createPlan(c *gin.Context) {
	var req CreatePlanRequest
	if !h.bind(c, &req) {
		return
	}
	creator, ok := parseField(c, "creator", req.Creator)
	if !ok {
		return
	}

	msg := auth.CreatePlanMessage(creator, req.PlanID, req.Name, req.Price, req.DurationDays)
	signer, err := verify(creator, msg, req.Signature)
	if err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.ledger.CreatePlan(c.Request.Context(), signer, subledger.CreatePlanInput{
		PlanID:       req.PlanID,
		Name:         req.Name,
		Price:        req.Price,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	successJSON(c, http.StatusCreated, p)
}

func (h *Handler) getPlan(c *gin.Context) {
	addr, ok := pathAddress(c)
	if !ok {
		return
	}
	p, err := h.ledger.GetPlan(c.Request.Context(), addr)
	if err != nil {
		h.fail(c, err)
		return
	}
	successJSON(c, http.StatusOK, p)
}

func (h *Handler) subscribe(c *gin.Context) {
	var req SubscribeRequest
	if !h.bind(c, &req) {
		return
	}
	subscriber, ok := parseField(c, "subscriber", req.Subscriber)
	if !ok {
		return
	}
	in := subledger.SubscribeInput{PlanID: req.PlanID}
	if in.Creator, ok = parseField(c, "creator", req.Creator); !ok {
		return
	}
	if req.Plan != "" {
		if in.Plan, ok = parseField(c, "plan", req.Plan); !ok {
			return
		}
	}
	planAddr, err := in.ResolvePlan()
	if err != nil {
		h.fail(c, err)
		return
	}

	signer, err := verify(subscriber, auth.SubscribeMessage(subscriber, planAddr, in.Creator), req.Signature)
	if err != nil {
		h.fail(c, err)
		return
	}

	sub, err := h.ledger.Subscribe(c.Request.Context(), signer, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	successJSON(c, http.StatusCreated, sub)
}

func (h *Handler) getSubscription(c *gin.Context) {
	addr, ok := pathAddress(c)
	if !ok {
		return
	}
	sub, err := h.ledger.GetSubscription(c.Request.Context(), addr)
	if err != nil {
		h.fail(c, err)
		return
	}
	successJSON(c, http.StatusOK, gin.H{
		"subscription": sub,
		"active":       h.ledger.IsActive(sub),
	})
}

func (h *Handler) checkSubscription(c *gin.Context) {
	addr, ok := pathAddress(c)
	if !ok {
		return
	}
	active, err := h.ledger.CheckSubscription(c.Request.Context(), addr)
	if err != nil {
		h.fail(c, err)
		return
	}
	successJSON(c, http.StatusOK, gin.H{"address": addr, "active": active})
}

func (h *Handler) balance(c *gin.Context) {
	addr, ok := pathAddress(c)
	if !ok {
		return
	}
	bal, err := h.ledger.Balance(c.Request.Context(), addr)
	if err != nil {
		h.fail(c, err)
		return
	}
	successJSON(c, http.StatusOK, gin.H{"address": addr, "balance": bal})
}

func (h *Handler) airdropFunds(c *gin.Context) {
	addr, ok := pathAddress(c)
	if !ok {
		return
	}
	var req AirdropRequest
	if !h.bind(c, &req) {
		return
	}
	bal, err := h.ledger.Airdrop(c.Request.Context(), addr, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	successJSON(c, http.StatusOK, gin.H{"address": addr, "balance": bal})
}
