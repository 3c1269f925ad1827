package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-session/internal/domain"
	"storefront-session/internal/pricing"
	"storefront-session/internal/session"
)

type sessionHandlers struct {
	deps   Deps
	logger *log.Logger
}

type totalsResponse struct {
	SubtotalCents      int64 `json:"subtotalCents"`
	DesignChargesCents int64 `json:"designChargesCents"`
	TotalCents         int64 `json:"totalCents"`
	ItemCount          int   `json:"itemCount"`
}

// sessionResponse is the state the frontend renders plus the effects it
// must apply (notices, navigation, cart panel visibility).
type sessionResponse struct {
	domain.Session
	Totals  totalsResponse  `json:"totals"`
	Effects session.Effects `json:"effects"`
}

func toResponse(st domain.Session, eff session.Effects) sessionResponse {
	return sessionResponse{
		Session: st,
		Totals: totalsResponse{
			SubtotalCents:      pricing.Subtotal(st.Cart),
			DesignChargesCents: pricing.DesignCharges(st.Cart),
			TotalCents:         pricing.Total(st.Cart),
			ItemCount:          pricing.TotalItemCount(st.Cart),
		},
		Effects: eff,
	}
}

func (h *sessionHandlers) create(c *gin.Context) {
	st := h.deps.Sessions.Create()
	c.JSON(http.StatusCreated, toResponse(st, session.Effects{}))
}

func (h *sessionHandlers) get(c *gin.Context) {
	st, err := h.deps.Sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(st, session.Effects{}))
}

type replaceCartRequest struct {
	Items domain.Cart `json:"items"`
}

func (h *sessionHandlers) replaceCart(c *gin.Context) {
	var req replaceCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid cart payload"})
		return
	}
	h.run(c, func(st *domain.Session) session.Effects {
		return h.deps.Ctrl.ReplaceCart(c.Request.Context(), st, req.Items)
	})
}

func (h *sessionHandlers) increment(c *gin.Context) {
	sku := c.Param("sku")
	h.run(c, func(st *domain.Session) session.Effects {
		return h.deps.Ctrl.Increment(c.Request.Context(), st, sku)
	})
}

func (h *sessionHandlers) decrement(c *gin.Context) {
	sku := c.Param("sku")
	h.run(c, func(st *domain.Session) session.Effects {
		return h.deps.Ctrl.Decrement(c.Request.Context(), st, sku)
	})
}

func (h *sessionHandlers) removeItem(c *gin.Context) {
	sku := c.Param("sku")
	h.run(c, func(st *domain.Session) session.Effects {
		return h.deps.Ctrl.RemoveItem(c.Request.Context(), st, sku)
	})
}

func (h *sessionHandlers) checkout(c *gin.Context) {
	var in session.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid checkout payload"})
		return
	}
	h.run(c, func(st *domain.Session) session.Effects {
		return h.deps.Ctrl.Checkout(c.Request.Context(), st, in)
	})
}

type stageRequest struct {
	Stage int `json:"stage" binding:"required,min=1,max=3"`
}

func (h *sessionHandlers) setStage(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "stage must be between 1 and 3"})
		return
	}
	h.run(c, func(st *domain.Session) session.Effects {
		return h.deps.Ctrl.SetStage(c.Request.Context(), st, req.Stage)
	})
}

type refreshRequest struct {
	View string `json:"view"`
}

func (h *sessionHandlers) refresh(c *gin.Context) {
	var req refreshRequest
	// an absent body means the main view
	_ = c.ShouldBindJSON(&req)
	onCheckout := req.View == "checkout"
	h.run(c, func(st *domain.Session) session.Effects {
		return h.deps.Ctrl.Refresh(c.Request.Context(), st, onCheckout)
	})
}

// run executes one serialized session operation, echoes effects to the
// server log, and renders the resulting state.
func (h *sessionHandlers) run(c *gin.Context, op func(*domain.Session) session.Effects) {
	st, eff, err := h.deps.Sessions.Run(c.Param("id"), op)
	if err != nil {
		h.fail(c, err)
		return
	}
	eff.Apply(logNotifier{h.logger, st.ID}, logNavigator{h.logger, st.ID})
	c.JSON(http.StatusOK, toResponse(st, eff))
}

func (h *sessionHandlers) fail(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "session not found"})
		return
	}
	h.logger.Printf("session handler: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
}

// logNotifier and logNavigator echo effects into the server log; the
// authoritative consumers are the frontend, via the response payload.
type logNotifier struct {
	logger    *log.Logger
	sessionID string
}

func (n logNotifier) Notify(kind, message string) {
	n.logger.Printf("session %s: notice %s: %s", n.sessionID, kind, message)
}

type logNavigator struct {
	logger    *log.Logger
	sessionID string
}

func (n logNavigator) GoTo(path string) {
	n.logger.Printf("session %s: navigate %s", n.sessionID, path)
}
