package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/Sketch/internal/adapters/signal"
	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/app/orch"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/gin-gonic/gin"
)

const requestTimeout = 15 * time.Second

type RoomHandlers struct {
	Orch    *orch.Orchestrator
	Invites *signal.RoomRateLimiter
}

type InviteRequest struct {
	Email string `json:"email"`
}

type ReportRequest struct {
	TargetUserID string `json:"targetUserId"`
	TargetName   string `json:"targetName" binding:"required,max=36"`
	Reason       string `json:"reason" binding:"max=280"`
}

type ReportResponse struct {
	Total int `json:"total"`
}

func healthz(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"rooms":    o.Rooms.Count(),
			"sessions": o.Sessions.Len(),
			"lobby":    o.Directory.Count(),
		})
	}
}

func (h *RoomHandlers) listRooms(c *gin.Context) {
	rooms := h.Orch.ListRooms()
	if rooms == nil {
		rooms = []domain.RoomSnapshot{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *RoomHandlers) getRoom(c *gin.Context) {
	snap, err := h.Orch.Room(c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *RoomHandlers) invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.NewFault(domain.KindValidation, "missing or invalid body"))
		return
	}
	if h.Invites != nil && !h.Invites.Allow(domain.UserID(c.GetString(clientTokenKey))) {
		c.JSON(http.StatusTooManyRequests, domain.Result{Kind: domain.KindResourceExhausted, Message: "too many invitations, try again later"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()
	res := h.Orch.Invite(ctx, c.Param("code"), req.Email)
	c.JSON(statusFor(res.Kind), res)
}

func (h *RoomHandlers) acceptInvitation(c *gin.Context) {
	claims, err := h.Orch.Invitations.ValidateInvitation(c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := h.Orch.Room(claims.RoomCode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": claims.Email, "room": snap})
}

func (h *RoomHandlers) report(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.NewFault(domain.KindValidation, "missing or invalid report"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()
	sid := app.SessionID(c.GetString(clientTokenKey))
	total, err := h.Orch.Report(ctx, sid, domain.UserID(req.TargetUserID), req.TargetName, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ReportResponse{Total: total})
}

func writeError(c *gin.Context, err error) {
	res := domain.ResultOf(err)
	c.JSON(statusFor(res.Kind), res)
}

func statusFor(kind domain.FaultKind) int {
	switch kind {
	case "":
		return http.StatusOK
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindRoomFull, domain.KindRoomStarted:
		return http.StatusConflict
	case domain.KindBanned, domain.KindUnauthorized:
		return http.StatusForbidden
	case domain.KindResourceExhausted:
		return http.StatusServiceUnavailable
	case domain.KindDeliveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
