package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/pleaguefc/registration-api/internal/domain/team"
	"github.com/pleaguefc/registration-api/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	registrationService *usecase.RegistrationService
	paymentService      *usecase.PaymentService
	logger              *slog.Logger
	validator           *validator.Validate
}

func NewHandler(
	registrationService *usecase.RegistrationService,
	paymentService *usecase.PaymentService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		registrationService: registrationService,
		paymentService:      paymentService,
		logger:              logger,
		validator:           validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	TeamName   string `json:"teamName" validate:"required,min=1,max=80"`
	Phone      string `json:"phone" validate:"required,len=10,numeric"`
	NumPlayers int    `json:"numPlayers" validate:"required,min=7,max=11"`
}

type teamDTO struct {
	ID            string `json:"id"`
	TeamName      string `json:"teamName"`
	Phone         string `json:"phone,omitempty"`
	NumPlayers    int    `json:"numPlayers"`
	PaymentStatus string `json:"paymentStatus"`
	UniqueCode    string `json:"uniqueCode"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

type registerResponse struct {
	OK   bool    `json:"ok"`
	Team teamDTO `json:"team"`
}

// listTeamDTO is the public roster projection. Phone numbers, ids and
// unique codes never appear on the unauthenticated list.
type listTeamDTO struct {
	TeamName      string `json:"teamName"`
	PaymentStatus string `json:"paymentStatus"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

type listTeamsResponse struct {
	OK    bool          `json:"ok"`
	Teams []listTeamDTO `json:"teams"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Register")
	defer span.End()

	var req registerRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.registrationService.Register(ctx, usecase.RegisterTeamInput{
		TeamName:   req.TeamName,
		Phone:      req.Phone,
		NumPlayers: req.NumPlayers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register team failed", "team_name", req.TeamName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, registerResponse{
		OK:   true,
		Team: teamToDTO(created),
	})
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	items, err := h.registrationService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	teams := make([]listTeamDTO, 0, len(items))
	for _, item := range items {
		teams = append(teams, listTeamDTO{
			TeamName:      item.Name,
			PaymentStatus: string(item.PaymentStatus),
			CreatedAt:     formatCreatedAt(item.CreatedAt),
		})
	}

	writeJSON(ctx, w, http.StatusOK, listTeamsResponse{
		OK:    true,
		Teams: teams,
	})
}

type renameRequest struct {
	OldName string `json:"oldName" validate:"required,min=1,max=80"`
	NewName string `json:"newName" validate:"required,min=1,max=80"`
}

func (h *Handler) RenameTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RenameTeam")
	defer span.End()

	var req renameRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	renamed, err := h.registrationService.Rename(ctx, usecase.RenameTeamInput{
		OldName: req.OldName,
		NewName: req.NewName,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "rename team failed", "old_name", req.OldName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, registerResponse{
		OK:   true,
		Team: teamToDTO(renamed),
	})
}

func (h *Handler) decodeJSON(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func teamToDTO(item team.Team) teamDTO {
	return teamDTO{
		ID:            item.ID,
		TeamName:      item.Name,
		Phone:         item.Phone,
		NumPlayers:    item.NumPlayers,
		PaymentStatus: string(item.PaymentStatus),
		UniqueCode:    item.UniqueCode,
		CreatedAt:     formatCreatedAt(item.CreatedAt),
	}
}

func formatCreatedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
