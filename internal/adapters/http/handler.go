package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Samuel871933/buylav2-sub001/internal/application"
	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
	"github.com/Samuel871933/buylav2-sub001/internal/domain"
)

const visitorCookieName = "buyla_vid"

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

// redirect is the public entry point behind every shared link: it tracks
// the click against the visitor cookie and bounces the browser to the
// resolved affiliate URL.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.TrackClick(r.Context(), application.TrackClickInput{
		VisitorID:     cookieValue(r, visitorCookieName),
		AmbassadorRef: strings.TrimSpace(r.URL.Query().Get("ref")),
		ProgramID:     chi.URLParam(r, "program_id"),
		ProductURL:    strings.TrimSpace(r.URL.Query().Get("url")),
	})
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    out.VisitorID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(domain.VisitorIDTTL / time.Second),
	})
	http.Redirect(w, r, out.RedirectURL, http.StatusFound)
}

func (h *Handler) recordVisit(w http.ResponseWriter, r *http.Request) {
	var req contracts.RecordVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = cookieValue(r, visitorCookieName)
	}
	out, err := h.service.RecordVisit(r.Context(), application.RecordVisitInput{
		VisitorID:     visitorID,
		AmbassadorRef: req.AmbassadorRef,
	})
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    out.VisitorID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(domain.VisitorIDTTL / time.Second),
	})
	writeSuccess(w, http.StatusOK, contracts.RecordVisitResponse{VisitorID: out.VisitorID})
}

func (h *Handler) getAttribution(w http.ResponseWriter, r *http.Request) {
	visitorID := chi.URLParam(r, "visitor_id")
	ref, err := h.service.GetAttribution(r.Context(), visitorID)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, contracts.AttributionResponse{
		VisitorID:     strings.TrimSpace(visitorID),
		AmbassadorRef: ref,
	})
}

func (h *Handler) trackClick(w http.ResponseWriter, r *http.Request) {
	var req contracts.TrackClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	out, err := h.service.TrackClick(r.Context(), application.TrackClickInput{
		VisitorID:     req.VisitorID,
		AmbassadorRef: req.AmbassadorRef,
		ProgramID:     req.ProgramID,
		ProductURL:    req.ProductURL,
	})
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusCreated, contracts.TrackClickResponse{
		ClickID:     out.ClickID,
		RedirectURL: out.RedirectURL,
		SubIDSent:   out.SubIDSent,
	})
}

func (h *Handler) createConversion(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreateConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	row, err := h.service.CreateConversion(r.Context(), actorFromContext(r.Context()), application.CreateConversionInput{
		ProgramID:     req.ProgramID,
		OrderRef:      req.OrderRef,
		Amount:        req.Amount,
		Currency:      req.Currency,
		AmbassadorRef: req.AmbassadorRef,
		BuyerID:       req.BuyerID,
	})
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusCreated, toConversionResponse(row))
}

func (h *Handler) confirmConversion(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.ConfirmConversion(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "conversion_id"))
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, toConversionResponse(row))
}

func (h *Handler) payConversion(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.MarkConversionPaid(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "conversion_id"))
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, toConversionResponse(row))
}

func (h *Handler) cancelConversion(w http.ResponseWriter, r *http.Request) {
	var req contracts.CancelConversionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	row, err := h.service.CancelConversion(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "conversion_id"), req.Reason)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, toConversionResponse(row))
}

func (h *Handler) getConversion(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.GetConversion(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "conversion_id"))
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, toConversionResponse(row))
}

func (h *Handler) ambassadorTier(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.AmbassadorTier(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "ambassador_id"))
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, contracts.AmbassadorTierResponse{
		AmbassadorID:      out.AmbassadorID,
		Tier:              out.Tier,
		Rate:              out.Rate,
		ValidatedSales30d: out.ValidatedSales30d,
	})
}

func (h *Handler) cashbackBalance(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.CashbackBalance(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "buyer_id"))
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	entries := make([]contracts.CashbackEntry, 0, len(out.Entries))
	for _, entry := range out.Entries {
		entries = append(entries, contracts.CashbackEntry{
			EntryID:      entry.EntryID,
			ConversionID: entry.ConversionID,
			EntryType:    entry.EntryType,
			Amount:       entry.Amount,
			BalanceAfter: entry.BalanceAfter,
			CreatedAt:    entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeSuccess(w, http.StatusOK, contracts.CashbackBalanceResponse{
		BuyerID: out.BuyerID,
		Balance: out.Balance,
		Entries: entries,
	})
}

func (h *Handler) listPrograms(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListPrograms(r.Context())
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	items := make([]contracts.ProgramResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, contracts.ProgramResponse{
			ProgramID:         row.ProgramID,
			Name:              row.Name,
			Network:           row.Network,
			BuyerCashbackRate: row.BuyerCashbackRate,
			Active:            row.Active,
		})
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) recomputeTiers(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if actor.Role != "admin" {
		writeError(w, http.StatusForbidden, "forbidden", "admin role required")
		return
	}
	updated, err := h.service.RecomputeTiers(r.Context())
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, contracts.RecomputeTiersResponse{AmbassadorsUpdated: updated})
}

func toConversionResponse(row domain.Conversion) contracts.ConversionResponse {
	out := contracts.ConversionResponse{
		ConversionID:    row.ConversionID,
		ProgramID:       row.ProgramID,
		AmbassadorID:    row.AmbassadorID,
		BuyerID:         row.BuyerID,
		OrderRef:        row.OrderRef,
		Amount:          row.Amount,
		Currency:        row.Currency,
		CommissionTotal: row.CommissionTotal,
		AmbassadorShare: row.AmbassadorShare,
		SponsorL1Share:  row.SponsorL1Share,
		SponsorL2Share:  row.SponsorL2Share,
		BuyerShare:      row.BuyerShare,
		PlatformShare:   row.PlatformShare,
		Tier:            row.Tier,
		Status:          row.Status,
		NeedsReview:     row.NeedsReview,
		CancelReason:    row.CancelReason,
		CreatedAt:       row.CreatedAt.UTC().Format(time.RFC3339),
	}
	if row.ConfirmedAt != nil {
		out.ConfirmedAt = row.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	if row.PaidAt != nil {
		out.PaidAt = row.PaidAt.UTC().Format(time.RFC3339)
	}
	return out
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
