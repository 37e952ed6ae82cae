package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bicho/application"
	"bicho/domain/entities"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

const defaultLedgerLimit = 50

type cancelResponse struct {
	WagerID  int64  `json:"wager_id"`
	Refunded bool   `json:"refunded"`
	Amount   string `json:"amount"`
}

type settleRequest struct {
	Date     string `json:"date"`
	Source   string `json:"source"`
	TimeSlot string `json:"time_slot"`
}

type balanceResponse struct {
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
}

type ledgerEntryResponse struct {
	ID             int64          `json:"id"`
	Amount         string         `json:"amount"`
	EntryType      string         `json:"entry_type"`
	RelatedType    string         `json:"related_type"`
	RelatedID      int64          `json:"related_id"`
	IdempotencyKey string         `json:"idempotency_key"`
	BalanceAfter   string         `json:"balance_after"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type ledgerResponse struct {
	AccountID int64                 `json:"account_id"`
	Entries   []ledgerEntryResponse `json:"entries"`
}

type wagerLedgerResponse struct {
	WagerID int64                 `json:"wager_id"`
	Entries []ledgerEntryResponse `json:"entries"`
}

type reconciliationResponse struct {
	AccountID int64  `json:"account_id"`
	Projected string `json:"projected"`
	Folded    string `json:"folded"`
	Drifted   bool   `json:"drifted"`
}

type groupResponse struct {
	Group   int      `json:"group"`
	Animal  string   `json:"animal"`
	Endings []string `json:"endings"`
}

func newLedgerEntryResponses(entries []*entities.LedgerEntry) []ledgerEntryResponse {
	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerEntryResponse{
			ID:             e.ID,
			Amount:         e.Amount.String(),
			EntryType:      string(e.EntryType),
			RelatedType:    string(e.RelatedType),
			RelatedID:      e.RelatedID,
			IdempotencyKey: e.IdempotencyKey,
			BalanceAfter:   e.BalanceAfter.String(),
			Metadata:       e.Metadata,
			CreatedAt:      e.CreatedAt,
		})
	}
	return out
}

func (s *Server) cancelWager(w http.ResponseWriter, r *http.Request) {
	wagerID, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := s.canceller.Cancel(r.Context(), wagerID)
	if err != nil {
		code := application.CancellationResultCode(err)
		switch code {
		case application.CancelResultNotFound:
			writeError(w, http.StatusNotFound, code, "")
		case application.CancelResultInternalError:
			writeError(w, http.StatusInternalServerError, code, "")
		case application.CancelResultMisconfigured:
			writeError(w, http.StatusUnprocessableEntity, code, err.Error())
		default:
			writeError(w, http.StatusConflict, code, "")
		}
		return
	}

	writeJSON(w, http.StatusOK, cancelResponse{
		WagerID:  result.WagerID,
		Refunded: true,
		Amount:   result.Amount.String(),
	})
}

func (s *Server) settleSlot(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "body must be JSON")
		return
	}

	key, err := entities.NewSlotKey(req.Date, req.Source, req.TimeSlot)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	summary, err := s.settler.Settle(r.Context(), key)
	if err != nil {
		if errors.Is(err, entities.ErrResultNotAvailable) {
			writeError(w, http.StatusConflict, "result_not_available", "")
			return
		}
		log.WithError(err).WithField("slot", key.String()).Error("Settlement request failed")
		writeError(w, http.StatusInternalServerError, "error", "")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathID(w, r)
	if !ok {
		return
	}

	balance, err := s.balances.GetBalance(r.Context(), accountID)
	if err != nil {
		log.WithError(err).WithField("accountID", accountID).Error("Failed to read balance")
		writeError(w, http.StatusInternalServerError, "error", "")
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{AccountID: accountID, Balance: balance.String()})
}

func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathID(w, r)
	if !ok {
		return
	}

	limit := defaultLedgerLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.balances.GetLedger(r.Context(), accountID, limit)
	if err != nil {
		log.WithError(err).WithField("accountID", accountID).Error("Failed to read ledger")
		writeError(w, http.StatusInternalServerError, "error", "")
		return
	}

	writeJSON(w, http.StatusOK, ledgerResponse{AccountID: accountID, Entries: newLedgerEntryResponses(entries)})
}

func (s *Server) getWagerLedger(w http.ResponseWriter, r *http.Request) {
	wagerID, ok := pathID(w, r)
	if !ok {
		return
	}

	entries, err := s.balances.GetWagerEntries(r.Context(), wagerID)
	if err != nil {
		log.WithError(err).WithField("wagerID", wagerID).Error("Failed to read wager ledger")
		writeError(w, http.StatusInternalServerError, "error", "")
		return
	}

	writeJSON(w, http.StatusOK, wagerLedgerResponse{WagerID: wagerID, Entries: newLedgerEntryResponses(entries)})
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathID(w, r)
	if !ok {
		return
	}

	projected, folded, err := s.balances.Reconcile(r.Context(), accountID)
	if err != nil {
		log.WithError(err).WithField("accountID", accountID).Error("Failed to reconcile balance")
		writeError(w, http.StatusInternalServerError, "error", "")
		return
	}

	writeJSON(w, http.StatusOK, reconciliationResponse{
		AccountID: accountID,
		Projected: projected.String(),
		Folded:    folded.String(),
		Drifted:   projected != folded,
	})
}

// listGroups serves the animal table
func (s *Server) listGroups(w http.ResponseWriter, _ *http.Request) {
	groups := make([]groupResponse, 0, entities.GroupCount)
	for group := 1; group <= entities.GroupCount; group++ {
		endings, err := entities.GroupEndings(group)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "error", "")
			return
		}
		groups = append(groups, groupResponse{Group: group, Animal: entities.AnimalName(group), Endings: endings})
	}
	writeJSON(w, http.StatusOK, groups)
}

// pathID parses the {id} URL parameter, writing a 400 when it is not a positive integer
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
