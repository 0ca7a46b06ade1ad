package httpapi

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/tutor-platform/internal/export"
	"github.com/Spok95/tutor-platform/internal/wallet"
)

// amount указатель: отсутствие поля ловит валидатор, ноль отклоняет леджер.
type addPointsRequest struct {
	ID       int64    `json:"id" validate:"required,gt=0"`
	Amount   *float64 `json:"amount" validate:"required"`
	Category string   `json:"category" validate:"max=64"`
	Reason   string   `json:"reason" validate:"max=500"`
}

func (a *API) addPoints(w http.ResponseWriter, r *http.Request) {
	var req addPointsRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	acc, err := a.wallet.Adjust(r.Context(), wallet.AdjustRequest{
		OwnerID:  req.ID,
		Amount:   *req.Amount,
		Category: req.Category,
		Reason:   req.Reason,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWallet(acc))
}

type setMinimumRequest struct {
	ID         int64    `json:"id" validate:"required,gt=0"`
	MinBalance *float64 `json:"minBalance" validate:"required"`
}

func (a *API) setMinimum(w http.ResponseWriter, r *http.Request) {
	var req setMinimumRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	acc, err := a.wallet.SetMinimum(r.Context(), req.ID, *req.MinBalance)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWallet(acc))
}

func (a *API) getWallet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	acc, err := a.wallet.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWallet(acc))
}

func (a *API) walletHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	txs, err := a.wallet.History(r.Context(), id, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactions(txs))
}

const statementRows = 500

func (a *API) walletStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	owner, err := a.users.View(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	acc, err := a.wallet.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	txs, err := a.wallet.History(r.Context(), id, statementRows)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	f, err := export.WalletStatement(owner, acc, txs, a.loc)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()
	writeXLSX(w, export.WalletStatementFilename(owner.Name, a.now().In(a.loc)), f)
}

func writeXLSX(w http.ResponseWriter, filename string, f *excelize.File) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	w.WriteHeader(http.StatusOK)
	_ = f.Write(w)
}
