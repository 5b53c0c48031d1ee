package httpapi

import (
	"net/http"
	"strings"

	"github.com/zidnyyasrah/point-of-sale/internal/domain"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := a.service.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.ItemCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := a.service.CreateItem(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	item, err := a.service.GetItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req domain.ItemUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := a.service.UpdateItem(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp, err := a.service.DeleteItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCommitTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.CommitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.CommitTransaction(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// dateRange reads date_from/date_to. A bare date= selects a single day.
func dateRange(r *http.Request) (string, string) {
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("date_from"))
	to := strings.TrimSpace(query.Get("date_to"))
	if from == "" && to == "" {
		from = strings.TrimSpace(query.Get("date"))
	}
	return from, to
}

func (a *API) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	transactions, err := a.service.ListTransactions(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (a *API) handleTransactionSummary(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	summary, err := a.service.SummarizeTransactions(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionId")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	receipt, err := a.service.GetReceipt(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (a *API) handleReceiptEscpos(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionId")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	payload, err := a.service.PrintReceipt(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
