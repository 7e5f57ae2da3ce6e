package api

import (
	"encoding/json"
	"net/http"
)

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{
		"ready": a.ready(),
	})
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := a.orders.All()
	if err != nil {
		http.Error(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	if customer := r.URL.Query().Get("customer"); customer != "" {
		orders, err = a.orders.ByCustomer(customer)
		if err != nil {
			http.Error(w, "failed to list orders", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (a *API) handleListReferrals(w http.ResponseWriter, r *http.Request) {
	records, err := a.referrals.All()
	if err != nil {
		http.Error(w, "failed to list referrals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.catalog.Snapshot())
}
