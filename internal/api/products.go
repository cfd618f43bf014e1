package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sailcare/clinic-api/internal/inventory"
)

func searchProductsHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.Search(r.Context(), inventory.Query{
			Name:         strings.TrimSpace(q.Get("name")),
			Manufacturer: strings.TrimSpace(q.Get("manufacturer")),
			SupplyType:   strings.TrimSpace(q.Get("supply_type")),
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func productSummaryHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context())
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func addProductHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req inventory.Input
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.Add(r.Context(), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func getProductHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updateProductHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req inventory.Patch
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func deleteProductHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
