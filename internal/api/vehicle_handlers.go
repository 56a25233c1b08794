package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"autorent/internal/auth"
	"autorent/internal/db"
	"autorent/internal/entities"
	"autorent/internal/repository"
)

// VehicleCatalog is the catalog access the public listing and the admin fleet
// endpoint need.
type VehicleCatalog interface {
	ListVehicles() ([]db.Vehicle, error)
	GetVehicleByID(id string) (*db.Vehicle, error)
	SetAvailability(id string, available bool) error
}

type VehicleHandler struct {
	Catalog VehicleCatalog
}

func NewVehicleHandler(catalog VehicleCatalog) *VehicleHandler {
	return &VehicleHandler{Catalog: catalog}
}

func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Catalog.ListVehicles()
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]entities.VehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		out = append(out, vehicleResponse(&vehicles[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	vehicle, err := h.Catalog.GetVehicleByID(id)
	if err != nil {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, vehicleResponse(vehicle))
}

// SetAvailability takes a vehicle in or out of the bookable fleet. Admin only.
func (h *VehicleHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.Role != auth.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Catalog.SetAvailability(id, req.Available); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Availability updated"})
}

func vehicleResponse(v *db.Vehicle) entities.VehicleResponse {
	return entities.VehicleResponse{
		ID:             v.ID,
		Make:           v.Make,
		Model:          v.Model,
		Year:           v.Year,
		FuelType:       v.FuelType,
		Seats:          v.Seats,
		Transmission:   v.Transmission,
		Features:       v.Features,
		DailyRateMinor: v.DailyRateMinor,
		Currency:       v.Currency,
		PickupLocation: v.PickupLocation,
		Available:      v.Available,
	}
}
