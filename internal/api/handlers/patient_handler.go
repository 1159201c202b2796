package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
)

// PatientHandler handles patient-related HTTP requests
type PatientHandler struct {
	patientRepo repositories.PatientRepository
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientRepo repositories.PatientRepository) *PatientHandler {
	return &PatientHandler{
		patientRepo: patientRepo,
	}
}

type patientRequest struct {
	Name    string `json:"name" validate:"required"`
	Age     int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	Gender  string `json:"gender"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

// CreatePatient handles POST /api/patients
func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var payload patientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	patient := &entities.Patient{
		ID:        uuid.New().String(),
		Name:      payload.Name,
		Age:       payload.Age,
		Gender:    payload.Gender,
		Phone:     payload.Phone,
		Email:     payload.Email,
		Address:   payload.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.patientRepo.Create(r.Context(), patient); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, patient)
}

// GetPatient handles GET /api/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	patient, err := h.patientRepo.GetByID(r.Context(), patientID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, patient)
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	filter := repositories.PatientFilter{
		Name:   r.URL.Query().Get("name"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}

	patients, err := h.patientRepo.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// UpdatePatient handles PUT /api/patients/{id}
func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	var payload patientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	patient, err := h.patientRepo.GetByID(r.Context(), patientID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	patient.Name = payload.Name
	patient.Age = payload.Age
	patient.Gender = payload.Gender
	patient.Phone = payload.Phone
	patient.Email = payload.Email
	patient.Address = payload.Address
	patient.UpdatedAt = time.Now()

	if err := h.patientRepo.Update(r.Context(), patient); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, patient)
}

// DeletePatient handles DELETE /api/patients/{id}
func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	if err := h.patientRepo.Delete(r.Context(), patientID); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
