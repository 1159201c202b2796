package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	"github.com/aarogya/billing-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/aarogya/billing-backend/pkg/errors"
)

var patientColumns = []interface{}{
	"id", "name", "age", "gender", "phone", "email", "address",
	"is_active", "created_at", "updated_at",
}

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new patient
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	record := goqu.Record{
		"id":         patient.ID,
		"name":       patient.Name,
		"age":        patient.Age,
		"gender":     patient.Gender,
		"phone":      patient.Phone,
		"email":      patient.Email,
		"address":    patient.Address,
		"is_active":  patient.IsActive,
		"created_at": patient.CreatedAt,
		"updated_at": patient.UpdatedAt,
	}

	query, args, err := a.db.Insert("patients").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}

	return nil
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).From("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient, err := scanPatient(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	if err != nil {
		return nil, err
	}

	return patient, nil
}

// GetByIDs retrieves multiple patients by their IDs
func (a *PatientAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	if len(ids) == 0 {
		return []*entities.Patient{}, nil
	}

	query, args, err := a.db.Select(patientColumns...).From("patients").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryPatients(ctx, query, args)
}

// Update updates a patient
func (a *PatientAdapter) Update(ctx context.Context, patient *entities.Patient) error {
	patient.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":       patient.Name,
		"age":        patient.Age,
		"gender":     patient.Gender,
		"phone":      patient.Phone,
		"email":      patient.Email,
		"address":    patient.Address,
		"is_active":  patient.IsActive,
		"updated_at": patient.UpdatedAt,
	}

	query, args, err := a.db.Update("patients").
		Set(record).
		Where(goqu.Ex{"id": patient.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", patient.ID))
	}

	return nil
}

// Delete deactivates a patient (soft delete)
func (a *PatientAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Update("patients").
		Set(goqu.Record{"is_active": false, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}

	return nil
}

// List retrieves patients with filters
func (a *PatientAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	ds := a.db.Select(patientColumns...).From("patients")

	if filter.Name != "" {
		ds = ds.Where(goqu.C("name").ILike("%" + filter.Name + "%"))
	}

	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryPatients(ctx, query, args)
}

func (a *PatientAdapter) queryPatients(ctx context.Context, query string, args []interface{}) ([]*entities.Patient, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	var patients []*entities.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating patients", err)
	}

	return patients, nil
}

func scanPatient(row rowScanner) (*entities.Patient, error) {
	patient := &entities.Patient{}
	var phone, email, address sql.NullString

	err := row.Scan(
		&patient.ID,
		&patient.Name,
		&patient.Age,
		&patient.Gender,
		&phone,
		&email,
		&address,
		&patient.IsActive,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan patient", err)
	}

	patient.Phone = phone.String
	patient.Email = email.String
	patient.Address = address.String

	return patient, nil
}
