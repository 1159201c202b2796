package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/adapters/database"
	"github.com/aarogya/billing-backend/internal/adapters/search"
	"github.com/aarogya/billing-backend/internal/application/services"
	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/infrastructure/clients/postgres"
	"github.com/aarogya/billing-backend/internal/infrastructure/clients/typesense"
	"github.com/aarogya/billing-backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	var searchRepo *search.TypesenseAdapter
	if err == nil {
		searchRepo = search.NewTypesenseAdapter(tsClient)
		searchRepo.InitSchema(context.Background())
	}

	billRepo := database.NewBillAdapter(pgClient)
	receiptRepo := database.NewReceiptAdapter(pgClient)
	patientRepo := database.NewPatientAdapter(pgClient)
	productRepo := database.NewProductAdapter(pgClient)

	billingService := services.NewBillingService(billRepo, receiptRepo, patientRepo, productRepo, nil)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				receipts,
				bill_items,
				bills,
				products,
				patients
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed the service catalog
	products := []entities.Product{
		{ID: uuid.New().String(), Name: "General Consultation", Code: "OPD-001", Category: "OPD", Price: d("500"), IsActive: true},
		{ID: uuid.New().String(), Name: "Specialist Consultation", Code: "OPD-002", Category: "OPD", Price: d("1000"), IsActive: true},
		{ID: uuid.New().String(), Name: "Chest X-Ray", Code: "XR-001", Category: "Radiology", Price: d("200"), Tax: d("10"), IsActive: true},
		{ID: uuid.New().String(), Name: "MRI Scan (Brain)", Code: "MRI-001", Category: "Radiology", Price: d("6500"), Tax: d("325"), IsActive: true},
		{ID: uuid.New().String(), Name: "Complete Blood Count", Code: "LAB-001", Category: "Pathology", Price: d("350"), IsActive: true},
		{ID: uuid.New().String(), Name: "Lipid Profile", Code: "LAB-002", Category: "Pathology", Price: d("800"), IsActive: true},
		{ID: uuid.New().String(), Name: "Wound Dressing", Code: "PROC-001", Category: "Minor Procedures", Price: d("150"), IsActive: true},
		{ID: uuid.New().String(), Name: "General Ward (per day)", Code: "IPD-001", Category: "IPD", Price: d("2000"), IsActive: true},
	}

	for i := range products {
		products[i].CreatedAt = time.Now()
		products[i].UpdatedAt = time.Now()
		if err := productRepo.Create(ctx, &products[i]); err != nil {
			log.Printf("Failed to create product %s: %v", products[i].Name, err)
			continue
		}
		if searchRepo != nil {
			if err := searchRepo.Index(ctx, &products[i]); err != nil {
				log.Printf("Failed to index product %s: %v", products[i].Name, err)
			}
		}
	}
	log.Printf("Seeded %d products", len(products))

	// 2. Seed patients
	patients := []entities.Patient{
		{ID: uuid.New().String(), Name: "Asha Verma", Age: 34, Gender: "female", Phone: "9810000001", IsActive: true},
		{ID: uuid.New().String(), Name: "Rajesh Kumar", Age: 58, Gender: "male", Phone: "9810000002", IsActive: true},
		{ID: uuid.New().String(), Name: "Meena Pillai", Age: 45, Gender: "female", Phone: "9810000003", IsActive: true},
		{ID: uuid.New().String(), Name: "Arjun Shetty", Age: 27, Gender: "male", Phone: "9810000004", IsActive: true},
	}

	for i := range patients {
		patients[i].CreatedAt = time.Now()
		patients[i].UpdatedAt = time.Now()
		if err := patientRepo.Create(ctx, &patients[i]); err != nil {
			log.Printf("Failed to create patient %s: %v", patients[i].Name, err)
		}
	}
	log.Printf("Seeded %d patients", len(patients))

	// 3. Seed bills through the billing service so totals, statuses, and
	// audit receipts come out the same way the API produces them
	bills := []*entities.Bill{
		{
			PatientID:  patients[0].ID,
			DoctorName: "Dr. Nair",
			Items: []entities.BillingItem{
				{Code: "OPD-001", Quantity: 1},
				{Code: "LAB-001", Quantity: 1},
			},
			Payment:   entities.Payment{Method: entities.PaymentMethodCash, Paid: d("850")},
			CreatedBy: "seed",
		},
		{
			PatientID:  patients[1].ID,
			DoctorName: "Dr. Bose",
			Items: []entities.BillingItem{
				{Code: "MRI-001", Quantity: 1},
			},
			Discount:  entities.Discount{Type: entities.DiscountTypePercent, Value: d("10")},
			Payment:   entities.Payment{Method: entities.PaymentMethodUPI, Paid: d("3000")},
			CreatedBy: "seed",
		},
		{
			PatientID: patients[2].ID,
			Items: []entities.BillingItem{
				{Code: "IPD-001", Quantity: 3},
				{Code: "PROC-001", Quantity: 2},
			},
			Payment:   entities.Payment{Method: entities.PaymentMethodCard},
			CreatedBy: "seed",
		},
	}

	for _, bill := range bills {
		if err := billingService.CreateBill(ctx, bill); err != nil {
			log.Printf("Failed to create bill for patient %s: %v", bill.PatientID, err)
			continue
		}
		log.Printf("Created bill %s (%s)", bill.BillNumber, bill.Status)
	}

	log.Println("Seeding complete")
}

func d(value string) decimal.Decimal {
	dec, err := decimal.NewFromString(value)
	if err != nil {
		log.Fatalf("invalid decimal %q: %v", value, err)
	}
	return dec
}
