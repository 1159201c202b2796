package loaders

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
)

// Loaders batches patient and product lookups so reports spanning many bills
// resolve names in one round trip per batch window.
type Loaders struct {
	PatientLoader *dataloader.Loader[string, *entities.Patient]
	ProductLoader *dataloader.Loader[string, *entities.Product]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(patientRepo repositories.PatientRepository, productRepo repositories.ProductRepository) *Loaders {
	return &Loaders{
		PatientLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Patient] {
			results := make([]*dataloader.Result[*entities.Patient], len(keys))
			patients, err := patientRepo.GetByIDs(ctx, keys)

			patientMap := make(map[string]*entities.Patient)
			if err == nil {
				for _, p := range patients {
					patientMap[p.ID] = p
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Patient]{Error: err}
				} else if p, ok := patientMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Patient]{Data: p}
				} else {
					results[i] = &dataloader.Result[*entities.Patient]{Error: fmt.Errorf("patient %s not found", key)}
				}
			}
			return results
		}),
		ProductLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Product] {
			results := make([]*dataloader.Result[*entities.Product], len(keys))
			products, err := productRepo.GetByIDs(ctx, keys)

			productMap := make(map[string]*entities.Product)
			if err == nil {
				for _, p := range products {
					productMap[p.ID] = p
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Product]{Error: err}
				} else if p, ok := productMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Product]{Data: p}
				} else {
					results[i] = &dataloader.Result[*entities.Product]{Error: fmt.Errorf("product %s not found", key)}
				}
			}
			return results
		}),
	}
}

// PatientNames resolves patient display names for a set of IDs, returning
// "N/A" for IDs that do not resolve.
func (l *Loaders) PatientNames(ctx context.Context, ids []string) map[string]string {
	thunks := make(map[string]func() (*entities.Patient, error), len(ids))
	for _, id := range ids {
		if _, ok := thunks[id]; !ok {
			thunks[id] = l.PatientLoader.Load(ctx, id)
		}
	}

	names := make(map[string]string, len(thunks))
	for id, thunk := range thunks {
		patient, err := thunk()
		if err != nil {
			names[id] = "N/A"
			continue
		}
		names[id] = patient.DisplayName()
	}
	return names
}
