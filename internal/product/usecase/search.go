package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-donation-service/internal/model"
)

const (
	IndexName     = "donation_products"
	maxSearchHits = 500
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"association_id": { "type": "keyword" },
			"category_id": { "type": "keyword" },
			"name": { "type": "text" },
			"description": { "type": "text" },
			"unit": { "type": "keyword" }
		}
	}
}`

type productDocument struct {
	ID            string `json:"id"`
	AssociationID string `json:"association_id"`
	CategoryID    string `json:"category_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Unit          string `json:"unit"`
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	if !uc.indexReady.Load() {
		if err := uc.es.CreateIndex(ctx, IndexName, indexMapping); err != nil {
			uc.logger.Error("failed to create product index", zap.Error(err))
			return
		}
		uc.indexReady.Store(true)
	}

	doc := productDocument{
		ID:            p.ID,
		AssociationID: p.AssociationID,
		CategoryID:    p.CategoryID,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
	}
	if err := uc.es.Index(ctx, IndexName, p.ID, doc); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) removeFromElastic(ctx context.Context, id string) {
	if uc.es == nil {
		return
	}
	if err := uc.es.Delete(ctx, IndexName, id); err != nil {
		uc.logger.Error("failed to delete product from ES", zap.String("product_id", id), zap.Error(err))
	}
}

// searchIDs returns the ids of the association's products matching text.
// The database applies ordering and pagination afterwards.
func (uc *productUseCase) searchIDs(ctx context.Context, associationID, text string) ([]string, error) {
	q := map[string]interface{}{
		"size":    maxSearchHits,
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":  text,
							"type":   "bool_prefix",
							"fields": []string{"name^3", "description"},
						},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"association_id": associationID}},
				},
			},
		},
	}

	res, err := uc.es.Search(ctx, IndexName, q)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
