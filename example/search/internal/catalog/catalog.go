package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kroma-labs/sentinel-search/esclient"
)

// Product is the document stored in the catalog index.
type Product struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type indexResult struct {
	Result string `json:"result"`
}

type searchResult struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string  `json:"_id"`
			Source Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type countResult struct {
	Count int `json:"count"`
}

var indexProduct = esclient.NewKind("IndexProduct", http.MethodPut, "", esclient.DecodeJSON[indexResult]()).
	WithValidate(esclient.RequireFields("index", "type", "id", "body"))

var searchProducts = esclient.NewKind("SearchProducts", http.MethodPost, "_search", esclient.DecodeJSON[searchResult]()).
	WithValidate(esclient.ValidateRules(map[string]string{"size": "omitempty,min=1,max=100"}))

var countProducts = esclient.NewKind("CountProducts", http.MethodGet, "_count", esclient.DecodeJSON[countResult]())

// Catalog runs product operations against one index.
type Catalog struct {
	client  *esclient.Client
	index   string
	retries int
}

// New creates a Catalog on index.
func New(client *esclient.Client, index string, retries int) *Catalog {
	return &Catalog{client: client, index: index, retries: retries}
}

// IndexProducts stores products concurrently through the client's worker pool.
func (c *Catalog) IndexProducts(ctx context.Context, products []Product) error {
	futures := make([]*esclient.Future[*indexResult], 0, len(products))
	for _, p := range products {
		r := esclient.NewRequest(c.client, indexProduct).
			SetIndex(c.index).
			SetType("_doc").
			SetID(p.SKU).
			SetParam("refresh", "wait_for")
		if err := r.SetRetries(c.retries); err != nil {
			return err
		}
		if err := r.SetBodyMap(map[string]any{"sku": p.SKU, "name": p.Name, "price": p.Price}); err != nil {
			return err
		}
		futures = append(futures, r.ExecuteResult(ctx))
	}

	for i, f := range futures {
		if _, err := f.Wait(ctx); err != nil {
			return fmt.Errorf("index product %s: %w", products[i].SKU, err)
		}
	}
	return nil
}

// Search returns up to size products whose name matches query.
func (c *Catalog) Search(ctx context.Context, query string, size int) ([]Product, int, error) {
	r := esclient.NewRequest(c.client, searchProducts).
		SetIndex(c.index).
		SetParam("size", size)
	if err := r.SetRetries(c.retries); err != nil {
		return nil, 0, err
	}

	body, err := r.BodyMap()
	if err != nil {
		return nil, 0, err
	}
	body["query"] = map[string]any{"match": map[string]any{"name": query}}
	body["sort"] = []any{map[string]any{"price": "asc"}}

	res, err := r.Get(ctx)
	if err != nil {
		return nil, 0, err
	}

	products := make([]Product, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		products = append(products, h.Source)
	}
	return products, res.Hits.Total.Value, nil
}

// Count returns the number of products in the index.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	r := esclient.NewRequest(c.client, countProducts).SetIndex(c.index)
	if err := r.SetRetries(c.retries); err != nil {
		return 0, err
	}
	res, err := r.Get(ctx)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

// SampleProducts returns n generated products.
func SampleProducts(n int) []Product {
	products := make([]Product, 0, n)
	for i := range n {
		products = append(products, Product{
			SKU:   "sku-" + strconv.Itoa(i+1),
			Name:  "trail shoe " + strconv.Itoa(i+1),
			Price: 49.5 + float64(i),
		})
	}
	return products
}
