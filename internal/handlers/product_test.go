package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fathurrizqi/tokolaptop/internal/models"
)

func newProductHandler(env *testEnv, up *fakeUploader) *ProductHandler {
	return &ProductHandler{
		DB:       env.DB,
		Producer: testProducer(),
		Index:    "products",
		Uploader: up,
	}
}

func seedCatalog(t *testing.T, env *testEnv) {
	t.Helper()
	stock := 3
	products := []models.Product{
		{Name: "Thinkpad X1", Price: "15000000", Stock: &stock, Category: models.CategoryLaptop},
		{Name: "Macbook Air M2", Price: "18000000", Stock: &stock, Category: models.CategoryLaptop},
		{Name: "SODIMM 16GB", Price: "450000", Stock: &stock, Category: models.CategorySparepart},
	}
	for i := range products {
		require.NoError(t, env.DB.Create(&products[i]).Error)
	}
}

func TestGetProducts(t *testing.T) {
	env := newTestEnv(t)
	h := newProductHandler(env, &fakeUploader{})
	seedCatalog(t, env)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/products", nil)
	require.NoError(t, h.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
			Page  int   `json:"page"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	require.Equal(t, int64(3), resp.Meta.Total)
}

func TestGetProductsCategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	h := newProductHandler(env, &fakeUploader{})
	seedCatalog(t, env)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/products?category=SPAREPART", nil)
	require.NoError(t, h.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "SODIMM 16GB", resp.Data[0].Name)

	_, c = env.doJSONRequest(http.MethodGet, "/api/v1/products?category=PHONE", nil)
	requireHTTPError(t, h.GetProducts(c), http.StatusBadRequest)
}

func TestGetProductsPagination(t *testing.T) {
	env := newTestEnv(t)
	h := newProductHandler(env, &fakeUploader{})
	seedCatalog(t, env)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/products?page=2&size=2", nil)
	require.NoError(t, h.GetProducts(c))

	var resp struct {
		Data []models.Product `json:"data"`
		Meta struct {
			TotalPages int64 `json:"total_pages"`
			HasPrev    bool  `json:"has_prev"`
			HasNext    bool  `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, int64(2), resp.Meta.TotalPages)
	require.True(t, resp.Meta.HasPrev)
	require.False(t, resp.Meta.HasNext)
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)
	h := newProductHandler(env, &fakeUploader{})
	seedCatalog(t, env)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var product models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	require.Equal(t, "Thinkpad X1", product.Name)

	_, c = env.doJSONRequest(http.MethodGet, "/api/v1/products/999", nil)
	c.SetParamNames("id")
	c.SetParamValues("999")
	requireHTTPError(t, h.GetProduct(c), http.StatusNotFound)
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	up := &fakeUploader{}
	h := newProductHandler(env, up)

	rec, c := env.doFormRequest(http.MethodPost, "/api/v1/admin/products", map[string]string{
		"name":        "Thinkpad T14",
		"description": "14 inch business laptop",
		"price":       "9500000",
		"category":    "LAPTOP",
		"stock":       "7",
	}, true)

	require.NoError(t, h.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, up.calls)

	var product models.Product
	require.NoError(t, env.DB.Where("name = ?", "Thinkpad T14").First(&product).Error)
	require.Equal(t, "9500000", product.Price)
	require.NotNil(t, product.Stock)
	require.Equal(t, 7, *product.Stock)
	require.Equal(t, "https://cdn.example.com/products/image.png", product.Image)
}

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)
	h := newProductHandler(env, &fakeUploader{})

	_, c := env.doFormRequest(http.MethodPost, "/api/v1/admin/products", map[string]string{
		"price": "9500000", "category": "LAPTOP",
	}, true)
	requireHTTPError(t, h.CreateProduct(c), http.StatusBadRequest)

	_, c = env.doFormRequest(http.MethodPost, "/api/v1/admin/products", map[string]string{
		"name": "T14", "price": "abc", "category": "LAPTOP",
	}, true)
	requireHTTPError(t, h.CreateProduct(c), http.StatusBadRequest)

	_, c = env.doFormRequest(http.MethodPost, "/api/v1/admin/products", map[string]string{
		"name": "T14", "price": "9500000", "category": "PHONE",
	}, true)
	requireHTTPError(t, h.CreateProduct(c), http.StatusBadRequest)

	// image file is mandatory on create
	_, c = env.doFormRequest(http.MethodPost, "/api/v1/admin/products", map[string]string{
		"name": "T14", "price": "9500000", "category": "LAPTOP",
	}, false)
	requireHTTPError(t, h.CreateProduct(c), http.StatusBadRequest)
}

func TestCreateProductUntrackedStock(t *testing.T) {
	env := newTestEnv(t)
	h := newProductHandler(env, &fakeUploader{})

	_, c := env.doFormRequest(http.MethodPost, "/api/v1/admin/products", map[string]string{
		"name": "Display Unit", "price": "1", "category": "LAPTOP",
	}, true)
	require.NoError(t, h.CreateProduct(c))

	var product models.Product
	require.NoError(t, env.DB.Where("name = ?", "Display Unit").First(&product).Error)
	require.Nil(t, product.Stock)
}

func TestPatchProduct(t *testing.T) {
	env := newTestEnv(t)
	up := &fakeUploader{}
	h := newProductHandler(env, up)
	seedCatalog(t, env)

	rec, c := env.doFormRequest(http.MethodPatch, "/api/v1/admin/products/1", map[string]string{
		"price": "14000000",
		"stock": "10",
	}, false)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.PatchProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, up.calls)

	var product models.Product
	require.NoError(t, env.DB.First(&product, 1).Error)
	require.Equal(t, "14000000", product.Price)
	require.Equal(t, 10, *product.Stock)
	require.Equal(t, "Thinkpad X1", product.Name)
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	h := newProductHandler(env, &fakeUploader{})
	seedCatalog(t, env)

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/admin/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteProduct(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Product{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}
