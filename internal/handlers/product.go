package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/fathurrizqi/tokolaptop/internal/logging"
	"github.com/fathurrizqi/tokolaptop/internal/models"
	"github.com/fathurrizqi/tokolaptop/internal/mykafka"
	"github.com/fathurrizqi/tokolaptop/internal/storage"
	"github.com/fathurrizqi/tokolaptop/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
	Uploader storage.Uploader
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Product{})
	if category := c.QueryParam("category"); category != "" {
		if category != models.CategoryLaptop && category != models.CategorySparepart {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown category")
		}
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	name := c.FormValue("name")
	description := c.FormValue("description")
	price := c.FormValue("price")
	category := c.FormValue("category")

	if name == "" || price == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and price are required")
	}
	if v, err := strconv.ParseFloat(price, 64); err != nil || v < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be a non-negative number")
	}
	if category != models.CategoryLaptop && category != models.CategorySparepart {
		return echo.NewHTTPError(http.StatusBadRequest, "category must be LAPTOP or SPAREPART")
	}

	var stock *int
	if s := c.FormValue("stock"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "stock must be a non-negative integer")
		}
		stock = &v
	}

	imageURL, err := h.uploadImage(c, true)
	if err != nil {
		return err
	}

	product := models.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Category:    category,
		Image:       imageURL,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.indexProduct(c.Request().Context(), &product)
	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	if name := c.FormValue("name"); name != "" {
		product.Name = name
	}
	if description := c.FormValue("description"); description != "" {
		product.Description = description
	}
	if price := c.FormValue("price"); price != "" {
		if v, err := strconv.ParseFloat(price, 64); err != nil || v < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "price must be a non-negative number")
		}
		product.Price = price
	}
	if category := c.FormValue("category"); category != "" {
		if category != models.CategoryLaptop && category != models.CategorySparepart {
			return echo.NewHTTPError(http.StatusBadRequest, "category must be LAPTOP or SPAREPART")
		}
		product.Category = category
	}
	if s := c.FormValue("stock"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "stock must be a non-negative integer")
		}
		product.Stock = &v
	}

	if imageURL, err := h.uploadImage(c, false); err != nil {
		return err
	} else if imageURL != "" {
		product.Image = imageURL
	}

	if err := h.DB.Save(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.indexProduct(c.Request().Context(), &product)
	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.removeFromIndex(c.Request().Context(), id)
	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

// uploadImage stores the multipart "image" file and returns its URL. An empty
// string means no file was sent (only allowed when required is false).
func (h *ProductHandler) uploadImage(c echo.Context, required bool) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if required {
			return "", echo.NewHTTPError(http.StatusBadRequest, "image file is required")
		}
		return "", nil
	}

	src, err := fh.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "cannot read image file")
	}
	defer src.Close()

	url, err := h.Uploader.Upload(c.Request().Context(), src, "products")
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadGateway, "image upload failed")
	}
	return url, nil
}

func (h *ProductHandler) indexProduct(ctx context.Context, product *models.Product) {
	if h.ES == nil {
		return
	}
	body, err := json.Marshal(product)
	if err != nil {
		return
	}
	res, err := h.ES.Index(
		h.Index,
		bytes.NewReader(body),
		h.ES.Index.WithDocumentID(strconv.Itoa(int(product.ID))),
		h.ES.Index.WithContext(ctx),
	)
	if err != nil {
		logging.FromContext(ctx).Error("es index failed", "productID", product.ID, "error", err)
		return
	}
	res.Body.Close()
}

func (h *ProductHandler) removeFromIndex(ctx context.Context, id int) {
	if h.ES == nil {
		return
	}
	res, err := h.ES.Delete(h.Index, strconv.Itoa(id), h.ES.Delete.WithContext(ctx))
	if err != nil {
		logging.FromContext(ctx).Error("es delete failed", "productID", id, "error", err)
		return
	}
	res.Body.Close()
}
