package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/fathurrizqi/tokolaptop/internal/auth"
	"github.com/fathurrizqi/tokolaptop/internal/models"
	"github.com/fathurrizqi/tokolaptop/internal/storage"
)

type ProfileHandler struct {
	DB       *gorm.DB
	Uploader storage.Uploader
}

func (h *ProfileHandler) GetProfile(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	var user models.User
	if err := h.DB.First(&user, caller.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// UpdateProfile accepts a multipart form with optional address, phone_number
// and an avatar image; only provided fields are changed.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	var user models.User
	if err := h.DB.First(&user, caller.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	if address := c.FormValue("address"); address != "" {
		user.Address = address
	}
	if phone := c.FormValue("phone_number"); phone != "" {
		user.PhoneNumber = phone
	}

	if fh, err := c.FormFile("image"); err == nil {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cannot read image file")
		}
		defer src.Close()

		url, err := h.Uploader.Upload(c.Request().Context(), src, "user_profiles")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "image upload failed")
		}
		user.Image = url
	}

	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *ProfileHandler) ListUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"users": users})
}
