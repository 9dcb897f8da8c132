package controller

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	httpdto "github.com/marchingbytes/identity-service/app/dto/http"
	"github.com/marchingbytes/identity-service/app/middleware"
	"github.com/marchingbytes/identity-service/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var allowedPictureExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

type ProfileController struct {
	profiles *service.ProfileService
}

func NewProfileController(profiles *service.ProfileService) *ProfileController {
	return &ProfileController{profiles: profiles}
}

func (c *ProfileController) GetProfile(ctx echo.Context) error {
	userID := middleware.UserIDFromContext(ctx)

	profile, err := c.profiles.Get(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to load profile")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	if profile == nil {
		return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "profile not found"})
	}

	return ctx.JSON(http.StatusOK, httpdto.ProfileResponse{
		UserID:       profile.UserID,
		FullName:     profile.FullName,
		City:         profile.City,
		Country:      profile.Country,
		Gender:       profile.Gender,
		Age:          profile.Age,
		Occupation:   profile.Occupation,
		MobileNumber: profile.MobileNumber,
		PictureURL:   c.profiles.PictureURL(profile.PictureObjectName),
	})
}

func (c *ProfileController) UpsertProfile(ctx echo.Context) error {
	var req httpdto.UpsertProfileRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind profile request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.FullName) == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "full_name is required"})
	}

	userID := middleware.UserIDFromContext(ctx)

	err := c.profiles.Upsert(ctx.Request().Context(), userID, service.ProfileInput{
		FullName:     req.FullName,
		City:         req.City,
		Country:      req.Country,
		Gender:       req.Gender,
		Age:          req.Age,
		Occupation:   req.Occupation,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to save profile")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", userID).Info("Profile saved")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "profile saved"})
}

// GetPublicProfile exposes a reduced view of any user's profile to other
// authenticated users.
func (c *ProfileController) GetPublicProfile(ctx echo.Context) error {
	userID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid user id"})
	}

	profile, err := c.profiles.Get(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to load public profile")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	if profile == nil {
		return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "profile not found"})
	}

	return ctx.JSON(http.StatusOK, httpdto.PublicProfileResponse{
		UserID:     profile.UserID,
		FullName:   profile.FullName,
		City:       profile.City,
		Country:    profile.Country,
		PictureURL: c.profiles.PictureURL(profile.PictureObjectName),
	})
}

func (c *ProfileController) UploadPicture(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "file is required"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPictureExtensions[ext] {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "unsupported image type"})
	}

	src, err := file.Open()
	if err != nil {
		logrus.WithError(err).Error("Failed to open uploaded file")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	defer src.Close()

	userID := middleware.UserIDFromContext(ctx)

	pictureURL, err := c.profiles.UpdatePicture(ctx.Request().Context(), userID, src)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to update profile picture")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "could not process image"})
	}

	logrus.WithField("user_id", userID).Info("Profile picture updated")
	return ctx.JSON(http.StatusOK, httpdto.UploadPictureResponse{
		PictureURL: pictureURL,
		Message:    "profile picture updated",
	})
}
