package controller

import (
	"errors"
	"net/http"
	"time"

	httpdto "github.com/marchingbytes/identity-service/app/dto/http"
	"github.com/marchingbytes/identity-service/app/middleware"
	"github.com/marchingbytes/identity-service/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ClaimsController struct {
	claims *service.ClaimsService
}

func NewClaimsController(claims *service.ClaimsService) *ClaimsController {
	return &ClaimsController{claims: claims}
}

func (c *ClaimsController) ListClaims(ctx echo.Context) error {
	records, err := c.claims.ListClaims(ctx.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list claims")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	resp := make([]httpdto.ClaimsResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, httpdto.ClaimsResponse{
			UserID:         record.UserID,
			IsAdmin:        record.IsAdmin,
			IsSuperAdmin:   record.IsSuperAdmin,
			LastModifiedBy: record.LastModifiedBy,
			LastModifiedAt: record.LastModifiedAt.UTC().Format(time.RFC3339),
		})
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *ClaimsController) UpdateClaims(ctx echo.Context) error {
	var req httpdto.UpdateClaimsRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind claims update request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.UserID == 0 {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "user_id is required"})
	}

	updatedBy := middleware.UserIDFromContext(ctx)

	logrus.WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"updated_by": updatedBy,
	}).Info("Claims update requested")

	err := c.claims.UpdateClaims(ctx.Request().Context(), req.UserID, req.IsAdmin, req.IsSuperAdmin, updatedBy)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUser) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("user_id", req.UserID).Error("Claims update failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "claims updated"})
}
