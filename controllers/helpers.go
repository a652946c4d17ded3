package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/autoblog/middleware"
	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/services"
	"github.com/cppla/autoblog/store"
	"github.com/cppla/autoblog/utils"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// respondError maps domain errors onto HTTP statuses and envelope codes.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		ctx.Header("WWW-Authenticate", "Bearer")
		utils.Error(ctx, http.StatusUnauthorized, 40110, err.Error())
	case errors.Is(err, services.ErrInactiveUser):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	case errors.Is(err, services.ErrIncorrectPassword):
		utils.Error(ctx, http.StatusBadRequest, 40011, err.Error())
	case errors.Is(err, services.ErrPasswordTooLong):
		utils.Error(ctx, http.StatusBadRequest, 40015, err.Error())
	case errors.Is(err, services.ErrInvalidDateFormat):
		utils.Error(ctx, http.StatusBadRequest, 40012, err.Error())
	case errors.Is(err, services.ErrInvalidDateRange):
		utils.Error(ctx, http.StatusBadRequest, 40013, err.Error())
	case errors.Is(err, store.ErrConflict):
		utils.Error(ctx, http.StatusBadRequest, 40014, "username or email already registered")
	case errors.Is(err, store.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "not found")
	default:
		utils.Sugar.Errorw("request failed", "path", ctx.FullPath(), "request_id", utils.GetRequestID(ctx), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

func badRequest(ctx *gin.Context, code int, msg string) {
	utils.Error(ctx, http.StatusBadRequest, code, msg)
}

// bindOptionalJSON decodes a partial update body. An empty body is an empty patch.
func bindOptionalJSON(ctx *gin.Context, dst interface{}) error {
	if err := ctx.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	return parseUint(ctx.Param(name))
}

func parseUintQuery(ctx *gin.Context, name string) (uint, bool) {
	return parseUint(ctx.Query(name))
}

func parseUint(s string) (uint, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// parsePage reads skip and limit. limit is capped at maxLimit.
func parsePage(ctx *gin.Context) (store.Page, bool) {
	page := store.Page{Skip: 0, Limit: defaultLimit}
	if s := ctx.Query("skip"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return page, false
		}
		page.Skip = v
	}
	if s := ctx.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return page, false
		}
		page.Limit = min(v, maxLimit)
	}
	return page, true
}

func pagination(p store.Page) gin.H {
	return gin.H{"skip": p.Skip, "limit": p.Limit}
}

// currentUser returns the caller loaded by middleware.AuthRequired.
func currentUser(ctx *gin.Context) (*models.User, bool) {
	u := middleware.CurrentUser(ctx)
	if u == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return nil, false
	}
	return u, true
}
