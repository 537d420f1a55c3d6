package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetProjectID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "project_id")
}

func GetParamID(ctx *gin.Context, name string) (uint, error) {
	return paramID(ctx, name)
}

func paramID(ctx *gin.Context, name string) (uint, error) {
	idStr := ctx.Param(name)

	if idStr == "" {
		return 0, errors.New("missing " + name)
	}

	id, err := strconv.ParseUint(idStr, 10, 32)

	if err != nil {
		return 0, errors.New("invalid " + name)
	}

	return uint(id), nil
}

// Pagination reads limit/offset query params with the dashboard defaults.
func Pagination(ctx *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0

	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 {
		limit = v
	}

	if v, err := strconv.Atoi(ctx.Query("offset")); err == nil && v >= 0 {
		offset = v
	}

	return limit, offset
}
