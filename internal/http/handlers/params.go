package handlers

import (
	"strconv"

	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// callerFrom reads the authenticated caller id; routes without RequireAuth get a 401.
func callerFrom(ctx *gin.Context) (int64, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required")
		return 0, false
	}
	return id, true
}

func pathID(ctx *gin.Context) (int64, bool) {
	raw := ctx.Param("id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "id must be a positive integer", gin.H{"field": "id", "value": raw})
		return 0, false
	}

	return id, true
}

// requiredIntQuery rejects a missing or non-integer value. Range is not checked.
func requiredIntQuery(ctx *gin.Context, name string) (int, bool) {
	raw, present := ctx.GetQuery(name)
	if !present || raw == "" {
		RespondBadRequest(ctx, name+" is required", gin.H{"field": name, "rule": "required"})
		return 0, false
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		RespondBadRequest(ctx, name+" must be an integer", gin.H{"field": name, "rule": "integer", "value": raw})
		return 0, false
	}

	return v, true
}
