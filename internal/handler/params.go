package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		writeBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// paging reads limit/offset query values, falling back to defLimit and 0.
func paging(c *gin.Context, defLimit int32) (limit, offset int32, ok bool) {
	limit, offset = defLimit, 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || v <= 0 {
			writeBadRequest(c, "invalid limit")
			return 0, 0, false
		}
		limit = int32(v)
	}
	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || v < 0 {
			writeBadRequest(c, "invalid offset")
			return 0, 0, false
		}
		offset = int32(v)
	}
	return limit, offset, true
}
