package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
	"github.com/thala/backend/docs"
)

// OpenAPIDoc serves the swagger document registered by package docs.
func OpenAPIDoc(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
