package panelhttp

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"clocktower/internal/roster"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static/*
var assets embed.FS

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
}

func serveStatic(router *gin.Engine, icons *roster.IconResolver) error {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		return err
	}
	router.StaticFS("/static", http.FS(sub))
	if iconFS := icons.FS(); iconFS != nil {
		fileServer := http.FileServer(http.FS(iconFS))
		router.GET("/icons/*filepath", func(c *gin.Context) {
			c.Request.URL.Path = c.Param("filepath")
			fileServer.ServeHTTP(c.Writer, c.Request)
		})
	}
	return nil
}
