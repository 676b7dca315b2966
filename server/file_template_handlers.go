package server

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

var templateFuncs = template.FuncMap{
	"title": func(s string) string {
		s = strings.ReplaceAll(s, "-", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page from the embedded filesystem together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

// mustParseTemplate is for handler constructors; the templates are embedded so
// a failure is a build defect.
func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}
