package server

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

var methodColors = map[string]*color.Color{
	"GET":     color.New(color.FgGreen),
	"POST":    color.New(color.FgYellow),
	"PUT":     color.New(color.FgBlue),
	"PATCH":   color.New(color.FgCyan),
	"DELETE":  color.New(color.FgRed),
	"HEAD":    color.New(color.FgMagenta),
	"OPTIONS": color.New(color.FgWhite),
}

var (
	fallbackColor = color.New(color.FgHiBlack)
	errorColor    = color.New(color.FgRed)
)

func colouredMethod(method string) string {
	padded := fmt.Sprintf(" %-7s", method)
	if c, ok := methodColors[method]; ok {
		return c.Sprint(padded)
	}
	return fallbackColor.Sprint(padded)
}

func logRoute(method, path string) {
	log.Info().Msgf("[%s] %s", colouredMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%s] %s %s", colouredMethod(method), path, errorColor.Sprint(error))
}
