package web

import "embed"

// ImportTemplateName is the file offered as the client CSV import template.
const ImportTemplateName = "car_service_clients.csv"

// Static embeds static assets.
//
//go:embed static/*
var Static embed.FS

// ImportTemplate returns the bundled CSV import template.
func ImportTemplate() ([]byte, error) {
	return Static.ReadFile("static/" + ImportTemplateName)
}
