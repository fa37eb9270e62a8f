// Package models holds the document shapes shared by the route catalogue.
package models

import "github.com/brizzai/requestkit/requester"

type DescriptionUpdate struct {
	Method         string `yaml:"method"`
	NewDescription string `yaml:"new_description"`
}

type RouteDescription struct {
	Path    string              `yaml:"path"`
	Updates []DescriptionUpdate `yaml:"updates"`
}

type RouteSelection struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`
}

// RouteHeaders adds headers to one route. An empty Method matches every method.
type RouteHeaders struct {
	Path    string             `yaml:"path"`
	Method  string             `yaml:"method,omitempty"`
	Headers []requester.Header `yaml:"headers"`
}

// Adjustments is the YAML document that narrows and annotates a catalogue
type Adjustments struct {
	Descriptions []RouteDescription `yaml:"descriptions,omitempty"`
	Routes       []RouteSelection   `yaml:"routes,omitempty"`
	Headers      []RouteHeaders     `yaml:"headers,omitempty"`
}
