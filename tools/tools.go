//go:build tools
// +build tools

// Package tools records the development tools used with this module.
// They are installed with `go install` or run through `go run` and are
// deliberately absent from go.mod's require block.
package tools

// mockgen - regenerates internal/mocks from the ports in internal/core
//   Run: go generate ./internal/mocks
//   Version: go.uber.org/mock/mockgen@v0.6.0 (matches the go.mod runtime dependency)
//
// Air - live reload for the server while editing frontend/templates
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
