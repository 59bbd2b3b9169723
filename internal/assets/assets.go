// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build !dev

// Package assets provides embedded static assets with content-hashed filenames.
package assets

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"
)

//go:embed static
var staticFS embed.FS

const stylesheet = "css/styles.css"

var (
	cssPath     = "/static/" + stylesheet
	fingerprint = regexp.MustCompile(`\.[0-9a-f]{8}(\.[a-z0-9]+)$`)
)

func init() {
	data, err := staticFS.ReadFile("static/" + stylesheet)
	if err != nil {
		slog.Error("failed to read embedded stylesheet", "error", err)
		return
	}
	cssPath = "/static/" + hashedName(stylesheet, data)
	slog.Debug("loaded asset paths", "css", cssPath)
}

// hashedName inserts the first 8 hex digits of the content hash before the
// file extension: css/styles.css becomes css/styles.1a2b3c4d.css.
func hashedName(name string, data []byte) string {
	sum := sha256.Sum256(data)
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + hex.EncodeToString(sum[:4]) + ext
}

// CSSPath returns the path to the main CSS file.
func CSSPath() string {
	return cssPath
}

// FileServer returns an http.Handler that serves embedded static files.
// Fingerprinted names are mapped back to the embedded file.
func FileServer() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("failed to create sub filesystem: " + err.Error())
	}
	files := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = fingerprint.ReplaceAllString(r.URL.Path, "$1")
		files.ServeHTTP(w, r)
	})
}
