package report

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	apperrors "stratalpha/internal/errors"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
)

// RenderHTML converts a markdown memo to an HTML fragment for the dashboard.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.String(), nil
}
