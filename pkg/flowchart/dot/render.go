package dot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
)

// Format is an output format supported by Write.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat maps a format name or file extension (with or without the
// leading dot) to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatDOT, FormatSVG, FormatPNG:
		return f, nil
	case "gv":
		return FormatDOT, nil
	}
	return "", fmt.Errorf("unsupported render format %q", s)
}

// RenderSVG lays out a DOT document and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG lays out a DOT document and returns PNG bytes.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Encode renders g in the given format.
func Encode(ctx context.Context, g *flowchart.Graph, format Format, opts ...Option) ([]byte, error) {
	text, err := FromGraph(g, opts...)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatDOT:
		return []byte(text), nil
	case FormatSVG:
		return RenderSVG(ctx, text)
	case FormatPNG:
		return RenderPNG(ctx, text)
	}
	return nil, fmt.Errorf("unsupported render format %q", format)
}

// Write renders g to path. The format comes from the file extension.
func Write(ctx context.Context, path string, g *flowchart.Graph, opts ...Option) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	data, err := Encode(ctx, g, format, opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
