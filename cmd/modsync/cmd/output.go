package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/bianoble/modsync/pkg/modsync"
)

// Output formats for reconcile results.
const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

// encodingBase64 marks contents that are not valid UTF-8.
const encodingBase64 = "base64"

// outcomeView is the serialized form of one outcome.
type outcomeView struct {
	Op       string `json:"op,omitempty" yaml:"op,omitempty"`
	Path     string `json:"path" yaml:"path"`
	Contents string `json:"contents,omitempty" yaml:"contents,omitempty"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

func fileView(f *modsync.FileChange) outcomeView {
	v := outcomeView{Op: string(f.Op), Path: f.Path}
	if utf8.Valid(f.Contents) {
		v.Contents = string(f.Contents)
	} else {
		v.Contents = base64.StdEncoding.EncodeToString(f.Contents)
		v.Encoding = encodingBase64
	}
	return v
}

func views(outcomes []modsync.Outcome) []outcomeView {
	out := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		switch {
		case o.ArtifactError != nil:
			out = append(out, outcomeView{Path: o.ArtifactError.ArtifactPath, Error: o.ArtifactError.Message})
		case o.File != nil:
			out = append(out, fileView(o.File))
		}
	}
	return out
}

// renderOutcomes writes outcomes to w in format.
func renderOutcomes(w io.Writer, format string, outcomes []modsync.Outcome) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views(outcomes))
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views(outcomes)); err != nil {
			return err
		}
		return enc.Close()
	case formatText, "":
		renderText(w, outcomes)
		return nil
	default:
		return fmt.Errorf("unknown output format %q: must be one of: text, yaml, json", format)
	}
}

func renderText(w io.Writer, outcomes []modsync.Outcome) {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, styles.dim.Render("No changes."))
		return
	}
	for _, o := range outcomes {
		switch {
		case o.ArtifactError != nil:
			fmt.Fprintf(w, "%s %s\n", styles.err.Render("error"), o.ArtifactError.ArtifactPath)
			for _, line := range strings.Split(strings.TrimRight(o.ArtifactError.Message, "\n"), "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		case o.File != nil && o.File.Op == modsync.OpDelete:
			fmt.Fprintf(w, "%s %s\n", styles.warn.Render("delete"), o.File.Path)
		case o.File != nil:
			fmt.Fprintf(w, "%s  %s %s\n", styles.ok.Render("write"), o.File.Path,
				styles.dim.Render(fmt.Sprintf("(%s)", humanSize(int64(len(o.File.Contents))))))
		}
	}
}

// resultFormat picks the result file format from its extension.
func resultFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}
