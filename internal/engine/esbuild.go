package engine

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"typeload/internal/diag"
	"typeload/internal/source"
)

// ESBuild is the esbuild-backed engine. The transform is textual and
// single-file: no cross-file type information survives into the output.
type ESBuild struct{}

func NewESBuild() *ESBuild {
	return &ESBuild{}
}

func (e *ESBuild) Transpile(req Request) Result {
	loader := api.LoaderTS
	if strings.HasSuffix(req.File.Path, ".tsx") {
		loader = api.LoaderTSX
	}

	opts := api.TransformOptions{
		Loader:     loader,
		Format:     api.FormatCommonJS,
		Target:     targetFor(req.Options.Target),
		Platform:   api.PlatformNeutral,
		Sourcefile: req.File.Path,
		LogLevel:   api.LogLevelSilent,
		Define: map[string]string{
			"import.meta.url": MetaURLBinding,
		},
		// The host runtime has no native import(); force the lowering to a
		// promise-wrapped require even when the target supports the syntax.
		Supported: map[string]bool{
			"dynamic-import": false,
		},
	}
	if req.Options.JSX == "preserve" {
		opts.JSX = api.JSXPreserve
	}
	if req.Options.JSXFactory != "" {
		opts.JSXFactory = req.Options.JSXFactory
	}

	res := api.Transform(req.File.Content, opts)

	out := Result{Code: string(res.Code)}
	for _, m := range res.Errors {
		out.Diagnostics = append(out.Diagnostics, convertMessage(req.File, m, diag.SevError, diag.TranspileError))
	}
	for _, m := range res.Warnings {
		out.Diagnostics = append(out.Diagnostics, convertMessage(req.File, m, diag.SevWarning, diag.TranspileWarning))
	}
	return out
}

func targetFor(target string) api.Target {
	switch strings.ToLower(target) {
	case "es2015", "es6":
		return api.ES2015
	case "es2016":
		return api.ES2016
	case "es2017":
		return api.ES2017
	case "es2018":
		return api.ES2018
	case "es2019":
		return api.ES2019
	case "es2020":
		return api.ES2020
	}
	return api.ES2020
}

func convertMessage(f *source.File, m api.Message, sev diag.Severity, code diag.Code) diag.Diagnostic {
	d := diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  m.Text,
	}
	if m.Location != nil {
		d.Primary = spanFromLocation(f, m.Location)
	}
	for _, n := range m.Notes {
		note := diag.Note{Msg: n.Text}
		if n.Location != nil {
			note.Span = spanFromLocation(f, n.Location)
		}
		d.Notes = append(d.Notes, note)
	}
	return d
}

func spanFromLocation(f *source.File, loc *api.Location) source.Span {
	// esbuild lines are 1-based, columns 0-based bytes within the line
	start := f.Offset(uint32(loc.Line), uint32(loc.Column)+1)
	end := start + uint32(loc.Length)
	if end > uint32(len(f.Content)) {
		end = uint32(len(f.Content))
	}
	return source.Span{File: f.ID, Start: start, End: end}
}
