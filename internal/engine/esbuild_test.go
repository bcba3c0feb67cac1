package engine

import (
	"strings"
	"testing"

	"typeload/internal/diag"
	"typeload/internal/project"
	"typeload/internal/source"
)

func transpile(t *testing.T, name, src string, opts project.CompilerOptions) Result {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.Add(name, src))
	return NewESBuild().Transpile(Request{File: f, Options: opts})
}

func TestESBuild_ErasesTypes(t *testing.T) {
	res := transpile(t, "/proj/a.ts", "const x: number = 1;\nconsole.log(x);\n", project.DefaultOptions())
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if strings.Contains(res.Code, ": number") {
		t.Errorf("annotation survived:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "console.log") {
		t.Errorf("body lost:\n%s", res.Code)
	}
}

func TestESBuild_LowersImportsToRequire(t *testing.T) {
	res := transpile(t, "/proj/a.ts", `import { v } from "./dep";
console.log(v);
`, project.DefaultOptions())
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if !strings.Contains(res.Code, `require("./dep")`) {
		t.Errorf("static import not lowered to require:\n%s", res.Code)
	}
}

func TestESBuild_LowersDynamicImport(t *testing.T) {
	res := transpile(t, "/proj/a.ts", `import("./dyn").then((m) => console.log(m.v));
`, project.DefaultOptions())
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	// even with an es2020 target the output must not rely on native import()
	if strings.Contains(res.Code, "import(") {
		t.Errorf("dynamic import not lowered:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, `require("./dyn")`) {
		t.Errorf("dynamic import did not become a require:\n%s", res.Code)
	}
}

func TestESBuild_RewritesImportMetaURL(t *testing.T) {
	res := transpile(t, "/proj/a.ts", "console.log(import.meta.url);\n", project.DefaultOptions())
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if !strings.Contains(res.Code, MetaURLBinding) {
		t.Errorf("import.meta.url not rewritten to the wrapper binding:\n%s", res.Code)
	}
	if strings.Contains(res.Code, "import.meta") {
		t.Errorf("raw import.meta survived:\n%s", res.Code)
	}
}

func TestESBuild_SyntaxErrorDiagnostic(t *testing.T) {
	res := transpile(t, "/proj/broken.ts", "const = ;\n", project.DefaultOptions())
	if len(res.Diagnostics) == 0 {
		t.Fatal("no diagnostics for broken input")
	}
	d := res.Diagnostics[0]
	if d.Severity != diag.SevError || d.Code != diag.TranspileError {
		t.Errorf("diagnostic = %+v, want a TranspileError", d)
	}
	if d.Primary.File == 0 {
		t.Error("diagnostic lost its file")
	}
}

func TestESBuild_TSXLowering(t *testing.T) {
	opts := project.DefaultOptions()
	opts.JSXFactory = "h"
	res := transpile(t, "/proj/view.tsx", "const el = <div>hi</div>;\nconsole.log(el);\n", opts)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if !strings.Contains(res.Code, "h(") {
		t.Errorf("JSX not lowered through the configured factory:\n%s", res.Code)
	}
}

func TestESBuild_JSXPreserve(t *testing.T) {
	opts := project.DefaultOptions()
	opts.JSX = "preserve"
	res := transpile(t, "/proj/view.tsx", "const el = <div>hi</div>;\n", opts)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if !strings.Contains(res.Code, "<div>") {
		t.Errorf("preserve mode lowered the JSX:\n%s", res.Code)
	}
}

func TestESBuild_TargetLowering(t *testing.T) {
	opts := project.DefaultOptions()
	opts.Target = "es2015"
	res := transpile(t, "/proj/a.ts", "const v = 1 ?? 2;\nconsole.log(v);\n", opts)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	// nullish coalescing is es2020 syntax; es2015 output must not contain it
	if strings.Contains(res.Code, "??") {
		t.Errorf("es2020 syntax survived an es2015 target:\n%s", res.Code)
	}
}
