package loader

import (
	"sync"

	"typeload/internal/engine"
	"typeload/internal/project"
	"typeload/internal/runtime"
	"typeload/internal/source"
)

// Options configures a Loader. Zero-value fields get working defaults.
type Options struct {
	Engine  engine.Engine
	Context *runtime.Context
	Files   *source.FileSet
	Tracker *project.Tracker
	// Cache is the optional transpile-output cache.
	Cache TranspileCache
	// Glob overrides the extension-inference collaborator.
	Glob GlobFunc
	// Fallback overrides the bare-specifier resolver. The default
	// classifies registered builtins and leaves everything else to the
	// host's native loader.
	Fallback       FallbackResolver
	MaxDiagnostics int
}

// Loader is the orchestration core. It owns the module cache and the shared
// execution context for the life of the process; cache entries are never
// evicted or invalidated.
type Loader struct {
	mu    sync.Mutex
	cache map[string]*BuiltModule

	resolver *Resolver
	builder  *Builder
	compiler *Compiler
	ctx      *runtime.Context
	fallback FallbackResolver
}

func New(opts Options) *Loader {
	if opts.Engine == nil {
		opts.Engine = engine.NewESBuild()
	}
	if opts.Context == nil {
		opts.Context = runtime.NewContext(nil, nil)
	}
	if opts.Files == nil {
		opts.Files = source.NewFileSet()
	}
	if opts.Tracker == nil {
		opts.Tracker = &project.Tracker{}
	}

	compiler := &Compiler{
		Files:          opts.Files,
		Engine:         opts.Engine,
		Tracker:        opts.Tracker,
		Cache:          opts.Cache,
		MaxDiagnostics: opts.MaxDiagnostics,
	}
	l := &Loader{
		cache:    make(map[string]*BuiltModule),
		resolver: NewResolver(opts.Glob),
		compiler: compiler,
		ctx:      opts.Context,
		fallback: opts.Fallback,
	}
	l.builder = &Builder{
		Compiler: compiler,
		Ctx:      opts.Context,
		link:     l.Link,
	}
	if l.fallback == nil {
		l.fallback = func(specifier, referrerURL string) (Ref, error) {
			if opts.Context.HasBuiltin(specifier) {
				return Ref{URL: specifier, Format: FormatBuiltin}, nil
			}
			return Ref{URL: specifier, Format: FormatJS}, nil
		}
	}
	return l
}

// Context returns the shared execution context.
func (l *Loader) Context() *runtime.Context {
	return l.ctx
}

// Files returns the file set backing compilation; diagnostics render
// against it.
func (l *Loader) Files() *source.FileSet {
	return l.compiler.Files
}

// Compiler returns the compile front end shared with the module builder.
// Callers may run Diagnose concurrently; Compile goes through Link instead.
func (l *Loader) Compiler() *Compiler {
	return l.compiler
}

// Resolve classifies a specifier. A nil fallback uses the loader's default.
func (l *Loader) Resolve(specifier, referrerURL string, fallback FallbackResolver) (Ref, error) {
	if fallback == nil {
		fallback = l.fallback
	}
	return l.resolver.Resolve(specifier, referrerURL, fallback)
}

// Link resolves a specifier against its referrer and returns a built module.
// Native modules are always rebuilt as lightweight wrappers (the host's own
// loader caches their bodies); typed-source modules are served from the
// cache so a given URL is fetched and compiled at most once.
func (l *Loader) Link(specifier, referrerURL string) (*BuiltModule, error) {
	ref, err := l.Resolve(specifier, referrerURL, nil)
	if err != nil {
		return nil, err
	}
	switch ref.Format {
	case FormatJS, FormatBuiltin:
		return l.builder.Build(ref.URL, ref.Format)
	case FormatTS:
		return l.linkTyped(ref.URL)
	default:
		return nil, &InvalidImportTypeError{Format: ref.Format}
	}
}

func (l *Loader) linkTyped(url string) (*BuiltModule, error) {
	l.mu.Lock()
	if m, ok := l.cache[url]; ok {
		l.mu.Unlock()
		return m, nil
	}
	l.mu.Unlock()

	// The check-then-insert is not atomic across the build: concurrent
	// first-time requests for the same URL may each build, last insert
	// wins. Failed builds are never inserted.
	m, err := l.builder.Build(url, FormatTS)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.cache[url] = m
	l.mu.Unlock()
	return m, nil
}

// Instantiate builds the entry module for url and links its whole static
// graph before anything executes. The returned module's Execute runs the
// entry body.
func (l *Loader) Instantiate(url string) (*BuiltModule, error) {
	m, err := l.linkTyped(url)
	if err != nil {
		return nil, err
	}
	if err := m.Link(); err != nil {
		return nil, err
	}
	return m, nil
}

// Cached returns the cached module for a resolved URL, if present.
func (l *Loader) Cached(url string) (*BuiltModule, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.cache[url]
	return m, ok
}
