package namespaces

import (
	"maps"
	"os"
	"strings"

	"github.com/ardnew/mung"
	"github.com/joho/godotenv"

	"github.com/ardnew/brace/async"
	"github.com/ardnew/brace/tmpl"
)

// EnvNamespace is the namespace of the environment resolver.
const EnvNamespace = "env"

// Env resolves environment variables. Properties name variables directly;
// unset variables are not found.
//
// Methods:
//
//	get(name[, default])      value of name, or default when unset
//	has(name)                 whether name is set
//	prefix(name, items...)    PATH-like value of name with items prepended
//	prefixif(name, items...)  as prefix, keeping only existing directories
type Env struct {
	vars     map[string]string
	priority int
	methods  methods
}

// EnvOption configures an [Env].
type EnvOption func(*Env)

// WithEnviron replaces the process environment with a list of KEY=VALUE
// strings.
func WithEnviron(environ []string) EnvOption {
	return func(e *Env) { e.vars = environMap(environ) }
}

// WithEnvPriority sets the resolver priority.
func WithEnvPriority(priority int) EnvOption {
	return func(e *Env) { e.priority = priority }
}

// NewEnv returns an environment resolver seeded from the process environment
// and the given dotenv files. Variables already present in the environment
// take precedence over those read from files, and earlier files take
// precedence over later ones.
func NewEnv(files []string, opts ...EnvOption) (*Env, error) {
	e := &Env{vars: environMap(os.Environ()), priority: tmpl.PriorityDefault}
	for _, opt := range opts {
		opt(e)
	}

	e.methods = e.makeMethods()

	for _, file := range files {
		vars, err := godotenv.Read(file)
		if err != nil {
			return nil, err
		}

		for k, v := range vars {
			if _, ok := e.vars[k]; !ok {
				e.vars[k] = v
			}
		}
	}

	return e, nil
}

// Namespace implements [tmpl.NamespaceResolver].
func (e *Env) Namespace() string { return EnvNamespace }

// Priority implements [tmpl.NamespaceResolver].
func (e *Env) Priority() int { return e.priority }

// Lookup returns the value of the variable name.
func (e *Env) Lookup(name string) (string, bool) {
	v, ok := e.vars[name]

	return v, ok
}

// Vars returns a copy of all variables.
func (e *Env) Vars() map[string]string { return maps.Clone(e.vars) }

// Resolve implements [tmpl.NamespaceResolver].
func (e *Env) Resolve(ctx *tmpl.EvalContext) *async.Future[any] {
	return dispatch(ctx, func(name string) (any, bool) {
		v, ok := e.vars[name]

		return v, ok
	}, e.methods)
}

func (e *Env) makeMethods() methods {
	return methods{
		"get": {1, func(_ *tmpl.EvalContext, args []any) (any, error) {
			if v, ok := e.vars[tmpl.Stringify(args[0])]; ok {
				return v, nil
			}

			if len(args) > 1 {
				return args[1], nil
			}

			return "", nil
		}},
		"has": {1, func(_ *tmpl.EvalContext, args []any) (any, error) {
			_, ok := e.vars[tmpl.Stringify(args[0])]

			return ok, nil
		}},
		"prefix": {1, func(_ *tmpl.EvalContext, args []any) (any, error) {
			return mungPrefix(e.vars[tmpl.Stringify(args[0])], stringArgs(args[1:])...), nil
		}},
		"prefixif": {1, func(_ *tmpl.EvalContext, args []any) (any, error) {
			return mungPrefixIf(e.vars[tmpl.Stringify(args[0])], isDir, stringArgs(args[1:])...), nil
		}},
	}
}

func mungPrefix(value string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(value),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

func mungPrefixIf(value string, predicate func(string) bool, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(value),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

// environMap converts a KEY=VALUE list to a map. Entries without a
// separator are ignored.
func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))

	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			m[k] = v
		}
	}

	return m
}

func stringArgs(args []any) []string {
	s := make([]string, 0, len(args))
	for _, a := range args {
		s = append(s, tmpl.Stringify(a))
	}

	return s
}
