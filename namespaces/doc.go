// Package namespaces provides template namespace resolvers.
//
// Three namespaces are available:
//
//   - env: process environment overlaid with dotenv files, e.g. {env:HOME},
//     {env:get('EDITOR', 'vi')} or {env:prefix('PATH', '/opt/bin')}.
//   - str: string helpers, e.g. {str:slug(title)} or {str:join('-', a, b)}.
//   - expr: expr-lang evaluation over the visible template data, e.g.
//     {expr:eval('price * qty')}.
//
// [Install] registers all of them on a [tmpl.Builder].
package namespaces
