// Package tmpl implements an asynchronous template engine for brace-delimited
// templates.
//
// # Syntax
//
//	{name}                     output the value of an expression
//	{item.price.plus(10)}      parts are separated by dots; parts with
//	                           arguments are virtual methods
//	{data:user.name}           expressions may start with a namespace
//	{name ?: 'guest'}          infix notation, rewritten to name.or('guest')
//	{name??}                   shorthand for name.or(null)
//	{#if cond}..{#else}..{/if} sections have a start tag, blocks and an end
//	{#include base /}          self-closing section
//	{@string name='x'}         parameter declaration with a default
//	{! comment !}              comments are discarded
//	{| {raw} text |}           unparsed character data
//	\{ and \}                  escaped delimiters
//
// # Rendering
//
// A parsed [Template] is immutable and may render concurrently. Rendering
// evaluates expressions through an ordered chain of [ValueResolver] values;
// each resolution is a [github.com/ardnew/brace/async.Future], so resolvers
// may complete later, e.g. after I/O. Sections and expressions of a block
// resolve concurrently, and their output is composed in source order.
//
// Values are converted to text only once the whole result tree is complete,
// using the first applicable [ResultMapper] (e.g. for HTML escaping).
//
// # Lookup
//
// The first part of an expression is looked up in the data of the current
// [ResolutionContext], then in each parent context. Later parts resolve
// against the value of the previous part. A lookup that no resolver can
// satisfy yields [NotFound], which renders as the empty string unless the
// engine uses strict rendering, in which case it fails with
// [ErrPropertyNotFound].
//
// # Sections
//
// The default section helpers are if, each/for, with, let/set, include,
// insert, eval and when/switch. Custom helpers implement
// [SectionHelperFactory].
package tmpl
