// Package mapper provides result mappers that escape expression output
// according to the content type of the template being rendered.
//
// [HTML] escapes markup-significant characters in text/html and text/xml
// templates, and [JSON] escapes string content in application/json
// templates. Values wrapped in [Raw], e.g. by the `raw` virtual property
// registered with [Resolvers], bypass escaping; the HTML mapper still runs
// them through a sanitizing policy.
//
//	engine := mapper.Install(tmpl.NewBuilder().AddDefaults()).Build()
package mapper
