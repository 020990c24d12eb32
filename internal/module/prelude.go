package module

// PublicPathBinding is the binding name compiled partials read their public
// path from.
const PublicPathBinding = "partialsPublicPath"

// PublicPathPrelude returns module code that sets the runtime public path from
// the named binding. It is prepended to a module so every later publicPath or
// asset call in that module, including inside factories, sees the value.
func PublicPathPrelude(binding string) string {
	return `{{- setPublicPath (binding "` + binding + `") -}}`
}
