// Package module evaluates compiled partial modules.
//
// A compiled module is text/template source produced by the loader chain. It is
// evaluated in a fresh template set whose only view of the host is an explicit
// binding map, a read-only module registry reachable through require, and the
// execution origin. A module produces its value either implicitly (the text it
// renders) or explicitly:
//
//	{{ export 42 }}                      Raw(42)
//	{{ exportDefault (factory "page") }} ESModuleDefault(factory)
//
// Factories render a named block of the same module against caller-supplied
// parameters and are how HTML partials defer rendering until options are known.
//
// Module-side helpers:
//
//	binding "name"   value of an explicit binding
//	setPublicPath p  set the runtime public path
//	publicPath       current runtime public path
//	asset "img.png"  publicPath joined with a relative asset reference
//	filename         execution origin
//	require "name"   entry from the host module registry
//
// plus the hermetic slim-sprig function set.
package module
