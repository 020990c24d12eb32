// Package partial holds partial descriptors: the immutable per-build
// configuration of one HTML fragment and the fragment it renders to.
package partial
