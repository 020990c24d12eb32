package partial

// Fragment is the rendered output of one descriptor for one build. It is
// read-only once constructed and never outlives the build.
type Fragment struct {
	descriptor *Descriptor
	html       string
}

// NewFragment binds the final HTML to its descriptor.
func NewFragment(d *Descriptor, html string) *Fragment {
	return &Fragment{descriptor: d, html: html}
}

func (f *Fragment) Descriptor() *Descriptor { return f.descriptor }

// HTML is the template bound against the descriptor options.
func (f *Fragment) HTML() string { return f.html }
