package embed

// BuildOptions controls the token produced for a freshly inserted image.
type BuildOptions struct {
	Alignment string
	Dark      bool
	Caption   string
	Width     int
	Height    int
}

// Build produces a new embed token for name with the given layout. When
// every option is at its default the bare form ![[name]] is produced;
// the host renders that identically and it keeps inserted documents
// free of noise. Any populated option switches to the full codec output.
func Build(name string, opts BuildOptions) string {
	t := &Token{
		Target:    name,
		Alignment: opts.Alignment,
		Dark:      opts.Dark,
		Caption:   opts.Caption,
		Width:     opts.Width,
		Height:    opts.Height,
	}
	bare := (opts.Alignment == "" || opts.Alignment == AlignCenter) &&
		!opts.Dark && opts.Caption == "" && opts.Width <= 0
	if bare {
		return "![[" + name + "]]"
	}
	return t.Encode()
}
