package embed

// Partial-update helpers. Each one decodes a raw token, changes exactly
// one field, and re-encodes; all other fields survive the trip. The
// second return value is false when raw is not a well-formed token.

// WithAlignment returns raw with its alignment replaced.
func WithAlignment(raw, alignment string) (string, bool) {
	t, ok := Decode(raw)
	if !ok {
		return "", false
	}
	t.Alignment = alignment
	return t.Encode(), true
}

// WithDarkMode returns raw with its dark flag replaced.
func WithDarkMode(raw string, dark bool) (string, bool) {
	t, ok := Decode(raw)
	if !ok {
		return "", false
	}
	t.Dark = dark
	return t.Encode(), true
}

// WithCaption returns raw with its caption replaced. A non-empty caption
// upgrades the token to hash encoding, an empty one downgrades it to
// pipe encoding.
func WithCaption(raw, caption string) (string, bool) {
	t, ok := Decode(raw)
	if !ok {
		return "", false
	}
	t.Caption = caption
	return t.Encode(), true
}

// WithSize returns raw with its pixel size replaced. Width 0 removes
// the size suffix entirely; height 0 means "derive from aspect ratio".
func WithSize(raw string, width, height int) (string, bool) {
	t, ok := Decode(raw)
	if !ok {
		return "", false
	}
	t.Width = width
	t.Height = height
	return t.Encode(), true
}
