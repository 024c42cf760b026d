package staticsource

// Pattern names one of the fixed synthetic test streams the static-pattern
// server exposes as placeholders when a restream path has no recorder.
type Pattern struct {
	// Path is the absolute RTSP mount point, e.g. "/bars".
	Path string
	// Name is the human-readable pattern identifier.
	Name string
	// Fill is the pattern's nominal RGB color; only its red component is
	// used, as the first payload byte of each synthetic slice. Bars is the
	// one exception: it cycles through the fixed color-bar palette rather
	// than a single fill.
	Fill [3]byte
}

// Patterns enumerates the fixed set of mounts: color bars plus five
// solid-color screens, always available regardless of recorder state.
var Patterns = []Pattern{
	{Path: "/bars", Name: "bars"},
	{Path: "/white", Name: "white", Fill: [3]byte{0xff, 0xff, 0xff}},
	{Path: "/black", Name: "black", Fill: [3]byte{0x00, 0x00, 0x00}},
	{Path: "/red", Name: "red", Fill: [3]byte{0xff, 0x00, 0x00}},
	{Path: "/green", Name: "green", Fill: [3]byte{0x00, 0xff, 0x00}},
	{Path: "/blue", Name: "blue", Fill: [3]byte{0x00, 0x00, 0xff}},
}

// barsPalette is the standard SMPTE-100 color-bar sequence, cycled one entry
// per frame by the "bars" pattern instead of a single Fill color.
var barsPalette = [7][3]byte{
	{0xc0, 0xc0, 0xc0}, // gray
	{0xc0, 0xc0, 0x00}, // yellow
	{0x00, 0xc0, 0xc0}, // cyan
	{0x00, 0xc0, 0x00}, // green
	{0xc0, 0x00, 0xc0}, // magenta
	{0xc0, 0x00, 0x00}, // red
	{0x00, 0x00, 0xc0}, // blue
}
