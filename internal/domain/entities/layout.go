package entities

// Page geometry in inches (16:9)
const (
	PageWidth  = 13.333
	PageHeight = 7.5
)

// Rect is a box in page inches
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Empty reports whether the rect has no area
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Inset shrinks the rect by d on every side
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: max(r.W-2*d, 0), H: max(r.H-2*d, 0)}
}

// SplitRows divides the rect into n equal horizontal bands
func (r Rect) SplitRows(n int) []Rect {
	if n <= 1 {
		return []Rect{r}
	}
	h := r.H / float64(n)
	rows := make([]Rect, n)
	for i := range rows {
		rows[i] = Rect{X: r.X, Y: r.Y + float64(i)*h, W: r.W, H: h}
	}
	return rows
}

// FitAspect returns the largest rect with the given aspect ratio centered in r
func (r Rect) FitAspect(width, height int) Rect {
	if width <= 0 || height <= 0 || r.Empty() {
		return r
	}
	ratio := float64(width) / float64(height)
	w, h := r.W, r.W/ratio
	if h > r.H {
		h = r.H
		w = h * ratio
	}
	return Rect{X: r.X + (r.W-w)/2, Y: r.Y + (r.H-h)/2, W: w, H: h}
}

// Layout identifiers in the built-in catalog
const (
	LayoutTitle        = "TITLE"
	LayoutTitleContent = "TITLE_CONTENT"
	LayoutSection      = "SECTION"
	LayoutTwoCol       = "TWO_COL"
	LayoutImageFocus   = "IMAGE_FOCUS"
	LayoutTable        = "TABLE"
	LayoutChart        = "CHART"
	LayoutCode         = "CODE"
	LayoutBlank        = "BLANK"
)

// Capacity bounds how much text-like content fits in a layout body
type Capacity struct {
	MaxItems int `json:"max_items"`
	MaxChars int `json:"max_chars"`
}

// LayoutRegions are the structural placeholders of a layout
type LayoutRegions struct {
	Title    Rect   `json:"title"`
	Subtitle Rect   `json:"subtitle"`
	Body     Rect   `json:"body"`
	Columns  []Rect `json:"columns,omitempty"`
}

// LayoutDefinition is a read-only entry of the layout catalog
type LayoutDefinition struct {
	Name       string        `json:"name"`
	Fallback   string        `json:"fallback"`
	Regions    LayoutRegions `json:"regions"`
	ImageSlots []Rect        `json:"image_slots,omitempty"`
	Capacity   Capacity      `json:"capacity"`
	TitleBand  bool          `json:"title_band"`
}

// BodyRegions returns the regions content flows into
func (l LayoutDefinition) BodyRegions() []Rect {
	if len(l.Regions.Columns) > 0 {
		return l.Regions.Columns
	}
	return []Rect{l.Regions.Body}
}

// AnchorRect returns the fixed positional box for an image anchor
func AnchorRect(anchor ImageAnchor) Rect {
	switch anchor {
	case AnchorLeft:
		return Rect{X: 0.5, Y: 1.9, W: 6.0, H: 4.9}
	case AnchorTop:
		return Rect{X: 0.5, Y: 1.9, W: 12.333, H: 2.3}
	case AnchorBottom:
		return Rect{X: 0.5, Y: 4.5, W: 12.333, H: 2.3}
	case AnchorCenter:
		return Rect{X: 3.667, Y: 2.0, W: 6.0, H: 4.5}
	case AnchorFull:
		return Rect{X: 0, Y: 0, W: PageWidth, H: PageHeight}
	default:
		return Rect{X: 6.833, Y: 1.9, W: 6.0, H: 4.9}
	}
}
