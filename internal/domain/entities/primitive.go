package entities

// PrimitiveKind is the draw operation a primitive maps to
type PrimitiveKind string

const (
	PrimitiveText    PrimitiveKind = "text"
	PrimitivePicture PrimitiveKind = "picture"
	PrimitiveTable   PrimitiveKind = "table"
	PrimitiveChart   PrimitiveKind = "chart"
	PrimitiveFill    PrimitiveKind = "fill"
)

// TextRun is a span of uniformly styled text
type TextRun struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Mono   bool   `json:"mono,omitempty"`
	Color  string `json:"color,omitempty"`
}

// Paragraph is a line of runs, optionally bulleted
type Paragraph struct {
	Runs   []TextRun `json:"runs"`
	Bullet bool      `json:"bullet,omitempty"`
}

// PlainText joins the text of every run
func (p Paragraph) PlainText() string {
	var n int
	for _, r := range p.Runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range p.Runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}

// Text alignment
const (
	AlignLeft   = "left"
	AlignCenter = "center"
)

// TextBox holds styled paragraphs
type TextBox struct {
	Paragraphs []Paragraph `json:"paragraphs"`
	Font       string      `json:"font"`
	Size       float64     `json:"size"`
	Color      string      `json:"color"`
	Fill       string      `json:"fill,omitempty"`
	Border     string      `json:"border,omitempty"`
	Align      string      `json:"align,omitempty"`
}

// Picture references a normalized image on disk
type Picture struct {
	Path    string `json:"path"`
	AltText string `json:"alt_text,omitempty"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// TableBlock is a table with per-row fills
type TableBlock struct {
	Rows       [][]string `json:"rows"`
	Cols       int        `json:"cols"`
	HeaderFill string     `json:"header_fill"`
	HeaderText string     `json:"header_text"`
	RowFills   []string   `json:"row_fills"`
	RowText    []string   `json:"row_text"`
	Font       string     `json:"font"`
}

// ChartBlock is chart data with one color per series
type ChartBlock struct {
	Type       string        `json:"type"`
	Title      string        `json:"title,omitempty"`
	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors"`
	XLabel     string        `json:"x_label,omitempty"`
	YLabel     string        `json:"y_label,omitempty"`
	TextColor  string        `json:"text_color"`
	Font       string        `json:"font"`
}

// Primitive is one recorded draw operation. When Slot is set the payload is
// bound to the named structural placeholder of the layout.
type Primitive struct {
	Kind    PrimitiveKind `json:"kind"`
	Bounds  Rect          `json:"bounds"`
	Slot    string        `json:"slot,omitempty"`
	Text    *TextBox      `json:"text,omitempty"`
	Picture *Picture      `json:"picture,omitempty"`
	Table   *TableBlock   `json:"table,omitempty"`
	Chart   *ChartBlock   `json:"chart,omitempty"`
	Color   string        `json:"color,omitempty"`
}

// Structural slot names
const (
	SlotTitle    = "title"
	SlotSubtitle = "subtitle"
	SlotImage    = "image"
	SlotFooter   = "footer"
)

// RenderedSlide is one output page produced from a source slide
type RenderedSlide struct {
	SourceIndex int         `json:"source_index"`
	Page        int         `json:"page"`
	Title       string      `json:"title"`
	Layout      string      `json:"layout"`
	Background  string      `json:"background"`
	Primitives  []Primitive `json:"primitives"`
	Notes       string      `json:"notes,omitempty"`
}

// Add appends a primitive
func (s *RenderedSlide) Add(p Primitive) {
	s.Primitives = append(s.Primitives, p)
}
