package api

import (
	"bytes"
	"fmt"
	"image/color"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ayusman/mudra/internal/app"
)

// axisColors are used for x, y and z in that order.
var axisColors = []color.Color{
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
}

// series is a gesture split into its three axes.
type series struct {
	title string
	axes  [3][]float64
}

func (s series) len() int {
	return len(s.axes[0])
}

// PlotHandler renders the current and reference gestures.
type PlotHandler struct {
	session *app.Session
}

// NewPlotHandler creates a new PlotHandler for the given session.
func NewPlotHandler(s *app.Session) *PlotHandler {
	return &PlotHandler{session: s}
}

// ServeHTTP serves GET /api/plot as an HTML page and GET /api/plot.png as an
// image of the gesture chosen by ?source=current|reference.
func (h *PlotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/plot":
		h.page(w)
	case "/api/plot.png":
		h.image(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *PlotHandler) current() series {
	snap := h.session.Snapshot()
	return series{title: "Current gesture", axes: [3][]float64{snap.X, snap.Y, snap.Z}}
}

func (h *PlotHandler) reference() series {
	ref := h.session.Reference()
	s := series{title: "Reference gesture"}
	for i := range s.axes {
		s.axes[i] = make([]float64, len(ref))
	}
	for i, sample := range ref {
		s.axes[0][i] = sample.X
		s.axes[1][i] = sample.Y
		s.axes[2][i] = sample.Z
	}
	return s
}

// page renders both gestures with go-echarts.
func (h *PlotHandler) page(w http.ResponseWriter) {
	page := components.NewPage()
	page.PageTitle = "mudra"
	page.AddCharts(lineChart(h.current()), lineChart(h.reference()))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func lineChart(s series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: s.title, Subtitle: fmt.Sprintf("%d samples", s.len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sample"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rad/s"}),
	)

	x := make([]int, s.len())
	for i := range x {
		x[i] = i
	}
	line.SetXAxis(x)

	for i, name := range []string{"x", "y", "z"} {
		data := make([]opts.LineData, len(s.axes[i]))
		for j, v := range s.axes[i] {
			data[j] = opts.LineData{Value: v}
		}
		line.AddSeries(name, data)
	}
	return line
}

// image renders one gesture as a PNG with gonum/plot.
func (h *PlotHandler) image(w http.ResponseWriter, r *http.Request) {
	var s series
	switch r.URL.Query().Get("source") {
	case "", "current":
		s = h.current()
	case "reference":
		s = h.reference()
	default:
		writeError(w, http.StatusBadRequest, "source must be current or reference")
		return
	}

	if s.len() == 0 {
		writeError(w, http.StatusNotFound, "No samples to plot")
		return
	}

	p := plot.New()
	p.Title.Text = s.title
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "rad/s"

	for i, name := range []string{"x", "y", "z"} {
		pts := make(plotter.XYs, len(s.axes[i]))
		for j, v := range s.axes[i] {
			pts[j] = plotter.XY{X: float64(j), Y: v}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("plot error: %v", err))
			return
		}
		line.Color = axisColors[i]
		line.Width = vg.Points(1)

		p.Add(line)
		p.Legend.Add(name, line)
	}

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("plot error: %v", err))
		return
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("plot error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
