package views

import (
	"fmt"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
	"github.com/deevus/livefrag/dom"
)

// PageViewParams holds configuration for creating a PageView.
type PageViewParams struct {
	Document *dom.Document
	// Status is drawn on the last row when set.
	Status *StatusLine
}

// PageView draws the attached nodes of a document top to bottom. Nodes with
// mounted widgets are drawn by the widget; other nodes draw their text.
type PageView struct {
	doc    *dom.Document
	status *StatusLine
}

// NewPageView creates a PageView for the given params.
func NewPageView(p PageViewParams) *PageView {
	return &PageView{doc: p.Document, status: p.Status}
}

// heighter is implemented by widgets that know how many rows they need.
type heighter interface {
	Height() int
}

// Draw renders the document nodes and the status line.
func (pv *PageView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	nodes := pv.doc.Nodes()
	if len(nodes) == 0 {
		return drawLoading(ctx, pv)
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, pv)
	bottom := int(ctx.Max.Height)
	if pv.status != nil && bottom > 0 {
		bottom--
		statusSurf, err := pv.status.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, bottom, statusSurf)
	}

	row := 0
	for _, n := range nodes {
		if row >= bottom {
			break
		}
		surf, err := pv.drawNode(ctx, n, bottom-row)
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, surf)
		row += int(surf.Size.Height)
	}

	return s, nil
}

func (pv *PageView) drawNode(ctx vxfw.DrawContext, n *dom.Node, rows int) (vxfw.Surface, error) {
	switch content := n.Content().(type) {
	case vxfw.Widget:
		h := 1
		if hw, ok := content.(heighter); ok {
			h = hw.Height()
		}
		h = max(min(h, rows), 0)
		return content.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: uint16(h)}))
	case string:
		return drawText(ctx, fmt.Sprintf("[%s] %s", n.ID(), content), vaxis.Style{Attribute: vaxis.AttrDim})
	}
	return drawText(ctx, n.Text(), nodeStyle(n))
}

func nodeStyle(n *dom.Node) vaxis.Style {
	switch class, _ := n.Attr("class"); class {
	case "title":
		return vaxis.Style{Attribute: vaxis.AttrBold, Foreground: vaxis.IndexColor(6)}
	case "placeholder":
		return vaxis.Style{Attribute: vaxis.AttrDim}
	}
	if n.ID() == "header" {
		return vaxis.Style{Attribute: vaxis.AttrReverse}
	}
	return vaxis.Style{}
}

// drawText draws a single row of text. Text nodes always take one row, even
// when empty.
// drawLoading shows a dim placeholder while the document is empty, between
// a reload's teardown and the next mount.
func drawLoading(ctx vxfw.DrawContext, owner vxfw.Widget) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, owner)
	label, err := drawText(ctx, "Loading page...", vaxis.Style{Attribute: vaxis.AttrDim})
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, label)
	return s, nil
}

func drawText(ctx vxfw.DrawContext, text string, style vaxis.Style) (vxfw.Surface, error) {
	label := richtext.New([]vaxis.Segment{{Text: text, Style: style}})
	labelSurf, err := label.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s := vxfw.NewSurface(ctx.Max.Width, 1, label)
	s.AddChild(0, 0, labelSurf)
	return s, nil
}
