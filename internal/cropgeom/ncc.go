package cropgeom

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// NCCMatcher is the default Matcher: zero-mean normalized cross-correlation
// over grayscale planes. Large originals get a coarse pass on a downsampled
// plane first, and the best coarse position is refined at full resolution in
// a small neighborhood, which keeps the search bounded without giving up the
// exact peak.
//
// The matcher assumes the template is at the original's scale; a rescaled
// fragment should be resized back by the caller before matching.
type NCCMatcher struct {
	// CoarseLimit is the maximum dimension of the coarse search plane.
	// Originals within the limit are searched directly. Zero means 256.
	CoarseLimit int
}

func (m NCCMatcher) limit() int {
	if m.CoarseLimit > 0 {
		return m.CoarseLimit
	}
	return 256
}

// Match implements Matcher. The returned score is in [-1, 1], where 1 is a
// pixel-perfect correlation.
func (m NCCMatcher) Match(ctx context.Context, original, template image.Image) (Box, float64, error) {
	o := grayPlane(original)
	t := grayPlane(template)

	limit := m.limit()
	if o.w <= limit && o.h <= limit {
		x, y, score, err := nccSearch(ctx, o, t, 0, 0, o.w-t.w, o.h-t.h)
		if err != nil {
			return Box{}, 0, err
		}
		return Box{X1: x, Y1: y, X2: x + t.w, Y2: y + t.h}, score, nil
	}

	// Coarse pass on a downsampled plane, then refine around the hit.
	factor := (maxInt(o.w, o.h) + limit - 1) / limit
	co := grayPlane(imaging.Resize(original, o.w/factor, o.h/factor, imaging.Box))
	ct := grayPlane(imaging.Resize(template, maxInt(t.w/factor, 1), maxInt(t.h/factor, 1), imaging.Box))
	cx, cy, _, err := nccSearch(ctx, co, ct, 0, 0, co.w-ct.w, co.h-ct.h)
	if err != nil {
		return Box{}, 0, err
	}

	margin := factor + 1
	x0 := clampInt(cx*factor-margin, 0, o.w-t.w)
	y0 := clampInt(cy*factor-margin, 0, o.h-t.h)
	x1 := clampInt(cx*factor+margin, 0, o.w-t.w)
	y1 := clampInt(cy*factor+margin, 0, o.h-t.h)
	x, y, score, err := nccSearch(ctx, o, t, x0, y0, x1, y1)
	if err != nil {
		return Box{}, 0, err
	}
	return Box{X1: x, Y1: y, X2: x + t.w, Y2: y + t.h}, score, nil
}

// plane is a grayscale pixel plane with a zero origin.
type plane struct {
	w, h int
	pix  []float64
}

func grayPlane(img image.Image) plane {
	b := img.Bounds()
	p := plane{w: b.Dx(), h: b.Dy(), pix: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			p.pix[y*p.w+x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
		}
	}
	return p
}

// nccSearch scans offsets [x0,x1]x[y0,y1] and returns the best-scoring
// position. Strict improvement wins, so ties resolve to the first position
// in raster-scan order. Window sums come from summed-area tables; only the
// cross term is computed per offset.
func nccSearch(ctx context.Context, o, t plane, x0, y0, x1, y1 int) (int, int, float64, error) {
	n := float64(t.w * t.h)
	var tSum, tSum2 float64
	for _, v := range t.pix {
		tSum += v
		tSum2 += v * v
	}
	tMean := tSum / n
	tVar := tSum2 - tSum*tSum/n

	sat, sat2 := integrals(o)
	bestX, bestY := x0, y0
	bestScore := math.Inf(-1)

	for y := y0; y <= y1; y++ {
		if err := ctx.Err(); err != nil {
			return 0, 0, 0, err
		}
		for x := x0; x <= x1; x++ {
			oSum := windowSum(sat, o.w, x, y, t.w, t.h)
			oSum2 := windowSum(sat2, o.w, x, y, t.w, t.h)
			oVar := oSum2 - oSum*oSum/n

			var cross float64
			for ty := 0; ty < t.h; ty++ {
				orow := o.pix[(y+ty)*o.w+x:]
				trow := t.pix[ty*t.w:]
				for tx := 0; tx < t.w; tx++ {
					cross += orow[tx] * trow[tx]
				}
			}
			num := cross - oSum*tMean
			den := math.Sqrt(oVar * tVar)

			var score float64
			if den > 1e-9 {
				score = num / den
			}
			if score > bestScore {
				bestScore, bestX, bestY = score, x, y
			}
		}
	}
	if bestScore > 1 {
		bestScore = 1
	}
	return bestX, bestY, bestScore, nil
}

// integrals builds summed-area tables of the plane and its squares, each
// (w+1)x(h+1) with a zero border.
func integrals(p plane) ([]float64, []float64) {
	w1 := p.w + 1
	sat := make([]float64, w1*(p.h+1))
	sat2 := make([]float64, w1*(p.h+1))
	for y := 0; y < p.h; y++ {
		var row, row2 float64
		for x := 0; x < p.w; x++ {
			v := p.pix[y*p.w+x]
			row += v
			row2 += v * v
			sat[(y+1)*w1+x+1] = sat[y*w1+x+1] + row
			sat2[(y+1)*w1+x+1] = sat2[y*w1+x+1] + row2
		}
	}
	return sat, sat2
}

func windowSum(sat []float64, w, x, y, tw, th int) float64 {
	w1 := w + 1
	return sat[(y+th)*w1+x+tw] - sat[y*w1+x+tw] - sat[(y+th)*w1+x] + sat[y*w1+x]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
