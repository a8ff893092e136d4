package stealth

import (
	"math"
	"math/rand"
	"time"
)

// Point is a viewport coordinate in CSS pixels
type Point struct {
	X, Y float64
}

// MouseConfig holds configuration for human-like mouse movement
type MouseConfig struct {
	// Base duration of a move; longer distances scale it up.
	BaseSpeedMs int

	// 8-15 steps looks human, 50+ does not.
	MinSteps int
	MaxSteps int

	OvershootChance   float64
	OvershootDistance float64 // fraction of the travelled distance

	// 0 is a straight line, 0.3 a natural curve.
	CurveVariance float64

	JitterAmount float64 // pixels
}

// DefaultMouseConfig returns balanced settings for human-like movement
func DefaultMouseConfig() MouseConfig {
	return MouseConfig{
		BaseSpeedMs:       150,
		MinSteps:          8,
		MaxSteps:          14,
		OvershootChance:   0.15,
		OvershootDistance: 0.08,
		CurveVariance:     0.25,
		JitterAmount:      1.5,
	}
}

// Waypoint is one step of a mouse path
type Waypoint struct {
	Point
	Delay time.Duration
}

// MousePath plans a Bézier-curved move from → to. The last waypoint is
// always exactly to; an occasional overshoot is corrected before it.
func MousePath(rng *rand.Rand, from, to Point, cfg MouseConfig) []Waypoint {
	distance := math.Hypot(to.X-from.X, to.Y-from.Y)
	if distance < 5 {
		return []Waypoint{{Point: to}}
	}

	steps := cfg.MinSteps + int(distance/100)
	if steps > cfg.MaxSteps {
		steps = cfg.MaxSteps
	}
	if steps < 1 {
		steps = 1
	}

	ctrl1, ctrl2 := controlPoints(rng, from, to, cfg.CurveVariance)

	duration := time.Duration(float64(cfg.BaseSpeedMs) * (0.8 + distance/500) * float64(time.Millisecond))
	stepDelay := duration / time.Duration(steps)

	path := make([]Waypoint, 0, steps+4)
	for i := 1; i <= steps; i++ {
		pos := cubicBezier(from, ctrl1, ctrl2, to, easeInOutQuad(float64(i)/float64(steps)))
		if i < steps {
			pos.X += (rng.Float64() - 0.5) * cfg.JitterAmount
			pos.Y += (rng.Float64() - 0.5) * cfg.JitterAmount
		}

		delay := stepDelay + time.Duration(rng.Intn(10)-5)*time.Millisecond
		if delay < time.Millisecond {
			delay = time.Millisecond
		}
		path = append(path, Waypoint{Point: pos, Delay: delay})
	}

	if rng.Float64() < cfg.OvershootChance {
		path = append(path[:len(path)-1], overshoot(rng, to, distance, cfg)...)
	}

	return path
}

// overshoot passes the target and comes back in 2-3 short steps ending on it
func overshoot(rng *rand.Rand, target Point, distance float64, cfg MouseConfig) []Waypoint {
	dist := distance * cfg.OvershootDistance * (0.5 + rng.Float64()*0.5)
	angle := rng.Float64() * 2 * math.Pi
	past := Point{
		X: target.X + math.Cos(angle)*dist,
		Y: target.Y + math.Sin(angle)*dist,
	}

	out := []Waypoint{{Point: past, Delay: RandomMillis(rng, 15, 40)}}

	n := 2 + rng.Intn(2)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		out = append(out, Waypoint{
			Point: Point{X: past.X + (target.X-past.X)*t, Y: past.Y + (target.Y-past.Y)*t},
			Delay: RandomMillis(rng, 10, 25),
		})
	}
	out[len(out)-1].Point = target
	return out
}

func controlPoints(rng *rand.Rand, from, to Point, variance float64) (Point, Point) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	distance := math.Hypot(dx, dy)

	perpX := -dy / distance
	perpY := dx / distance

	off1 := (rng.Float64() - 0.5) * 2 * variance * distance
	off2 := (rng.Float64() - 0.5) * 2 * variance * distance

	return Point{X: from.X + dx*0.3 + perpX*off1, Y: from.Y + dy*0.3 + perpY*off1},
		Point{X: from.X + dx*0.7 + perpX*off2, Y: from.Y + dy*0.7 + perpY*off2}
}

// B(t) = (1-t)³P0 + 3(1-t)²tP1 + 3(1-t)t²P2 + t³P3
func cubicBezier(p0, p1, p2, p3 Point, t float64) Point {
	mt := 1 - t
	return Point{
		X: mt*mt*mt*p0.X + 3*mt*mt*t*p1.X + 3*mt*t*t*p2.X + t*t*t*p3.X,
		Y: mt*mt*mt*p0.Y + 3*mt*mt*t*p1.Y + 3*mt*t*t*p2.Y + t*t*t*p3.Y,
	}
}

func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// ClickTarget picks a point near the center of a box, offset by up to 15% of
// its size so clicks don't always land dead center.
func ClickTarget(rng *rand.Rand, quad []float64) Point {
	if len(quad) < 8 {
		return Point{}
	}
	center := Point{
		X: (quad[0] + quad[2] + quad[4] + quad[6]) / 4,
		Y: (quad[1] + quad[3] + quad[5] + quad[7]) / 4,
	}
	width := math.Abs(quad[2] - quad[0])
	height := math.Abs(quad[5] - quad[1])
	center.X += (rng.Float64() - 0.5) * width * 0.3
	center.Y += (rng.Float64() - 0.5) * height * 0.3
	return center
}
