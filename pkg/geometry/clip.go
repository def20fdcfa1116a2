package geometry

import "github.com/paulmach/orb"

// ClipHalfPlane keeps the part of the convex ring lying on the side of the
// perpendicular bisector of [keep, drop] that contains keep (Sutherland-Hodgman
// against a single line). Points on the bisector are kept.
// The input ring may be open or closed; the result is closed, or nil when nothing remains.
func ClipHalfPlane(ring orb.Ring, keep, drop Point2D) orb.Ring {
	normal := drop.Sub(keep)
	if normal.IsZero() {
		return closeRing(ring)
	}
	mid := keep.Add(drop).Scale(0.5)
	side := func(p orb.Point) float64 {
		return FromOrb(p).Sub(mid).Dot(normal)
	}

	pts := openRing(ring)
	if len(pts) == 0 {
		return nil
	}

	out := make(orb.Ring, 0, len(pts)+2)
	for i, cur := range pts {
		prev := pts[(i+len(pts)-1)%len(pts)]
		sc, sp := side(cur), side(prev)
		switch {
		case sc <= 0 && sp <= 0:
			out = append(out, cur)
		case sc <= 0 && sp > 0:
			out = append(out, intersect(prev, cur, sp, sc), cur)
		case sc > 0 && sp <= 0:
			out = append(out, intersect(prev, cur, sp, sc))
		}
	}
	if len(out) < 3 {
		return nil
	}
	return closeRing(out)
}

// intersect returns the point on [a,b] where the signed side value crosses zero.
func intersect(a, b orb.Point, sa, sb float64) orb.Point {
	t := sa / (sa - sb)
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

func openRing(r orb.Ring) orb.Ring {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

func closeRing(r orb.Ring) orb.Ring {
	if len(r) == 0 {
		return nil
	}
	if r[0] == r[len(r)-1] {
		return r
	}
	out := make(orb.Ring, len(r), len(r)+1)
	copy(out, r)
	return append(out, r[0])
}
