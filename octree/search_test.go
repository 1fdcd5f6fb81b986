package octree

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"go.viam.com/test"

	"go.viam.com/octree/logging"
	"go.viam.com/octree/spatialmath"
)

func bruteForceNearest(points []spatialmath.Vector, q spatialmath.Vector, notSelf bool) int {
	best := -1
	bestDistSq := math.Inf(1)
	for i, p := range points {
		if notSelf && p.Equals(q) {
			continue
		}
		if d := p.DistanceSquared(q); d < bestDistSq {
			best, bestDistSq = i, d
		}
	}
	return best
}

func TestFindNearestMatchesBruteForce(t *testing.T) {
	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			r := rand.New(rand.NewSource(1))
			tree := New[int](spatialmath.NewVector(0, 0, 0), spatialmath.NewVector(16, 16, 16),
				logging.NewTestLogger(t), WithContainment(policy))
			points := randomPoints(r, 500, 16)
			for i, p := range points {
				tree.Add(p, i)
			}

			for _, q := range randomPoints(r, 100, 16) {
				entry, ok := tree.FindNearestEntry(q, NearestOptions{})
				test.That(t, ok, test.ShouldBeTrue)
				test.That(t, entry.Data, test.ShouldEqual, bruteForceNearest(points, q, false))
				test.That(t, entry.Point, test.ShouldResemble, points[entry.Data])
			}

			t.Run("not self", func(t *testing.T) {
				for i, q := range points[:50] {
					entry, ok := tree.FindNearestEntry(q, NearestOptions{NotSelf: true})
					test.That(t, ok, test.ShouldBeTrue)
					test.That(t, entry.Data, test.ShouldNotEqual, i)
					test.That(t, entry.Data, test.ShouldEqual, bruteForceNearest(points, q, true))

					self, ok := tree.FindNearestEntry(q, NearestOptions{})
					test.That(t, ok, test.ShouldBeTrue)
					test.That(t, self.Data, test.ShouldEqual, i)
				}
			})
		})
	}
}

func TestFindNearestOptions(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("empty tree", func(t *testing.T) {
		tree := New[int](spatialmath.NewVector(0, 0, 0), spatialmath.NewVector(8, 8, 8), logger)
		_, ok := tree.FindNearestPoint(spatialmath.NewVector(1, 1, 1), NearestOptions{})
		test.That(t, ok, test.ShouldBeFalse)
	})

	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			tree := New[string](spatialmath.NewVector(0, 0, 0), spatialmath.NewVector(8, 8, 8), logger,
				WithContainment(policy))
			tree.Add(spatialmath.NewVector(1, 1, 1), "A")
			q := spatialmath.NewVector(1, 1, 3)

			_, ok := tree.FindNearestPoint(q, NearestOptions{MaxDist: 1.5})
			test.That(t, ok, test.ShouldBeFalse)

			// the max distance itself is excluded
			_, ok = tree.FindNearestPoint(q, NearestOptions{MaxDist: 2})
			test.That(t, ok, test.ShouldBeFalse)

			p, ok := tree.FindNearestPoint(q, NearestOptions{MaxDist: 2.5})
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, p, test.ShouldResemble, spatialmath.NewVector(1, 1, 1))

			// zero and negative bounds are unbounded
			for _, maxDist := range []float64{0, -1} {
				p, ok = tree.FindNearestPoint(q, NearestOptions{MaxDist: maxDist})
				test.That(t, ok, test.ShouldBeTrue)
				test.That(t, p, test.ShouldResemble, spatialmath.NewVector(1, 1, 1))
			}

			_, ok = tree.FindNearestPoint(spatialmath.NewVector(1, 1, 1), NearestOptions{NotSelf: true})
			test.That(t, ok, test.ShouldBeFalse)

			p, ok = tree.FindNearestPoint(spatialmath.NewVector(1, 1, 1), NearestOptions{})
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, p, test.ShouldResemble, spatialmath.NewVector(1, 1, 1))
		})
	}

	t.Run("ties go to the first point visited", func(t *testing.T) {
		tree := New[string](spatialmath.NewVector(0, 0, 0), spatialmath.NewVector(8, 8, 8), logger)
		tree.Add(spatialmath.NewVector(1, 1, 3), "first")
		tree.Add(spatialmath.NewVector(1, 1, 1), "second")

		entry, ok := tree.FindNearestEntry(spatialmath.NewVector(1, 1, 2), NearestOptions{})
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, entry.Data, test.ShouldEqual, "first")
	})
}

func TestFindNearbyPoints(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("boundary is inclusive", func(t *testing.T) {
		for _, policy := range policies {
			tree := New[string](spatialmath.NewVector(0, 0, 0), spatialmath.NewVector(8, 8, 8), logger,
				WithContainment(policy))
			tree.Add(spatialmath.NewVector(1, 1, 1), "A")
			tree.Add(spatialmath.NewVector(1, 1, 5), "B")

			result := tree.FindNearbyPoints(spatialmath.NewVector(1, 1, 3), 2)
			test.That(t, result.Data, test.ShouldResemble, []string{"A", "B"})

			result = tree.FindNearbyPoints(spatialmath.NewVector(1, 1, 3), 1.999)
			test.That(t, result.Points, test.ShouldBeEmpty)
			test.That(t, result.Data, test.ShouldBeEmpty)
		}
	})

	t.Run("matches brute force", func(t *testing.T) {
		r := rand.New(rand.NewSource(3))
		tree := New[int](spatialmath.NewVector(0, 0, 0), spatialmath.NewVector(16, 16, 16), logger,
			WithContainment(RegionContainment{}))
		points := randomPoints(r, 500, 16)
		for i, p := range points {
			tree.Add(p, i)
		}

		queries := randomPoints(r, 50, 16)
		for i, q := range queries {
			radius := float64(i%5) + 0.5

			var expected []int
			for j, p := range points {
				if p.Distance(q) <= radius {
					expected = append(expected, j)
				}
			}

			result := tree.FindNearbyPoints(q, radius)
			test.That(t, len(result.Points), test.ShouldEqual, len(result.Data))
			for k, d := range result.Data {
				test.That(t, result.Points[k], test.ShouldResemble, points[d])
			}

			got := append([]int(nil), result.Data...)
			sort.Ints(got)
			test.That(t, got, test.ShouldResemble, expected)
		}
	})

	t.Run("center pruning skips deep cells far from the origin", func(t *testing.T) {
		far := spatialmath.NewVector(7.9, 7.9, 7.9)
		for _, tc := range []struct {
			policy   ContainmentPolicy
			expected []string
		}{
			{ReferenceContainment{}, nil},
			{RegionContainment{}, []string{"far"}},
		} {
			tree := New[string](spatialmath.NewVector(0, 0, 0), spatialmath.NewVector(8, 8, 8), logger,
				WithContainment(tc.policy))
			tree.Add(far, "far")
			tree.Add(spatialmath.NewVector(0.1, 0.1, 0.1), "near")

			result := tree.FindNearbyPoints(far, 0.5)
			test.That(t, result.Data, test.ShouldResemble, tc.expected)

			// nearest search still reaches the point
			entry, ok := tree.FindNearestEntry(far, NearestOptions{})
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, entry.Data, test.ShouldEqual, "far")
		}

		// under the reference policy both points chain into the first octant down to the depth bound
		tree := New[string](spatialmath.NewVector(0, 0, 0), spatialmath.NewVector(8, 8, 8), logger)
		tree.Add(far, "far")
		tree.Add(spatialmath.NewVector(0.1, 0.1, 0.1), "near")
		cells := tree.CellsAtLevel(MaxLevel)
		test.That(t, len(cells), test.ShouldEqual, 1)
		test.That(t, cells[0].Origin(), test.ShouldResemble, spatialmath.NewVector(0, 0, 0))
		test.That(t, len(cells[0].Entries()), test.ShouldEqual, 2)
	})

	t.Run("entries pair points with payloads", func(t *testing.T) {
		tree := newScenarioTree(t, RegionContainment{})
		entries := tree.FindNearbyEntries(spatialmath.NewVector(6, 6, 6), 0.1)
		test.That(t, entries, test.ShouldResemble, []Entry[string]{{Point: spatialmath.NewVector(6, 6, 6), Data: "B"}})
	})
}
