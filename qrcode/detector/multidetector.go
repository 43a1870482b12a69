package detector

import (
	"math"
	"sort"

	qr "github.com/sadernalwis/qrcode"
	"github.com/sadernalwis/qrcode/bitutil"
	"github.com/sadernalwis/qrcode/internal"
)

const (
	maxModuleCountPerEdge    = 180.0
	minModuleCountPerEdge    = 9.0
	diffModSizeCutoffPercent = 0.05
	diffModSizeCutoff        = 0.5
)

// DetectMulti detects every QR symbol present in the image, rather than
// stopping at the first. It scans the whole image for candidate finder
// patterns and then groups them combinatorially, so it costs more than
// Detect and is only worth it when more than one symbol may be present.
func DetectMulti(image *bitutil.BitMatrix, tryHarder bool) ([]*internal.DetectorResult, error) {
	groups, err := findAllFinderPatternGroups(image, tryHarder)
	if err != nil {
		return nil, err
	}

	det := &Detector{image: image}
	var results []*internal.DetectorResult
	for _, group := range groups {
		if result, err := det.processFinderPatternInfo(group); err == nil {
			results = append(results, result)
		}
	}
	if len(results) == 0 {
		return nil, qr.ErrNotFound
	}
	return results, nil
}

// findAllFinderPatternGroups scans the image every skip rows without exiting early
// to collect candidate finder-pattern centers, then partitions them into
// groups of three that plausibly belong to the same symbol.
func findAllFinderPatternGroups(image *bitutil.BitMatrix, tryHarder bool) ([]*FinderPatternInfo, error) {
	height := image.Height()
	width := image.Width()

	skip := (3 * height) / (4 * maxModules)
	if skip < minSkip || tryHarder {
		skip = minSkip
	}

	finder := &finderPatternFinder{image: image}
	for y := skip - 1; y < height; y += skip {
		var stateCount [5]int
		state := 0
		for x := 0; x < width; x++ {
			if image.Get(x, y) {
				if state&1 == 1 {
					state++
				}
				stateCount[state]++
				continue
			}
			if state&1 == 1 {
				stateCount[state]++
				continue
			}
			if state != 4 {
				state++
				stateCount[state]++
				continue
			}
			if isFinderPatternCross(stateCount) && finder.handlePossibleCenter(stateCount, y, x) {
				state = 0
				stateCount = [5]int{}
				continue
			}
			shiftFinderStateCount(&stateCount)
			state = 3
		}
		if isFinderPatternCross(stateCount) {
			finder.handlePossibleCenter(stateCount, y, width)
		}
	}

	triples, err := groupIntoTriples(finder.possibleCenters)
	if err != nil {
		return nil, err
	}

	var infos []*FinderPatternInfo
	for _, triple := range triples {
		infos = append(infos, orderFinderPatterns(triple[:]))
	}
	if len(infos) == 0 {
		return nil, qr.ErrNotFound
	}
	return infos, nil
}

// groupIntoTriples tries every combination of three repeat-sighted
// candidates, sorted by module size so nearby-sized candidates are
// adjacent, and keeps the ones whose pairwise geometry is consistent with
// a single QR symbol's three finder patterns.
func groupIntoTriples(possibleCenters []*FinderPattern) ([][3]*FinderPattern, error) {
	var repeated []*FinderPattern
	for _, fp := range possibleCenters {
		if fp.Count >= 2 {
			repeated = append(repeated, fp)
		}
	}
	n := len(repeated)
	if n < 3 {
		return nil, qr.ErrNotFound
	}
	if n == 3 {
		return [][3]*FinderPattern{{repeated[0], repeated[1], repeated[2]}}, nil
	}

	sort.Slice(repeated, func(i, j int) bool {
		return repeated[j].EstimatedModuleSize < repeated[i].EstimatedModuleSize
	})

	var triples [][3]*FinderPattern
	for i := 0; i < n-2; i++ {
		p1 := repeated[i]
		for j := i + 1; j < n-1; j++ {
			p2 := repeated[j]
			if !moduleSizesClose(p1, p2) {
				break
			}
			for k := j + 1; k < n; k++ {
				p3 := repeated[k]
				if !moduleSizesClose(p2, p3) {
					break
				}
				if candidate := geometricallyConsistentTriple(p1, p2, p3); candidate != nil {
					triples = append(triples, *candidate)
				}
			}
		}
	}
	if len(triples) == 0 {
		return nil, qr.ErrNotFound
	}
	return triples, nil
}

func moduleSizesClose(a, b *FinderPattern) bool {
	diff := math.Abs(a.EstimatedModuleSize - b.EstimatedModuleSize)
	if diff <= diffModSizeCutoff {
		return true
	}
	return diff/math.Min(a.EstimatedModuleSize, b.EstimatedModuleSize) < diffModSizeCutoffPercent
}

// geometricallyConsistentTriple checks that three candidates form a
// right-angled, roughly square arrangement of plausible symbol size,
// returning them in the order they were passed in if so.
func geometricallyConsistentTriple(p1, p2, p3 *FinderPattern) *[3]*FinderPattern {
	ordered := orderFinderPatterns([]*FinderPattern{p1, p2, p3})
	legA := distanceFP(ordered.TopLeft, ordered.BottomLeft)
	legB := distanceFP(ordered.TopLeft, ordered.TopRight)
	hyp := distanceFP(ordered.TopRight, ordered.BottomLeft)

	moduleCount := (legA + legB) / (p1.EstimatedModuleSize * 2.0)
	if moduleCount > maxModuleCountPerEdge || moduleCount < minModuleCountPerEdge {
		return nil
	}
	if math.Abs((legA-legB)/math.Min(legA, legB)) >= 0.1 {
		return nil
	}

	expectedHyp := math.Sqrt(legA*legA + legB*legB)
	if math.Abs((hyp-expectedHyp)/math.Min(hyp, expectedHyp)) >= 0.1 {
		return nil
	}
	return &[3]*FinderPattern{p1, p2, p3}
}
