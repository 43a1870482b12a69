// Package detector implements QR code detection in binary images.
package detector

import (
	"math"

	qr "github.com/sadernalwis/qrcode"
	"github.com/sadernalwis/qrcode/bitutil"
	"github.com/sadernalwis/qrcode/internal"
	"github.com/sadernalwis/qrcode/qrcode/decoder"
	"github.com/sadernalwis/qrcode/transform"
)

// maxModules bounds the largest QR symbol the scan line spacing accounts
// for; minSkip is the closest those scan lines are ever allowed to be.
const (
	maxModules = 97
	minSkip    = 3
)

// FinderPattern represents a finder pattern with position and module size.
type FinderPattern struct {
	X, Y                float64
	EstimatedModuleSize float64
	Count               int
}

// FinderPatternInfo holds the three finder patterns.
type FinderPatternInfo struct {
	BottomLeft, TopLeft, TopRight *FinderPattern
}

// AlignmentPattern represents an alignment pattern.
type AlignmentPattern struct {
	X, Y                float64
	EstimatedModuleSize float64
}

// Detector detects QR codes in binary images.
type Detector struct {
	image *bitutil.BitMatrix
}

// NewDetector creates a new Detector for the given image.
func NewDetector(image *bitutil.BitMatrix) *Detector {
	return &Detector{image: image}
}

// Detect detects a QR code and returns the sampled bit matrix and corner points.
func (d *Detector) Detect(pureBarcode bool) (*internal.DetectorResult, error) {
	info, err := d.findFinderPatterns(pureBarcode)
	if err != nil {
		return nil, err
	}
	return d.processFinderPatternInfo(info)
}

func (d *Detector) processFinderPatternInfo(info *FinderPatternInfo) (*internal.DetectorResult, error) {
	topLeft, topRight, bottomLeft := info.TopLeft, info.TopRight, info.BottomLeft

	moduleSize := d.calculateModuleSize(topLeft, topRight, bottomLeft)
	if moduleSize < 1.0 {
		return nil, qr.ErrNotFound
	}

	dimension, err := computeDimension(topLeft, topRight, bottomLeft, moduleSize)
	if err != nil {
		return nil, err
	}

	provisionalVersion, err := decoder.GetProvisionalVersionForDimension(dimension)
	if err != nil {
		return nil, err
	}

	alignmentPattern := d.locateAlignmentPattern(topLeft, topRight, bottomLeft, provisionalVersion, moduleSize, dimension)

	xform := createTransform(topLeft, topRight, bottomLeft, alignmentPattern, dimension)
	sampler := &transform.DefaultGridSampler{}
	bits, err := sampler.SampleGridTransform(d.image, dimension, dimension, xform)
	if err != nil {
		return nil, err
	}

	corners := []internal.ResultPoint{
		{X: bottomLeft.X, Y: bottomLeft.Y},
		{X: topLeft.X, Y: topLeft.Y},
		{X: topRight.X, Y: topRight.Y},
	}
	if alignmentPattern != nil {
		corners = append(corners, internal.ResultPoint{X: alignmentPattern.X, Y: alignmentPattern.Y})
	}
	return internal.NewDetectorResult(bits, corners), nil
}

// locateAlignmentPattern estimates where the symbol's alignment pattern
// ought to be from the three finder patterns, then widens the search window
// in successive passes (4, 8, 16 modules) until one turns up or the
// attempts run out.
func (d *Detector) locateAlignmentPattern(topLeft, topRight, bottomLeft *FinderPattern, version *decoder.Version, moduleSize float64, dimension int) *AlignmentPattern {
	if len(version.AlignmentPatternCenters) == 0 {
		return nil
	}

	bottomRightX := topRight.X - topLeft.X + bottomLeft.X
	bottomRightY := topRight.Y - topLeft.Y + bottomLeft.Y
	correctionToTopLeft := 1.0 - 3.0/float64(dimension-7)
	estX := int(topLeft.X + correctionToTopLeft*(bottomRightX-topLeft.X))
	estY := int(topLeft.Y + correctionToTopLeft*(bottomRightY-topLeft.Y))

	for allowance := 4; allowance <= 16; allowance <<= 1 {
		if ap := d.findAlignmentInRegion(moduleSize, estX, estY, float64(allowance)); ap != nil {
			return ap
		}
	}
	return nil
}

func computeDimension(topLeft, topRight, bottomLeft *FinderPattern, moduleSize float64) (int, error) {
	tltrDist := distanceFP(topLeft, topRight)
	tlblDist := distanceFP(topLeft, bottomLeft)
	dimension := int(math.Round((tltrDist/moduleSize+tlblDist/moduleSize)/2.0)) + 7
	switch dimension % 4 {
	case 0:
		dimension++
	case 2:
		dimension--
	case 3:
		return 0, qr.ErrNotFound
	}
	return dimension, nil
}

func (d *Detector) calculateModuleSize(topLeft, topRight, bottomLeft *FinderPattern) float64 {
	return (d.calculateModuleSizeOneWay(topLeft, topRight) +
		d.calculateModuleSizeOneWay(topLeft, bottomLeft)) / 2.0
}

func (d *Detector) calculateModuleSizeOneWay(pattern, otherPattern *FinderPattern) float64 {
	forward := d.sizeOfBlackWhiteBlackRunBothWays(
		int(pattern.X), int(pattern.Y), int(otherPattern.X), int(otherPattern.Y))
	backward := d.sizeOfBlackWhiteBlackRunBothWays(
		int(otherPattern.X), int(otherPattern.Y), int(pattern.X), int(pattern.Y))
	switch {
	case math.IsNaN(forward):
		return backward / 7.0
	case math.IsNaN(backward):
		return forward / 7.0
	default:
		return (forward + backward) / 14.0
	}
}

// sizeOfBlackWhiteBlackRunBothWays measures the black-white-black run from
// (fromX, fromY) towards (toX, toY), then measures the same run extended in
// the opposite direction past the start point, clamped to the image bounds.
// Averaging the two halves cancels out error from the finder centers not
// being exactly where the estimate thinks they are.
func (d *Detector) sizeOfBlackWhiteBlackRunBothWays(fromX, fromY, toX, toY int) float64 {
	result := d.sizeOfBlackWhiteBlackRun(fromX, fromY, toX, toY)

	scale := 1.0
	otherToX := fromX - (toX - fromX)
	switch {
	case otherToX < 0:
		scale = float64(fromX) / float64(fromX-otherToX)
		otherToX = 0
	case otherToX >= d.image.Width():
		scale = float64(d.image.Width()-1-fromX) / float64(otherToX-fromX)
		otherToX = d.image.Width() - 1
	}
	otherToY := int(float64(fromY) - float64(toY-fromY)*scale)

	scale = 1.0
	switch {
	case otherToY < 0:
		scale = float64(fromY) / float64(fromY-otherToY)
		otherToY = 0
	case otherToY >= d.image.Height():
		scale = float64(d.image.Height()-1-fromY) / float64(otherToY-fromY)
		otherToY = d.image.Height() - 1
	}
	otherToX = int(float64(fromX) + float64(otherToX-fromX)*scale)

	return result + d.sizeOfBlackWhiteBlackRun(fromX, fromY, otherToX, otherToY) - 1.0
}

func (d *Detector) sizeOfBlackWhiteBlackRun(fromX, fromY, toX, toY int) float64 {
	steep := absInt(toY-fromY) > absInt(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}

	dx := absInt(toX - fromX)
	dy := absInt(toY - fromY)
	xstep, ystep := 1, 1
	if fromX > toX {
		xstep = -1
	}
	if fromY > toY {
		ystep = -1
	}

	const (
		lookingForBlack  = 0
		lookingForWhite  = 1
		lookingForBlack2 = 2
	)
	state := lookingForBlack
	xLimit := toX + xstep
	accum := -dx
	for x := fromX; x != xLimit; x += xstep {
		realX, realY := x, fromY+(x-fromX)*dy/dx*ystep
		if steep {
			realX, realY = realY, x
		}
		if realX < 0 || realX >= d.image.Width() || realY < 0 || realY >= d.image.Height() {
			break
		}

		if (state == lookingForWhite) == d.image.Get(realX, realY) {
			if state == lookingForBlack2 {
				dxAtHit := x - fromX
				dyAtHit := dxAtHit * dy / dx
				return math.Sqrt(float64(dxAtHit*dxAtHit) + float64(dyAtHit*dyAtHit))
			}
			state++
		}
		accum += 2 * dy
		if accum > 0 {
			if fromY == toY {
				break
			}
			fromY += ystep
			accum -= 2 * dx
		}
	}

	if state == lookingForBlack2 {
		return math.Sqrt(float64((toX-fromX+xstep)*(toX-fromX+xstep)) + float64((toY-fromY)*(toY-fromY)))
	}
	return math.NaN()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func createTransform(topLeft, topRight, bottomLeft *FinderPattern, alignmentPattern *AlignmentPattern, dimension int) *transform.PerspectiveTransform {
	dimMinusThree := float64(dimension) - 3.5
	var bottomRightX, bottomRightY, sourceBottomRightX, sourceBottomRightY float64

	if alignmentPattern != nil {
		bottomRightX, bottomRightY = alignmentPattern.X, alignmentPattern.Y
		sourceBottomRightX = dimMinusThree - 3.0
		sourceBottomRightY = sourceBottomRightX
	} else {
		bottomRightX = (topRight.X - topLeft.X) + bottomLeft.X
		bottomRightY = (topRight.Y - topLeft.Y) + bottomLeft.Y
		sourceBottomRightX = dimMinusThree
		sourceBottomRightY = dimMinusThree
	}

	return transform.QuadrilateralToQuadrilateral(
		3.5, 3.5, dimMinusThree, 3.5, sourceBottomRightX, sourceBottomRightY, 3.5, dimMinusThree,
		topLeft.X, topLeft.Y, topRight.X, topRight.Y, bottomRightX, bottomRightY, bottomLeft.X, bottomLeft.Y,
	)
}

func (d *Detector) findAlignmentInRegion(overallEstModuleSize float64, estAlignmentX, estAlignmentY int, allowanceFactor float64) *AlignmentPattern {
	allowance := int(allowanceFactor * overallEstModuleSize)
	left := max(0, estAlignmentX-allowance)
	top := max(0, estAlignmentY-allowance)
	right := min(d.image.Width()-1, estAlignmentX+allowance)
	bottom := min(d.image.Height()-1, estAlignmentY+allowance)

	width := right - left
	height := bottom - top
	if width < 0 || height < 0 {
		return nil
	}
	return d.findAlignmentPattern(left, top, width, height, overallEstModuleSize)
}

// findAlignmentPattern scans a square region for a single black run
// bracketed by white on each side, close in length to one module. Rows are
// visited outward from the middle of the region since the pattern is most
// likely to be found near the center of the estimate.
func (d *Detector) findAlignmentPattern(startX, startY, width, height int, moduleSize float64) *AlignmentPattern {
	middleY := startY + height/2
	for dy := 0; dy < height; dy++ {
		y := rowOutwardFromMiddle(middleY, dy)
		if y < startY || y >= startY+height {
			continue
		}

		var stateCount [3]int
		state := 0
		for x := startX; x < startX+width; x++ {
			if !d.image.Get(x, y) {
				if state == 1 {
					state = 2
				}
				stateCount[state]++
				continue
			}
			if state != 2 {
				state = 1
				stateCount[state]++
				continue
			}
			if matchesModuleSize(stateCount[:], moduleSize) {
				if ap := d.confirmAlignmentCenter(stateCount, x, y, moduleSize); ap != nil {
					return ap
				}
			}
			stateCount[0], stateCount[1], stateCount[2] = stateCount[2], 1, 0
			state = 1
		}
		if state == 2 && matchesModuleSize(stateCount[:], moduleSize) {
			if ap := d.confirmAlignmentCenter(stateCount, startX+width, y, moduleSize); ap != nil {
				return ap
			}
		}
	}
	return nil
}

func rowOutwardFromMiddle(middle, step int) int {
	if step%2 == 0 {
		return middle + (step+1)/2
	}
	return middle - (step+1)/2
}

func (d *Detector) confirmAlignmentCenter(stateCount [3]int, x, y int, moduleSize float64) *AlignmentPattern {
	centerX := float64(x) - float64(stateCount[2]) - float64(stateCount[1])/2.0
	centerY := d.crossCheckVerticalAlignment(int(centerX), y, 2*stateCount[1], moduleSize)
	if math.IsNaN(centerY) {
		return nil
	}
	return &AlignmentPattern{X: centerX, Y: centerY, EstimatedModuleSize: moduleSize}
}

func matchesModuleSize(counts []int, moduleSize float64) bool {
	maxVariance := moduleSize / 2.0
	for _, count := range counts {
		if math.Abs(float64(count)-moduleSize) >= maxVariance {
			return false
		}
	}
	return true
}

func (d *Detector) crossCheckVerticalAlignment(centerX, startY, maxCount int, moduleSize float64) float64 {
	maxY := d.image.Height()
	var stateCount [3]int

	y := startY
	for y >= 0 && d.image.Get(centerX, y) && stateCount[1] <= maxCount {
		stateCount[1]++
		y--
	}
	if y < 0 || stateCount[1] > maxCount {
		return math.NaN()
	}
	for y >= 0 && !d.image.Get(centerX, y) && stateCount[0] <= maxCount {
		stateCount[0]++
		y--
	}
	if stateCount[0] > maxCount {
		return math.NaN()
	}

	y = startY + 1
	for y < maxY && d.image.Get(centerX, y) && stateCount[1] <= maxCount {
		stateCount[1]++
		y++
	}
	if y == maxY || stateCount[1] > maxCount {
		return math.NaN()
	}
	for y < maxY && !d.image.Get(centerX, y) && stateCount[2] <= maxCount {
		stateCount[2]++
		y++
	}
	if stateCount[2] > maxCount {
		return math.NaN()
	}

	total := stateCount[0] + stateCount[1] + stateCount[2]
	if 5*absInt(total-int(moduleSize*3)) >= int(moduleSize*3) {
		return math.NaN()
	}
	return float64(y-stateCount[2]) - float64(stateCount[1])/2.0
}

// findFinderPatterns scans the image for the symbol's three position
// markers. It shares its per-row state machine and candidate bookkeeping
// with the multi-symbol scan in findAllFinderPatternGroups, via finderPatternFinder, but
// exits as soon as three consistent candidates turn up rather than
// finishing the whole image.
func (d *Detector) findFinderPatterns(pureBarcode bool) (*FinderPatternInfo, error) {
	height := d.image.Height()
	width := d.image.Width()

	skip := (3 * height) / (4 * maxModules)
	if skip < minSkip {
		skip = minSkip
	}
	if pureBarcode {
		skip = 1
	}

	finder := &finderPatternFinder{image: d.image}

	for y := skip - 1; y < height; y += skip {
		var stateCount [5]int
		state := 0
		for x := 0; x < width; x++ {
			if d.image.Get(x, y) {
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
			if isFinderPatternCross(stateCount) {
				confirmed := finder.handlePossibleCenter(stateCount, y, x)
				if confirmed && len(finder.possibleCenters) >= 3 {
					if best := selectBestPatterns(finder.possibleCenters); best != nil {
						return orderFinderPatterns(best), nil
					}
				}
			}
			shiftFinderStateCount(&stateCount)
			state = 3
		}
		if state == 4 && isFinderPatternCross(stateCount) {
			finder.handlePossibleCenter(stateCount, y, width)
		}
	}

	best := selectBestPatterns(finder.possibleCenters)
	if best == nil {
		return nil, qr.ErrNotFound
	}
	return orderFinderPatterns(best), nil
}

// isFinderPatternCross reports whether a 1:1:3:1:1 run of
// white:black:white:black:white (or the opposite polarity) matches a
// finder pattern's cross-section within tolerance.
func isFinderPatternCross(stateCount [5]int) bool {
	total := 0
	for _, count := range stateCount {
		if count == 0 {
			return false
		}
		total += count
	}
	if total < 7 {
		return false
	}
	moduleSize := float64(total) / 7.0
	maxVariance := moduleSize / 2.0
	return math.Abs(moduleSize-float64(stateCount[0])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[1])) < maxVariance &&
		math.Abs(3*moduleSize-float64(stateCount[2])) < 3*maxVariance &&
		math.Abs(moduleSize-float64(stateCount[3])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[4])) < maxVariance
}

// shiftFinderStateCount slides a finished 5-state run's trailing
// black:white:black into the leading position of the next candidate run,
// since it may be the start of the next finder pattern's cross-section.
func shiftFinderStateCount(stateCount *[5]int) {
	stateCount[0] = stateCount[2]
	stateCount[1] = stateCount[3]
	stateCount[2] = stateCount[4]
	stateCount[3] = 1
	stateCount[4] = 0
}

// finderPatternFinder accumulates candidate finder-pattern centers across
// scan lines, merging repeat sightings of the same center. Both the
// single-symbol and multi-symbol detectors drive one of these.
type finderPatternFinder struct {
	image           *bitutil.BitMatrix
	possibleCenters []*FinderPattern
}

// handlePossibleCenter validates a candidate cross-section found at row i,
// ending at column j, by cross-checking it vertically. A validated center is
// merged into an existing nearby candidate (returning true) or recorded as
// a new one (returning false).
func (f *finderPatternFinder) handlePossibleCenter(stateCount [5]int, i, j int) bool {
	total := 0
	for _, c := range stateCount {
		total += c
	}
	centerJ := float64(j) - float64(stateCount[4]+stateCount[3]) - float64(stateCount[2])/2.0
	centerI := f.crossCheckVertical(i, int(centerJ), stateCount[2], total)
	if math.IsNaN(centerI) {
		return false
	}

	estModuleSize := float64(total) / 7.0
	for idx, center := range f.possibleCenters {
		if center.aboutEquals(estModuleSize, centerI, centerJ) {
			f.possibleCenters[idx] = center.combineEstimate(centerI, centerJ, estModuleSize)
			return true
		}
	}
	f.possibleCenters = append(f.possibleCenters, &FinderPattern{
		X: centerJ, Y: centerI, EstimatedModuleSize: estModuleSize, Count: 1,
	})
	return false
}

func (fp *FinderPattern) aboutEquals(moduleSize, i, j float64) bool {
	if math.Abs(i-fp.Y) <= moduleSize && math.Abs(j-fp.X) <= moduleSize {
		moduleSizeDiff := math.Abs(moduleSize - fp.EstimatedModuleSize)
		return moduleSizeDiff <= 1.0 || moduleSizeDiff <= fp.EstimatedModuleSize
	}
	return false
}

func (fp *FinderPattern) combineEstimate(i, j, newModuleSize float64) *FinderPattern {
	n := fp.Count + 1
	return &FinderPattern{
		X:                   (float64(fp.Count)*fp.X + j) / float64(n),
		Y:                   (float64(fp.Count)*fp.Y + i) / float64(n),
		EstimatedModuleSize: (float64(fp.Count)*fp.EstimatedModuleSize + newModuleSize) / float64(n),
		Count:               n,
	}
}

func (f *finderPatternFinder) crossCheckVertical(startI, centerJ, maxCount, originalTotal int) float64 {
	maxI := f.image.Height()
	var stateCount [5]int

	i := startI
	for i >= 0 && f.image.Get(centerJ, i) {
		stateCount[2]++
		i--
	}
	if i < 0 {
		return math.NaN()
	}
	for i >= 0 && !f.image.Get(centerJ, i) && stateCount[1] <= maxCount {
		stateCount[1]++
		i--
	}
	if i < 0 || stateCount[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && f.image.Get(centerJ, i) && stateCount[0] <= maxCount {
		stateCount[0]++
		i--
	}
	if stateCount[0] > maxCount {
		return math.NaN()
	}

	i = startI + 1
	for i < maxI && f.image.Get(centerJ, i) {
		stateCount[2]++
		i++
	}
	if i == maxI {
		return math.NaN()
	}
	for i < maxI && !f.image.Get(centerJ, i) && stateCount[3] <= maxCount {
		stateCount[3]++
		i++
	}
	if i == maxI || stateCount[3] > maxCount {
		return math.NaN()
	}
	for i < maxI && f.image.Get(centerJ, i) && stateCount[4] <= maxCount {
		stateCount[4]++
		i++
	}
	if stateCount[4] > maxCount {
		return math.NaN()
	}

	totalNew := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	if 5*absInt(totalNew-originalTotal) >= 2*originalTotal {
		return math.NaN()
	}
	if isFinderPatternCross(stateCount) {
		return float64(i-stateCount[4]-stateCount[3]) - float64(stateCount[2])/2.0
	}
	return math.NaN()
}

// selectBestPatterns narrows a set of candidate centers down to the three
// that most plausibly form one symbol's finder patterns: similar module
// size, preferring centers seen on more than one scan line.
func selectBestPatterns(possibleCenters []*FinderPattern) []*FinderPattern {
	if len(possibleCenters) < 3 {
		return nil
	}
	if len(possibleCenters) == 3 {
		return possibleCenters
	}

	var totalModuleSize float64
	for _, center := range possibleCenters {
		totalModuleSize += center.EstimatedModuleSize
	}
	average := totalModuleSize / float64(len(possibleCenters))

	filtered := make([]*FinderPattern, 0, len(possibleCenters))
	for _, center := range possibleCenters {
		if math.Abs(center.EstimatedModuleSize-average) <= 0.5*average {
			filtered = append(filtered, center)
		}
	}
	if len(filtered) < 3 {
		filtered = possibleCenters
	}
	if len(filtered) < 3 {
		return nil
	}

	var repeated []*FinderPattern
	for _, c := range filtered {
		if c.Count >= 2 {
			repeated = append(repeated, c)
		}
	}
	if len(repeated) >= 3 {
		return repeated[:3]
	}
	return filtered[:3]
}

// orderFinderPatterns arranges three unordered finder-pattern candidates
// into bottom-left, top-left, top-right. The top-left corner is opposite
// the longest of the three pairwise distances (the symbol's diagonal); a
// cross product then tells the remaining two apart by orientation.
func orderFinderPatterns(patterns []*FinderPattern) *FinderPatternInfo {
	d01 := distanceFP(patterns[0], patterns[1])
	d12 := distanceFP(patterns[1], patterns[2])
	d02 := distanceFP(patterns[0], patterns[2])

	var topLeft, b, c *FinderPattern
	switch {
	case d12 >= d01 && d12 >= d02:
		topLeft, b, c = patterns[0], patterns[1], patterns[2]
	case d02 >= d01 && d02 >= d12:
		topLeft, b, c = patterns[1], patterns[0], patterns[2]
	default:
		topLeft, b, c = patterns[2], patterns[0], patterns[1]
	}

	cross := (b.X-topLeft.X)*(c.Y-topLeft.Y) - (b.Y-topLeft.Y)*(c.X-topLeft.X)
	if cross < 0 {
		b, c = c, b
	}

	return &FinderPatternInfo{BottomLeft: c, TopLeft: topLeft, TopRight: b}
}

func distanceFP(a, b *FinderPattern) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
