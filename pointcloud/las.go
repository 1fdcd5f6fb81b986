package pointcloud

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/color"

	"github.com/edaniels/lidario"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/octree/logging"
	"go.viam.com/octree/spatialmath"
)

// pointValueDataTag encodes if the point has value data.
const pointValueDataTag = "rc|pv"

// minPreciseFloat64 and maxPreciseFloat64 bound the integers a float64 represents exactly.
const (
	maxPreciseFloat64 = float64(1 << 53)
	minPreciseFloat64 = -maxPreciseFloat64
)

// ReadLASFile returns the points of a LAS file. If any lossiness of points could occur from reading
// it in, it's reported but is not an error.
func ReadLASFile(fn string, logger logging.Logger) ([]PointAndData, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	var hasValue bool
	var valueData []byte
	for _, d := range lf.VlrData {
		if d.Description == pointValueDataTag {
			hasValue = true
			valueData = d.BinaryData
			break
		}
	}
	if hasValue && len(valueData) < lf.Header.NumberPoints*8 {
		return nil, errors.Errorf("value data holds %d bytes, expected %d", len(valueData), lf.Header.NumberPoints*8)
	}

	points := make([]PointAndData, 0, min(lf.Header.NumberPoints, maxPreallocatedPoints))
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()

		x, y, z := data.X, data.Y, data.Z
		if x < minPreciseFloat64 || x > maxPreciseFloat64 ||
			y < minPreciseFloat64 || y > maxPreciseFloat64 ||
			z < minPreciseFloat64 || z > maxPreciseFloat64 {
			logger.Warnw("potential floating point lossiness for LAS point",
				"point", data, "range", fmt.Sprintf("[%f,%f]", minPreciseFloat64, maxPreciseFloat64))
		}

		dd := NewBasicData()
		if lf.Header.PointFormatID == 2 && p.RgbData() != nil {
			r := uint8(p.RgbData().Red / 256)
			g := uint8(p.RgbData().Green / 256)
			b := uint8(p.RgbData().Blue / 256)
			dd = NewColoredData(color.NRGBA{r, g, b, 255})
		}
		if hasValue {
			dd.SetValue(int(binary.LittleEndian.Uint64(valueData[i*8 : (i*8)+8])))
		}

		points = append(points, PointAndData{P: spatialmath.NewVector(x, y, z), D: dd})
	}
	return points, nil
}

// WriteLASFile writes the points out to a LAS file.
func WriteLASFile(points []PointAndData, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	colored := hasColor(points)
	hasValue := false
	for _, p := range points {
		if p.D != nil && p.D.HasValue() {
			hasValue = true
			break
		}
	}

	pointFormatID := 0
	if colored {
		pointFormatID = 2
	}
	if err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: byte(pointFormatID),
	}); err != nil {
		return
	}

	var pVals []int
	if hasValue {
		pVals = make([]int, 0, len(points))
	}
	for _, p := range points {
		var lp lidario.LasPointer
		pr0 := &lidario.PointRecord0{
			// floating point lossiness validated/warned on load
			X: p.P.X,
			Y: p.P.Y,
			Z: p.P.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			ScanAngle:     0,
			UserData:      0,
			PointSourceID: 1,
		}
		lp = pr0

		if colored {
			red, green, blue := 255, 255, 255
			if p.D != nil && p.D.HasColor() {
				r, g, b := p.D.RGB255()
				red, green, blue = int(r), int(g), int(b)
			}
			lp = &lidario.PointRecord2{
				PointRecord0: pr0,
				RGB: &lidario.RgbData{
					Red:   uint16(red * 256),
					Green: uint16(green * 256),
					Blue:  uint16(blue * 256),
				},
			}
		}
		if hasValue {
			if p.D != nil && p.D.HasValue() {
				pVals = append(pVals, p.D.Value())
			} else {
				pVals = append(pVals, 0)
			}
		}
		if err = lf.AddLasPoint(lp); err != nil {
			return
		}
	}

	if hasValue {
		var buf bytes.Buffer
		for _, v := range pVals {
			encoded := make([]byte, 8)
			binary.LittleEndian.PutUint64(encoded, uint64(v))
			buf.Write(encoded)
		}
		if err = lf.AddVLR(lidario.VLR{
			UserID:                  "",
			Description:             pointValueDataTag,
			BinaryData:              buf.Bytes(),
			RecordLengthAfterHeader: buf.Len(),
		}); err != nil {
			return
		}
	}

	return
}
