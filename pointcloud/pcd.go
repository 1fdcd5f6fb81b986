package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/octree/spatialmath"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

type pcdFieldType int

const (
	pcdPointOnly  pcdFieldType = 3
	pcdPointColor pcdFieldType = 4
)

type pcdValType string

const (
	pcdValFloat pcdValType = "F"
	pcdValInt   pcdValType = "I"
	pcdValUInt  pcdValType = "U"
)

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

type pcdHeader struct {
	fields    pcdFieldType
	size      []uint64
	valTypes  []pcdValType
	count     []uint64
	width     uint64
	height    uint64
	viewpoint [7]float64
	points    uint64
	data      PCDType
}

func hasColor(points []PointAndData) bool {
	for _, p := range points {
		if p.D != nil && p.D.HasColor() {
			return true
		}
	}
	return false
}

func colorToPCDInt(d Data) int {
	if d == nil || !d.HasColor() {
		return 255 << 16
	}

	r, g, b := d.RGB255()
	x := 0

	x |= (int(r) << 16)
	x |= (int(g) << 8)
	x |= (int(b) << 0)
	return x
}

func pcdIntToColor(c int) color.NRGBA {
	r := uint8(0xFF & (c >> 16))
	g := uint8(0xFF & (c >> 8))
	b := uint8(0xFF & (c >> 0))
	return color.NRGBA{r, g, b, 255}
}

// WritePCD writes the points out in the PCD format. Positions are written as 32-bit floats.
func WritePCD(out io.Writer, points []PointAndData, outputType PCDType) error {
	if outputType == PCDCompressed {
		return errors.New("compressed PCD not yet implemented")
	}
	colored := hasColor(points)

	if _, err := fmt.Fprintf(out, "VERSION .7\n"); err != nil {
		return err
	}
	var err error
	if colored {
		_, err = fmt.Fprintf(out, "FIELDS x y z rgb\n"+
			"SIZE 4 4 4 4\n"+
			"TYPE F F F I\n"+
			"COUNT 1 1 1 1\n")
	} else {
		_, err = fmt.Fprintf(out, "FIELDS x y z\n"+
			"SIZE 4 4 4\n"+
			"TYPE F F F\n"+
			"COUNT 1 1 1\n")
	}
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		len(points),
		1,
		len(points)); err != nil {
		return err
	}

	dataName := "ascii"
	if outputType == PCDBinary {
		dataName = "binary"
	}
	if _, err := fmt.Fprintf(out, "DATA %s\n", dataName); err != nil {
		return err
	}

	for _, p := range points {
		if err := writePCDPoint(out, p, colored, outputType); err != nil {
			return err
		}
	}
	return nil
}

func writePCDPoint(out io.Writer, p PointAndData, colored bool, outputType PCDType) error {
	var err error
	switch outputType {
	case PCDBinary:
		buf := make([]byte, 12, 16)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(p.P.X)))
		binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(p.P.Y)))
		binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(p.P.Z)))
		if colored {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(colorToPCDInt(p.D)))
		}
		_, err = out.Write(buf)
	case PCDAscii:
		if colored {
			_, err = fmt.Fprintf(out, "%f %f %f %d\n", p.P.X, p.P.Y, p.P.Z, colorToPCDInt(p.D))
		} else {
			_, err = fmt.Fprintf(out, "%f %f %f\n", p.P.X, p.P.Y, p.P.Z)
		}
	case PCDCompressed:
		err = errors.New("compressed PCD not yet implemented")
	}
	return err
}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	tokens := strings.Fields(value)
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		switch strings.Join(tokens, " ") {
		case "x y z":
			header.fields = pcdPointOnly
		case "x y z rgb":
			header.fields = pcdPointColor
		default:
			return errors.Errorf("unsupported pcd fields %s", value)
		}
	case "SIZE":
		if len(tokens) != int(header.fields) {
			return errors.New("unexpected number of fields in SIZE line")
		}
		header.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Errorf("invalid SIZE field %s", token)
			}
			if header.size[i] != 4 {
				return errors.Errorf("unsupported SIZE %d, only 4 byte fields are supported", header.size[i])
			}
		}
	case "TYPE":
		if len(tokens) != int(header.fields) {
			return errors.New("unexpected number of fields in TYPE line")
		}
		header.valTypes = make([]pcdValType, len(tokens))
		for i, token := range tokens {
			switch t := pcdValType(token); t {
			case pcdValFloat, pcdValInt, pcdValUInt:
				header.valTypes[i] = t
			default:
				return errors.Errorf("invalid TYPE field %s", token)
			}
		}
	case "COUNT":
		if len(tokens) != int(header.fields) {
			return errors.New("unexpected number of fields in COUNT line")
		}
		header.count = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.count[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid COUNT field %s", token)
			}
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid WIDTH field %s", value)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid HEIGHT field %s", value)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
		for i, token := range tokens {
			header.viewpoint[i], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid VIEWPOINT field %s", token)
			}
		}
	case "POINTS":
		header.points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid POINTS field %s", value)
		}
		if header.points != header.width*header.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", header.points, header.width*header.height)
		}
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	}

	return nil
}

// ReadPCD reads points from an ascii or binary PCD stream.
func ReadPCD(inRaw io.Reader) ([]PointAndData, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading header line %d", headerLineCount)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}

	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	case PCDCompressed:
		return nil, errors.New("compressed pcd not yet supported")
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
}

// maxPreallocatedPoints bounds the capacity reserved from a file's declared point count, which is
// untrusted. Larger clouds grow by append.
const maxPreallocatedPoints = 1 << 16

func readPCDAscii(in *bufio.Reader, header pcdHeader) ([]PointAndData, error) {
	points := make([]PointAndData, 0, min(header.points, maxPreallocatedPoints))
	for i := uint64(0); i < header.points; i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "error reading point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != int(header.fields) {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		values := make([]float64, len(tokens))
		for j, token := range tokens {
			values[j], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid point %d field %s", i, token)
			}
		}
		points = append(points, sliceToPoint(values, header))
	}
	return points, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) ([]PointAndData, error) {
	points := make([]PointAndData, 0, min(header.points, maxPreallocatedPoints))
	buf := make([]byte, 4)
	for i := uint64(0); i < header.points; i++ {
		values := make([]float64, int(header.fields))
		for j := range values {
			if _, err := io.ReadFull(in, buf); err != nil {
				return nil, errors.Wrapf(err, "error reading point %d", i)
			}
			bits := binary.LittleEndian.Uint32(buf)
			switch header.valTypes[j] {
			case pcdValFloat:
				values[j] = float64(math.Float32frombits(bits))
			case pcdValInt:
				values[j] = float64(int32(bits))
			case pcdValUInt:
				values[j] = float64(bits)
			}
		}
		points = append(points, sliceToPoint(values, header))
	}
	return points, nil
}

func sliceToPoint(values []float64, header pcdHeader) PointAndData {
	pos := spatialmath.NewVector(values[0], values[1], values[2])
	if header.fields == pcdPointColor {
		return PointAndData{P: pos, D: NewColoredData(pcdIntToColor(int(values[3])))}
	}
	return PointAndData{P: pos, D: NewBasicData()}
}
