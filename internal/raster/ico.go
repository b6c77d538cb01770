package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

// ICO container layout: a 6-byte header, 16-byte directory entries, then
// one PNG or headerless BMP (DIB) payload per entry.
const (
	icoHeaderLen   = 6
	icoEntryLen    = 16
	dibInfoLen     = 40
	bmpFileHeadLen = 14
)

var (
	errInvalidICO = errors.New("ico: invalid format")
	pngSignature  = []byte("\x89PNG\r\n\x1a\n")
)

func init() {
	image.RegisterFormat("ico", "\x00\x00\x01\x00", decodeICO, decodeICOConfig)
}

func decodeICO(r io.Reader) (image.Image, error) {
	payload, err := largestIcon(r)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(payload, pngSignature) {
		return png.Decode(bytes.NewReader(payload))
	}
	return decodeDIB(payload)
}

func decodeICOConfig(r io.Reader) (image.Config, error) {
	payload, err := largestIcon(r)
	if err != nil {
		return image.Config{}, err
	}
	if bytes.HasPrefix(payload, pngSignature) {
		return png.DecodeConfig(bytes.NewReader(payload))
	}
	h, err := parseDIBHeader(payload)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: h.width, Height: h.height}, nil
}

// largestIcon returns the payload of the directory entry with the most
// pixels. A width or height byte of 0 means 256.
func largestIcon(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b) < icoHeaderLen {
		return nil, errInvalidICO
	}
	count := int(binary.LittleEndian.Uint16(b[4:6]))
	if count == 0 || len(b) < icoHeaderLen+count*icoEntryLen {
		return nil, errInvalidICO
	}

	var best []byte
	bestArea := -1
	for i := range count {
		e := b[icoHeaderLen+i*icoEntryLen:]
		w, h := int(e[0]), int(e[1])
		if w == 0 {
			w = 256
		}
		if h == 0 {
			h = 256
		}
		size := uint64(binary.LittleEndian.Uint32(e[8:12]))
		offset := uint64(binary.LittleEndian.Uint32(e[12:16]))
		if offset+size > uint64(len(b)) {
			return nil, fmt.Errorf("%w: entry %d runs past end of file", errInvalidICO, i)
		}
		if w*h > bestArea {
			best, bestArea = b[offset:offset+size], w*h
		}
	}
	return best, nil
}

type dibHeader struct {
	infoLen   int
	width     int
	height    int // XOR image only; the stored height covers the AND mask too
	bpp       int
	colors    int
	pixOffset int
}

func parseDIBHeader(b []byte) (dibHeader, error) {
	if len(b) < dibInfoLen {
		return dibHeader{}, fmt.Errorf("%w: short bitmap header", errInvalidICO)
	}
	h := dibHeader{
		infoLen: int(binary.LittleEndian.Uint32(b[0:4])),
		width:   int(int32(binary.LittleEndian.Uint32(b[4:8]))),
		height:  int(int32(binary.LittleEndian.Uint32(b[8:12]))) / 2,
		bpp:     int(binary.LittleEndian.Uint16(b[14:16])),
		colors:  int(binary.LittleEndian.Uint32(b[32:36])),
	}
	if h.infoLen < dibInfoLen || h.width <= 0 || h.height <= 0 || h.width > 1024 || h.height > 1024 {
		return dibHeader{}, fmt.Errorf("%w: bitmap %dx%d", errInvalidICO, h.width, h.height)
	}
	if h.bpp <= 8 && h.colors == 0 {
		h.colors = 1 << h.bpp
	}
	if h.bpp > 8 {
		h.colors = 0
	}
	h.pixOffset = h.infoLen + h.colors*4
	return h, nil
}

// stride is the 4-byte aligned length of a row of width pixels at bpp bits.
func stride(width, bpp int) int {
	return (width*bpp + 31) / 32 * 4
}

// decodeDIB decodes a BMP payload and applies its trailing 1-bit AND mask.
// 32-bit payloads carry their own alpha; the mask is only used when every
// alpha byte is zero.
func decodeDIB(b []byte) (image.Image, error) {
	h, err := parseDIBHeader(b)
	if err != nil {
		return nil, err
	}
	xorLen := stride(h.width, h.bpp) * h.height
	if len(b) < h.pixOffset+xorLen {
		return nil, fmt.Errorf("%w: truncated bitmap", errInvalidICO)
	}

	var img *image.NRGBA
	useMask := true
	if h.bpp == 32 {
		img, useMask = decodeDIB32(b[h.pixOffset:], h.width, h.height)
	} else {
		img, err = decodeDIBWithBMP(b, h)
		if err != nil {
			return nil, err
		}
	}

	maskStart := h.pixOffset + xorLen
	if useMask && len(b) >= maskStart+stride(h.width, 1)*h.height {
		applyANDMask(img, b[maskStart:])
	}
	return img, nil
}

// decodeDIB32 reads bottom-up BGRA rows. The second result reports whether
// the alpha channel is empty.
func decodeDIB32(pix []byte, width, height int) (*image.NRGBA, bool) {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	noAlpha := true
	for y := range height {
		row := pix[(height-1-y)*width*4:]
		for x := range width {
			p := row[x*4 : x*4+4]
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = p[2], p[1], p[0], p[3]
			if p[3] != 0 {
				noAlpha = false
			}
		}
	}
	if noAlpha {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xFF
		}
	}
	return img, noAlpha
}

// decodeDIBWithBMP prepends a BMP file header with the halved height and
// hands the result to x/image/bmp, which reads the XOR rows only.
func decodeDIBWithBMP(b []byte, h dibHeader) (*image.NRGBA, error) {
	var buf bytes.Buffer
	buf.Grow(bmpFileHeadLen + len(b))
	buf.WriteString("BM")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(bmpFileHeadLen+len(b)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(bmpFileHeadLen+h.pixOffset))
	buf.Write(b[:8])
	_ = binary.Write(&buf, binary.LittleEndian, int32(h.height))
	buf.Write(b[12:])

	img, err := bmp.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("ico: %d-bit bitmap: %w", h.bpp, err)
	}
	return imaging.Clone(img), nil
}

// applyANDMask clears alpha wherever the bottom-up mask bit is set.
func applyANDMask(img *image.NRGBA, mask []byte) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	rowLen := stride(width, 1)
	for y := range height {
		row := mask[(height-1-y)*rowLen:]
		for x := range width {
			if row[x/8]&(0x80>>(x%8)) != 0 {
				img.Pix[img.PixOffset(x, y)+3] = 0
			}
		}
	}
}
