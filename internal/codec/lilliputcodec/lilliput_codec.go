// Package lilliputcodec implements codec.Codec on top of discord/lilliput
// (OpenCV, libjpeg-turbo, libpng, libwebp).
package lilliputcodec

import (
	"fmt"
	"os"

	"github.com/discord/lilliput"
	"github.com/h2non/filetype"

	"github.com/giobyte8/run-resize/internal/codec"
)

type LilliputCodec struct{}

func NewLilliputCodec() *LilliputCodec {
	return &LilliputCodec{}
}

func (c *LilliputCodec) Name() string {
	return "lilliput"
}

// Open reads the source into memory and parses its header. The encoded
// buffer is kept by the source, lilliput decoders are single use.
func (c *LilliputCodec) Open(path string) (codec.Source, error) {
	inputBuf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file %s: %w", path, err)
	}

	fileType, err := fileTypeOf(inputBuf)
	if err != nil {
		return nil, fmt.Errorf("unsupported source %s: %w", path, err)
	}

	decoder, err := lilliput.NewDecoder(inputBuf)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to create lilliput decoder for %s: %w",
			path,
			err,
		)
	}
	defer decoder.Close()

	header, err := decoder.Header()
	if err != nil {
		return nil, fmt.Errorf("failed to get image header for %s: %w", path, err)
	}

	width := header.Width()
	height := header.Height()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf(
			"invalid source image dimensions: width=%d, height=%d",
			width,
			height,
		)
	}

	return &lilliputSource{
		path:        path,
		inputBuf:    inputBuf,
		fileType:    fileType,
		width:       width,
		height:      height,
		orientation: int(header.Orientation()),
		interlaced:  codec.DetectInterlace(inputBuf),
	}, nil
}

type lilliputSource struct {
	path        string
	inputBuf    []byte
	fileType    string
	width       int
	height      int
	orientation int
	interlaced  bool

	ops          *lilliput.ImageOps
	opsMaxSize   int
	resizeBuffer []byte
}

func (s *lilliputSource) Width() int       { return s.width }
func (s *lilliputSource) Height() int      { return s.height }
func (s *lilliputSource) Interlaced() bool { return s.interlaced }

func (s *lilliputSource) WriteScaled(
	dst string,
	ratio float64,
	quality int,
) (codec.Output, error) {
	if s.inputBuf == nil {
		return codec.Output{}, fmt.Errorf("source image already closed")
	}

	tgtWidth, tgtHeight := codec.ScaledSize(s.width, s.height, ratio)

	// lilliput orients before resizing, so the requested box is the upright one
	if codec.SwapsAxes(s.orientation) {
		tgtWidth, tgtHeight = tgtHeight, tgtWidth
	}

	decoder, err := lilliput.NewDecoder(s.inputBuf)
	if err != nil {
		return codec.Output{}, fmt.Errorf(
			"failed to create lilliput decoder for %s: %w",
			s.path,
			err,
		)
	}
	defer decoder.Close()

	ops := s.imageOps(max(s.width, s.height, tgtWidth, tgtHeight))
	opts := &lilliput.ImageOptions{
		FileType:             s.fileType,
		Width:                tgtWidth,
		Height:               tgtHeight,
		ResizeMethod:         lilliput.ImageOpsResize,
		NormalizeOrientation: true,
		EncodeOptions:        encodeOptions(s.fileType, quality, s.interlaced),
	}

	resizedImgBuf, err := ops.Transform(decoder, opts, s.buffer(tgtWidth, tgtHeight))
	if err != nil {
		return codec.Output{}, fmt.Errorf(
			"failed to resize %s: %w",
			s.path,
			err,
		)
	}

	if err := os.WriteFile(dst, resizedImgBuf, 0644); err != nil {
		return codec.Output{}, fmt.Errorf(
			"failed to write resized file %s: %w",
			dst,
			err,
		)
	}

	return codec.Output{
		Width:  tgtWidth,
		Height: tgtHeight,
		Bytes:  int64(len(resizedImgBuf)),
	}, nil
}

func (s *lilliputSource) Close() error {
	if s.ops != nil {
		s.ops.Close()
		s.ops = nil
	}
	s.inputBuf = nil
	s.resizeBuffer = nil
	return nil
}

// imageOps returns ops able to hold images up to maxSize pixels on a side,
// replacing the current ones when a larger target comes along.
func (s *lilliputSource) imageOps(maxSize int) *lilliput.ImageOps {
	if s.ops != nil && maxSize <= s.opsMaxSize {
		return s.ops
	}
	if s.ops != nil {
		s.ops.Close()
	}
	s.ops = lilliput.NewImageOps(maxSize)
	s.opsMaxSize = maxSize
	return s.ops
}

// buffer returns an output buffer large enough for an uncompressed
// width x height RGBA frame.
func (s *lilliputSource) buffer(width, height int) []byte {
	need := width*height*4 + 1024*1024
	if len(s.resizeBuffer) < need {
		s.resizeBuffer = make([]byte, need)
	}
	return s.resizeBuffer
}

// fileTypeOf sniffs the encoded buffer. The output keeps the source's
// format whatever its file name says.
func fileTypeOf(buf []byte) (string, error) {
	kind, err := filetype.Match(buf)
	if err != nil {
		return "", err
	}
	switch kind.Extension {
	case "jpg":
		return ".jpeg", nil
	case "png", "webp", "gif":
		return "." + kind.Extension, nil
	case filetype.Unknown.Extension:
		return "", fmt.Errorf("unrecognized image content")
	}
	return "", fmt.Errorf("unsupported image type %s", kind.MIME.Value)
}

func encodeOptions(fileType string, quality int, progressive bool) map[int]int {
	switch fileType {
	case ".jpeg":
		opts := map[int]int{lilliput.JpegQuality: quality}
		if progressive {
			opts[lilliput.JpegProgressive] = 1
		}
		return opts
	case ".png":
		return map[int]int{lilliput.PngCompression: codec.PNGCompressionLevel(quality)}
	case ".webp":
		return map[int]int{lilliput.WebpQuality: quality}
	}
	return nil
}
