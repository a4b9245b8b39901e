package raster

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

// Formats accepted by Save. "same" keeps the decoded format and an "unsup:"
// prefix converts only formats that cannot be encoded.
var Formats = []string{"same", "gif", "unsup:gif", "jpeg", "unsup:jpeg", "png", "unsup:png", "bmp", "unsup:bmp", "tiff", "unsup:tiff"}

// Load decodes an image file and returns it with the detected format name.
func Load(path string) (*Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("could not open image %q: %w", path, err)
	}
	defer f.Close()

	img, imgType, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image %q: %w", path, err)
	}
	return FromImage(img), imgType, nil
}

// Save encodes img into destDir under srcName with its extension replaced by
// the output format. The file is written to a temporary name and renamed once
// fully encoded. It returns the final path.
func Save(img image.Image, imgType, outType, destDir, srcName string) (destPath string, err error) {
	outType, unsupOnly := strings.CutPrefix(outType, "unsup:")
	if (unsupOnly && imgType != "webp") || outType == "same" {
		outType = imgType
	}

	oldExt := filepath.Ext(srcName)
	destName := fmt.Sprintf("%s.%s", srcName[:len(srcName)-len(oldExt)], outType)
	destPath = filepath.Join(destDir, destName)

	outFile, err := os.CreateTemp(destDir, destName)
	if err != nil {
		return "", fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), destPath); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		} else {
			os.Remove(outFile.Name())
		}
	}()

	if m, ok := img.(*Image); ok {
		img = m.ToNRGBA()
	}

	switch outType {
	case "gif":
		err = gif.Encode(outFile, img, nil)
	case "jpeg":
		err = jpeg.Encode(outFile, img, &jpeg.Options{Quality: 100})
	case "png":
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		err = enc.Encode(outFile, img)
	case "bmp":
		err = bmp.Encode(outFile, img)
	case "tiff":
		err = tiff.Encode(outFile, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return "", fmt.Errorf("unsupported output format: %s", outType)
	}
	if err != nil {
		return "", fmt.Errorf("could not encode %s destination %q: %w", strings.ToUpper(outType), destName, err)
	}

	canRename = true
	return destPath, nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
