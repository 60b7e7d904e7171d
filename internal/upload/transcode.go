package upload

import (
	"bytes"
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const ContentTypeWebP = "image/webp"

// Transcoder 解码、按最大宽度等比缩小（不放大）、统一编码为有损 WebP
type Transcoder struct {
	MaxWidth int
	Quality  float32
}

func NewTranscoder(maxWidth int, quality float32) *Transcoder {
	return &Transcoder{MaxWidth: maxWidth, Quality: quality}
}

// Transcode 返回 WebP 字节与输出宽度
func (t *Transcoder) Transcode(r io.Reader) ([]byte, int, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, fmt.Errorf("decode image: %w", err)
	}

	if t.MaxWidth > 0 && img.Bounds().Dx() > t.MaxWidth {
		img = imaging.Resize(img, t.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: t.Quality}); err != nil {
		return nil, 0, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), img.Bounds().Dx(), nil
}
