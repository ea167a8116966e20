package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"time"

	// Декодеры форматов, которые присылают телефоны и галерея
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/metrics"
)

const (
	// MaxDimensionPDF ограничение длинной стороны для изображений в PDF
	MaxDimensionPDF = 1400
	// MaxDimensionEmail ограничение длинной стороны для фото в письме
	MaxDimensionEmail = 1600

	// Quality качество JPEG (0.85)
	Quality = 85

	// MaxPixels предел width*height исходного изображения до декодирования
	MaxPixels = 50_000_000
)

// ErrDecode изображение не удалось декодировать
var ErrDecode = errors.New("failed to decode image")

// Image нормализованное JPEG изображение
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// DataURL возвращает изображение в виде data:image/jpeg;base64,...
func (i *Image) DataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Normalize декодирует изображение, уменьшает его так, чтобы длинная сторона
// не превышала maxDimension, и перекодирует в JPEG.
func Normalize(data []byte, maxDimension int) (*Image, error) {
	start := time.Now()
	defer func() {
		metrics.ImageNormalizeDuration.Observe(time.Since(start).Seconds())
	}()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	width, height := ScaledSize(bounds.Dx(), bounds.Dy(), maxDimension)

	// JPEG без альфа-канала: прозрачные области ложатся на белый фон
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &Image{
		Data:   buf.Bytes(),
		Width:  width,
		Height: height,
	}, nil
}

// ScaledSize вычисляет размер после масштабирования с коэффициентом
// min(1, max/max(w,h)); каждая сторона округляется и не меньше 1.
func ScaledSize(width, height, maxDimension int) (int, int) {
	longest := width
	if height > longest {
		longest = height
	}

	scale := 1.0
	if maxDimension > 0 && longest > maxDimension {
		scale = float64(maxDimension) / float64(longest)
	}

	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
