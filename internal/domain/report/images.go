package report

import (
	"context"
	"math"

	"github.com/Diego-Cesare/fala-icara/internal/domain/media"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/imaging"

	"go.uber.org/zap"
)

const (
	minImageHeight = 36.0
	maxImageHeight = 80.0
)

// Image нормализованное изображение для карточки отчета
type Image struct {
	Data   []byte
	Width  int
	Height int
	Source string
	Name   string
}

// Caption подпись "<источник> - <имя файла>"
func (i Image) Caption() string {
	return i.Source + " - " + i.Name
}

// CardImageHeight высота изображения в карточке по пропорциям, в пределах [36, 80] мм.
// Без известных размеров: 80.
func CardImageHeight(cardWidth float64, width, height int) float64 {
	if width <= 0 || height <= 0 {
		return maxImageHeight
	}
	ratio := float64(height) / float64(width)
	return math.Min(maxImageHeight, math.Max(minImageHeight, (cardWidth-4)*ratio))
}

// CollectImages нормализует выбранные файлы; нечитаемые изображения пропускаются
func CollectImages(ctx context.Context, entries []media.Entry, logger *zap.Logger) []Image {
	if logger == nil {
		logger = zap.NewNop()
	}

	images := make([]Image, 0, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		img, err := imaging.Normalize(e.File.Data, imaging.MaxDimensionPDF)
		if err != nil {
			logger.Warn("skipping unreadable image",
				zap.String("name", e.File.Name),
				zap.String("source", string(e.Source)),
				zap.Error(err),
			)
			continue
		}
		images = append(images, Image{
			Data:   img.Data,
			Width:  img.Width,
			Height: img.Height,
			Source: e.Source.Label(),
			Name:   e.File.Name,
		})
	}
	return images
}
