package report

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/domain/form"
	"github.com/Diego-Cesare/fala-icara/internal/domain/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	a := NewAssembler(loc, nil)
	a.compress = false
	a.now = func() time.Time { return time.Date(2024, 7, 4, 1, 30, 0, 0, time.UTC) }
	return a
}

func jpegImage(t *testing.T, w, h int) Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 10, G: 120, B: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return Image{Data: buf.Bytes(), Width: w, Height: h}
}

var snapshot = form.Snapshot{
	Name:        "Ana Souza",
	Phone:       "(48) 99999-0000",
	District:    "Centro",
	Street:      "Rua Vitória, 120",
	Type:        "Buraco na via",
	Description: "Buraco grande em frente ao número 120.",
	Latitude:    "-28.713300",
	Longitude:   "-49.300123",
}

func TestBuild_NoImages(t *testing.T) {
	doc, err := newTestAssembler(t).Build(context.Background(), snapshot, nil)
	require.NoError(t, err)

	out := doc.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, 1, doc.Pages(), "no blank images page")
	assert.Contains(t, string(out), "(Imagens: Nenhuma imagem anexada.)")
	assert.NotContains(t, string(out), "Imagens anexadas")
}

func TestBuild_MapLink(t *testing.T) {
	doc, err := newTestAssembler(t).Build(context.Background(), snapshot, nil)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Bytes()), "https://www.google.com/maps?q=-28.713300,-49.300123")
	assert.Contains(t, string(doc.Bytes()), "(Abrir no Google Maps)")

	noCoords := snapshot
	noCoords.Latitude = ""
	doc, err = newTestAssembler(t).Build(context.Background(), noCoords, nil)
	require.NoError(t, err)
	assert.NotContains(t, string(doc.Bytes()), "Abrir no Google Maps")
	assert.NotContains(t, string(doc.Bytes()), "google.com/maps")
}

func TestBuild_WithImages(t *testing.T) {
	images := []Image{jpegImage(t, 400, 300), jpegImage(t, 300, 900)}
	images[0].Source, images[0].Name = "Galeria", "buraco.jpg"
	images[1].Source, images[1].Name = "Câmera", "poste.jpg"

	doc, err := newTestAssembler(t).Build(context.Background(), snapshot, images)
	require.NoError(t, err)

	out := string(doc.Bytes())
	assert.Contains(t, out, "(Imagens anexadas)")
	assert.Contains(t, out, "(Galeria - buraco.jpg)")
	assert.NotContains(t, out, "Nenhuma imagem anexada")
	assert.Equal(t, 2, strings.Count(out, "/Subtype /Image"))
}

func TestBuild_PaginatesLongContent(t *testing.T) {
	long := snapshot
	long.Description = strings.Repeat("Calçada quebrada e sem iluminação. ", 120)

	images := make([]Image, 0, 4)
	for i := 0; i < 4; i++ {
		images = append(images, jpegImage(t, 100, 100))
	}

	doc, err := newTestAssembler(t).Build(context.Background(), long, images)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, doc.Pages(), 3)
}

func TestBuild_FileNameUsesReportTimezone(t *testing.T) {
	doc, err := newTestAssembler(t).Build(context.Background(), snapshot, nil)
	require.NoError(t, err)

	// 01:30 UTC 4 июля, а в Сан-Паулу еще 3 июля
	assert.Equal(t, "conecta-icara-centro-2024-07-03.pdf", doc.FileName())
	assert.Contains(t, string(doc.Bytes()), "Gerado em: 03/07/2024, 22:30:00")
}

func TestGenerate_SkipsInvalidImages(t *testing.T) {
	var png1 bytes.Buffer
	require.NoError(t, png.Encode(&png1, image.NewRGBA(image.Rect(0, 0, 20, 10))))

	entries := []media.Entry{
		{Source: media.SourceGallery, File: media.File{Name: "ok.png", ContentType: "image/png", Data: png1.Bytes()}},
		{Source: media.SourceCamera, File: media.File{Name: "broken.jpg", ContentType: "image/jpeg", Data: []byte("garbage")}},
	}

	doc, err := newTestAssembler(t).Generate(context.Background(), snapshot, entries)
	require.NoError(t, err)

	out := string(doc.Bytes())
	assert.Contains(t, out, "(Galeria - ok.png)")
	assert.NotContains(t, out, "broken.jpg")
}

func TestCardImageHeight(t *testing.T) {
	assert.Equal(t, 80.0, CardImageHeight(182, 0, 0))
	assert.Equal(t, 80.0, CardImageHeight(182, 100, 1000))
	assert.Equal(t, 36.0, CardImageHeight(182, 1000, 10))
	assert.InDelta(t, 59.333, CardImageHeight(182, 300, 100), 0.001)
}
