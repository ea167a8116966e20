package report

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/domain/form"
	"github.com/Diego-Cesare/fala-icara/internal/domain/media"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/metrics"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/tracing"

	"github.com/go-pdf/fpdf"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Геометрия страницы A4 в миллиметрах
const (
	pageMargin = 14.0
	startY     = 18.0

	sectionTitleHeight = 10.0
	mapLinkHeight      = 6.0
	maxCardWidth       = 190.0
	maxCaptionLines    = 2

	fontFamily = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	colorText     = rgb{20, 35, 37}
	colorLink     = rgb{8, 92, 164}
	colorRule     = rgb{210, 220, 222}
	colorCardFill = rgb{248, 252, 252}
	colorCardLine = rgb{208, 221, 223}
)

// Assembler собирает PDF отчет из снимка формы и изображений
type Assembler struct {
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
	compress bool
}

// NewAssembler создает сборщик; время генерации выводится в часовом поясе loc
func NewAssembler(loc *time.Location, logger *zap.Logger) *Assembler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		loc:      loc,
		now:      time.Now,
		logger:   logger.Named("report"),
		compress: true,
	}
}

// Generate нормализует выбранные файлы и собирает отчет
func (a *Assembler) Generate(ctx context.Context, snap form.Snapshot, entries []media.Entry) (*Document, error) {
	start := time.Now()
	images := CollectImages(ctx, entries, a.logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := a.Build(ctx, snap, images)
	if err != nil {
		return nil, err
	}

	metrics.ReportDuration.WithLabelValues("pdf").Observe(time.Since(start).Seconds())
	a.logger.Info("report generated",
		zap.Int("pages", doc.Pages()),
		zap.Int("size", doc.Size()),
		zap.Int("images", len(images)),
		zap.Int("skipped_images", len(entries)-len(images)),
	)
	return doc, nil
}

// Build раскладывает отчет по страницам
func (a *Assembler) Build(ctx context.Context, snap form.Snapshot, images []Image) (*Document, error) {
	_, span := tracing.StartSpan(ctx, "Report.Build")
	defer span.End()
	span.SetAttributes(attribute.Int("report.images", len(images)))

	snap = snap.Trimmed()
	createdAt := a.now().In(a.loc)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(a.compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle("Registro de Ocorrência - "+snap.District, true)
	pdf.SetCreator("Conecta Içara", true)
	pdf.SetCreationDate(createdAt)
	pdf.AddPage()

	width, height := pdf.GetPageSize()
	l := &layout{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		cur: NewCursor(width, height, pageMargin, startY, pdf.AddPage),
	}

	l.header(snap.District, createdAt)

	l.sectionTitle("Dados do usuário")
	l.textBlock("Nome", snap.Name)
	l.textBlock("Telefone", snap.Phone)

	l.sectionTitle("Local do problema")
	l.textBlock("Bairro", snap.District)
	l.textBlock("Rua", snap.Street)
	l.mapLink(snap.MapLink())

	l.sectionTitle("Descrição")
	l.textBlock("Tipo", snap.Type)
	l.textBlock("Detalhes", snap.Description)

	l.imageGrid(images)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	doc := &Document{
		data:      buf.Bytes(),
		district:  snap.District,
		createdAt: createdAt,
		pages:     pdf.PageCount(),
	}
	metrics.PDFFileSizeBytes.Observe(float64(doc.Size()))
	metrics.PDFPages.Observe(float64(doc.Pages()))
	span.SetAttributes(attribute.Int("report.pages", doc.Pages()), attribute.Int("report.size", doc.Size()))
	return doc, nil
}

// layout рисует блоки, сдвигая курсор
type layout struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	cur *Cursor
}

func (l *layout) header(district string, createdAt time.Time) {
	l.setColor(colorText)
	l.pdf.SetFont(fontFamily, "B", 17)
	l.pdf.Text(l.cur.Margin, l.cur.Y, l.tr("Registro de Ocorrência - "+district))
	l.cur.Y += 6

	l.pdf.SetFont(fontFamily, "", 9)
	l.pdf.Text(l.cur.Margin, l.cur.Y, l.tr("Gerado em: "+createdAt.Format("02/01/2006, 15:04:05")))
	l.cur.Y += 8
}

func (l *layout) sectionTitle(title string) {
	l.cur.Ensure(sectionTitleHeight)

	l.setColor(colorText)
	l.pdf.SetFont(fontFamily, "B", 12)
	l.pdf.Text(l.cur.Margin, l.cur.Y, l.tr(title))
	l.cur.Y += 2

	l.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	l.pdf.Line(l.cur.Margin, l.cur.Y, l.cur.Width-l.cur.Margin, l.cur.Y)
	l.cur.Y += 5
}

func (l *layout) textBlock(label, value string) {
	if value == "" {
		value = "-"
	}

	l.setColor(colorText)
	l.pdf.SetFont(fontFamily, "", 10.5)
	lines := l.split(label+": "+value, l.cur.ContentWidth())
	blockHeight := float64(len(lines))*5 + 1

	l.cur.Ensure(blockHeight)
	l.drawLines(lines, l.cur.Margin, l.cur.Y, 10.5)
	l.cur.Y += blockHeight
}

func (l *layout) mapLink(url string) {
	if url == "" {
		l.textBlock("Localização no mapa", "Não capturada.")
		return
	}

	const (
		label    = "Localização no mapa: "
		linkText = "Abrir no Google Maps"
	)

	l.cur.Ensure(mapLinkHeight)

	l.pdf.SetFont(fontFamily, "", 10.5)
	l.setColor(colorText)
	l.pdf.Text(l.cur.Margin, l.cur.Y, l.tr(label))

	linkX := l.cur.Margin + l.pdf.GetStringWidth(l.tr(label))
	linkWidth := l.pdf.GetStringWidth(linkText)

	l.setColor(colorLink)
	l.pdf.Text(linkX, l.cur.Y, linkText)
	l.pdf.LinkString(linkX, l.cur.Y-4.2, linkWidth, 5, url)

	l.setColor(colorText)
	l.cur.Y += mapLinkHeight
}

func (l *layout) imageGrid(images []Image) {
	if len(images) == 0 {
		l.textBlock("Imagens", "Nenhuma imagem anexada.")
		return
	}

	l.sectionTitle("Imagens anexadas")

	totalWidth := l.cur.ContentWidth()
	cardWidth := math.Min(totalWidth, maxCardWidth)
	x := l.cur.Margin + (totalWidth-cardWidth)/2

	for i, img := range images {
		imageHeight := CardImageHeight(cardWidth, img.Width, img.Height)

		l.pdf.SetFont(fontFamily, "", 8)
		caption := l.split(img.Caption(), cardWidth-4)
		captionHeight := math.Max(4, float64(len(caption))*3.4)
		cardHeight := imageHeight + captionHeight + 4

		l.cur.Ensure(cardHeight)
		y := l.cur.Y

		l.pdf.SetFillColor(colorCardFill.r, colorCardFill.g, colorCardFill.b)
		l.pdf.SetDrawColor(colorCardLine.r, colorCardLine.g, colorCardLine.b)
		l.pdf.RoundedRect(x, y, cardWidth, cardHeight, 2, "1234", "FD")

		name := fmt.Sprintf("image-%d", i)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		l.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
		l.pdf.ImageOptions(name, x+2, y+2, cardWidth-4, imageHeight, false, opts, 0, "")

		if len(caption) > maxCaptionLines {
			caption = caption[:maxCaptionLines]
		}
		l.setColor(colorText)
		l.drawLines(caption, x+2, y+imageHeight+4.5, 8)

		l.cur.Y += cardHeight + 3
	}
}

// split разбивает текст по ширине текущим шрифтом; строки уже в кодировке cp1252
func (l *layout) split(text string, width float64) []string {
	raw := l.pdf.SplitLines([]byte(l.tr(text)), width)
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, string(line))
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

// drawLines рисует строки с межстрочным интервалом 1.15 размера шрифта
func (l *layout) drawLines(lines []string, x, y, fontSize float64) {
	lineHeight := fontSize * 1.15 * 25.4 / 72
	for i, line := range lines {
		l.pdf.Text(x, y+float64(i)*lineHeight, line)
	}
}

func (l *layout) setColor(c rgb) {
	l.pdf.SetTextColor(c.r, c.g, c.b)
}
