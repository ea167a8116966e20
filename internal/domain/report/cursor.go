package report

// Cursor вертикальная позиция на странице. Блок высоты h помещается,
// только если Y + h <= MaxY, где MaxY = Height - Margin.
type Cursor struct {
	Y      float64
	Margin float64
	Width  float64
	Height float64
	MaxY   float64

	newPage func()
}

// NewCursor создает курсор; newPage вызывается при переходе на новую страницу
func NewCursor(width, height, margin, startY float64, newPage func()) *Cursor {
	return &Cursor{
		Y:       startY,
		Margin:  margin,
		Width:   width,
		Height:  height,
		MaxY:    height - margin,
		newPage: newPage,
	}
}

// Fits помещается ли блок высоты h на текущей странице
func (c *Cursor) Fits(h float64) bool {
	return c.Y+h <= c.MaxY
}

// Ensure начинает новую страницу, если блок не помещается. Возвращает true при переносе.
func (c *Cursor) Ensure(h float64) bool {
	if c.Fits(h) {
		return false
	}
	if c.newPage != nil {
		c.newPage()
	}
	c.Y = c.Margin
	return true
}

// ContentWidth ширина области между полями
func (c *Cursor) ContentWidth() float64 {
	return c.Width - 2*c.Margin
}
