// Package form описывает значения полей формы на момент отправки.
package form

import (
	"fmt"
	"strconv"
	"strings"
)

// Snapshot неизменяемые значения полей формы
type Snapshot struct {
	Name        string `json:"name" form:"name"`
	Phone       string `json:"phone" form:"phone"`
	District    string `json:"district" form:"district"`
	Street      string `json:"street" form:"street"`
	Type        string `json:"issue_type" form:"issue_type"`
	Description string `json:"description" form:"description"`
	Location    string `json:"location" form:"location"`
	Latitude    string `json:"latitude" form:"latitude"`
	Longitude   string `json:"longitude" form:"longitude"`
	CapturedAt  string `json:"captured_at" form:"captured_at"`
}

// Trimmed возвращает копию с обрезанными пробелами во всех полях
func (s Snapshot) Trimmed() Snapshot {
	return Snapshot{
		Name:        strings.TrimSpace(s.Name),
		Phone:       strings.TrimSpace(s.Phone),
		District:    strings.TrimSpace(s.District),
		Street:      strings.TrimSpace(s.Street),
		Type:        strings.TrimSpace(s.Type),
		Description: strings.TrimSpace(s.Description),
		Location:    strings.TrimSpace(s.Location),
		Latitude:    strings.TrimSpace(s.Latitude),
		Longitude:   strings.TrimSpace(s.Longitude),
		CapturedAt:  strings.TrimSpace(s.CapturedAt),
	}
}

// HasCoordinates заданы ли обе координаты
func (s Snapshot) HasCoordinates() bool {
	return s.Latitude != "" && s.Longitude != ""
}

// Coordinates разбирает координаты
func (s Snapshot) Coordinates() (lat, lon float64, ok bool) {
	if !s.HasCoordinates() {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(s.Latitude, 64)
	lon, errLon := strconv.ParseFloat(s.Longitude, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// MapLink ссылка на Google Maps по координатам; пусто, если координат нет
func (s Snapshot) MapLink() string {
	if !s.HasCoordinates() {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s", s.Latitude, s.Longitude)
}
