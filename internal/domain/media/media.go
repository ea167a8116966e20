// Package media управляет выбором фотографий из двух источников (галерея и камера)
// с общим лимитом и защитой от повторного добавления одного и того же файла.
package media

import (
	"fmt"
	"strings"
	"time"
)

// MaxTotalFiles общий лимит файлов для обоих источников
const MaxTotalFiles = 2

// EmptyText текст пустого списка превью
const EmptyText = "Nenhuma imagem adicionada."

// Source источник файла
type Source string

const (
	SourceGallery Source = "gallery"
	SourceCamera  Source = "camera"
)

// ParseSource разбирает имя источника из URL
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(s)) {
	case SourceGallery:
		return SourceGallery, nil
	case SourceCamera:
		return SourceCamera, nil
	}
	return "", fmt.Errorf("unknown media source %q", s)
}

// Label подпись источника для пользователя
func (s Source) Label() string {
	if s == SourceCamera {
		return "Câmera"
	}
	return "Galeria"
}

func (s Source) other() Source {
	if s == SourceCamera {
		return SourceGallery
	}
	return SourceCamera
}

// File выбранный файл
type File struct {
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
	Data        []byte
}

// IsImage проверяет MIME тип image/*
func (f File) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}

// sameAs совпадение по имени, размеру и времени изменения
func (f File) sameAs(o File) bool {
	return f.Name == o.Name && f.Size == o.Size && f.ModTime.Equal(o.ModTime)
}

// Entry файл с меткой источника
type Entry struct {
	File   File
	Source Source
}

// Caption подпись карточки "<источник> - <имя>"
func (e Entry) Caption() string {
	return e.Source.Label() + " - " + e.File.Name
}

// Rejection причина, по которой файл не был добавлен
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

const (
	ReasonNotImage  = "not_image"
	ReasonLimit     = "limit"
	ReasonDuplicate = "duplicate"
)

// Counters счетчики в том виде, в каком их видит пользователь
type Counters struct {
	Gallery string `json:"gallery"`
	Camera  string `json:"camera"`
	Total   string `json:"total"`
}

// Snapshot состояние выбора после изменения
type Snapshot struct {
	GalleryCount int         `json:"gallery_count"`
	CameraCount  int         `json:"camera_count"`
	Counters     Counters    `json:"counters"`
	Previews     []Preview   `json:"previews"`
	Empty        string      `json:"empty,omitempty"`
	Rejected     []Rejection `json:"rejected,omitempty"`
}
