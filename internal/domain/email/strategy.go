package email

import (
	"fmt"
	"strings"
)

// PhotoStrategy способ приложить фото к письму
type PhotoStrategy string

const (
	PhotoNone   PhotoStrategy = "none"
	PhotoInline PhotoStrategy = "inline"
	PhotoHosted PhotoStrategy = "hosted"
)

// ParsePhotoStrategy разбирает EMAIL_PHOTO_STRATEGY
func ParsePhotoStrategy(s string) (PhotoStrategy, error) {
	switch PhotoStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case PhotoNone:
		return PhotoNone, nil
	case PhotoInline, "":
		return PhotoInline, nil
	case PhotoHosted:
		return PhotoHosted, nil
	}
	return "", fmt.Errorf("unknown photo strategy %q", s)
}

// Strategy вариант email пайплайна
type Strategy struct {
	Photo   PhotoStrategy
	Geocode bool
}
