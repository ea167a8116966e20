package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

// Messages каталог пользовательских сообщений
type Messages struct {
	Location LocationMessages `yaml:"location"`
	PDF      PDFMessages      `yaml:"pdf"`
	Email    EmailMessages    `yaml:"email"`
}

type LocationMessages struct {
	LocateLabel   string `yaml:"locate_label"`
	Fallback      string `yaml:"fallback"`
	Unsupported   string `yaml:"unsupported"`
	NotCaptured   string `yaml:"not_captured"`
	Capturing     string `yaml:"capturing"`
	Retrying      string `yaml:"retrying"`
	Resolving     string `yaml:"resolving"`
	Filled        string `yaml:"filled"`
	Partial       string `yaml:"partial"`
	GeocodeFailed string `yaml:"geocode_failed"`
	Errors        struct {
		Denied      string `yaml:"denied"`
		Unavailable string `yaml:"unavailable"`
		Timeout     string `yaml:"timeout"`
		Default     string `yaml:"default"`
	} `yaml:"errors"`
}

type PDFMessages struct {
	DownloadLabel  string `yaml:"download_label"`
	ShareLabel     string `yaml:"share_label"`
	BusyLabel      string `yaml:"busy_label"`
	Downloaded     string `yaml:"downloaded"`
	DownloadFailed string `yaml:"download_failed"`
	Shared         string `yaml:"shared"`
	ShareFallback  string `yaml:"share_fallback"`
	ShareCancelled string `yaml:"share_cancelled"`
	ShareFailed    string `yaml:"share_failed"`
	ShareTitle     string `yaml:"share_title"`
	ShareText      string `yaml:"share_text"`
}

type EmailMessages struct {
	SubmitLabel      string `yaml:"submit_label"`
	BusyLabel        string `yaml:"busy_label"`
	Sending          string `yaml:"sending"`
	UploadingImage   string `yaml:"uploading_image"`
	Success          string `yaml:"success"`
	Error            string `yaml:"error"`
	Geolocating      string `yaml:"geolocating"`
	GeolocateSuccess string `yaml:"geolocate_success"`
	GeolocateError   string `yaml:"geolocate_error"`
	Validation       struct {
		IssueTypeRequired    string `yaml:"issue_type_required"`
		DescriptionRequired  string `yaml:"description_required"`
		DescriptionMinLength string `yaml:"description_min_length"`
	} `yaml:"validation"`
}

// LoadMessages разбирает встроенный каталог сообщений
func LoadMessages() (*Messages, error) {
	var m Messages
	if err := yaml.Unmarshal(messagesYAML, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedded messages.yaml: %w", err)
	}
	return &m, nil
}

// DefaultMessages возвращает встроенный каталог; встроенный файл всегда валиден
func DefaultMessages() *Messages {
	m, err := LoadMessages()
	if err != nil {
		panic(err)
	}
	return m
}
