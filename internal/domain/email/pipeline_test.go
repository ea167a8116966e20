package email

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/domain/form"
	"github.com/Diego-Cesare/fala-icara/internal/domain/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	calls  int
	params map[string]string
	err    error
}

func (f *fakeSender) Send(_ context.Context, params map[string]string) error {
	f.calls++
	f.params = params
	return f.err
}

type fakeUploader struct {
	name string
	data []byte
	url  string
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, filename string, data []byte) (string, error) {
	f.name = filename
	f.data = data
	return f.url, f.err
}

type fakeResolver struct {
	district, street string
	err              error
}

func (f *fakeResolver) Resolve(context.Context, float64, float64) (string, string, error) {
	return f.district, f.street, f.err
}

func newPipeline(t *testing.T, strategy Strategy, sender Sender, uploader Uploader, resolver Resolver) *Pipeline {
	t.Helper()
	return NewPipeline(Options{
		Strategy:  strategy,
		Sender:    sender,
		Uploader:  uploader,
		Resolver:  resolver,
		Recipient: "ouvidoria@example.org",
		Messages:  config.DefaultMessages().Email,
	})
}

func validSnapshot() form.Snapshot {
	return form.Snapshot{
		Name:        " Maria ",
		Phone:       "48 99999-0000",
		Type:        "Iluminação pública",
		Description: "Poste apagado há uma semana",
	}
}

func pngPhoto(t *testing.T) *media.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &media.File{Name: "poste.png", ContentType: "image/png", Data: buf.Bytes(), Size: int64(buf.Len())}
}

func TestValidate(t *testing.T) {
	p := newPipeline(t, Strategy{Photo: PhotoNone}, &fakeSender{}, nil, nil)
	msgs := config.DefaultMessages().Email.Validation

	tests := []struct {
		name        string
		issueType   string
		description string
		want        []FieldError
	}{
		{name: "valid", issueType: "Buraco", description: "0123456789"},
		{
			name:        "nine characters",
			issueType:   "Buraco",
			description: "  012345678  ",
			want:        []FieldError{{Field: "description", Message: msgs.DescriptionMinLength}},
		},
		{
			name:        "multibyte counted by runes",
			issueType:   "Buraco",
			description: "çãéíóúâêô!",
		},
		{
			name:        "missing everything",
			description: "   ",
			want: []FieldError{
				{Field: "issue_type", Message: msgs.IssueTypeRequired},
				{Field: "description", Message: msgs.DescriptionRequired},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(form.Snapshot{Type: tt.issueType, Description: tt.description})
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Fields)
			assert.True(t, verr.Validation())
		})
	}
}

func TestSubmit_ValidationSendsNothing(t *testing.T) {
	sender := &fakeSender{}
	p := newPipeline(t, Strategy{Photo: PhotoInline}, sender, nil, nil)

	snap := validSnapshot()
	snap.Description = "curta"
	res, err := p.Submit(context.Background(), snap, pngPhoto(t))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, res)
	assert.Zero(t, sender.calls)
	assert.False(t, errors.Is(err, ErrSendFailed))
}

func TestSubmit_PayloadWithoutCoordinates(t *testing.T) {
	sender := &fakeSender{}
	p := newPipeline(t, Strategy{Photo: PhotoInline}, sender, nil, nil)

	snap := validSnapshot()
	snap.District = "Centro"
	snap.Street = "Rua XV"
	res, err := p.Submit(context.Background(), snap, nil)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultMessages().Email.Success, res.Message)
	assert.Equal(t, map[string]string{
		"issue_type":  "Iluminação pública",
		"description": "Poste apagado há uma semana",
		"name":        "Maria",
		"phone":       "48 99999-0000",
		"to_email":    "ouvidoria@example.org",
		"location":    "Rua XV, Centro",
		"district":    "Centro",
		"street":      "Rua XV",
	}, sender.params)
	_, hasMap := sender.params["map_link"]
	assert.False(t, hasMap)
}

func TestSubmit_GeocodeFillsAddress(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{district: "Vila Nova", street: "Rua A, 12"}
	p := newPipeline(t, Strategy{Photo: PhotoNone, Geocode: true}, sender, nil, resolver)

	snap := validSnapshot()
	snap.Latitude = "-28.713000"
	snap.Longitude = "-49.300000"
	res, err := p.Submit(context.Background(), snap, nil)
	require.NoError(t, err)

	assert.Equal(t, "Rua A, 12, Vila Nova", sender.params["location"])
	assert.Equal(t, "Vila Nova", sender.params["district"])
	assert.Equal(t, "Rua A, 12", sender.params["street"])
	assert.Equal(t, "https://www.google.com/maps?q=-28.713000,-49.300000", sender.params["map_link"])
	assert.Contains(t, res.Progress, config.DefaultMessages().Email.GeolocateSuccess)
}

func TestSubmit_GeocodeFailureFallsBackToCoordinates(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{err: errors.New("nominatim down")}
	p := newPipeline(t, Strategy{Photo: PhotoNone, Geocode: true}, sender, nil, resolver)

	snap := validSnapshot()
	snap.Latitude = "-28.7131234"
	snap.Longitude = "-49.3009876"
	res, err := p.Submit(context.Background(), snap, nil)
	require.NoError(t, err)

	assert.Equal(t, "-28.71312, -49.30099", sender.params["location"])
	assert.Empty(t, sender.params["district"])
	assert.Contains(t, res.Progress, config.DefaultMessages().Email.GeolocateError)
	assert.Equal(t, 1, sender.calls)
}

func TestSubmit_InlinePhoto(t *testing.T) {
	sender := &fakeSender{}
	p := newPipeline(t, Strategy{Photo: PhotoInline}, sender, nil, nil)

	_, err := p.Submit(context.Background(), validSnapshot(), pngPhoto(t))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sender.params["photo_base64"], "data:image/jpeg;base64,"))
	_, hasURL := sender.params["photo_url"]
	assert.False(t, hasURL)
}

func TestSubmit_HostedPhoto(t *testing.T) {
	sender := &fakeSender{}
	uploader := &fakeUploader{url: "https://res.cloudinary.com/demo/image/upload/poste.jpg"}
	p := newPipeline(t, Strategy{Photo: PhotoHosted}, sender, uploader, nil)

	res, err := p.Submit(context.Background(), validSnapshot(), pngPhoto(t))
	require.NoError(t, err)

	assert.Equal(t, "poste.jpg", uploader.name)
	assert.NotEmpty(t, uploader.data)
	assert.Equal(t, uploader.url, sender.params["photo_url"])
	assert.Equal(t, []string{
		config.DefaultMessages().Email.UploadingImage,
		config.DefaultMessages().Email.Sending,
	}, res.Progress)
}

func TestSubmit_PhotoNoneIgnoresPhoto(t *testing.T) {
	sender := &fakeSender{}
	p := newPipeline(t, Strategy{Photo: PhotoNone}, sender, nil, nil)

	_, err := p.Submit(context.Background(), validSnapshot(), pngPhoto(t))
	require.NoError(t, err)
	assert.NotContains(t, sender.params, "photo_base64")
	assert.NotContains(t, sender.params, "photo_url")
}

func TestSubmit_UploadFailureAbortsSend(t *testing.T) {
	sender := &fakeSender{}
	uploader := &fakeUploader{err: errors.New("cloudinary 500")}
	p := newPipeline(t, Strategy{Photo: PhotoHosted}, sender, uploader, nil)

	_, err := p.Submit(context.Background(), validSnapshot(), pngPhoto(t))
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Zero(t, sender.calls)
}

func TestSubmit_InvalidPhotoAbortsSend(t *testing.T) {
	sender := &fakeSender{}
	p := newPipeline(t, Strategy{Photo: PhotoInline}, sender, nil, nil)

	photo := &media.File{Name: "broken.jpg", ContentType: "image/jpeg", Data: []byte("not an image")}
	_, err := p.Submit(context.Background(), validSnapshot(), photo)
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Zero(t, sender.calls)
}

func TestSubmit_SendFailureKeepsCause(t *testing.T) {
	cause := errors.New("status 400")
	p := newPipeline(t, Strategy{Photo: PhotoNone}, &fakeSender{err: cause}, nil, nil)

	_, err := p.Submit(context.Background(), validSnapshot(), nil)
	require.ErrorIs(t, err, ErrSendFailed)
	assert.ErrorIs(t, err, cause)
}

func TestJPEGName(t *testing.T) {
	assert.Equal(t, "poste.jpg", jpegName("poste.png"))
	assert.Equal(t, "foto.jpg", jpegName(""))
	assert.Equal(t, "IMG_01.jpg", jpegName("IMG_01"))
}

func TestParsePhotoStrategy(t *testing.T) {
	for in, want := range map[string]PhotoStrategy{
		"":       PhotoInline,
		"inline": PhotoInline,
		"HOSTED": PhotoHosted,
		" none ": PhotoNone,
	} {
		got, err := ParsePhotoStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePhotoStrategy("ftp")
	assert.Error(t, err)
}
