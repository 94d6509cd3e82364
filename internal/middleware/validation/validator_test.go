package validation

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trainReq struct {
	Model string `validate:"required,genremodel"`
	Split *int   `validate:"omitempty,min=60,max=90"`
}

func intPtr(v int) *int { return &v }

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(trainReq{Model: "cnn"}))
	assert.NoError(t, Struct(trainReq{Model: "RF", Split: intPtr(90)}))

	err := Struct(trainReq{Model: "resnet", Split: intPtr(95)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `model "resnet" is not one of`)
	assert.Contains(t, err.Error(), "split must be at most 90")

	err = Struct(trainReq{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
}

func multipartBody(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	part.Write([]byte("data"))
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{}))
	app.Post("/api/predict/:model/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Post("/api/train", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestMiddleware_Uploads(t *testing.T) {
	app := newApp()

	tests := []struct {
		filename string
		want     int
	}{
		{"song.wav", 200},
		{"SONG.MP3", 200},
		{"blues.00001.au", 200},
		{"notes.txt", 415},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename)
			req := httptest.NewRequest("POST", "/api/predict/cnn/", body)
			req.Header.Set("Content-Type", ct)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestMiddleware_ContentType(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("POST", "/api/train", strings.NewReader("model=cnn"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 415, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/train", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestNewValidator_RegistrationErrors(t *testing.T) {
	v, err := newValidator(customTags)
	require.NoError(t, err)
	assert.NotNil(t, v)

	_, err = newValidator(map[string]validator.Func{"genremodel": nil})
	assert.ErrorContains(t, err, `failed to register "genremodel" validation`)

	assert.Panics(t, func() { mustValidator(map[string]validator.Func{"": customTags["genremodel"]}) })
}
