package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/classifier"
)

var DefaultAudioExtensions = []string{".au", ".wav", ".mp3", ".flac", ".ogg", ".m4a"}

type Config struct {
	AllowedContentTypes []string
	// AudioExtensions restricts the "file" field of uploads on UploadPrefix.
	AudioExtensions []string
	UploadPrefix    string
	Logger          *zap.Logger
}

// Middleware rejects bodies of an unexpected content type and uploads that
// are not audio files. A missing upload is left to the handler.
func Middleware(cfg Config) fiber.Handler {
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json", "multipart/form-data"}
	}
	if len(cfg.AudioExtensions) == 0 {
		cfg.AudioExtensions = DefaultAudioExtensions
	}
	if cfg.UploadPrefix == "" {
		cfg.UploadPrefix = "/api/predict/"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	audio := make(map[string]bool, len(cfg.AudioExtensions))
	for _, ext := range cfg.AudioExtensions {
		audio[strings.ToLower(ext)] = true
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if contentType != "" {
			allowed := false
			for _, allowedType := range cfg.AllowedContentTypes {
				if strings.Contains(contentType, allowedType) {
					allowed = true
					break
				}
			}
			if !allowed {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		if strings.HasPrefix(c.Path(), cfg.UploadPrefix) {
			if fh, err := c.FormFile("file"); err == nil {
				ext := strings.ToLower(filepath.Ext(fh.Filename))
				if !audio[ext] {
					cfg.Logger.Warn("Rejected non-audio upload",
						zap.String("ip", c.IP()),
						zap.String("filename", fh.Filename),
					)
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported audio format",
					})
				}
			}
		}

		return c.Next()
	}
}

var customTags = map[string]validator.Func{
	"genremodel": func(fl validator.FieldLevel) bool {
		_, err := classifier.ParseModel(fl.Field().String())
		return err == nil
	},
}

var validate = mustValidator(customTags)

func newValidator(tags map[string]validator.Func) (*validator.Validate, error) {
	v := validator.New()
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("failed to register %q validation: %w", tag, err)
		}
	}
	return v, nil
}

func mustValidator(tags map[string]validator.Func) *validator.Validate {
	v, err := newValidator(tags)
	if err != nil {
		panic(err)
	}
	return v
}

// Struct validates s against its `validate` tags and flattens the failures
// into one readable message.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "genremodel":
		return fmt.Sprintf("%s %q is not one of %v", field, fe.Value(), classifier.Models)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
