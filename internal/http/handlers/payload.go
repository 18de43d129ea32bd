package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"blossoms/internal/domain"
	"blossoms/internal/services"
)

// fields collects the submitted values of a JSON, urlencoded or multipart
// body. Form keys that repeat, or that end in "[]", become native lists.
func fields(c *fiber.Ctx) (services.Fields, error) {
	f := services.Fields{}
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	switch {
	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON):
		if len(c.Body()) == 0 {
			return f, nil
		}
		// Numbers stay json.Number so prices keep every digit sent.
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		if err := dec.Decode(&f); err != nil || dec.Decode(new(any)) != io.EOF {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Malformed JSON body")
		}
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Malformed multipart body")
		}
		for k, vs := range form.Value {
			addFormValue(f, k, vs)
		}
	case strings.HasPrefix(ct, fiber.MIMEApplicationForm):
		values := map[string][]string{}
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			values[string(k)] = append(values[string(k)], string(v))
		})
		for k, vs := range values {
			addFormValue(f, k, vs)
		}
	case len(c.Body()) == 0:
	default:
		return nil, fiber.NewError(fiber.StatusUnsupportedMediaType, "Unsupported content type")
	}
	return f, nil
}

func addFormValue(f services.Fields, key string, vs []string) {
	if name, ok := strings.CutSuffix(key, "[]"); ok {
		f[name] = append([]string{}, vs...)
		return
	}
	if len(vs) == 1 {
		f[key] = vs[0]
		return
	}
	f[key] = append([]string{}, vs...)
}

// image returns the uploaded "image" file of a multipart request, or nil.
// The caller closes the returned image body with done.
func image(c *fiber.Ctx) (img *domain.Image, done func(), err error) {
	done = func() {}
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	if !strings.HasPrefix(ct, fiber.MIMEMultipartForm) {
		return nil, done, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, done, fiber.NewError(fiber.StatusBadRequest, "Malformed multipart body")
	}
	files := form.File["image"]
	if len(files) == 0 {
		return nil, done, nil
	}
	img, done, err = openImage(files[0])
	if err != nil {
		return nil, done, fiber.NewError(fiber.StatusBadRequest, "Malformed image upload")
	}
	return img, done, nil
}

func openImage(fh *multipart.FileHeader) (*domain.Image, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	contentType := fh.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	return &domain.Image{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
