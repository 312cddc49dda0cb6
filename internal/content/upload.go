package content

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	FilesField = "attachments"
	KeepField  = "keepAttachments"
)

// Upload is the file part of a create or update request.
type Upload struct {
	Files []*multipart.FileHeader
	// Keep lists the ids of existing attachments to retain. KeepSet tells an
	// empty list apart from an absent one.
	Keep    []string
	KeepSet bool
}

// ReadUpload extracts files and the keep list from a multipart request.
// Other content types yield an empty Upload.
func ReadUpload(c echo.Context) (Upload, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return Upload{}, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return Upload{}, nil
		}
		return Upload{}, err
	}
	var up Upload
	up.Files = form.File[FilesField]
	if keep, ok := form.Value[KeepField]; ok {
		up.KeepSet = true
		for _, id := range keep {
			if id = strings.TrimSpace(id); id != "" {
				up.Keep = append(up.Keep, id)
			}
		}
	}
	return up, nil
}
