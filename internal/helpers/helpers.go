package helpers

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// StringTrim strips whitespace and the quotes clients sometimes leave around ids.
func StringTrim(v string) string {
	return strings.Trim(strings.TrimSpace(v), "\"'")
}

func UploadImages(ctx context.Context, cld *cloudinary.Cloudinary, imageNames []string, imagePath string) ([]string, error) {
	var urls []string

	for _, filePath := range imageNames {
		if strings.TrimSpace(filePath) == "" {
			continue
		}
		uploadResult, err := cld.Upload.Upload(ctx, filePath, uploader.UploadParams{
			Folder: imagePath,
			Tags:   []string{"staybook"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %s: %w", filePath, err)
		}
		urls = append(urls, uploadResult.SecureURL)
	}

	return urls, nil
}

// CloudinaryUploader adapts UploadImages to the room service's uploader.
type CloudinaryUploader struct {
	Cld *cloudinary.Cloudinary
}

func (u CloudinaryUploader) Upload(ctx context.Context, sources []string, folder string) ([]string, error) {
	return UploadImages(ctx, u.Cld, sources, folder)
}
