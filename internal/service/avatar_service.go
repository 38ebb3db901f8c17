package service

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"club-portal/pkg/apierror"
)

const avatarSize = 256

type avatarStore interface {
	UpdateAvatarURL(ctx context.Context, userID string, avatarURL string) error
}

// AvatarService decodes an uploaded image, downscales it to a square JPEG and
// records the public URL on the user row.
type AvatarService struct {
	root  string
	users avatarStore
}

func NewAvatarService(root string, users avatarStore) (*AvatarService, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar root: %w", err)
	}
	return &AvatarService{root: root, users: users}, nil
}

func (s *AvatarService) Root() string {
	return s.root
}

func (s *AvatarService) Upload(ctx context.Context, userID string, r io.Reader) (string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return "", apierror.Validation("cannot decode image", err.Error())
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return "", apierror.Validation("invalid image dimensions", "")
	}

	targetWidth, targetHeight := avatarSize, avatarSize
	if bounds.Dx() > bounds.Dy() {
		targetHeight = avatarSize * bounds.Dy() / bounds.Dx()
	} else {
		targetWidth = avatarSize * bounds.Dx() / bounds.Dy()
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	path := filepath.Join(s.root, userID+".jpg")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer file.Close()

	if err := jpeg.Encode(file, dst, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("encode avatar: %w", err)
	}

	avatarURL := "/avatars/" + userID + ".jpg"
	if err := s.users.UpdateAvatarURL(ctx, userID, avatarURL); err != nil {
		return "", err
	}
	return avatarURL, nil
}
