package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"hehememe/internal/config"
	"hehememe/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaDir             = "/tmp/hehememe/media"
	DefaultMediaMaxUploadSizeMB = 10
	MemeMaxSize                 = 2048
	ReactionMaxSize             = 640
	JPEGQuality                 = 82
	WebPQuality                 = 70
)

// MediaKind selects the storage subdirectory and resize bound.
type MediaKind string

const (
	MediaKindMeme     MediaKind = "memes"
	MediaKindReaction MediaKind = "reactions"
)

type StoreMediaInput struct {
	UserID      uint
	Kind        MediaKind
	Filename    string
	ContentType string
	Content     []byte
}

// StoredMedia describes a persisted image and its public URLs.
type StoredMedia struct {
	Hash      string `json:"hash"`
	URL       string `json:"url"`
	WebPURL   string `json:"webp_url"`
	SizeBytes int64  `json:"size_bytes"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// MediaService validates, normalizes, and stores uploaded images. Every
// accepted upload is re-encoded as a JPEG master plus a WebP variant so
// clients never receive untouched user bytes.
type MediaService struct {
	mediaDir           string
	baseURL            string
	maxUploadSizeBytes int64
}

func NewMediaService(cfg *config.Config) *MediaService {
	mediaDir := DefaultMediaDir
	baseURL := "/media"
	maxUploadSizeMB := DefaultMediaMaxUploadSizeMB

	if cfg != nil {
		if cfg.MediaDir != "" {
			mediaDir = cfg.MediaDir
		}
		if cfg.MediaBaseURL != "" {
			baseURL = strings.TrimRight(cfg.MediaBaseURL, "/")
		}
		if cfg.MediaMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.MediaMaxUploadSizeMB
		}
	}

	return &MediaService{
		mediaDir:           mediaDir,
		baseURL:            baseURL,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (s *MediaService) MediaDir() string {
	return s.mediaDir
}

func (s *MediaService) Store(in StoreMediaInput) (*StoredMedia, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	kind := in.Kind
	if kind != MediaKindMeme && kind != MediaKindReaction {
		return nil, models.NewValidationError("Invalid media kind")
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if in.ContentType != "" && !isMatchingContentType(in.ContentType, detectedType) {
		return nil, models.NewValidationError("Content type does not match file contents")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	maxSize := MemeMaxSize
	if kind == MediaKindReaction {
		maxSize = ReactionMaxSize
	}
	master := resizeToFit(decoded, maxSize, maxSize)

	encodedJPG, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	encodedWebP, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := buildDeterministicMediaHash(in.UserID, in.Content)
	jpgRel := filepath.ToSlash(filepath.Join(string(kind), hash+".jpg"))
	webpRel := filepath.ToSlash(filepath.Join(string(kind), hash+".webp"))
	jpgAbs := filepath.Join(s.mediaDir, string(kind), hash+".jpg")
	webpAbs := filepath.Join(s.mediaDir, string(kind), hash+".webp")

	if err := writeBytesToFile(jpgAbs, encodedJPG); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpAbs, encodedWebP); err != nil {
		cleanupMediaFiles([]string{jpgAbs})
		return nil, models.NewInternalError(err)
	}

	bounds := master.Bounds()
	return &StoredMedia{
		Hash:      hash,
		URL:       s.baseURL + "/" + jpgRel,
		WebPURL:   s.baseURL + "/" + webpRel,
		SizeBytes: int64(len(encodedJPG)),
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
	}, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func buildDeterministicMediaHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupMediaFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
